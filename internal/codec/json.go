package codec

import (
	"encoding/json"

	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

// EncodeJSON renders v as JSON. Tuples serialize as JSON arrays (the same
// shape as lists) and filler Values serialize as null — both lossy on the
// way back in, which is why the JSON codec is only used for import/export
// and as MemStore's alternate-decode fallback, never for the data file.
func EncodeJSON(v Value) ([]byte, error) {
	return json.Marshal(toJSONAny(v))
}

func toJSONAny(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindString:
		return v.str
	case KindInt:
		return v.i64
	case KindFloat:
		return v.f64
	case KindList, KindTuple:
		items := make([]any, len(v.seq))
		for i, e := range v.seq {
			items[i] = toJSONAny(e)
		}
		return items
	case KindMap:
		m := make(map[string]any, len(v.m))
		for k, e := range v.m {
			m[k] = toJSONAny(e)
		}
		return m
	default:
		return nil
	}
}

// DecodeJSON parses JSON bytes into a Value. Whole numbers decode as Int,
// everything else numeric decodes as Float. Tuples come back as lists and
// filler comes back as a zero-length null, so the JSON format does not
// round-trip the full Value domain.
func DecodeJSON(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, ouxerr.New(ouxerr.BadFormat, "invalid json", err)
	}
	return fromJSONAny(raw), nil
}

func fromJSONAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null(0)
	case string:
		return String(x)
	case bool:
		if x {
			return Int(1)
		}
		return Int(0)
	case float64:
		if x == float64(int64(x)) {
			return Int(int64(x))
		}
		return Float(x)
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			items[i] = fromJSONAny(e)
		}
		return List(items...)
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			m[k] = fromJSONAny(e)
		}
		return Map(m)
	default:
		return Null(0)
	}
}
