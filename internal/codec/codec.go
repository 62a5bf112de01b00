package codec

import "github.com/ox-ai/oxdb-lite/internal/ouxerr"

// Method names the wire format a Codec uses by default.
type Method string

const (
	MethodBinary Method = "oxdbin"
	MethodJSON   Method = "json"
)

// Codec dispatches Encode/Decode to one of the two wire formats, and on
// Decode falls back to the other format before giving up.
type Codec struct {
	Method Method
}

// New returns a Codec defaulting to method, or MethodBinary if method is empty.
func New(method Method) Codec {
	if method == "" {
		method = MethodBinary
	}
	return Codec{Method: method}
}

// Encode serializes v using the codec's configured method.
func (c Codec) Encode(v Value) ([]byte, error) {
	if c.Method == MethodJSON {
		return EncodeJSON(v)
	}
	return Encode(v)
}

// Decode parses data with the configured method, falling back to the
// other method if the first attempt fails to decode.
func (c Codec) Decode(data []byte) (Value, error) {
	first, second := decodeBinary, decodeJSONWhole
	if c.Method == MethodJSON {
		first, second = decodeJSONWhole, decodeBinary
	}
	if v, err := first(data); err == nil {
		return v, nil
	}
	if v, err := second(data); err == nil {
		return v, nil
	}
	return Value{}, ouxerr.New(ouxerr.BadFormat, "could not decode with oxdbin or json", nil)
}

func decodeBinary(data []byte) (Value, error) {
	v, adv, err := decodeAt(data, 0)
	if err != nil {
		return Value{}, err
	}
	if adv != len(data) {
		return Value{}, ouxerr.New(ouxerr.BadFormat, "trailing bytes after decode", nil)
	}
	return v, nil
}

func decodeJSONWhole(data []byte) (Value, error) {
	return DecodeJSON(data)
}
