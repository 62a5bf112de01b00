package codec

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

// Encode serializes v to oxdb's binary wire format: a one-byte tag
// followed by a type-specific body. All lengths are 4-byte big-endian;
// int and float payloads are 8-byte big-endian.
func Encode(v Value) ([]byte, error) {
	buf := make([]byte, 0, 16)
	return appendValue(buf, v)
}

func appendValue(buf []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindNull:
		buf = append(buf, byte(KindNull))
		buf = appendU32(buf, v.nullLen)
		for i := uint32(0); i < v.nullLen; i++ {
			buf = append(buf, 0)
		}
		return buf, nil

	case KindString:
		if !utf8.ValidString(v.str) {
			return nil, ouxerr.New(ouxerr.Internal, "encode: invalid utf-8 string", nil)
		}
		buf = append(buf, byte(KindString))
		buf = appendU32(buf, uint32(len(v.str)))
		buf = append(buf, v.str...)
		return buf, nil

	case KindInt:
		buf = append(buf, byte(KindInt))
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v.i64))
		buf = append(buf, b[:]...)
		return buf, nil

	case KindFloat:
		buf = append(buf, byte(KindFloat))
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v.f64))
		buf = append(buf, b[:]...)
		return buf, nil

	case KindList, KindTuple:
		buf = append(buf, byte(v.kind))
		buf = appendU32(buf, uint32(len(v.seq)))
		var err error
		for _, e := range v.seq {
			buf, err = appendValue(buf, e)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil

	case KindMap:
		buf = append(buf, byte(KindMap))
		buf = appendU32(buf, uint32(len(v.m)))
		var err error
		for k, val := range v.m {
			buf, err = appendValue(buf, String(k))
			if err != nil {
				return nil, err
			}
			buf, err = appendValue(buf, val)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil

	default:
		return nil, ouxerr.New(ouxerr.Internal, "encode: unsupported value kind", nil)
	}
}

func appendU32(buf []byte, n uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	return append(buf, b[:]...)
}

// Decode reads one encoded Value starting at data[0] and returns the
// decoded Value plus the number of bytes consumed.
func Decode(data []byte) (Value, int, error) {
	return decodeAt(data, 0)
}

func decodeAt(data []byte, pos int) (Value, int, error) {
	if pos >= len(data) {
		return Value{}, 0, ouxerr.New(ouxerr.BadFormat, "truncated: no tag byte", nil)
	}
	tag := Kind(data[pos])
	switch tag {
	case KindNull:
		n, err := readU32(data, pos+1)
		if err != nil {
			return Value{}, 0, err
		}
		end := pos + 5 + int(n)
		if end > len(data) {
			return Value{}, 0, ouxerr.New(ouxerr.BadFormat, "truncated: null body", nil)
		}
		return Null(n), end - pos, nil

	case KindString:
		n, err := readU32(data, pos+1)
		if err != nil {
			return Value{}, 0, err
		}
		start := pos + 5
		end := start + int(n)
		if end > len(data) {
			return Value{}, 0, ouxerr.New(ouxerr.BadFormat, "truncated: string body", nil)
		}
		raw := data[start:end]
		if !utf8.Valid(raw) {
			return Value{}, 0, ouxerr.New(ouxerr.BadFormat, "invalid utf-8 in string value", nil)
		}
		return String(string(raw)), end - pos, nil

	case KindInt:
		end := pos + 9
		if end > len(data) {
			return Value{}, 0, ouxerr.New(ouxerr.BadFormat, "truncated: int body", nil)
		}
		u := binary.BigEndian.Uint64(data[pos+1 : end])
		return Int(int64(u)), end - pos, nil

	case KindFloat:
		end := pos + 9
		if end > len(data) {
			return Value{}, 0, ouxerr.New(ouxerr.BadFormat, "truncated: float body", nil)
		}
		u := binary.BigEndian.Uint64(data[pos+1 : end])
		return Float(math.Float64frombits(u)), end - pos, nil

	case KindList, KindTuple:
		n, err := readU32(data, pos+1)
		if err != nil {
			return Value{}, 0, err
		}
		cursor := pos + 5
		items := make([]Value, 0, n)
		for i := uint32(0); i < n; i++ {
			el, adv, err := decodeAt(data, cursor)
			if err != nil {
				return Value{}, 0, err
			}
			items = append(items, el)
			cursor += adv
		}
		if tag == KindList {
			return List(items...), cursor - pos, nil
		}
		return Tuple(items...), cursor - pos, nil

	case KindMap:
		n, err := readU32(data, pos+1)
		if err != nil {
			return Value{}, 0, err
		}
		cursor := pos + 5
		m := make(map[string]Value, n)
		for i := uint32(0); i < n; i++ {
			key, adv, err := decodeAt(data, cursor)
			if err != nil {
				return Value{}, 0, err
			}
			cursor += adv
			if key.Kind() != KindString {
				return Value{}, 0, ouxerr.New(ouxerr.BadFormat, "map key is not a string", nil)
			}
			val, adv2, err := decodeAt(data, cursor)
			if err != nil {
				return Value{}, 0, err
			}
			cursor += adv2
			k, _ := key.AsString()
			m[k] = val
		}
		return Map(m), cursor - pos, nil

	default:
		return Value{}, 0, ouxerr.New(ouxerr.BadFormat, "bad tag byte", nil).
			WithDetail("tag", string(rune(tag)))
	}
}

func readU32(data []byte, pos int) (uint32, error) {
	if pos+4 > len(data) {
		return 0, ouxerr.New(ouxerr.BadFormat, "truncated: length prefix", nil)
	}
	return binary.BigEndian.Uint32(data[pos : pos+4]), nil
}

// DecodeAll repeatedly decodes Values from data until the buffer is
// exhausted, as used by a raw scan of a data file from offset zero.
func DecodeAll(data []byte) ([]Value, error) {
	var out []Value
	pos := 0
	for pos < len(data) {
		v, adv, err := decodeAt(data, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		pos += adv
	}
	return out, nil
}
