package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode(encode(v)) must reproduce v for the whole Value domain.
func TestRoundTrip(t *testing.T) {
	values := []Value{
		String("hello world"),
		String(""),
		Int(0),
		Int(-123456789),
		Float(3.14159),
		Float(-0.0),
		List(Int(1), String("two"), Float(3.0)),
		Tuple(Int(1), Int(2)),
		Map(map[string]Value{"a": Int(1), "b": String("x")}),
		Null(12),
		List(List(Int(1)), Tuple(String("nested"), Map(map[string]Value{"k": Null(3)}))),
	}

	for _, v := range values {
		encoded, err := Encode(v)
		require.NoError(t, err)

		decoded, n, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, len(encoded), n)
		assert.True(t, Equal(v, decoded), "round trip mismatch for %v", v)
	}
}

func TestDecodeAll(t *testing.T) {
	var buf []byte
	for _, v := range []Value{String("a"), Int(7), Null(4)} {
		b, err := Encode(v)
		require.NoError(t, err)
		buf = append(buf, b...)
	}

	decoded, err := DecodeAll(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	s, _ := decoded[0].AsString()
	assert.Equal(t, "a", s)
	i, _ := decoded[1].AsInt()
	assert.Equal(t, int64(7), i)
	assert.Equal(t, uint32(4), decoded[2].NullLen())
}

func TestDecodeBadTag(t *testing.T) {
	_, _, err := Decode([]byte{'z', 0, 0, 0, 0})
	require.Error(t, err)
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := Decode([]byte{'s', 0, 0, 0, 10, 'a', 'b'})
	require.Error(t, err)
}

func TestDecodeBadUtf8(t *testing.T) {
	data := []byte{'s', 0, 0, 0, 1, 0xff}
	_, _, err := Decode(data)
	require.Error(t, err)
}

func TestNullFillerIsZeroed(t *testing.T) {
	encoded, err := Encode(Null(3))
	require.NoError(t, err)
	require.Len(t, encoded, 1+4+3)
	for _, b := range encoded[5:] {
		assert.Equal(t, byte(0), b)
	}
}
