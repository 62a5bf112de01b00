package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecBinaryRoundTrip(t *testing.T) {
	c := New(MethodBinary)
	v := Map(map[string]Value{"": String("payload")})
	enc, err := c.Encode(v)
	require.NoError(t, err)
	dec, err := c.Decode(enc)
	require.NoError(t, err)
	assert.True(t, Equal(v, dec))
}

func TestCodecJSONRoundTrip(t *testing.T) {
	c := New(MethodJSON)
	v := Map(map[string]Value{"": List(Int(1), Int(2))})
	enc, err := c.Encode(v)
	require.NoError(t, err)
	dec, err := c.Decode(enc)
	require.NoError(t, err)
	assert.True(t, Equal(v, dec))
}

func TestCodecDecodeFallsBackToAlternate(t *testing.T) {
	jsonBytes, err := EncodeJSON(Map(map[string]Value{"": String("x")}))
	require.NoError(t, err)

	c := New(MethodBinary)
	v, err := c.Decode(jsonBytes)
	require.NoError(t, err)
	m, ok := v.AsMap()
	require.True(t, ok)
	s, _ := m[""].AsString()
	assert.Equal(t, "x", s)
}

func TestCodecDecodeBothFail(t *testing.T) {
	c := New(MethodBinary)
	_, err := c.Decode([]byte{0xff, 0xff})
	require.Error(t, err)
}
