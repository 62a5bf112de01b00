package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ox-ai/oxdb-lite/internal/codec"
)

func TestPutGet(t *testing.T) {
	c := New(2)
	c.Put("a", codec.String("1"))

	v, ok := c.Get("a")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "1", s)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put("a", codec.Int(1))
	c.Put("b", codec.Int(2))
	// touch "a" so "b" becomes the LRU victim
	_, _ = c.Get("a")
	c.Put("c", codec.Int(3))

	assert.False(t, c.Contains("b"))
	assert.True(t, c.Contains("a"))
	assert.True(t, c.Contains("c"))
}

func TestDelete(t *testing.T) {
	c := New(4)
	c.Put("a", codec.Int(1))
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestDefaultCapacityOnNonPositive(t *testing.T) {
	c := New(0)
	for i := 0; i < DefaultCapacity+5; i++ {
		c.Put(string(rune('a'+i%26))+string(rune(i)), codec.Int(int64(i)))
	}
	assert.LessOrEqual(t, c.Len(), DefaultCapacity)
}
