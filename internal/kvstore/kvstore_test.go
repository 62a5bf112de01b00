package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ox-ai/oxdb-lite/internal/codec"
)

func open(t *testing.T) *KVStore {
	t.Helper()
	s, err := Open(t.TempDir(), Options{})
	require.NoError(t, err)
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	s := open(t)
	_, err := s.Set("a", codec.String("hello"))
	require.NoError(t, err)

	v, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	str, _ := v.AsString()
	assert.Equal(t, "hello", str)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	s := open(t)
	_, ok, err := s.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetShrinkThenGrowReusesSpace(t *testing.T) {
	s := open(t)
	_, err := s.Set("a", codec.String("a long string value"))
	require.NoError(t, err)
	_, err = s.Set("a", codec.String("short"))
	require.NoError(t, err)
	require.Greater(t, s.free.Len(), 0)

	_, err = s.Set("a", codec.String("a long string value again"))
	require.NoError(t, err)
	v, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	str, _ := v.AsString()
	assert.Equal(t, "a long string value again", str)
}

func TestDeleteReturnsAllExisted(t *testing.T) {
	s := open(t)
	_, err := s.Add(map[string]codec.Value{"a": codec.Int(1), "b": codec.Int(2)})
	require.NoError(t, err)

	allExisted, err := s.Delete([]string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, allExisted)

	allExisted, err = s.Delete([]string{"a", "missing"})
	require.NoError(t, err)
	assert.False(t, allExisted)
}

func TestDeleteIsNotErrorForMissingKey(t *testing.T) {
	s := open(t)
	allExisted, err := s.Delete([]string{"never-existed"})
	require.NoError(t, err)
	assert.False(t, allExisted)
}

func TestCompactEmptiesFreeIndex(t *testing.T) {
	s := open(t)
	_, err := s.Add(map[string]codec.Value{"a": codec.Int(1), "b": codec.Int(2), "c": codec.Int(3)})
	require.NoError(t, err)
	_, err = s.Delete([]string{"b"})
	require.NoError(t, err)
	require.Greater(t, s.free.Len(), 0)

	data, err := s.Compact()
	require.NoError(t, err)
	assert.Equal(t, 0, s.free.Len())
	assert.Len(t, data, 2)
}

func TestReopenPreservesLogicalMapping(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	s, err := Open(dir, Options{})
	require.NoError(t, err)
	_, err = s.Add(map[string]codec.Value{"a": codec.String("x"), "b": codec.Int(7)})
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	reopened, err := Open(dir, Options{})
	require.NoError(t, err)
	v, ok, err := reopened.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	str, _ := v.AsString()
	assert.Equal(t, "x", str)

	v2, ok, err := reopened.Get("b")
	require.NoError(t, err)
	require.True(t, ok)
	n, _ := v2.AsInt()
	assert.Equal(t, int64(7), n)
}

func TestToJSONFromJSONRoundTrip(t *testing.T) {
	src := open(t)
	_, err := src.Add(map[string]codec.Value{"a": codec.String("x"), "b": codec.Int(1)})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, src.ToJSON(path))

	dst := open(t)
	require.NoError(t, dst.FromJSON(path))

	v, ok, err := dst.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	str, _ := v.AsString()
	assert.Equal(t, "x", str)
}

func TestKeysAndLen(t *testing.T) {
	s := open(t)
	_, err := s.Add(map[string]codec.Value{"a": codec.Int(1), "b": codec.Int(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.ElementsMatch(t, []string{"a", "b"}, s.Keys())
}

func TestLockRejectsSecondHolder(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir, Options{})
	require.NoError(t, err)
	unlock, err := first.Lock()
	require.NoError(t, err)

	second, err := Open(dir, Options{})
	require.NoError(t, err)
	_, err = second.Lock()
	require.Error(t, err)

	require.NoError(t, unlock())
	_, err = second.Lock()
	assert.NoError(t, err)
}

func TestSameValueSetIsNoOp(t *testing.T) {
	s := open(t)
	_, err := s.Set("a", codec.String("same"))
	require.NoError(t, err)
	before := s.index["a"]

	_, err = s.Set("a", codec.String("same"))
	require.NoError(t, err)
	assert.Equal(t, before, s.index["a"])
}
