// Package memstore implements whole-file load/flush persistence for a
// small in-memory map, encoded through internal/codec. Used for a
// KVStore's side-file ({config, free_index, index}).
package memstore

import (
	"os"
	"path/filepath"

	"github.com/ox-ai/oxdb-lite/internal/codec"
	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

// MemStore is an in-memory string-keyed map backed by a single file that
// is fully rewritten on every Flush. No partial updates, no journaling.
type MemStore struct {
	path  string
	codec codec.Codec
	data  map[string]codec.Value
}

// Open loads path if it exists, or starts with an empty map otherwise.
// A file that exists but cannot be decoded with either wire format
// surfaces as BadFormat.
func Open(path string, method codec.Method) (*MemStore, error) {
	m := &MemStore{path: path, codec: codec.New(method), data: map[string]codec.Value{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, ouxerr.IoErr("reading side-file", err)
	}
	if len(raw) == 0 {
		return m, nil
	}

	v, err := m.codec.Decode(raw)
	if err != nil {
		return nil, ouxerr.BadFormatErr("side-file "+path+" is corrupt", err)
	}
	mapVal, ok := v.AsMap()
	if !ok {
		return nil, ouxerr.New(ouxerr.BadFormat, "side-file did not decode to a mapping", nil)
	}
	m.data = mapVal
	return m, nil
}

// Get returns the value stored at key, if any.
func (m *MemStore) Get(key string) (codec.Value, bool) {
	v, ok := m.data[key]
	return v, ok
}

// Set stores value at key in memory; call Flush to persist.
func (m *MemStore) Set(key string, value codec.Value) {
	m.data[key] = value
}

// Delete removes key from memory; call Flush to persist.
func (m *MemStore) Delete(key string) {
	delete(m.data, key)
}

// Flush atomically rewrites the file from the current in-memory map.
func (m *MemStore) Flush() error {
	encoded, err := m.codec.Encode(codec.Map(m.data))
	if err != nil {
		return ouxerr.New(ouxerr.Internal, "encoding side-file", err)
	}

	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, ".memstore-*.tmp")
	if err != nil {
		return ouxerr.IoErr("creating side-file temp", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return ouxerr.IoErr("writing side-file temp", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return ouxerr.IoErr("closing side-file temp", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		_ = os.Remove(tmpPath)
		return ouxerr.IoErr("replacing side-file", err)
	}
	return nil
}

// Path returns the backing file path.
func (m *MemStore) Path() string { return m.path }
