// Package kvstore implements the disk-backed key-value engine that
// composes internal/codec, internal/freeindex, internal/cache and
// internal/memstore into a single logical store: a data file of
// concatenated encoded records and a side-file recording the index,
// free-space map, and configuration.
package kvstore

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"

	"github.com/ox-ai/oxdb-lite/internal/cache"
	"github.com/ox-ai/oxdb-lite/internal/codec"
	"github.com/ox-ai/oxdb-lite/internal/freeindex"
	"github.com/ox-ai/oxdb-lite/internal/memstore"
	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

const sideFileName = "index.oxdsd"

// entry is an index record: the absolute byte offset and exact length
// of a key's encoded record in the data file.
type entry struct {
	Offset int64
	Length int64
}

// Options configures a new or reopened KVStore.
type Options struct {
	// DataEncoding selects the default codec method for new records.
	DataEncoding codec.Method
	// CacheCapacity bounds the in-memory LRU; zero uses cache.DefaultCapacity.
	CacheCapacity int
}

// KVStore is a disk-persisted key-value engine: one data file of
// concatenated encoded records plus a side-file index.
type KVStore struct {
	dir      string
	dataPath string
	method   codec.Method
	rec      codec.Codec // codec used to encode/decode on-disk records

	mem   *memstore.MemStore
	free  *freeindex.FreeIndex
	cache *cache.LRUCache
	index map[string]entry

	lock *flock.Flock
}

// Open creates dir if absent and loads (or initializes) the KVStore
// rooted there: create the data file if missing, load the side-file,
// then compact so every open starts from a hole-free data file.
func Open(dir string, opts Options) (*KVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ouxerr.IoErr("creating store directory", err)
	}

	method := opts.DataEncoding
	if method == "" {
		method = codec.MethodBinary
	}

	s := &KVStore{
		dir:      dir,
		dataPath: filepath.Join(dir, "data.oxdd"),
		method:   method,
		rec:      codec.New(method),
		free:     freeindex.New(),
		cache:    cache.New(opts.CacheCapacity),
		index:    map[string]entry{},
		lock:     flock.New(filepath.Join(dir, ".lock")),
	}

	if _, err := os.Stat(s.dataPath); os.IsNotExist(err) {
		f, err := os.Create(s.dataPath)
		if err != nil {
			return nil, ouxerr.IoErr("creating data file", err)
		}
		_ = f.Close()
	} else if err != nil {
		return nil, ouxerr.IoErr("statting data file", err)
	}

	mem, err := memstore.Open(filepath.Join(dir, sideFileName), method)
	if err != nil {
		return nil, err
	}
	s.mem = mem

	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	if _, err := s.Compact(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *KVStore) loadIndex() error {
	if v, ok := s.mem.Get("index"); ok {
		m, ok := v.AsMap()
		if !ok {
			return ouxerr.New(ouxerr.BadFormat, "side-file index is not a mapping", nil)
		}
		for k, entryVal := range m {
			tup, ok := entryVal.AsTuple()
			if !ok || len(tup) != 2 {
				return ouxerr.New(ouxerr.BadFormat, "side-file index entry malformed", nil)
			}
			offset, ok1 := tup[0].AsInt()
			length, ok2 := tup[1].AsInt()
			if !ok1 || !ok2 {
				return ouxerr.New(ouxerr.BadFormat, "side-file index entry malformed", nil)
			}
			s.index[k] = entry{Offset: offset, Length: length}
		}
	}

	if v, ok := s.mem.Get("free_index"); ok {
		m, ok := v.AsMap()
		if !ok {
			return ouxerr.New(ouxerr.BadFormat, "side-file free_index is not a mapping", nil)
		}
		dict := make(map[string]int64, len(m))
		for k, lv := range m {
			length, ok := lv.AsInt()
			if !ok {
				return ouxerr.New(ouxerr.BadFormat, "side-file free_index entry malformed", nil)
			}
			dict[k] = length
		}
		fi, err := freeindex.FromDict(dict)
		if err != nil {
			return err
		}
		s.free = fi
	}
	return nil
}

// Commit flushes the side-file: config, free_index, and index.
func (s *KVStore) Commit() error {
	s.mem.Set("config", codec.Map(map[string]codec.Value{
		"data_encoding": codec.String(string(s.method)),
	}))

	freeDict := s.free.ToDict()
	freeVal := make(map[string]codec.Value, len(freeDict))
	for k, v := range freeDict {
		freeVal[k] = codec.Int(v)
	}
	s.mem.Set("free_index", codec.Map(freeVal))

	indexVal := make(map[string]codec.Value, len(s.index))
	for k, e := range s.index {
		indexVal[k] = codec.Tuple(codec.Int(e.Offset), codec.Int(e.Length))
	}
	s.mem.Set("index", codec.Map(indexVal))

	return s.mem.Flush()
}

// Len reports the number of live keys.
func (s *KVStore) Len() int { return len(s.index) }

// Exists reports whether key is present.
func (s *KVStore) Exists(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Keys returns every live key, in no particular order.
func (s *KVStore) Keys() []string {
	out := make([]string, 0, len(s.index))
	for k := range s.index {
		out = append(out, k)
	}
	return out
}

// wrapEncode encodes value as the single-entry record {"": value}.
func (s *KVStore) wrapEncode(value codec.Value) ([]byte, error) {
	return s.rec.Encode(codec.Map(map[string]codec.Value{"": value}))
}

func (s *KVStore) unwrapDecode(raw []byte) (codec.Value, error) {
	v, err := s.rec.Decode(raw)
	if err != nil {
		return codec.Value{}, ouxerr.BadFormatErr("decoding record", err)
	}
	m, ok := v.AsMap()
	if !ok {
		return codec.Value{}, ouxerr.New(ouxerr.BadFormat, "record is not a wrapped mapping", nil)
	}
	return m[""], nil
}

// writeFiller overwrites [offset, offset+length) with a filler record of
// the exact same on-disk size so a full scan from offset zero always
// decodes. The declared null length is the hole minus the 5-byte record
// header; holes too small to hold a header are zeroed raw.
func (s *KVStore) writeFiller(f *os.File, offset, length int64) error {
	var filler []byte
	if length >= 5 {
		var err error
		filler, err = codec.Encode(codec.Null(uint32(length - 5)))
		if err != nil {
			return ouxerr.Internalf("encoding filler record: %v", err)
		}
	} else {
		filler = make([]byte, length)
	}
	if int64(len(filler)) != length {
		return ouxerr.Internalf("filler record length mismatch: want %d got %d", length, len(filler))
	}
	if _, err := f.WriteAt(filler, offset); err != nil {
		return ouxerr.IoErr("writing filler record", err)
	}
	return nil
}

// Set encodes value and writes it under key, then commits the side-file.
// An existing record is overwritten in place when the new encoding fits
// (its freed tail becomes a free extent); otherwise the record is moved
// to a free extent or to the end of the file.
func (s *KVStore) Set(key string, value codec.Value) (bool, error) {
	f, err := os.OpenFile(s.dataPath, os.O_RDWR, 0o644)
	if err != nil {
		return false, ouxerr.IoErr("opening data file", err)
	}
	defer f.Close()

	ok, err := s.updateOne(f, key, value)
	if err != nil {
		return false, err
	}
	return ok, s.Commit()
}

// Add batch-writes every key in values, with a single commit at the end.
func (s *KVStore) Add(values map[string]codec.Value) (bool, error) {
	f, err := os.OpenFile(s.dataPath, os.O_RDWR, 0o644)
	if err != nil {
		return false, ouxerr.IoErr("opening data file", err)
	}
	defer f.Close()

	status := true
	// Deterministic order keeps writes reproducible across runs/tests.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		ok, err := s.updateOne(f, k, values[k])
		if err != nil {
			return false, err
		}
		status = status && ok
	}
	return status, s.Commit()
}

func (s *KVStore) updateOne(f *os.File, key string, value codec.Value) (bool, error) {
	encoded, err := s.wrapEncode(value)
	if err != nil {
		return false, ouxerr.Internalf("encoding record for key %q: %v", key, err)
	}
	encLen := int64(len(encoded))

	if existing, found := s.index[key]; found {
		if current, cerr := s.getLocked(f, key); cerr == nil && codec.Equal(current, value) {
			return true, nil
		}
		if encLen <= existing.Length {
			if _, err := f.WriteAt(encoded, existing.Offset); err != nil {
				return false, ouxerr.IoErr("overwriting record", err)
			}
			s.index[key] = entry{Offset: existing.Offset, Length: encLen}
			if encLen != existing.Length {
				tailOffset := existing.Offset + encLen
				tailLen := existing.Length - encLen
				s.free.Add(tailOffset, tailLen)
				if err := s.writeFiller(f, tailOffset, tailLen); err != nil {
					return false, err
				}
			}
		} else {
			if _, err := s.deleteOne(f, key); err != nil {
				return false, err
			}
			offset, err := s.placeRecord(f, encLen)
			if err != nil {
				return false, err
			}
			if _, err := f.WriteAt(encoded, offset); err != nil {
				return false, ouxerr.IoErr("writing record", err)
			}
			s.index[key] = entry{Offset: offset, Length: encLen}
		}
	} else {
		offset, err := s.placeRecord(f, encLen)
		if err != nil {
			return false, err
		}
		if _, err := f.WriteAt(encoded, offset); err != nil {
			return false, ouxerr.IoErr("writing record", err)
		}
		s.index[key] = entry{Offset: offset, Length: encLen}
	}

	s.cache.Put(key, value)
	return true, nil
}

// placeRecord returns a byte offset able to hold length bytes, reusing a
// free extent or appending to the end of the file. When a reused extent
// is larger than length, its remainder is overwritten with filler.
func (s *KVStore) placeRecord(f *os.File, length int64) (int64, error) {
	offset := s.free.FindSpace(length)
	if offset == freeindex.EOF {
		info, err := f.Stat()
		if err != nil {
			return 0, ouxerr.IoErr("statting data file", err)
		}
		offset = info.Size()
	} else {
		for _, e := range s.free.Extents() {
			if e.Offset == offset+length {
				if err := s.writeFiller(f, e.Offset, e.Length); err != nil {
					return 0, err
				}
				break
			}
		}
	}
	return offset, nil
}

// Get returns the value for key, or (zero, false) if it does not exist.
func (s *KVStore) Get(key string) (codec.Value, bool, error) {
	if _, ok := s.index[key]; !ok {
		return codec.Value{}, false, nil
	}
	if v, ok := s.cache.Get(key); ok {
		return v, true, nil
	}

	f, err := os.Open(s.dataPath)
	if err != nil {
		return codec.Value{}, false, ouxerr.IoErr("opening data file", err)
	}
	defer f.Close()

	v, err := s.getLocked(f, key)
	if err != nil {
		return codec.Value{}, false, err
	}
	s.cache.Put(key, v)
	return v, true, nil
}

func (s *KVStore) getLocked(f *os.File, key string) (codec.Value, error) {
	e, ok := s.index[key]
	if !ok {
		return codec.Value{}, ouxerr.NotFoundf("key %q not found", key)
	}
	raw := make([]byte, e.Length)
	if _, err := f.ReadAt(raw, e.Offset); err != nil {
		return codec.Value{}, ouxerr.IoErr("reading record", err)
	}
	return s.unwrapDecode(raw)
}

// deleteOne overwrites key's record with filler, releases its extent,
// and removes it from the index, without touching the cache or commit.
func (s *KVStore) deleteOne(f *os.File, key string) (bool, error) {
	e, ok := s.index[key]
	if !ok {
		return false, nil
	}
	if err := s.writeFiller(f, e.Offset, e.Length); err != nil {
		return false, err
	}
	s.free.Add(e.Offset, e.Length)
	delete(s.index, key)
	return true, nil
}

// Delete removes every key in keys, returning whether all of them
// existed. Deleting an absent key is not an error.
func (s *KVStore) Delete(keys []string) (bool, error) {
	f, err := os.OpenFile(s.dataPath, os.O_RDWR, 0o644)
	if err != nil {
		return false, ouxerr.IoErr("opening data file", err)
	}
	defer f.Close()

	allExisted := true
	for _, k := range keys {
		existed, err := s.deleteOne(f, k)
		if err != nil {
			return false, err
		}
		if !existed {
			allExisted = false
		} else {
			s.cache.Delete(k)
		}
	}
	return allExisted, s.Commit()
}

// Compact rewrites the data file with every live record packed
// contiguously in index order, empties the FreeIndex, and returns the
// full materialized map.
func (s *KVStore) Compact() (map[string]codec.Value, error) {
	oldFile, err := os.Open(s.dataPath)
	if err != nil {
		return nil, ouxerr.IoErr("opening data file", err)
	}
	defer oldFile.Close()

	newPath := filepath.Join(s.dir, ".compact.oxdd")
	newFile, err := os.Create(newPath)
	if err != nil {
		return nil, ouxerr.IoErr("creating compaction file", err)
	}

	keys := make([]string, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := make(map[string]codec.Value, len(keys))
	newIndex := make(map[string]entry, len(keys))
	var cursor int64

	for _, k := range keys {
		e := s.index[k]
		raw := make([]byte, e.Length)
		if _, err := oldFile.ReadAt(raw, e.Offset); err != nil {
			_ = newFile.Close()
			_ = os.Remove(newPath)
			return nil, ouxerr.IoErr("reading record during compaction", err)
		}
		v, err := s.unwrapDecode(raw)
		if err != nil {
			_ = newFile.Close()
			_ = os.Remove(newPath)
			return nil, err
		}
		data[k] = v
		if _, err := newFile.WriteAt(raw, cursor); err != nil {
			_ = newFile.Close()
			_ = os.Remove(newPath)
			return nil, ouxerr.IoErr("writing record during compaction", err)
		}
		newIndex[k] = entry{Offset: cursor, Length: e.Length}
		cursor += e.Length
	}

	if err := newFile.Close(); err != nil {
		_ = os.Remove(newPath)
		return nil, ouxerr.IoErr("closing compaction file", err)
	}
	if err := os.Rename(newPath, s.dataPath); err != nil {
		return nil, ouxerr.IoErr("replacing data file", err)
	}

	s.index = newIndex
	s.free = freeindex.New()
	if err := s.Commit(); err != nil {
		return nil, err
	}
	return data, nil
}

// ToJSON exports the live map to path using the JSON codec, after
// compacting.
func (s *KVStore) ToJSON(path string) error {
	data, err := s.Compact()
	if err != nil {
		return err
	}
	jsonCodec := codec.New(codec.MethodJSON)
	encoded, err := jsonCodec.Encode(codec.Map(data))
	if err != nil {
		return ouxerr.Internalf("encoding export: %v", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return ouxerr.IoErr("writing export file", err)
	}
	return nil
}

// FromJSON imports path (previously produced by ToJSON) and adds its
// entries to the store.
func (s *KVStore) FromJSON(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ouxerr.IoErr("reading import file", err)
	}
	jsonCodec := codec.New(codec.MethodJSON)
	v, err := jsonCodec.Decode(raw)
	if err != nil {
		return ouxerr.BadFormatErr("import file is not valid JSON for this domain", err)
	}
	m, ok := v.AsMap()
	if !ok {
		return ouxerr.New(ouxerr.BadArgument, "import file does not contain a mapping", nil)
	}
	_, err = s.Add(m)
	return err
}

// Lock acquires the advisory cross-process write guard for this store's
// directory. Safe to call even when the process only ever opens one
// KVStore per directory; it turns concurrent-writer misuse (undefined
// per the core contract) into a fast, visible failure instead of silent
// corruption.
func (s *KVStore) Lock() (func() error, error) {
	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, ouxerr.IoErr("acquiring store lock", err)
	}
	if !ok {
		return nil, ouxerr.New(ouxerr.Io, "store is locked by another process", nil)
	}
	return s.lock.Unlock, nil
}
