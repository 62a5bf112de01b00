// Package freeindex tracks the reusable holes in a KVStore's data file:
// an ordered offset→length map, first-fit allocation, and adjacent-hole
// merging on release.
//
// The ordered map is kept as a slice of extents sorted by offset,
// binary-searched on insert.
package freeindex

import (
	"sort"
	"strconv"

	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

// EOF is the sentinel find_space returns when no extent fits; the caller
// appends at the current end of the data file.
const EOF int64 = -1

type extent struct {
	offset int64
	length int64
}

// FreeIndex holds the disjoint, non-adjacent set of currently-unallocated
// byte ranges in a KVStore's data file.
type FreeIndex struct {
	extents []extent // sorted by offset, invariant: no two are adjacent
}

// New returns an empty FreeIndex.
func New() *FreeIndex {
	return &FreeIndex{}
}

// Len reports how many free extents exist.
func (f *FreeIndex) Len() int { return len(f.extents) }

// FindSpace does a first-fit scan in ascending offset order. The first
// extent whose length is >= size is removed; if it is strictly larger,
// the remainder is reinserted at offset+size. Returns EOF if nothing
// fits.
func (f *FreeIndex) FindSpace(size int64) int64 {
	for i, e := range f.extents {
		if e.length >= size {
			offset := e.offset
			f.extents = append(f.extents[:i], f.extents[i+1:]...)
			if e.length > size {
				f.insert(extent{offset: offset + size, length: e.length - size})
			}
			return offset
		}
	}
	return EOF
}

// Add releases [offset, offset+length) back to the free index, merging
// with the immediately preceding and/or following extent when they are
// contiguous.
func (f *FreeIndex) Add(offset, length int64) {
	if length <= 0 {
		return
	}
	i := sort.Search(len(f.extents), func(i int) bool { return f.extents[i].offset >= offset })

	// Merge left: the extent immediately before offset ends exactly there.
	if i > 0 && f.extents[i-1].offset+f.extents[i-1].length == offset {
		i--
		offset = f.extents[i].offset
		length += f.extents[i].length
		f.extents = append(f.extents[:i], f.extents[i+1:]...)
	}

	// Merge right: the extent now at position i starts exactly where the
	// (possibly just-merged) extent ends.
	if i < len(f.extents) && offset+length == f.extents[i].offset {
		length += f.extents[i].length
		f.extents = append(f.extents[:i], f.extents[i+1:]...)
	}

	f.insert(extent{offset: offset, length: length})
}

func (f *FreeIndex) insert(e extent) {
	i := sort.Search(len(f.extents), func(i int) bool { return f.extents[i].offset >= e.offset })
	f.extents = append(f.extents, extent{})
	copy(f.extents[i+1:], f.extents[i:])
	f.extents[i] = e
}

// Extents returns a copy of the current (offset, length) pairs in
// ascending offset order.
func (f *FreeIndex) Extents() []struct{ Offset, Length int64 } {
	out := make([]struct{ Offset, Length int64 }, len(f.extents))
	for i, e := range f.extents {
		out[i] = struct{ Offset, Length int64 }{e.offset, e.length}
	}
	return out
}

// TotalLength sums the length of every free extent.
func (f *FreeIndex) TotalLength() int64 {
	var total int64
	for _, e := range f.extents {
		total += e.length
	}
	return total
}

// ToDict exports the free index as {stringified offset: length}, the
// canonical side-file representation.
func (f *FreeIndex) ToDict() map[string]int64 {
	out := make(map[string]int64, len(f.extents))
	for _, e := range f.extents {
		out[strconv.FormatInt(e.offset, 10)] = e.length
	}
	return out
}

// FromDict reloads a FreeIndex previously produced by ToDict.
func FromDict(dict map[string]int64) (*FreeIndex, error) {
	f := New()
	for k, length := range dict {
		offset, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, ouxerr.New(ouxerr.BadFormat, "free_index key is not an integer offset", err)
		}
		f.insert(extent{offset: offset, length: length})
	}
	sort.Slice(f.extents, func(i, j int) bool { return f.extents[i].offset < f.extents[j].offset })
	return f, nil
}
