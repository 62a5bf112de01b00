// Package idalloc generates dense integer identifiers with delete-recycle:
// the next id is the most recently freed id, or max_id+1 if no freed id
// is waiting.
package idalloc

import "github.com/ox-ai/oxdb-lite/internal/ouxerr"

// IdAllocator hands out non-negative integer ids, preferring freed ids
// over newly-minted ones.
type IdAllocator struct {
	maxID int64
	freed []int64
	live  map[int64]struct{}
}

// New returns an empty allocator.
func New() *IdAllocator {
	return &IdAllocator{live: map[int64]struct{}{}}
}

// FromLiveIDs seeds an allocator from a pre-existing live id set (e.g. a
// Document's data_store.keys() on open), with maxID set to the largest
// id present.
func FromLiveIDs(ids []int64) *IdAllocator {
	a := New()
	for _, id := range ids {
		a.live[id] = struct{}{}
		if id > a.maxID {
			a.maxID = id
		}
	}
	return a
}

// Gen allocates and returns the next id: the most recently freed id if
// any are available, else max_id+1.
func (a *IdAllocator) Gen() int64 {
	if n := len(a.freed); n > 0 {
		id := a.freed[n-1]
		a.freed = a.freed[:n-1]
		a.live[id] = struct{}{}
		return id
	}
	a.maxID++
	id := a.maxID
	a.live[id] = struct{}{}
	return id
}

// Delete frees id, making it available for the next Gen call, and
// reports whether id was actually live.
func (a *IdAllocator) Delete(id int64) bool {
	if _, ok := a.live[id]; !ok {
		return false
	}
	delete(a.live, id)
	a.freed = append(a.freed, id)
	return true
}

// IsLive reports whether id is currently allocated.
func (a *IdAllocator) IsLive(id int64) bool {
	_, ok := a.live[id]
	return ok
}

// Len reports the number of currently-live ids.
func (a *IdAllocator) Len() int { return len(a.live) }

// MaxID returns the highest id ever issued.
func (a *IdAllocator) MaxID() int64 { return a.maxID }

// Validate returns an Internal error if id is currently live. Gen does
// not call it; it is a standalone check.
func (a *IdAllocator) Validate(id int64) error {
	if a.IsLive(id) {
		return ouxerr.Internalf("allocator issued already-live id %d", id)
	}
	return nil
}
