// Package processstore implements the job registry of a pipeline.
//
// Like the node store it is an append-only arena: indices are stable for the
// whole session and deletion leaves a tombstone. Unlike nodes, processes are
// not deduplicated by name unless the caller asks for an overwrite.
package processstore

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/pipeliner/internal/process"
)

// NotFound is returned by lookups that match no live process.
const NotFound = -1

// ErrNotFound is returned when an index does not refer to a live process.
var ErrNotFound = errors.New("process not found")

type entry struct {
	proc    process.Process
	deleted bool
}

// Store is the job registry.
type Store struct {
	entries []*entry
}

// New creates an empty process store.
func New() *Store {
	return &Store{}
}

// Append adds p and returns its index. With overwrite set and a live process
// of the same name present, that record is replaced in place and its index is
// returned instead.
func (s *Store) Append(p process.Process, overwrite bool) int {
	if overwrite {
		if i := s.FindByName(p.Name); i != NotFound {
			s.entries[i].proc = p.Clone()
			return i
		}
	}
	s.entries = append(s.entries, &entry{proc: p.Clone()})
	return len(s.entries) - 1
}

// FindByName returns the index of the first live process with the given name
// in insertion order, or NotFound.
func (s *Store) FindByName(name string) int {
	for i, e := range s.entries {
		if !e.deleted && e.proc.Name == name {
			return i
		}
	}
	return NotFound
}

// Get returns the live process at index i. The pointer stays valid for the
// lifetime of the store.
func (s *Store) Get(i int) (*process.Process, bool) {
	if i < 0 || i >= len(s.entries) || s.entries[i].deleted {
		return nil, false
	}
	return &s.entries[i].proc, true
}

// Delete tombstones the process at index i.
func (s *Store) Delete(i int) error {
	if _, ok := s.Get(i); !ok {
		return fmt.Errorf("delete process %d: %w", i, ErrNotFound)
	}
	s.entries[i].deleted = true
	return nil
}

// IsDeleted reports whether index i was allocated and later deleted.
func (s *Store) IsDeleted(i int) bool {
	return i >= 0 && i < len(s.entries) && s.entries[i].deleted
}

// Len returns the number of allocated slots, including tombstones.
func (s *Store) Len() int {
	return len(s.entries)
}

// Live returns the number of processes that have not been deleted.
func (s *Store) Live() int {
	count := 0
	for _, e := range s.entries {
		if !e.deleted {
			count++
		}
	}
	return count
}

// Each calls fn for every live process in index order.
func (s *Store) Each(fn func(i int, p *process.Process)) {
	for i, e := range s.entries {
		if !e.deleted {
			fn(i, &e.proc)
		}
	}
}
