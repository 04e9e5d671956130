// Package nodestore implements the artifact registry of a pipeline: an
// append-only, name-deduplicated table of nodes.
//
// # Why Node Store Exists
//
// The pipeline keeps artifacts and processes in two separate registries that
// refer to each other only by index. The node store owns the artifact side of
// that arrangement and guarantees two things:
//   - **Deduplication:** RegisterOrFind is the only way a node enters the
//     registry, and a name that is already live resolves to the existing entry.
//   - **Stable indices:** Entries are never moved or reused. Deleting a node
//     leaves a tombstone so that every index held elsewhere keeps pointing at
//     the same slot for the rest of the session.
//
// # Lifecycle and Usage
//
// The store is:
//  1. **Created** empty, or rebuilt in bulk while a persisted pipeline is read
//  2. **Grown** through RegisterOrFind as edges are added
//  3. **Mutated** in place by the pipeline, which edits consumer and producer edges
//  4. **Tombstoned** slot by slot when the producing process is deleted
//
// The store has no internal locking. A pipeline has a single logical owner.
package nodestore

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/pipeliner/internal/node"
)

// NotFound is returned by lookups that match no live node.
const NotFound = -1

// ErrNotFound is returned when an index does not refer to a live node.
var ErrNotFound = errors.New("node not found")

type entry struct {
	node    node.Node
	deleted bool
}

// Store is the artifact registry.
type Store struct {
	entries []*entry
}

// New creates an empty node store.
func New() *Store {
	return &Store{}
}

// RegisterOrFind returns the index of the live node named n.Name. If there is
// none, n is appended and its new index returned. When the name already
// exists the type and edges carried by n are discarded: the existing entry
// wins.
func (s *Store) RegisterOrFind(n node.Node) int {
	if i := s.FindByName(n.Name); i != NotFound {
		return i
	}
	return s.Append(n)
}

// Append adds n without a deduplication check and returns its index. It is
// meant for rebuilding a registry whose names are already known to be unique.
func (s *Store) Append(n node.Node) int {
	s.entries = append(s.entries, &entry{node: n.Clone()})
	return len(s.entries) - 1
}

// FindByName returns the index of the first live node with the given name in
// insertion order, or NotFound.
func (s *Store) FindByName(name string) int {
	for i, e := range s.entries {
		if !e.deleted && e.node.Name == name {
			return i
		}
	}
	return NotFound
}

// Get returns the live node at index i. The returned pointer stays valid for
// the lifetime of the store and may be used to edit the node's edges.
func (s *Store) Get(i int) (*node.Node, bool) {
	if i < 0 || i >= len(s.entries) || s.entries[i].deleted {
		return nil, false
	}
	return &s.entries[i].node, true
}

// Delete tombstones the node at index i. The index is never handed out again.
func (s *Store) Delete(i int) error {
	if _, ok := s.Get(i); !ok {
		return fmt.Errorf("delete node %d: %w", i, ErrNotFound)
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

// Live returns the number of nodes that have not been deleted.
func (s *Store) Live() int {
	count := 0
	for _, e := range s.entries {
		if !e.deleted {
			count++
		}
	}
	return count
}

// Each calls fn for every live node in index order.
func (s *Store) Each(fn func(i int, n *node.Node)) {
	for i, e := range s.entries {
		if !e.deleted {
			fn(i, &e.node)
		}
	}
}
