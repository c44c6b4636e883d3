// Package dedup tracks previously processed transaction signatures in a
// bounded-memory membership set.
package dedup

import "sync"

// DefaultMaxSignatures caps the set when no ceiling is configured.
const DefaultMaxSignatures = 5000

// Set is a concurrency-safe signature set with approximate
// most-recent-half eviction. Lookup and insert are amortized O(1);
// exceeding the ceiling triggers a rebuild retaining the newest half.
type Set struct {
	mu    sync.Mutex
	max   int
	index map[string]struct{}
	order []string
}

// NewSet constructs a Set with the given ceiling. Non-positive ceilings
// fall back to DefaultMaxSignatures.
func NewSet(max int) *Set {
	if max <= 0 {
		max = DefaultMaxSignatures
	}
	return &Set{
		max:   max,
		index: make(map[string]struct{}, max),
	}
}

// Seen reports whether the signature was recorded before. Empty signatures
// are unidentifiable and never count as duplicates.
func (s *Set) Seen(signature string) bool {
	if signature == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[signature]
	return ok
}

// Record inserts the signature. Empty signatures are ignored and repeat
// inserts have no additional effect.
func (s *Set) Record(signature string) {
	if signature == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[signature]; ok {
		return
	}
	s.index[signature] = struct{}{}
	s.order = append(s.order, signature)

	if len(s.order) > s.max {
		s.evictLocked()
	}
}

// Len returns the current membership count.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// evictLocked rebuilds the set keeping only the most recently inserted
// half. Must be called with the mutex held.
func (s *Set) evictLocked() {
	keep := s.order[len(s.order)/2:]
	index := make(map[string]struct{}, s.max)
	order := make([]string, len(keep), s.max)
	copy(order, keep)
	for _, sig := range order {
		index[sig] = struct{}{}
	}
	s.index = index
	s.order = order
}
