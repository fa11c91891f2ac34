package crawl

import (
	"sync"

	"github.com/fwojciec/rufus"
)

// Compile-time interface verification.
var _ rufus.VisitedSet = (*VisitedSet)(nil)

// VisitedSet tracks the URLs claimed within one crawl session, keyed by
// rufus.CanonicalURL. It is safe for concurrent use by multiple goroutines.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisitedSet creates an empty set with room for n URLs.
func NewVisitedSet(n int) *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{}, n)}
}

// Claim marks url as visited and reports whether this call was the first
// to do so. Check and insert happen under one lock.
func (s *VisitedSet) Claim(url string) bool {
	key := rufus.CanonicalURL(url)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains reports whether url has been claimed.
func (s *VisitedSet) Contains(url string) bool {
	key := rufus.CanonicalURL(url)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[key]
	return ok
}

// Len returns the number of claimed URLs.
func (s *VisitedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
