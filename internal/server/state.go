package server

import (
	"sync"

	"github.com/pradiptarakha/corpusindex/internal/index"
)

// State holds the current index and, when it was built locally, the raw
// corpus text used for snippets. The core index is immutable; rebuilds
// swap the whole value, so readers always see a consistent pair.
type State struct {
	mu   sync.RWMutex
	idx  *index.Index
	docs []string
}

// NewState starts with an empty index over zero documents.
func NewState() *State {
	return &State{idx: index.Build(nil, index.Options{})}
}

// Current returns the live index and corpus text. The text is nil when
// the index came from a snapshot, in which case snippets are unavailable.
func (s *State) Current() (*index.Index, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx, s.docs
}

// Replace installs a freshly built or loaded index. Pass nil docs for a
// snapshot-loaded index.
func (s *State) Replace(idx *index.Index, docs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = idx
	s.docs = docs
}
