// Package search evaluates Boolean and phrase queries against a built
// inverted index. Both evaluators are total functions: unknown terms,
// empty queries, and malformed operator sequences resolve to the empty
// result set rather than an error.
package search

import "sort"

// DocSet is a set of document ids.
type DocSet map[int]struct{}

// NewDocSet builds a set from the given ids.
func NewDocSet(ids ...int) DocSet {
	s := make(DocSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Universe returns the set {0, ..., n-1}.
func Universe(n int) DocSet {
	s := make(DocSet, n)
	for i := 0; i < n; i++ {
		s[i] = struct{}{}
	}
	return s
}

// Contains reports membership of id.
func (s DocSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// Intersect returns the intersection of s and other.
func (s DocSet) Intersect(other DocSet) DocSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(DocSet)
	for id := range small {
		if _, ok := large[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Union returns the union of s and other.
func (s DocSet) Union(other DocSet) DocSet {
	out := make(DocSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Complement returns the members of {0, ..., numDocs-1} not in s.
func (s DocSet) Complement(numDocs int) DocSet {
	out := make(DocSet)
	for i := 0; i < numDocs; i++ {
		if _, ok := s[i]; !ok {
			out[i] = struct{}{}
		}
	}
	return out
}

// Equal reports whether s and other hold the same ids.
func (s DocSet) Equal(other DocSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the member ids in ascending order. The slice is never
// nil, so it serialises as [] rather than null.
func (s DocSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
