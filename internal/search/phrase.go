package search

import "github.com/pradiptarakha/corpusindex/internal/index"

// EvalPhrase evaluates words as a contiguous phrase: a document matches
// when every word occurs at strictly consecutive positions in query order.
// Words are looked up verbatim; an empty phrase, an absent word, or an
// empty running intersection short-circuits to the empty set.
func EvalPhrase(words []string, idx *index.Index) DocSet {
	if len(words) == 0 {
		return DocSet{}
	}
	candidates := NewDocSet(idx.Docs(words[0])...)
	if len(candidates) == 0 {
		return DocSet{}
	}
	for _, w := range words[1:] {
		candidates = candidates.Intersect(NewDocSet(idx.Docs(w)...))
		if len(candidates) == 0 {
			return DocSet{}
		}
	}

	result := DocSet{}
	for docID := range candidates {
		if phraseStartsIn(words, idx, docID) {
			result[docID] = struct{}{}
		}
	}
	return result
}

// phraseStartsIn reports whether some offset p exists where words[0] is at
// p, words[1] at p+1, and so on. It intersects the i-shifted position sets
// of each word, keeping only offsets still viable after each word.
func phraseStartsIn(words []string, idx *index.Index, docID int) bool {
	starts := make(map[int]struct{})
	for _, p := range idx.Positions(words[0], docID) {
		starts[p] = struct{}{}
	}
	for i := 1; i < len(words); i++ {
		next := make(map[int]struct{})
		for _, p := range idx.Positions(words[i], docID) {
			if _, ok := starts[p-i]; ok {
				next[p-i] = struct{}{}
			}
		}
		if len(next) == 0 {
			return false
		}
		starts = next
	}
	return len(starts) > 0
}
