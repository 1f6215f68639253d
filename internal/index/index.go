package index

import "sort"

// Postings maps a document id to the ordered positions at which one term
// occurs in that document. Position lists are strictly increasing because
// tokens are appended in scan order and never reordered.
type Postings map[int][]int

type termEntry struct {
	df       int
	postings Postings
}

// Index is a positional inverted index over a document corpus. Documents
// are identified by their zero-based position in the corpus handed to
// Build. An Index is immutable once built; all query operations are pure
// reads.
type Index struct {
	terms   map[string]*termEntry
	numDocs int
}

// Build constructs an Index from an ordered corpus in a single pass.
// A document that normalises to no tokens contributes nothing to any
// postings list but still counts toward NumDocs. An empty corpus yields a
// valid index with NumDocs zero and no terms.
func Build(docs []string, opts Options) *Index {
	idx := &Index{
		terms:   make(map[string]*termEntry),
		numDocs: len(docs),
	}
	for docID, text := range docs {
		for pos, term := range Normalize(text, opts) {
			entry, ok := idx.terms[term]
			if !ok {
				entry = &termEntry{postings: make(Postings)}
				idx.terms[term] = entry
			}
			entry.postings[docID] = append(entry.postings[docID], pos)
		}
	}
	for _, entry := range idx.terms {
		entry.df = len(entry.postings)
	}
	return idx
}

// NumDocs returns the corpus size at build time. This is the universe size
// for NOT queries.
func (idx *Index) NumDocs() int {
	return idx.numDocs
}

// NumTerms returns the vocabulary size.
func (idx *Index) NumTerms() int {
	return len(idx.terms)
}

// HasTerm reports whether term occurs in at least one document.
func (idx *Index) HasTerm(term string) bool {
	_, ok := idx.terms[term]
	return ok
}

// DocFrequency returns the number of distinct documents containing term,
// zero for unknown terms.
func (idx *Index) DocFrequency(term string) int {
	entry, ok := idx.terms[term]
	if !ok {
		return 0
	}
	return entry.df
}

// CollectionFrequency returns the total number of occurrences of term
// across the corpus, zero for unknown terms.
func (idx *Index) CollectionFrequency(term string) int {
	entry, ok := idx.terms[term]
	if !ok {
		return 0
	}
	total := 0
	for _, positions := range entry.postings {
		total += len(positions)
	}
	return total
}

// Docs returns the sorted ids of documents containing term. Unknown terms
// yield an empty slice.
func (idx *Index) Docs(term string) []int {
	entry, ok := idx.terms[term]
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(entry.postings))
	for docID := range entry.postings {
		ids = append(ids, docID)
	}
	sort.Ints(ids)
	return ids
}

// Positions returns a copy of the position list for term in the given
// document, nil when the term does not occur there.
func (idx *Index) Positions(term string, docID int) []int {
	entry, ok := idx.terms[term]
	if !ok {
		return nil
	}
	positions, ok := entry.postings[docID]
	if !ok {
		return nil
	}
	out := make([]int, len(positions))
	copy(out, positions)
	return out
}

// PostingsFor returns a copy of the full postings map for term, nil for
// unknown terms.
func (idx *Index) PostingsFor(term string) Postings {
	entry, ok := idx.terms[term]
	if !ok {
		return nil
	}
	out := make(Postings, len(entry.postings))
	for docID, positions := range entry.postings {
		cp := make([]int, len(positions))
		copy(cp, positions)
		out[docID] = cp
	}
	return out
}

// Terms returns the vocabulary in ascending order.
func (idx *Index) Terms() []string {
	terms := make([]string, 0, len(idx.terms))
	for term := range idx.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
