package index

import (
	"encoding/json"
	"fmt"
	"strconv"

	apperrors "github.com/pradiptarakha/corpusindex/pkg/errors"
)

// The snapshot wire shape keeps document ids as string keys because JSON
// object keys must be strings. That conversion happens here and only here;
// the rest of the core works with integer ids.

type snapshotTerm struct {
	DF       int              `json:"df"`
	Postings map[string][]int `json:"postings"`
}

type snapshotFile struct {
	Index   map[string]snapshotTerm `json:"index"`
	NumDocs int                     `json:"num_docs"`
}

// MarshalSnapshot serialises the index to its JSON snapshot form:
//
//	{"index": {term: {"df": n, "postings": {"<docID>": [pos, ...]}}}, "num_docs": n}
func (idx *Index) MarshalSnapshot() ([]byte, error) {
	out := snapshotFile{
		Index:   make(map[string]snapshotTerm, len(idx.terms)),
		NumDocs: idx.numDocs,
	}
	for term, entry := range idx.terms {
		postings := make(map[string][]int, len(entry.postings))
		for docID, positions := range entry.postings {
			postings[strconv.Itoa(docID)] = positions
		}
		out.Index[term] = snapshotTerm{DF: entry.df, Postings: postings}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshaling index snapshot: %w", err)
	}
	return data, nil
}

// LoadSnapshot reconstructs an Index from snapshot JSON. A payload missing
// the "index" or "num_docs" field is rejected with ErrMalformedSnapshot,
// as are non-integer document id keys. Document frequencies are recomputed
// from the postings rather than trusted, so the df invariant holds for any
// accepted snapshot. Empty position lists are dropped for the same reason.
func LoadSnapshot(data []byte) (*Index, error) {
	var raw struct {
		Index   map[string]snapshotTerm `json:"index"`
		NumDocs *int                    `json:"num_docs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedSnapshot, err)
	}
	if raw.Index == nil || raw.NumDocs == nil {
		return nil, fmt.Errorf("%w: missing index or num_docs field", apperrors.ErrMalformedSnapshot)
	}
	if *raw.NumDocs < 0 {
		return nil, fmt.Errorf("%w: negative num_docs", apperrors.ErrMalformedSnapshot)
	}
	idx := &Index{
		terms:   make(map[string]*termEntry, len(raw.Index)),
		numDocs: *raw.NumDocs,
	}
	for term, st := range raw.Index {
		entry := &termEntry{postings: make(Postings, len(st.Postings))}
		for key, positions := range st.Postings {
			docID, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("%w: postings key %q for term %q is not a document id",
					apperrors.ErrMalformedSnapshot, key, term)
			}
			if len(positions) == 0 {
				continue
			}
			entry.postings[docID] = positions
		}
		if len(entry.postings) == 0 {
			continue
		}
		entry.df = len(entry.postings)
		idx.terms[term] = entry
	}
	return idx, nil
}
