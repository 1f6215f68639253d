package index

import "sort"

// VocabEntry is a derived, read-only vocabulary row.
type VocabEntry struct {
	Term string `json:"term"`
	DF   int    `json:"df"`
	CF   int    `json:"cf"`
}

// Stats returns one row per term, ordered by document frequency descending
// and term ascending. The ordering is total, so identical indexes always
// produce identical output. Truncation is the caller's concern.
func (idx *Index) Stats() []VocabEntry {
	rows := make([]VocabEntry, 0, len(idx.terms))
	for term, entry := range idx.terms {
		cf := 0
		for _, positions := range entry.postings {
			cf += len(positions)
		}
		rows = append(rows, VocabEntry{Term: term, DF: entry.df, CF: cf})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].DF != rows[j].DF {
			return rows[i].DF > rows[j].DF
		}
		return rows[i].Term < rows[j].Term
	})
	return rows
}
