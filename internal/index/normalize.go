// Package index implements the in-memory positional inverted index: text
// normalisation, batch index construction, vocabulary statistics, and the
// JSON snapshot codec. Everything here is pure and single-threaded; a built
// Index is immutable and safe for concurrent readers.
package index

import (
	"strings"
	"unicode"
)

// Options controls text normalisation. Each step is independently
// toggleable; zero value means no transformation beyond whitespace
// splitting.
type Options struct {
	Lowercase         bool
	RemoveDigits      bool
	RemovePunctuation bool
	// Language selects the built-in stopword set ("en" or "id"). It has no
	// effect unless FilterStopwords is set.
	Language        string
	FilterStopwords bool
}

// Normalize turns raw document text into an ordered token sequence. Steps
// run in a fixed order: case folding, digit stripping, punctuation
// stripping, whitespace splitting, stopword filtering. Positions are
// implied by slice order and are contiguous over the filtered result, so
// removed tokens leave no gaps. Empty input yields an empty (nil) slice.
func Normalize(text string, opts Options) []string {
	if opts.Lowercase {
		text = strings.ToLower(text)
	}
	if opts.RemoveDigits {
		text = strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return ' '
			}
			return r
		}, text)
	}
	if opts.RemovePunctuation {
		// Word characters are letters, digits, and underscore; everything
		// else that is not whitespace becomes a separator.
		text = strings.Map(func(r rune) rune {
			if isWordRune(r) || unicode.IsSpace(r) {
				return r
			}
			return ' '
		}, text)
	}
	tokens := strings.Fields(text)
	if !opts.FilterStopwords || len(tokens) == 0 {
		return tokens
	}
	stop := stopwordSet(opts.Language)
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := stop[tok]; ok {
			continue
		}
		kept = append(kept, tok)
	}
	return kept
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
