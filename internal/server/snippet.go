package server

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`\w+`)

var operatorWords = map[string]struct{}{
	"and": {}, "or": {}, "not": {},
}

// HighlightTerms extracts the words of a query worth highlighting:
// lowercased word characters with the Boolean operator words removed.
func HighlightTerms(query string) []string {
	var terms []string
	for _, w := range wordRe.FindAllString(strings.ToLower(query), -1) {
		if _, ok := operatorWords[w]; ok {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

// Snippet trims text to a window of radius runes around the first
// case-insensitive match of any term and wraps every match in the window
// with ** markers. Without a match it returns the truncated head of the
// text.
func Snippet(text string, terms []string, radius int) string {
	if len(terms) == 0 || text == "" {
		return truncate(text, radius*2)
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re, err := regexp.Compile(`(?i)(` + strings.Join(quoted, "|") + `)`)
	if err != nil {
		return truncate(text, radius*2)
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return truncate(text, radius*2)
	}
	start := loc[0] - radius
	if start < 0 {
		start = 0
	}
	end := loc[1] + radius
	if end > len(text) {
		end = len(text)
	}
	snippet := re.ReplaceAllString(text[start:end], "**$1**")
	if end < len(text) {
		snippet += "..."
	}
	return snippet
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
