// Package corpus turns external document sources (line-delimited text, CSV
// column extraction, PostgreSQL tables) into the ordered []string the index
// builder consumes.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// FromLines reads one document per line, trimming surrounding whitespace
// and dropping blank lines.
func FromLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var docs []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		docs = append(docs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus lines: %w", err)
	}
	return docs, nil
}

// FromString splits pasted text into documents, one per non-blank line.
func FromString(text string) []string {
	var docs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		docs = append(docs, line)
	}
	return docs
}
