package corpus

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	apperrors "github.com/pradiptarakha/corpusindex/pkg/errors"
)

// FromCSV extracts one document per row from the named column of a CSV
// stream. Input that is not valid UTF-8 is reinterpreted as Latin-1 rather
// than rejected, matching what uploaders tend to produce. A missing column
// is an error naming the columns that do exist; rows keep their corpus
// order and empty cells stay as empty documents so doc ids line up with
// row numbers.
func FromCSV(r io.Reader, column string) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv upload: %w", err)
	}
	if !utf8.Valid(raw) {
		raw = latin1ToUTF8(raw)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	colIdx := -1
	for i, name := range header {
		if name == column {
			colIdx = i
			break
		}
	}
	if colIdx < 0 {
		return nil, apperrors.Newf(apperrors.ErrColumnNotFound, http.StatusBadRequest,
			"column %q not found, available: %v", column, header)
	}

	var docs []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}
		if colIdx < len(record) {
			docs = append(docs, record[colIdx])
		} else {
			docs = append(docs, "")
		}
	}
	return docs, nil
}

func latin1ToUTF8(raw []byte) []byte {
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}
