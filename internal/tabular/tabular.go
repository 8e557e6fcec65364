// Package tabular parses delimited text files into ordered, header-keyed
// rows. It deals with the usual artifacts of spreadsheet exports before
// the data reaches the pipeline: UTF-8 BOMs from Windows tools, invalid
// byte sequences, ragged row lengths and fully blank lines.
//
// Column names are not assumed to follow any schema here; locating the
// interesting columns is the field resolver's job.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrNoHeader is returned for files that contain no non-blank rows.
var ErrNoHeader = errors.New("no header row found")

// Row is one parsed record: the file's column headers in original order
// plus the header-to-cell mapping for this row.
//
// When a file repeats a header, the first occurrence wins; later columns
// under the same name are unreachable by design, matching first-occurrence
// resolution everywhere else in the system.
type Row struct {
	Headers []string
	Values  map[string]string
}

// Get returns the cell under the given header, or "" if the column is
// absent from this row.
func (r Row) Get(header string) string {
	return r.Values[header]
}

// Parse reads an entire delimited file and returns its data rows keyed by
// the first non-blank row's headers. Fully blank lines are skipped. Cell
// values are returned exactly as found; only headers are cleaned.
func Parse(data []byte) ([]Row, error) {
	data = sanitize(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	// First non-blank row is the header.
	headerIdx := -1
	for i, rec := range records {
		if !isBlank(rec) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, ErrNoHeader
	}

	headers := cleanHeaders(records[headerIdx])

	var rows []Row
	for _, rec := range records[headerIdx+1:] {
		if isBlank(rec) {
			continue
		}

		values := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				values[h] = rec[i]
			} else {
				values[h] = ""
			}
		}
		rows = append(rows, Row{Headers: headers, Values: values})
	}

	return rows, nil
}

// cleanHeaders trims whitespace and stray BOM runes from header cells and
// drops repeated names, keeping the first occurrence.
func cleanHeaders(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	headers := make([]string, 0, len(raw))
	for _, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		headers = append(headers, h)
	}
	return headers
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitize strips a leading UTF-8 BOM and replaces invalid byte sequences
// so the csv reader always sees well-formed input.
func sanitize(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.Write(data[:size])
			data = data[size:]
		}
	}
	return buf.Bytes()
}
