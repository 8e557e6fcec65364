package clean

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Export projection: records go back out as delimited text, either with
// every field they carry or projected down to a caller-chosen field list.
// The serialization target is any io.Writer; turning that into a browser
// download is the HTTP layer's concern.

// displayNames remaps the three well-known projection fields to their
// export headers. Any other field keeps its given name.
var displayNames = map[string]string{
	"email":  "Email",
	"name":   "Name",
	"status": "Status",
}

// coreFields are the computed fields every record carries, in export
// order, ahead of whatever original columns the input files had.
var coreFields = []string{"original", "email", "name", "status", "source_file"}

// Project converts records to rows of delimited text. With a nil or empty
// field list, every field of every record is exported: the computed core
// fields first, then the union of all original columns in first-seen
// order. With a field list, each record is projected down to exactly
// those fields, remapping the well-known headers and substituting "" for
// fields a record does not have.
func Project(records []Record, fields []string) [][]string {
	if len(fields) == 0 {
		fields = allFields(records)
	}

	header := make([]string, len(fields))
	for i, f := range fields {
		if display, ok := displayNames[f]; ok {
			header[i] = display
		} else {
			header[i] = f
		}
	}

	out := make([][]string, 0, len(records)+1)
	out = append(out, header)
	for _, rec := range records {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = fieldValue(rec, f)
		}
		out = append(out, row)
	}
	return out
}

// WriteCSV serializes the projection to w.
func WriteCSV(w io.Writer, records []Record, fields []string) error {
	cw := csv.NewWriter(w)
	for _, row := range Project(records, fields) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// allFields returns the core fields plus the union of original columns
// across all records, preserving first-seen column order.
func allFields(records []Record) []string {
	fields := make([]string, 0, len(coreFields))
	seen := make(map[string]struct{}, len(coreFields))
	for _, f := range coreFields {
		fields = append(fields, f)
		seen[f] = struct{}{}
	}

	for _, rec := range records {
		for _, h := range rec.Columns.Headers {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			fields = append(fields, h)
		}
	}
	return fields
}

// fieldValue resolves one projection field against a record: computed
// fields by their fixed names, anything else by exact original column
// header.
func fieldValue(rec Record, field string) string {
	switch field {
	case "original":
		return rec.Original
	case "email":
		return rec.Email
	case "name":
		return rec.Name
	case "status":
		return string(rec.Status)
	case "source_file":
		return rec.SourceFile
	default:
		return rec.Columns.Get(field)
	}
}
