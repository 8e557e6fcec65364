// Package clean implements the consolidation and classification pipeline:
// it merges rows from all input files, resolves the email and name
// columns per record, classifies every address, tracks duplicates across
// the whole run and aggregates the statistics. Everything is in-memory
// and scoped to a single run; nothing persists.
package clean

import (
	"github.com/listclean/listclean/internal/classify"
	"github.com/listclean/listclean/internal/tabular"
)

// Source is one input file: its name and its raw bytes. Files are read
// fully up front so the pipeline performs no I/O during the record loop.
type Source struct {
	Name string
	Data []byte
}

// Record is one classified contact record.
type Record struct {
	// Original is the email cell exactly as found, pre-normalization.
	// May be empty when no email column was resolvable.
	Original string `json:"original"`

	// Email is the lowercased, trimmed form of Original. All comparisons
	// (dedup included) run on this form.
	Email string `json:"email"`

	// Name is the best-effort display name, possibly empty.
	Name string `json:"name"`

	// Status is the single quality category assigned to this record.
	// Immutable once set.
	Status classify.Status `json:"status"`

	// SourceFile is the name of the file this record came from.
	SourceFile string `json:"source_file"`

	// Columns carries every original column for export flexibility.
	Columns tabular.Row `json:"-"`
}

// Stats aggregates counters for one run.
//
// Invariant: TotalProcessed == TotalValid + sum over Breakdown. Breakdown
// holds every non-valid status, including the reserved missing_mx key,
// which stays at zero.
type Stats struct {
	TotalProcessed  int                     `json:"total_processed"`
	TotalValid      int                     `json:"total_valid"`
	TotalDuplicates int                     `json:"total_duplicates"`
	Breakdown       map[classify.Status]int `json:"breakdown"`
}

func newStats() Stats {
	breakdown := make(map[classify.Status]int, len(classify.NonValidStatuses))
	for _, s := range classify.NonValidStatuses {
		breakdown[s] = 0
	}
	return Stats{Breakdown: breakdown}
}

func (s *Stats) count(status classify.Status) {
	s.TotalProcessed++
	if status == classify.StatusValid {
		s.TotalValid++
		return
	}
	s.Breakdown[status]++
	if status == classify.StatusDuplicate {
		s.TotalDuplicates++
	}
}

// SkippedFile describes an input file that failed to parse. The file
// contributes zero records; the run continues without it.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Result is the terminal output of one run. Constructed once, never
// mutated afterwards. Valid and Rejected both preserve processing order.
type Result struct {
	Stats        Stats         `json:"stats"`
	Valid        []Record      `json:"valid"`
	Rejected     []Record      `json:"rejected"`
	SkippedFiles []SkippedFile `json:"skipped_files,omitempty"`
}
