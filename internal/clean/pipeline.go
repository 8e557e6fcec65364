package clean

import (
	"context"
	"log/slog"

	"github.com/listclean/listclean/internal/classify"
	"github.com/listclean/listclean/internal/tabular"
)

// Pipeline runs the full consolidation and classification pass. One
// Pipeline can serve many runs; all per-run state (the dedup set, the
// working record list) lives inside Run.
type Pipeline struct {
	classifier *classify.Classifier
	logger     *slog.Logger
}

// NewPipeline returns a pipeline using the given classifier. A nil logger
// falls back to slog.Default.
func NewPipeline(classifier *classify.Classifier, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{classifier: classifier, logger: logger}
}

// taggedRow is a parsed row plus its origin file name.
type taggedRow struct {
	row        tabular.Row
	sourceFile string
}

// Run processes all sources in order and returns the classified result.
//
// A file that fails to parse is logged, recorded in SkippedFiles and
// skipped; the run continues with the remaining files. Rows keep strict
// file order then row order within each file, so repeated runs over the
// same inputs produce identical results.
//
// The context is only consulted between files; once the record loop
// starts the run proceeds to completion. A context error surfaces as a
// run-level failure with no partial result.
func (p *Pipeline) Run(ctx context.Context, sources []Source) (*Result, error) {
	var (
		rows    []taggedRow
		skipped []SkippedFile
	)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parsed, err := tabular.Parse(src.Data)
		if err != nil {
			p.logger.Warn("skipping unparseable file", "file", src.Name, "error", err)
			skipped = append(skipped, SkippedFile{Name: src.Name, Reason: err.Error()})
			continue
		}

		p.logger.Debug("parsed file", "file", src.Name, "rows", len(parsed))
		for _, row := range parsed {
			rows = append(rows, taggedRow{row: row, sourceFile: src.Name})
		}
	}

	stats := newStats()
	seen := make(map[string]struct{}, len(rows))

	var valid, rejected []Record
	for _, tr := range rows {
		rec := p.classifyRow(tr, seen)
		stats.count(rec.Status)
		if rec.Status == classify.StatusValid {
			valid = append(valid, rec)
		} else {
			rejected = append(rejected, rec)
		}
	}

	p.logger.Info("run complete",
		"files", len(sources),
		"skipped_files", len(skipped),
		"processed", stats.TotalProcessed,
		"valid", stats.TotalValid,
		"duplicates", stats.TotalDuplicates,
	)

	return &Result{
		Stats:        stats,
		Valid:        valid,
		Rejected:     rejected,
		SkippedFiles: skipped,
	}, nil
}

// classifyRow derives one Record from a tagged row, updating the run's
// dedup set.
//
// An empty original short-circuits to invalid_format WITHOUT touching the
// dedup set: two rows that both lack an email are both invalid_format,
// never duplicate. A non-empty address enters the set on first sight
// whatever the classifier says, so later occurrences of an invalid
// address still count as duplicates.
func (p *Pipeline) classifyRow(tr taggedRow, seen map[string]struct{}) Record {
	original, _ := ResolveEmail(tr.row)
	email := classify.Normalize(original)

	var status classify.Status
	switch {
	case original == "":
		status = classify.StatusInvalidFormat
	default:
		if _, dup := seen[email]; dup {
			status = classify.StatusDuplicate
		} else {
			status = p.classifier.Classify(email)
			seen[email] = struct{}{}
		}
	}

	return Record{
		Original:   original,
		Email:      email,
		Name:       ResolveName(tr.row),
		Status:     status,
		SourceFile: tr.sourceFile,
		Columns:    tr.row,
	}
}
