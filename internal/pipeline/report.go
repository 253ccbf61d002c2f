package pipeline

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/halias/halias-go/internal/observation"
	"github.com/halias/halias-go/internal/validation"
)

// Report summarizes one run. It is filled as far as the run got, so a
// failed run still reports the rows it read.
type Report struct {
	RunID            string                         `json:"run_id"`
	DryRun           bool                           `json:"dry_run"`
	Rows             int                            `json:"rows"`
	Records          int                            `json:"records"`
	ValidationErrors int                            `json:"validation_errors"`
	ErrorsByKind     map[validation.Kind]int        `json:"errors_by_kind"`
	Skipped          map[observation.SkipReason]int `json:"skipped"`
	Batches          int                            `json:"batches"`
	Documents        []string                       `json:"documents"`
	Abbreviations    int                            `json:"abbreviations"`
	Conflicts        int                            `json:"conflicts"`
	TaxaRetained     int                            `json:"taxa_retained"`
	Issues           []validation.Issue             `json:"issues,omitempty"`
	Elapsed          time.Duration                  `json:"elapsed"`
}

func newReport(runID string, dryRun bool) *Report {
	return &Report{
		RunID:        runID,
		DryRun:       dryRun,
		ErrorsByKind: make(map[validation.Kind]int),
		Skipped:      make(map[observation.SkipReason]int),
	}
}

// Print writes the end-of-run summary
func (r *Report) Print(w io.Writer) {
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "Run %s%s finished in %s\n", r.RunID, mode, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Parsed %d rows, emitted %d records in %d batches\n", r.Rows, r.Records, r.Batches)
	fmt.Fprintf(w, "Abbreviations: %d (%d conflicts), taxa retained: %d\n", r.Abbreviations, r.Conflicts, r.TaxaRetained)
	fmt.Fprintf(w, "Validation errors: %d\n", r.ValidationErrors)

	for _, kind := range slices.Sorted(maps.Keys(r.ErrorsByKind)) {
		fmt.Fprintf(w, "  %-16s %d\n", kind, r.ErrorsByKind[kind])
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintln(w, "Skipped rows:")
		for _, reason := range slices.Sorted(maps.Keys(r.Skipped)) {
			fmt.Fprintf(w, "  %-16s %d\n", reason, r.Skipped[reason])
		}
	}
}
