package observation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/taxon"
	"github.com/halias/halias-go/internal/triplestore"
	"github.com/halias/halias-go/internal/validation"
	"github.com/halias/halias-go/internal/vocab"
)

// DefaultCutoffYear is the first year whose rows are dropped. Migration
// counts were standardized only up to 2008.
const DefaultCutoffYear = 2009

// legacyCount is a local count spelled as a sum in early data
const (
	legacyCount      = "2+3"
	legacyCountValue = "5"
)

// notEstimated is the estimated-flag value of counted local figures
const notEstimated = "FALSE"

// ErrMalformedCount is returned for count fields that are not integers
var ErrMalformedCount = errors.NewStd("malformed count")

// SkipReason tells why a row produced no record
type SkipReason string

const (
	SkipHeader         SkipReason = "header"
	SkipUnknownTaxon   SkipReason = "unknown_taxon"
	SkipEmpty          SkipReason = "empty"
	SkipAfterCutoff    SkipReason = "after_cutoff"
	SkipDuplicate      SkipReason = "duplicate"
	SkipInvalidDate    SkipReason = "invalid_date"
	SkipMalformedCount SkipReason = "malformed_count"
)

// Reported tells whether the reason is a validation error rather than a
// silent skip
func (r SkipReason) Reported() bool {
	switch r {
	case SkipUnknownTaxon, SkipDuplicate, SkipInvalidDate, SkipMalformedCount:
		return true
	default:
		return false
	}
}

// Skip is returned for rows that are dropped without aborting the run
type Skip struct {
	Reason SkipReason
	Row    int
	Key    string
}

func (s *Skip) Error() string {
	if s.Key != "" {
		return fmt.Sprintf("row %d skipped (%s): %s", s.Row, s.Reason, s.Key)
	}
	return fmt.Sprintf("row %d skipped (%s)", s.Row, s.Reason)
}

// AsSkip returns the Skip carried by err, if any
func AsSkip(err error) (*Skip, bool) {
	var skip *Skip
	if errors.As(err, &skip) {
		return skip, true
	}
	return nil, false
}

// Options tune the normalization rules
type Options struct {
	// CutoffYear drops rows dated in this year or later
	CutoffYear int
	// LenientCounts reports malformed counts as validation errors instead
	// of failing the run
	LenientCounts bool
}

// Normalizer turns raw rows into records. It owns the set of keys used in
// the run and must not be shared between goroutines.
type Normalizer struct {
	table     *taxon.Table
	validator *validation.Validator
	vocab     *vocab.Vocabulary
	opts      Options
	used      map[string]struct{}
}

// NewNormalizer returns a Normalizer resolving codes through table
func NewNormalizer(table *taxon.Table, validator *validation.Validator, v *vocab.Vocabulary, opts Options) *Normalizer {
	if opts.CutoffYear <= 0 {
		opts.CutoffYear = DefaultCutoffYear
	}
	return &Normalizer{
		table:     table,
		validator: validator,
		vocab:     v,
		opts:      opts,
		used:      make(map[string]struct{}),
	}
}

// Used returns the number of keys registered so far
func (n *Normalizer) Used() int {
	return len(n.used)
}

// Normalize validates one row. Dropped rows return a *Skip; the only other
// error is a malformed count when counts are strict.
func (n *Normalizer) Normalize(row RawRow) (*Record, error) {
	code := taxon.Fold(row.Taxon)
	if code == HeaderTaxon {
		return nil, &Skip{Reason: SkipHeader, Row: row.Index}
	}

	local := row.Local
	if local == legacyCount {
		local = legacyCountValue
	}

	counts := [3]Count{}
	for i, cell := range [3]string{local, row.Migration, row.Additional} {
		c, err := ParseCount(cell)
		if err != nil {
			return nil, n.malformed(row, cell, err)
		}
		counts[i] = c
	}

	speciesID, ok := n.table.Species(code)
	if !ok {
		n.validator.ReportError(validation.KindUnknownTaxon, nil, "Unknown taxon: %q", code)
		return nil, &Skip{Reason: SkipUnknownTaxon, Row: row.Index}
	}

	if !counts[0].Present && !counts[1].Present && !counts[2].Present {
		return nil, &Skip{Reason: SkipEmpty, Row: row.Index}
	}

	year, month, day, ok := splitDate(row.Date)
	if !ok {
		n.validator.ReportError(validation.KindInvalidDate, nil, "Invalid date: %q", row.Date)
		return nil, &Skip{Reason: SkipInvalidDate, Row: row.Index}
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		n.validator.ReportError(validation.KindInvalidDate, nil, "Invalid date: %q", row.Date)
		return nil, &Skip{Reason: SkipInvalidDate, Row: row.Index}
	}
	if y >= n.opts.CutoffYear {
		return nil, &Skip{Reason: SkipAfterCutoff, Row: row.Index}
	}

	month, day = pad(month), pad(day)
	key := "H" + year + month + day + code
	subject := n.vocab.ObservationSubject(key)
	date := year + "-" + month + "-" + day

	if !n.validator.ValidateDate(date, subject) {
		return nil, &Skip{Reason: SkipInvalidDate, Row: row.Index, Key: key}
	}

	if _, dup := n.used[key]; dup {
		n.validator.ReportError(validation.KindDuplicateKey, []triplestore.Term{subject}, "Date+taxon already exists for %q", key)
		return nil, &Skip{Reason: SkipDuplicate, Row: row.Index, Key: key}
	}
	n.used[key] = struct{}{}

	season, _ := n.vocab.SeasonOf(month)

	return &Record{
		Key:        key,
		Subject:    subject,
		Date:       date,
		Taxon:      code,
		SpeciesID:  speciesID,
		Local:      counts[0],
		Migration:  counts[1],
		Additional: counts[2],
		Estimated:  row.Estimated != notEstimated,
		Season:     season,
		Row:        row.Index,
	}, nil
}

func (n *Normalizer) malformed(row RawRow, cell string, err error) error {
	if n.opts.LenientCounts {
		n.validator.ReportError(validation.KindMalformedCount, nil, "Malformed count %q on row %d", cell, row.Index)
		return &Skip{Reason: SkipMalformedCount, Row: row.Index}
	}
	return errors.New(err).
		Component("observation").
		Category(errors.CategoryObservation).
		Priority(errors.PriorityHigh).
		Context("row", row.Index).
		Context("taxon", row.Taxon).
		Context("value", cell).
		Build()
}

// ParseCount parses a count cell. One surrounding pair of double quotes is
// stripped and an empty cell is absent.
func ParseCount(cell string) (Count, error) {
	if len(cell) >= 2 && strings.HasPrefix(cell, `"`) && strings.HasSuffix(cell, `"`) {
		cell = cell[1 : len(cell)-1]
	}
	if cell == "" {
		return Count{}, nil
	}

	v, err := strconv.Atoi(cell)
	if err != nil || v < 0 {
		return Count{}, fmt.Errorf("%w: %q", ErrMalformedCount, cell)
	}
	return CountOf(v), nil
}

// splitDate splits M/D/YYYY into its fields
func splitDate(date string) (year, month, day string, ok bool) {
	parts := strings.Split(strings.TrimSpace(date), "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[2], parts[0], parts[1], true
}

func pad(field string) string {
	if len(field) == 1 {
		return "0" + field
	}
	return field
}
