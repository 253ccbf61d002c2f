// Package observation reads the Halias observation CSV and normalizes its
// rows into observation records.
package observation

import (
	"encoding/csv"
	"io"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/taxon"
)

// Delimiter separates the CSV columns
const Delimiter = ';'

// HeaderTaxon is the taxon column value of header rows
const HeaderTaxon = "laji"

// columns is the number of fields a row carries
const columns = 6

// RawRow holds the unparsed fields of one CSV row
type RawRow struct {
	Index      int    // 1-based row number, header rows included
	Taxon      string // taxon code
	Date       string // M/D/YYYY
	Local      string // local count
	Migration  string // migration count
	Additional string // additional-area count
	Estimated  string // "FALSE" when the local count was counted, not estimated
}

// Reader yields RawRows in file order
type Reader struct {
	csv   *csv.Reader
	index int
}

// NewReader returns a Reader over semicolon-delimited input
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Next returns the next row, or io.EOF after the last one. Short rows are
// padded with empty fields.
func (r *Reader) Next() (RawRow, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return RawRow{}, io.EOF
	}
	if err != nil {
		line, _ := r.csv.FieldPos(0)
		return RawRow{}, errors.New(err).
			Component("observation").
			Category(errors.CategoryFileParsing).
			Context("row", r.index+1).
			Context("line", line).
			Build()
	}
	r.index++

	var fields [columns]string
	copy(fields[:], record)

	return RawRow{
		Index:      r.index,
		Taxon:      fields[0],
		Date:       fields[1],
		Local:      fields[2],
		Migration:  fields[3],
		Additional: fields[4],
		Estimated:  fields[5],
	}, nil
}

// Rows returns the number of rows read so far
func (r *Reader) Rows() int {
	return r.index
}

// CountFrequencies counts the rows of every taxon code over the whole input.
// Codes are folded like abbreviation table keys.
func CountFrequencies(r io.Reader) (map[string]int, int, error) {
	reader := NewReader(r)
	frequencies := make(map[string]int)
	for {
		row, err := reader.Next()
		if err == io.EOF {
			GetLogger().Debug("taxon frequencies counted",
				logger.Int("rows", reader.Rows()),
				logger.Int("codes", len(frequencies)))
			return frequencies, reader.Rows(), nil
		}
		if err != nil {
			return nil, reader.Rows(), err
		}
		frequencies[taxon.Fold(row.Taxon)]++
	}
}
