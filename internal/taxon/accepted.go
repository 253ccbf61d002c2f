package taxon

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
)

// taxonRow matches the data rows of the accepted taxa report: two spaces of
// indentation followed by a six character species code
var taxonRow = regexp.MustCompile(`^\s{2}\w{6}\s.*`)

// columnSeparator splits report columns; names themselves contain single spaces
const columnSeparator = "  "

// nameColumn is the index of the scientific name after splitting on columnSeparator
const nameColumn = 3

// Accepted is the allow-list of taxon names that may receive generated codes
type Accepted struct {
	names map[string]struct{}
}

// NewAccepted builds an allow-list from names as given, folded to lower case
func NewAccepted(names ...string) Accepted {
	a := Accepted{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n = Fold(n); n != "" {
			a.names[n] = struct{}{}
		}
	}
	return a
}

// Has reports whether name is accepted
func (a Accepted) Has(name string) bool {
	_, ok := a.names[name]
	return ok
}

// Len returns the number of accepted names, genera included
func (a Accepted) Len() int {
	return len(a.names)
}

// Names returns the accepted names in lexical order
func (a Accepted) Names() []string {
	names := make([]string, 0, len(a.names))
	for n := range a.names {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// ReadAcceptedTaxa parses the fixed-column species report. Only indented rows
// carrying a species code are read; the genus of every species is accepted too.
func ReadAcceptedTaxa(r io.Reader) (Accepted, error) {
	lines, err := readLines(r)
	if err != nil {
		return Accepted{}, err
	}

	var species []string
	for i, line := range lines {
		if !taxonRow.MatchString(line) {
			continue
		}
		columns := strings.Split(line, columnSeparator)
		if len(columns) <= nameColumn {
			return Accepted{}, errors.Newf("accepted taxa row has %d columns, want at least %d", len(columns), nameColumn+1).
				Component("taxon").
				Category(errors.CategoryFileParsing).
				Context("line", i+1).
				Build()
		}
		species = append(species, columns[nameColumn])
	}

	accepted := NewAccepted(species...)
	for _, name := range species {
		if fields := strings.Fields(Fold(name)); len(fields) > 0 {
			accepted.names[fields[0]] = struct{}{}
		}
	}

	GetLogger().Debug("accepted taxa read",
		logger.Int("species", len(species)),
		logger.Int("names", accepted.Len()))
	return accepted, nil
}

// ReadAcceptedAbbreviations reads one code per line, lower-cased. Blank lines are skipped.
func ReadAcceptedAbbreviations(r io.Reader) ([]string, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		codes = append(codes, Fold(line))
	}
	return codes, nil
}

// LoadAcceptedTaxa reads the accepted taxa report from path
func LoadAcceptedTaxa(path string) (Accepted, error) {
	f, err := openInput(path)
	if err != nil {
		return Accepted{}, err
	}
	defer func() { _ = f.Close() }()
	return ReadAcceptedTaxa(f)
}

// LoadAcceptedAbbreviations reads the accepted abbreviation list from path
func LoadAcceptedAbbreviations(path string) ([]string, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadAcceptedAbbreviations(f)
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, errors.New(err).
			Component("taxon").
			Category(errors.CategoryFileIO).
			Context("operation", "open-allow-list").
			Context("file_path", path).
			Build()
	}
	return f, nil
}

// readLines returns the lines of r without line terminators. Legacy reports
// are Latin-1 encoded; input that is not valid UTF-8 is decoded as ISO 8859-1.
func readLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(err).
			Component("taxon").
			Category(errors.CategoryFileIO).
			Context("operation", "read-allow-list").
			Build()
	}

	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, errors.New(err).
				Component("taxon").
				Category(errors.CategoryFileParsing).
				Context("operation", "decode-latin1").
				Build()
		}
		data = decoded
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Component("taxon").
			Category(errors.CategoryFileParsing).
			Build()
	}
	return lines, nil
}
