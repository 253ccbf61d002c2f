package pipeline

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/observability/metrics"
	"github.com/halias/halias-go/internal/taxon"
)

// Coverage is the resolved abbreviation table measured against the list of
// accepted abbreviations
type Coverage struct {
	Entries   []taxon.Entry    `json:"entries"`
	Conflicts []taxon.Conflict `json:"conflicts"`
	Accepted  int              `json:"accepted"`
	Unmapped  []string         `json:"unmapped"`
}

// Abbreviations loads the ontologies and resolves the abbreviation table
// without converting anything
func (p *Pipeline) Abbreviations(ctx context.Context) (*Coverage, error) {
	var tax *taxonomy
	err := metrics.TimePhase(p.metrics.Run, metrics.PhaseLoad, func() error {
		var err error
		tax, err = p.load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	table, err := taxon.Resolve(tax.store, p.vocab, tax.accepted, tax.codes)
	if err != nil {
		return nil, err
	}

	coverage := &Coverage{
		Entries:   table.Entries(),
		Conflicts: table.Conflicts(),
		Accepted:  len(tax.codes),
		Unmapped:  table.Unmapped(tax.codes),
	}
	p.log.Info("abbreviation coverage computed",
		logger.Int("entries", len(coverage.Entries)),
		logger.Int("accepted", coverage.Accepted),
		logger.Int("unmapped", len(coverage.Unmapped)))
	return coverage, nil
}

// Print writes the table as aligned text
func (c *Coverage) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tRANK\tID\tABBREVIATIONS")
	for _, e := range c.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", e.Name, e.Rank, e.LocalID, e.Abbreviations)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d conflicts, %d of %d accepted abbreviations unmapped\n",
		len(c.Conflicts), len(c.Unmapped), c.Accepted)
	for _, code := range c.Unmapped {
		fmt.Fprintf(w, "  %s\n", code)
	}
	return nil
}
