package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReporter struct {
	reported []*EnhancedError
}

func (r *countingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *countingReporter) IsEnabled() bool { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
}

func TestBuilderKeepsExplicitFields(t *testing.T) {
	t.Parallel()

	ee := Newf("count %q is not an integer", "x").
		Category(CategoryFileParsing).
		Component("observation").
		Context("row", 12).
		Build()

	assert.Equal(t, "observation", ee.GetComponent())
	assert.True(t, IsCategory(ee, CategoryFileParsing))
	assert.Equal(t, 12, ee.GetContext()["row"])
}

func TestIsMatchesWrappedSentinel(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("sentinel")
	ee := New(fmt.Errorf("wrapped: %w", sentinel)).Category(CategoryTaxonomy).Build()

	require.ErrorIs(t, ee, sentinel)
	assert.False(t, IsCategory(ee, CategoryDatabase))
}

func TestHighPriorityErrorsAreReported(t *testing.T) {
	reporter := &countingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	New(NewStd("minor")).Category(CategoryValidation).Build()
	critical := New(NewStd("fatal count")).Category(CategoryObservation).Priority(PriorityCritical).Build()

	require.Len(t, reporter.reported, 1)
	assert.Same(t, critical, reporter.reported[0])
	assert.True(t, critical.IsReported())
}

func TestBasicScrub(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"home path", "open /home/mkoho/HALIAS/avio.ttl: no such file", "open /home/[USER]/HALIAS/avio.ttl: no such file"},
		{"credentials", "connect failed password=secret", "connect failed password=[REDACTED]"},
		{"mysql dsn", "dial halias:secret@tcp(localhost:3306)/halias", "dial [REDACTED]@tcp(localhost:3306)/halias"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, basicScrub(tt.input))
		})
	}
}
