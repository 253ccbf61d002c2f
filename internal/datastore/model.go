package datastore

import (
	"time"

	"github.com/halias/halias-go/internal/observation"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is the summary row of one conversion
type Run struct {
	ID               string `gorm:"primaryKey;size:36"`
	StartedAt        time.Time
	FinishedAt       *time.Time
	Status           string `gorm:"size:16"`
	Rows             int    `gorm:"column:row_count"`
	Records          int
	ValidationErrors int
	Batches          int
}

// Observation is one archived record. Keys are unique within a run.
type Observation struct {
	ID                  uint   `gorm:"primaryKey;autoIncrement"`
	RunID               string `gorm:"size:36;uniqueIndex:idx_run_key"`
	Key                 string `gorm:"column:obs_key;size:64;uniqueIndex:idx_run_key"`
	Date                string `gorm:"size:10;index"`
	Taxon               string `gorm:"size:64"`
	SpeciesID           string `gorm:"size:64;index"`
	Season              string `gorm:"size:8"`
	CountLocal          *int
	CountMigration      *int
	CountAdditionalArea *int
	Estimated           bool
	Row                 int `gorm:"column:source_row"`
}

// NewObservation maps a record to its archive row
func NewObservation(runID string, rec *observation.Record) Observation {
	return Observation{
		RunID:               runID,
		Key:                 rec.Key,
		Date:                rec.Date,
		Taxon:               rec.Taxon,
		SpeciesID:           rec.SpeciesID,
		Season:              string(rec.Season),
		CountLocal:          rec.Local.Int(),
		CountMigration:      rec.Migration.Int(),
		CountAdditionalArea: rec.Additional.Int(),
		Estimated:           rec.Estimated,
		Row:                 rec.Row,
	}
}
