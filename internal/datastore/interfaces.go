// interfaces.go: archive operations for accepted observation records
package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/halias/halias-go/internal/conf"
	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
	"github.com/halias/halias-go/internal/observation"
)

// DefaultSlowQueryThreshold is the duration after which a statement is logged as slow.
// Batch inserts of a full output batch take several hundred milliseconds.
const DefaultSlowQueryThreshold = time.Second

// insertBatchSize is the number of rows per INSERT statement
const insertBatchSize = 1000

// Interface abstracts the archive database
type Interface interface {
	Open() error
	Close() error
	BeginRun(ctx context.Context, run *Run) error
	SaveObservations(ctx context.Context, runID string, records []*observation.Record) error
	FinishRun(ctx context.Context, run *Run) error
	CountObservations(ctx context.Context, runID string) (int64, error)
}

// DataStore implements Interface on a GORM database
type DataStore struct {
	DB *gorm.DB
}

// New returns the archive configured in settings, or nil when none is enabled
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(GetLogger().Module("gorm"), DefaultSlowQueryThreshold),
	}
}

func performAutoMigration(db *gorm.DB, dbType string) error {
	if err := db.AutoMigrate(&Run{}, &Observation{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto-migrate").
			Context("db_type", dbType).
			Build()
	}
	GetLogger().Debug("database schema migrated", logger.String("db_type", dbType))
	return nil
}

// BeginRun inserts the run row
func (ds *DataStore) BeginRun(ctx context.Context, run *Run) error {
	if err := ds.ready(); err != nil {
		return err
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	if err := ds.DB.WithContext(ctx).Create(run).Error; err != nil {
		return dbError(err, "begin-run").Context("run_id", run.ID).Build()
	}
	return nil
}

// SaveObservations inserts the records of one output batch in a single transaction
func (ds *DataStore) SaveObservations(ctx context.Context, runID string, records []*observation.Record) error {
	if err := ds.ready(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	rows := make([]Observation, 0, len(records))
	for _, rec := range records {
		rows = append(rows, NewObservation(runID, rec))
	}

	start := time.Now()
	err := ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
	if err != nil {
		return dbError(err, "save-observations").
			Timing("save-observations", time.Since(start)).
			Context("run_id", runID).
			Context("records", len(records)).
			Build()
	}

	GetLogger().Debug("observations archived",
		logger.String("run_id", runID),
		logger.Int("records", len(records)),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// FinishRun stores the final counters of a run
func (ds *DataStore) FinishRun(ctx context.Context, run *Run) error {
	if err := ds.ready(); err != nil {
		return err
	}
	if run.FinishedAt == nil {
		now := time.Now()
		run.FinishedAt = &now
	}
	if run.Status == "" || run.Status == RunStatusRunning {
		run.Status = RunStatusCompleted
	}
	if err := ds.DB.WithContext(ctx).Save(run).Error; err != nil {
		return dbError(err, "finish-run").Context("run_id", run.ID).Build()
	}
	return nil
}

// CountObservations returns the number of archived records of a run
func (ds *DataStore) CountObservations(ctx context.Context, runID string) (int64, error) {
	if err := ds.ready(); err != nil {
		return 0, err
	}
	var count int64
	if err := ds.DB.WithContext(ctx).Model(&Observation{}).Where("run_id = ?", runID).Count(&count).Error; err != nil {
		return 0, dbError(err, "count-observations").Context("run_id", runID).Build()
	}
	return count, nil
}

func (ds *DataStore) ready() error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}
	return nil
}

// closeDB closes the pool behind the GORM handle
func (ds *DataStore) closeDB(dbType string) error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "get-sql-db").Context("db_type", dbType).Build()
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close").Context("db_type", dbType).Build()
	}
	ds.DB = nil
	GetLogger().Debug("database connection closed", logger.String("db_type", dbType))
	return nil
}

func dbError(err error, operation string) *errors.ErrorBuilder {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)
}
