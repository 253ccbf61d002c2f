package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/halias/halias-go/internal/conf"
	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
)

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open creates the database file if needed and migrates the schema
func (store *SQLiteStore) Open() error {
	path := store.Settings.Output.Path(store.Settings.Output.SQLite.Path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("operation", "create-db-dir").
				FileContext(path, 0).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return dbError(err, "open").Context("db_type", "sqlite").Build()
	}

	store.DB = db
	GetLogger().Info("SQLite archive opened", logger.String("path", path))
	return performAutoMigration(db, "sqlite")
}

// Close closes the database
func (store *SQLiteStore) Close() error {
	return store.closeDB("sqlite")
}
