package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/halias/halias-go/internal/conf"
	"github.com/halias/halias-go/internal/logger"
)

// MySQLStore implements Interface for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

// dsn builds the connection string; it carries the password and must not be logged
func (store *MySQLStore) dsn() string {
	m := store.Settings.Output.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}

// Open connects to the server and migrates the schema
func (store *MySQLStore) Open() error {
	m := store.Settings.Output.MySQL

	db, err := gorm.Open(mysql.Open(store.dsn()), gormConfig())
	if err != nil {
		return dbError(err, "open").
			Context("db_type", "mysql").
			Context("host", m.Host).
			Context("database", m.Database).
			Build()
	}

	store.DB = db
	GetLogger().Info("MySQL archive opened",
		logger.String("host", m.Host),
		logger.String("port", m.Port),
		logger.String("database", m.Database))
	return performAutoMigration(db, "mysql")
}

// Close closes the connection pool
func (store *MySQLStore) Close() error {
	return store.closeDB("mysql")
}
