package datastore

import "github.com/halias/halias-go/internal/logger"

// GetLogger returns the datastore package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("datastore")
}
