// Package conf provides configuration management for the Halias converter.
package conf

import "github.com/halias/halias-go/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// It is fetched on every call because the central logger is installed after
// the configuration has been read.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
