package observation

import "github.com/halias/halias-go/internal/logger"

// GetLogger returns the observation package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("observation")
}
