package validation

import "github.com/halias/halias-go/internal/logger"

// GetLogger returns the validation package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("validation")
}
