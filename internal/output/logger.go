package output

import "github.com/halias/halias-go/internal/logger"

// GetLogger returns the output package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("output")
}
