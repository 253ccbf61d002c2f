package taxon

import (
	"sync"

	"github.com/halias/halias-go/internal/logger"
)

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the taxon package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("taxon")
	})
	return serviceLogger
}
