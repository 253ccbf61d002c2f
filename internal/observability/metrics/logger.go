// Package metrics provides Prometheus collectors for conversion runs.
package metrics

import "github.com/halias/halias-go/internal/logger"

// Package-level cached logger instance.
var log = logger.Global().Module("metrics")
