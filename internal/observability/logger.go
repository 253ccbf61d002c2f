// Package observability wires the run metrics registry and its export.
package observability

import "github.com/halias/halias-go/internal/logger"

// Package-level cached logger instance.
var log = logger.Global().Module("observability")
