package metrics

// Recorder defines a minimal interface for recording metrics.
// Components that only time phases depend on this instead of RunMetrics.
type Recorder interface {
	// RecordOperation records an operation with its status, e.g. ("resolve", "success").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence categorized by errorType,
	// typically the category of an EnhancedError.
	RecordError(operation, errorType string)
}

// NoOpRecorder discards everything. It is used when metrics are disabled.
type NoOpRecorder struct{}

// RecordOperation implements Recorder.
func (NoOpRecorder) RecordOperation(string, string) {}

// RecordDuration implements Recorder.
func (NoOpRecorder) RecordDuration(string, float64) {}

// RecordError implements Recorder.
func (NoOpRecorder) RecordError(string, string) {}

var (
	_ Recorder = NoOpRecorder{}
	_ Recorder = (*RunMetrics)(nil)
)
