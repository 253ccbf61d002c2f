package metrics

// Phase names used as the "phase" label of the duration histogram and as
// operation names for Recorder.
const (
	// PhaseLoad covers parsing the ontology documents.
	PhaseLoad = "load"
	// PhaseResolve covers building the abbreviation table.
	PhaseResolve = "resolve"
	// PhasePrepare covers rewriting the full taxonomy.
	PhasePrepare = "prepare"
	// PhaseReduce covers frequency counting and taxonomy reduction.
	PhaseReduce = "reduce"
	// PhaseConvert covers the observation loop including batch writes.
	PhaseConvert = "convert"
	// PhaseArchive covers one SQL archive insert.
	PhaseArchive = "archive"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Histogram bucket configuration.
const (
	// BucketStart10ms is the starting bucket for phase histograms (10ms to ~80s range).
	BucketStart10ms = 0.01
	// BucketStart1ms is the starting bucket for archive inserts (1ms to ~4s range).
	BucketStart1ms = 0.001
	// BucketFactor2 is the exponential growth factor for histogram buckets.
	BucketFactor2 = 2
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
	// BucketCount14 defines 14 exponential buckets.
	BucketCount14 = 14
)

// Archive operation names.
const (
	OpBeginRun  = "begin_run"
	OpSave      = "save"
	OpFinishRun = "finish_run"
)
