package metrics

import (
	"time"

	"github.com/halias/halias-go/internal/errors"
)

// TimePhase runs fn and records its duration and outcome on r under phase.
// Failures are labelled with the EnhancedError category, "generic" otherwise.
// A nil recorder only runs fn.
func TimePhase(r Recorder, phase string, fn func() error) error {
	if r == nil {
		return fn()
	}

	start := time.Now()
	err := fn()
	r.RecordDuration(phase, time.Since(start).Seconds())

	if err != nil {
		r.RecordOperation(phase, StatusError)
		r.RecordError(phase, errorCategory(err))
		return err
	}
	r.RecordOperation(phase, StatusSuccess)
	return nil
}

func errorCategory(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	return string(errors.CategoryGeneric)
}
