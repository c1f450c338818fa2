// Package timereport collects per-phase wall-clock timings for a single
// calibration run.
package timereport

import (
	"time"

	"github.com/google/uuid"
)

// TimeReport records how long each phase of a calibrate call took. Field
// names and grouping mirror the original implementation's TimeReport
// struct so experiment logs stay comparable across reimplementations.
type TimeReport struct {
	// RunID correlates this report with the log lines emitted during the
	// same Calibrate call.
	RunID string

	ComputeScores         time.Duration
	ComputeScoresCalib    time.Duration
	ComputeScoresTune     time.Duration
	MemoryCopyPostCompute time.Duration
	PickRegLambda         time.Duration
	RegularizeScores      time.Duration
	Optimize              time.Duration
	ConfigureTotal        time.Duration
}

// New creates a TimeReport with a fresh RunID.
func New() *TimeReport {
	return &TimeReport{RunID: uuid.NewString()}
}

// Phase returns a stop function that accumulates elapsed time into the
// field selected by add when called.
//
//	stop := report.Phase(&report.Optimize)
//	defer stop()
func (r *TimeReport) Phase(add *time.Duration) func() {
	start := time.Now()
	return func() {
		*add += time.Since(start)
	}
}
