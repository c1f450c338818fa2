package conann

import "errors"

// InputError conditions, recovered at the CLI/API edge.
var (
	// ErrInvalidAlpha is returned when alpha is not in (0, 1).
	ErrInvalidAlpha = errors.New("conann: alpha must be in (0, 1)")

	// ErrInvalidSplitFractions is returned when calib_frac + tune_frac is
	// not in (0, 1).
	ErrInvalidSplitFractions = errors.New("conann: calib_frac + tune_frac must be in (0, 1)")

	// ErrTooFewQueries is returned when fewer than 3 queries are supplied
	// to Calibrate.
	ErrTooFewQueries = errors.New("conann: at least 3 queries are required")

	// ErrNoAdmittedList is returned by Search when the very first probe
	// already exceeds the calibrated threshold: there is no admitted
	// snapshot to return.
	ErrNoAdmittedList = errors.New("conann: no list admitted under calibration")
)
