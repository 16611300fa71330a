package arena

import "errors"

var (
	// ErrInput marks an unreadable or malformed pose table or video
	// metadata. The video is aborted without a partial result.
	ErrInput = errors.New("invalid input")

	// ErrCalibration marks calibration values that make the analysis
	// meaningless (for example a non-positive arena size).
	ErrCalibration = errors.New("invalid calibration")

	// ErrInsufficientData marks a metric whose denominator is empty.
	// Callers report it as NaN, never as 0.
	ErrInsufficientData = errors.New("insufficient data")
)
