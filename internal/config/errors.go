package config

import "errors"

var (
	// ErrDurationTooSmall is returned when a duration env value is below its minimum
	ErrDurationTooSmall = errors.New("duration below minimum")

	// ErrThresholdsInvalid is returned when the thresholds file fails validation
	ErrThresholdsInvalid = errors.New("invalid thresholds configuration")
)
