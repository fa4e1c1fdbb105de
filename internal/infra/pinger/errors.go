package pinger

import "errors"

var (
	// ErrPingerAlreadyRegistered is returned when registering a duplicate pinger name
	ErrPingerAlreadyRegistered = errors.New("pinger already registered")

	// ErrPingerNotFound is returned when requesting stats for an unknown pinger
	ErrPingerNotFound = errors.New("pinger not found")
)
