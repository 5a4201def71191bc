package session

import "errors"

var (
	// ErrRequestInFlight is returned when a save or a generation is requested
	// while another one of the same kind has not finished. The request is not
	// queued.
	ErrRequestInFlight = errors.New("request already in progress")

	ErrNoBackend   = errors.New("no backend configured")
	ErrNoGenerator = errors.New("no generator configured")
)
