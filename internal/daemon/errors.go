package daemon

import "errors"

// Daemon errors.
var (
	// ErrInvalidConfig is returned when the configuration is inconsistent.
	ErrInvalidConfig = errors.New("daemon: invalid config")

	// ErrUnknownSendType is returned for a send request of an unknown kind.
	ErrUnknownSendType = errors.New("daemon: unknown send type")

	// ErrMissingDestination is returned when a send request names no destination.
	ErrMissingDestination = errors.New("daemon: missing destination")

	// ErrInvalidRequest is returned when a send request field cannot be parsed.
	ErrInvalidRequest = errors.New("daemon: invalid request")

	// ErrStopped is returned when the event loop is not running.
	ErrStopped = errors.New("daemon: stopped")

	// ErrServiceNotFound is returned when no daemon API is found through DNS-SD.
	ErrServiceNotFound = errors.New("daemon: service not found")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("daemon: already running")
)
