package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed context.
	ErrClosed = errors.New("transport: closed")

	// ErrInvalidAddress is returned when a destination cannot be resolved.
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrNoHandler is returned when no frame handler is configured.
	ErrNoHandler = errors.New("transport: no frame handler configured")

	// ErrNilMessage is returned when Send is called without a CMDU.
	ErrNilMessage = errors.New("transport: nil message")

	// ErrShortWrite is returned when the socket accepted fewer bytes than the frame.
	ErrShortWrite = errors.New("transport: short write")

	// ErrDrainUnsupported is returned by DrainReady when the socket exposes
	// no raw descriptor or the platform has no non-blocking receive.
	ErrDrainUnsupported = errors.New("transport: non-blocking drain unsupported")

	// ErrInvalidLocalAddress is returned when the configured identity is not 6 bytes.
	ErrInvalidLocalAddress = errors.New("transport: local address must be 6 bytes")
)
