package cmdu

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every Decode error, alongside the specific
// cause, so a dropped frame can be classified with errors.Is.
var ErrMalformed = errors.New("cmdu: malformed frame")

// CMDU layer errors.
var (
	// Decode errors
	ErrFrameTooShort = errors.New("cmdu: frame shorter than header")
	ErrTruncated     = errors.New("cmdu: truncated TLV header or missing end of message")

	// Record list errors
	ErrTooManyTLVs  = errors.New("cmdu: too many TLVs")
	ErrReservedType = errors.New("cmdu: end-of-message TLV in record list")

	// Encode errors
	ErrFrameTooLarge = errors.New("cmdu: frame exceeds capacity")
)

func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformed, err)
}
