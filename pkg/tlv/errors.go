package tlv

import "errors"

var (
	// ErrValueTooLong is returned when a value exceeds MaxValueLen.
	ErrValueTooLong = errors.New("tlv: value exceeds maximum length")

	// ErrInvalidLength is returned when a value does not match the fixed
	// length its type requires (6 bytes for MAC records, 15 for device info).
	ErrInvalidLength = errors.New("tlv: invalid length for type")

	// ErrInvalidType is returned when a constructor is asked to build a
	// record of a type that cannot carry that record.
	ErrInvalidType = errors.New("tlv: invalid type for record")

	// ErrMissingValue is returned when a required input is nil.
	ErrMissingValue = errors.New("tlv: missing value")

	// ErrBufferTooSmall is returned when an encode destination cannot hold the record.
	ErrBufferTooSmall = errors.New("tlv: buffer too small")

	// ErrUnexpectedEOF is returned when the input ends inside a TLV header.
	ErrUnexpectedEOF = errors.New("tlv: unexpected end of input")

	// ErrOverrun is returned when a declared length runs past the end of the input.
	ErrOverrun = errors.New("tlv: declared length exceeds remaining input")
)
