package cmdu

import "encoding/binary"

// Header is the fixed CMDU envelope. All multi-byte fields are big-endian
// on the wire.
type Header struct {
	// MessageType identifies the CMDU kind.
	MessageType MessageType

	// MessageID is assigned by the sender per transmitted CMDU.
	MessageID uint16

	// FragmentID numbers the fragments of one CMDU. Always 0 for
	// single-datagram frames.
	FragmentID uint8

	// LastFragment is set on the final (here: only) fragment.
	LastFragment bool
}

// EncodeTo serializes the header into buf, which must be at least
// HeaderSize bytes long. Returns the number of bytes written.
func (h *Header) EncodeTo(buf []byte) int {
	buf[0] = MessageVersion
	binary.BigEndian.PutUint16(buf[1:], uint16(h.MessageType))
	binary.BigEndian.PutUint16(buf[3:], h.MessageID)
	buf[5] = h.FragmentID

	var flags uint8
	if h.LastFragment {
		flags |= flagLastFragment
	}
	buf[6] = flags

	return HeaderSize
}

// Decode deserializes the header from data and returns the number of bytes
// consumed. The version byte is not checked.
func (h *Header) Decode(data []byte) (int, error) {
	if len(data) < HeaderSize {
		return 0, ErrFrameTooShort
	}

	h.MessageType = MessageType(binary.BigEndian.Uint16(data[1:]))
	h.MessageID = binary.BigEndian.Uint16(data[3:])
	h.FragmentID = data[5]
	h.LastFragment = data[6]&flagLastFragment != 0

	return HeaderSize, nil
}

// IsFragmented returns true if the header describes part of a multi-datagram CMDU.
func (h *Header) IsFragmented() bool {
	return h.FragmentID != 0 || !h.LastFragment
}
