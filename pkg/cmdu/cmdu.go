package cmdu

import (
	"github.com/backkem/ieee1905/pkg/tlv"
)

// CMDU is a control message: the envelope header plus at most MaxTLVs
// records in order. The end-of-message marker is implicit and never stored.
type CMDU struct {
	Header

	tlvs  [MaxTLVs]tlv.TLV
	count int
}

// New creates an empty single-fragment CMDU of the given type.
func New(mt MessageType) *CMDU {
	return &CMDU{
		Header: Header{
			MessageType:  mt,
			LastFragment: true,
		},
	}
}

// Append adds a record to the end of the list. The value is stored by
// reference; records built by the tlv constructors already own their bytes.
func (c *CMDU) Append(t tlv.TLV) error {
	if c.count >= MaxTLVs {
		return ErrTooManyTLVs
	}
	if t.Type == tlv.TypeEndOfMessage {
		return ErrReservedType
	}
	if t.Len() > tlv.MaxValueLen {
		return tlv.ErrValueTooLong
	}

	c.tlvs[c.count] = t
	c.count++
	return nil
}

// TLVs returns the records in order. The slice aliases the CMDU.
func (c *CMDU) TLVs() []tlv.TLV {
	return c.tlvs[:c.count]
}

// Count returns the number of records, excluding end-of-message.
func (c *CMDU) Count() int {
	return c.count
}

// Find returns the first record of the given type.
func (c *CMDU) Find(typ tlv.Type) (tlv.TLV, bool) {
	for _, t := range c.TLVs() {
		if t.Type == typ {
			return t, true
		}
	}
	return tlv.TLV{}, false
}

// Size returns the encoded size in bytes, end-of-message marker included.
func (c *CMDU) Size() int {
	size := HeaderSize
	for _, t := range c.TLVs() {
		size += t.Size()
	}
	return size + tlv.HeaderLen
}

// EncodeTo serializes the CMDU into buf and returns the frame length.
// The capacity is len(buf), capped at MaxFrameSize. The whole frame is
// sized before the first write, so a failing call leaves buf untouched.
func (c *CMDU) EncodeTo(buf []byte) (int, error) {
	capacity := min(len(buf), MaxFrameSize)

	for _, t := range c.TLVs() {
		if t.Type == tlv.TypeEndOfMessage {
			return 0, ErrReservedType
		}
		if t.Len() > tlv.MaxValueLen {
			return 0, tlv.ErrValueTooLong
		}
	}
	if c.Size() > capacity {
		return 0, ErrFrameTooLarge
	}

	frame := buf[:capacity]
	offset := c.Header.EncodeTo(frame)

	for _, t := range c.TLVs() {
		n, err := t.EncodeTo(frame[offset:])
		if err != nil {
			return 0, err
		}
		offset += n
	}

	n, err := tlv.TLV{Type: tlv.TypeEndOfMessage}.EncodeTo(frame[offset:])
	if err != nil {
		return 0, err
	}

	return offset + n, nil
}

// Encode serializes the CMDU into a newly allocated frame.
func (c *CMDU) Encode() ([]byte, error) {
	size := c.Size()
	if size > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, size)
	n, err := c.EncodeTo(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Decode parses a frame. Any structural error rejects the whole frame and
// wraps ErrMalformed. Bytes following the end-of-message marker are ignored.
func Decode(data []byte) (*CMDU, error) {
	c := &CMDU{}

	offset, err := c.Header.Decode(data)
	if err != nil {
		return nil, malformed(err)
	}

	for {
		typ, _, err := tlv.DecodeHeader(data[offset:])
		if err != nil {
			return nil, malformed(ErrTruncated)
		}
		if typ == tlv.TypeEndOfMessage {
			return c, nil
		}
		if c.count >= MaxTLVs {
			return nil, malformed(ErrTooManyTLVs)
		}

		rec, n, err := tlv.Decode(data[offset:])
		if err != nil {
			return nil, malformed(err)
		}

		c.tlvs[c.count] = rec
		c.count++
		offset += n
	}
}
