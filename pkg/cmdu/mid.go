package cmdu

import (
	"crypto/rand"
	"encoding/binary"
	"io"
)

// MessageIDGenerator hands out CMDU message ids. Each call to Next
// increments the id, wrapping modulo 65536 and skipping zero.
//
// Ids are a liveness hint for receivers, not an ordering guarantee: the
// datagram transport may drop or reorder frames. Not safe for concurrent use.
type MessageIDGenerator struct {
	value uint16
}

// NewMessageIDGenerator creates a generator seeded with a random value read
// from r. A nil r uses crypto/rand.
func NewMessageIDGenerator(r io.Reader) *MessageIDGenerator {
	return &MessageIDGenerator{
		value: randomMessageID(r),
	}
}

// NewMessageIDGeneratorWithValue creates a generator whose next id is
// the one following initial. Used for testing.
func NewMessageIDGeneratorWithValue(initial uint16) *MessageIDGenerator {
	return &MessageIDGenerator{
		value: initial,
	}
}

// Next returns the next message id. It never returns 0.
func (g *MessageIDGenerator) Next() uint16 {
	g.value++
	if g.value == 0 {
		g.value = 1
	}
	return g.value
}

// Current returns the most recently issued id without advancing.
func (g *MessageIDGenerator) Current() uint16 {
	return g.value
}

func randomMessageID(r io.Reader) uint16 {
	if r == nil {
		r = rand.Reader
	}
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		// Fall back to a fixed start; the first Next still yields 1.
		return 0
	}
	return binary.BigEndian.Uint16(buf[:])
}
