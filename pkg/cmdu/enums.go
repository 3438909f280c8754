// Package cmdu implements IEEE 1905.1 Control Message Data Unit framing:
// the envelope header, the bounded ordered TLV list and the end-of-message
// marker, plus composers for the supported message kinds.
//
// A frame is carried in a single datagram. Fragment fields are parsed and
// preserved but never reassembled.
package cmdu

import "fmt"

// MessageType identifies the CMDU kind.
type MessageType uint16

const (
	MessageTypeTopologyDiscovery    MessageType = 0x0000
	MessageTypeTopologyNotification MessageType = 0x0001
	MessageTypeTopologyQuery        MessageType = 0x0002
	MessageTypeTopologyResponse     MessageType = 0x0003
	MessageTypeAPAutoconfigSearch   MessageType = 0x0006
	MessageTypeAPAutoconfigResponse MessageType = 0x0007
	MessageTypeAPAutoconfigWSC      MessageType = 0x0008
)

// String returns a human-readable name for the message type.
func (m MessageType) String() string {
	switch m {
	case MessageTypeTopologyDiscovery:
		return "TopologyDiscovery"
	case MessageTypeTopologyNotification:
		return "TopologyNotification"
	case MessageTypeTopologyQuery:
		return "TopologyQuery"
	case MessageTypeTopologyResponse:
		return "TopologyResponse"
	case MessageTypeAPAutoconfigSearch:
		return "APAutoconfigSearch"
	case MessageTypeAPAutoconfigResponse:
		return "APAutoconfigResponse"
	case MessageTypeAPAutoconfigWSC:
		return "APAutoconfigWSC"
	default:
		return fmt.Sprintf("Unknown(0x%04X)", uint16(m))
	}
}

// IsKnown returns true if the message type is one of the supported kinds.
func (m MessageType) IsKnown() bool {
	switch m {
	case MessageTypeTopologyDiscovery, MessageTypeTopologyNotification,
		MessageTypeTopologyQuery, MessageTypeTopologyResponse,
		MessageTypeAPAutoconfigSearch, MessageTypeAPAutoconfigResponse,
		MessageTypeAPAutoconfigWSC:
		return true
	default:
		return false
	}
}

// Frame format constants.
const (
	// MessageVersion is written into the first header byte.
	MessageVersion uint8 = 0x00

	// HeaderSize is version (1) + message type (2) + message id (2) +
	// fragment id (1) + flags (1).
	HeaderSize = 7

	// MaxTLVs is the largest number of records one CMDU may hold,
	// not counting the end-of-message marker.
	MaxTLVs = 16

	// MaxFrameSize is the largest encoded CMDU.
	MaxFrameSize = 1600

	// flagLastFragment is bit 7 of the flags byte.
	flagLastFragment uint8 = 0x80
)
