package transport

import (
	"net"

	"github.com/backkem/ieee1905/pkg/cmdu"
)

// ReceivedFrame is one decoded inbound CMDU.
type ReceivedFrame struct {
	// CMDU is the decoded frame. It is owned by the handler.
	CMDU *cmdu.CMDU
	// Source is the sender's identity address as far as it can be told.
	// It is never authenticated.
	Source net.HardwareAddr
	// SourceOrigin records how Source was obtained.
	SourceOrigin SourceOrigin
	// PeerAddr is the socket-level address the datagram came from.
	PeerAddr net.Addr
}

// FrameHandler is called once per successfully decoded inbound CMDU, on the
// goroutine that called Poll or DrainReady.
type FrameHandler func(f *ReceivedFrame)
