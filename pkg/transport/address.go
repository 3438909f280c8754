package transport

import (
	"fmt"
	"net"

	"github.com/mdlayher/packet"

	"github.com/backkem/ieee1905/pkg/linklayer"
)

// resolveDestination turns dst into an address writable on a socket whose
// local address is local. Link-layer sockets take a MAC address; UDP
// sockets take host:port.
func resolveDestination(dst string, local net.Addr) (net.Addr, error) {
	if dst == "" {
		return nil, fmt.Errorf("%w: empty destination", ErrInvalidAddress)
	}

	switch local.(type) {
	case *packet.Addr:
		addr, err := linklayer.ResolveAddr(dst)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		return addr, nil
	default:
		addr, err := net.ResolveUDPAddr("udp", dst)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		if addr.Port == 0 {
			return nil, fmt.Errorf("%w: %q has no port", ErrInvalidAddress, dst)
		}
		return addr, nil
	}
}

// hardwareSource returns the link-layer source of a datagram, if the socket
// reported one.
func hardwareSource(peer net.Addr) (net.HardwareAddr, bool) {
	return linklayer.SourceAddress(peer)
}
