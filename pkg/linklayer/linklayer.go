// Package linklayer opens the native IEEE 1905.1 transport: an AF_PACKET
// datagram socket bound to the 1905 EtherType on one interface.
//
// Frames read from the socket carry the sender's true hardware address,
// unlike the UDP substrate, where no link-layer source is available.
package linklayer

import (
	"errors"
	"fmt"
	"net"

	"github.com/mdlayher/packet"
)

// EtherType is the IEEE 1905.1 EtherType.
const EtherType = 0x893A

// MulticastAddress is the IEEE 1905.1 neighbor multicast group.
var MulticastAddress = net.HardwareAddr{0x01, 0x80, 0xc2, 0x00, 0x00, 0x13}

// Errors returned by this package.
var (
	ErrInvalidAddress = errors.New("linklayer: invalid hardware address")
	ErrNoInterface    = errors.New("linklayer: interface name required")
)

// Listen opens a datagram packet socket on ifaceName for EtherType frames.
// The returned conn implements net.PacketConn and syscall.Conn; its
// LocalAddr is a *packet.Addr holding the interface's hardware address.
func Listen(ifaceName string) (*packet.Conn, error) {
	ifi, err := lookup(ifaceName)
	if err != nil {
		return nil, err
	}

	conn, err := packet.Listen(ifi, packet.Datagram, EtherType, nil)
	if err != nil {
		return nil, fmt.Errorf("linklayer: listen on %s: %w", ifaceName, err)
	}
	return conn, nil
}

// ResolveAddr parses s as a 6-byte hardware address destination.
func ResolveAddr(s string) (*packet.Addr, error) {
	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if len(mac) != 6 {
		return nil, fmt.Errorf("%w: %q is not 6 bytes", ErrInvalidAddress, s)
	}
	return &packet.Addr{HardwareAddr: mac}, nil
}

// SourceAddress extracts the hardware address from a peer address returned
// by a packet socket read. ok is false for any other address type.
func SourceAddress(addr net.Addr) (mac net.HardwareAddr, ok bool) {
	pa, isPacket := addr.(*packet.Addr)
	if !isPacket || len(pa.HardwareAddr) != 6 {
		return nil, false
	}
	return pa.HardwareAddr, true
}

// InterfaceAddress returns the hardware address of ifaceName.
func InterfaceAddress(ifaceName string) (net.HardwareAddr, error) {
	ifi, err := lookup(ifaceName)
	if err != nil {
		return nil, err
	}
	if len(ifi.HardwareAddr) != 6 {
		return nil, fmt.Errorf("%w: %s has no 6-byte address", ErrInvalidAddress, ifaceName)
	}
	return ifi.HardwareAddr, nil
}

func lookup(ifaceName string) (*net.Interface, error) {
	if ifaceName == "" {
		return nil, ErrNoInterface
	}
	ifi, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("linklayer: interface %s: %w", ifaceName, err)
	}
	return ifi, nil
}
