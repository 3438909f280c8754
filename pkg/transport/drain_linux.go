//go:build linux

package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"syscall"

	"github.com/mdlayher/packet"
	"golang.org/x/sys/unix"
)

// recvNow performs one non-blocking receive into buf. ok is false when no
// datagram is pending. MSG_TRUNC makes n report the full datagram length,
// which may exceed len(buf).
func (c *Context) recvNow(buf []byte) (n int, peer net.Addr, ok bool, err error) {
	sc, isSys := c.conn.(syscall.Conn)
	if !isSys {
		return 0, nil, false, ErrDrainUnsupported
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return 0, nil, false, fmt.Errorf("%w: %w", ErrDrainUnsupported, err)
	}

	var (
		from unix.Sockaddr
		rerr error
	)
	err = rc.Read(func(fd uintptr) bool {
		for {
			n, from, rerr = unix.Recvfrom(int(fd), buf, unix.MSG_DONTWAIT|unix.MSG_TRUNC)
			if rerr != unix.EINTR {
				return true
			}
		}
	})
	if err != nil {
		return 0, nil, false, err
	}
	if rerr != nil {
		if errors.Is(rerr, unix.EAGAIN) || errors.Is(rerr, unix.EWOULDBLOCK) {
			return 0, nil, false, nil
		}
		return 0, nil, false, os.NewSyscallError("recvfrom", rerr)
	}

	return n, sockaddrToAddr(from), true, nil
}

func sockaddrToAddr(sa unix.Sockaddr) net.Addr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.UDPAddr{IP: net.IP(append([]byte(nil), sa.Addr[:]...)), Port: sa.Port}
	case *unix.SockaddrInet6:
		return &net.UDPAddr{
			IP:   net.IP(append([]byte(nil), sa.Addr[:]...)),
			Port: sa.Port,
			Zone: zoneName(sa.ZoneId),
		}
	case *unix.SockaddrLinklayer:
		halen := min(int(sa.Halen), len(sa.Addr))
		mac := make(net.HardwareAddr, halen)
		copy(mac, sa.Addr[:halen])
		return &packet.Addr{HardwareAddr: mac}
	default:
		return nil
	}
}

func zoneName(index uint32) string {
	if index == 0 {
		return ""
	}
	if ifi, err := net.InterfaceByIndex(int(index)); err == nil {
		return ifi.Name
	}
	return strconv.Itoa(int(index))
}
