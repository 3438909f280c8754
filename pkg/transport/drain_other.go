//go:build !linux

package transport

import "net"

func (c *Context) recvNow(buf []byte) (n int, peer net.Addr, ok bool, err error) {
	return 0, nil, false, ErrDrainUnsupported
}
