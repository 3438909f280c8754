//go:build linux

package daemon

import (
	"syscall"

	"golang.org/x/sys/unix"
)

const readinessSupported = true

// waitReadable blocks until a datagram is queued on rc without consuming it.
func waitReadable(rc syscall.RawConn) error {
	var (
		buf  [1]byte
		perr error
	)
	err := rc.Read(func(fd uintptr) bool {
		for {
			_, _, perr = unix.Recvfrom(int(fd), buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
			if perr != unix.EINTR {
				break
			}
		}
		return perr != unix.EAGAIN
	})
	if err != nil {
		return err
	}
	// Socket errors are surfaced by the drain that follows.
	return nil
}
