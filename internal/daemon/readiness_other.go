//go:build !linux

package daemon

import (
	"syscall"

	"github.com/backkem/ieee1905/pkg/transport"
)

const readinessSupported = false

func waitReadable(rc syscall.RawConn) error {
	return transport.ErrDrainUnsupported
}
