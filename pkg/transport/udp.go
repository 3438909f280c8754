package transport

import (
	"context"
	"net"
)

// DefaultPort is the UDP port the daemon binds when none is configured.
const DefaultPort = 19050

// listenUDP binds a UDP socket on addr with SO_REUSEADDR set, so a
// restarted daemon can rebind its port immediately.
func listenUDP(addr string) (net.PacketConn, error) {
	if addr == "" {
		addr = ":0" // Use ephemeral port
	}

	lc := net.ListenConfig{Control: reuseAddrControl}
	return lc.ListenPacket(context.Background(), "udp", addr)
}
