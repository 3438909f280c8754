package transport

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/pion/logging"

	"github.com/backkem/ieee1905/pkg/cmdu"
	"github.com/backkem/ieee1905/pkg/metrics"
	"github.com/backkem/ieee1905/pkg/tlv"
)

// Context owns one bound datagram socket, the local identity address and
// the message id sequence of one IEEE 1905.1 endpoint.
//
// A Context is single-threaded: Send, Poll, DrainReady and Close must not
// be called concurrently. Close must not race an in-flight Poll.
type Context struct {
	conn    net.PacketConn
	role    Role
	local   net.HardwareAddr
	mids    *cmdu.MessageIDGenerator
	handler FrameHandler
	rand    io.Reader
	log     logging.LeveledLogger
	metrics *metrics.Metrics

	sendBuf [cmdu.MaxFrameSize]byte
	// One spare byte makes oversized datagrams detectable on ReadFrom.
	recvBuf [cmdu.MaxFrameSize + 1]byte

	closed bool
}

// Config configures a transport context.
type Config struct {
	// Role is the protocol role of this endpoint.
	Role Role

	// ListenAddr is the UDP address to bind (e.g., ":19050").
	// Ignored if Conn is provided. Defaults to ":0".
	ListenAddr string

	// Conn is an optional pre-existing socket: a UDP conn, a link-layer
	// conn from package linklayer, or a PipePacketConn.
	// The context takes ownership and closes it, also when NewContext fails.
	Conn net.PacketConn

	// LocalAddress is the AL MAC identity. If nil, a random locally
	// administered unicast address is drawn from Rand.
	LocalAddress net.HardwareAddr

	// Handler is called for each decoded inbound CMDU.
	// Required.
	Handler FrameHandler

	// Rand is the source of randomness for the default identity, the
	// initial message id and synthesized source addresses.
	// If nil, crypto/rand is used.
	Rand io.Reader

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory

	// Metrics receives traffic counters. If nil, nothing is counted.
	Metrics *metrics.Metrics
}

// NewContext binds the socket and resolves the local identity. On failure
// no context is returned and nothing is left open.
func NewContext(config Config) (_ *Context, err error) {
	defer func() {
		if err != nil && config.Conn != nil {
			config.Conn.Close()
		}
	}()

	if config.Handler == nil {
		return nil, ErrNoHandler
	}
	if !config.Role.IsValid() {
		return nil, fmt.Errorf("transport: invalid role %d", config.Role)
	}

	rnd := config.Rand
	if rnd == nil {
		rnd = rand.Reader
	}

	local := config.LocalAddress
	if local == nil {
		local, err = randomLocalAddress(rnd)
		if err != nil {
			return nil, fmt.Errorf("transport: generating local address: %w", err)
		}
	} else if len(local) != tlv.MACLen {
		return nil, ErrInvalidLocalAddress
	} else {
		local = append(net.HardwareAddr(nil), local...)
	}

	c := &Context{
		conn:    config.Conn,
		role:    config.Role,
		local:   local,
		mids:    cmdu.NewMessageIDGenerator(rnd),
		handler: config.Handler,
		rand:    rnd,
		metrics: config.Metrics,
	}

	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("ieee1905")
	}

	if c.conn == nil {
		conn, err := listenUDP(config.ListenAddr)
		if err != nil {
			return nil, fmt.Errorf("transport: bind %q: %w", config.ListenAddr, err)
		}
		c.conn = conn
	}

	if c.log != nil {
		c.log.Infof("%s context on %s, local address %s", c.role, c.conn.LocalAddr(), c.local)
	}

	return c, nil
}

// Role returns the role the context was created with.
func (c *Context) Role() Role {
	return c.role
}

// LocalAddress returns a copy of the AL MAC identity.
func (c *Context) LocalAddress() net.HardwareAddr {
	return append(net.HardwareAddr(nil), c.local...)
}

// LocalAddr returns the socket's local address.
func (c *Context) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// SyscallConn exposes the raw socket so an externally owned event loop
// can wait for read readiness and then call DrainReady.
func (c *Context) SyscallConn() (syscall.RawConn, error) {
	if c.closed {
		return nil, ErrClosed
	}
	sc, ok := c.conn.(syscall.Conn)
	if !ok {
		return nil, ErrDrainUnsupported
	}
	return sc.SyscallConn()
}

// Send assigns the next message id to m, encodes it and writes it as one
// datagram to dst: a MAC address on link-layer sockets, host:port on UDP.
func (c *Context) Send(m *cmdu.CMDU, dst string) error {
	return c.send(m, func() (net.Addr, error) {
		return resolveDestination(dst, c.conn.LocalAddr())
	})
}

// SendTo is Send with an already resolved destination.
func (c *Context) SendTo(m *cmdu.CMDU, addr net.Addr) error {
	return c.send(m, func() (net.Addr, error) {
		if addr == nil {
			return nil, ErrInvalidAddress
		}
		return addr, nil
	})
}

func (c *Context) send(m *cmdu.CMDU, resolve func() (net.Addr, error)) error {
	if c.closed {
		return ErrClosed
	}
	if m == nil {
		return ErrNilMessage
	}

	m.MessageID = c.mids.Next()

	n, err := m.EncodeTo(c.sendBuf[:])
	if err != nil {
		c.metrics.SendFailed(metrics.ReasonEncode)
		if c.log != nil {
			c.log.Warnf("encoding %s: %v", m.MessageType, err)
		}
		return err
	}

	addr, err := resolve()
	if err != nil {
		c.metrics.SendFailed(metrics.ReasonAddress)
		return err
	}

	written, err := c.conn.WriteTo(c.sendBuf[:n], addr)
	if err != nil {
		c.metrics.SendFailed(metrics.ReasonWrite)
		if c.log != nil {
			c.log.Warnf("send to %v failed: %v", addr, err)
		}
		return fmt.Errorf("transport: send to %v: %w", addr, err)
	}
	if written != n {
		c.metrics.SendFailed(metrics.ReasonShortWrite)
		return fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, written, n)
	}

	c.metrics.FrameSent(m.MessageType.String(), n)
	if c.log != nil {
		c.log.Debugf("sent %s mid=%d (%d bytes) to %v", m.MessageType, m.MessageID, n, addr)
	}

	return nil
}

// Poll waits up to timeout for one datagram and dispatches it. A timeout
// of zero or less checks once without blocking, which requires a socket
// DrainReady supports.
func (c *Context) Poll(timeout time.Duration) (PollResult, error) {
	if c.closed {
		return PollError, ErrClosed
	}

	if timeout <= 0 {
		n, peer, ok, err := c.recvNow(c.recvBuf[:])
		if err != nil {
			return PollError, err
		}
		if !ok {
			return PollTimedOut, nil
		}
		return c.handleDatagram(n, peer), nil
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return PollError, err
	}
	// A stale deadline would also fail the raw reads of DrainReady.
	defer func() {
		if err := c.conn.SetReadDeadline(time.Time{}); err != nil && c.log != nil {
			c.log.Debugf("clearing read deadline: %v", err)
		}
	}()

	n, peer, err := c.conn.ReadFrom(c.recvBuf[:])
	if err != nil {
		if isTimeout(err) {
			return PollTimedOut, nil
		}
		return PollError, err
	}

	return c.handleDatagram(n, peer), nil
}

// DrainReady receives and dispatches datagrams without blocking until the
// socket reports no more data, and returns the number of frames
// dispatched. Undecodable datagrams are dropped and draining continues.
func (c *Context) DrainReady() (int, error) {
	handled := 0
	for {
		if c.closed {
			return handled, ErrClosed
		}

		n, peer, ok, err := c.recvNow(c.recvBuf[:])
		if err != nil {
			return handled, err
		}
		if !ok {
			return handled, nil
		}

		if c.handleDatagram(n, peer) == PollHandled {
			handled++
		}
	}
}

// Close releases the socket. Every later call returns ErrClosed.
func (c *Context) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true

	if c.log != nil {
		c.log.Info("closing context")
	}

	return c.conn.Close()
}

// handleDatagram decodes the first n bytes of recvBuf and dispatches the
// frame. n may exceed the buffer when the socket reports a truncated read.
func (c *Context) handleDatagram(n int, peer net.Addr) PollResult {
	c.metrics.DatagramReceived(n)

	if n == 0 {
		c.drop(metrics.ReasonEmpty, peer, nil)
		return PollDropped
	}
	if n > cmdu.MaxFrameSize {
		c.drop(metrics.ReasonOversized, peer, fmt.Errorf("%d bytes", n))
		return PollDropped
	}

	m, err := cmdu.Decode(c.recvBuf[:n])
	if err != nil {
		c.drop(metrics.ReasonMalformed, peer, err)
		return PollDropped
	}

	source, origin := c.resolveSource(m, peer)
	if origin == SourceLinkLayer {
		if own, ok := hardwareSource(c.conn.LocalAddr()); ok && bytes.Equal(own, source) {
			c.drop(metrics.ReasonEcho, peer, nil)
			return PollDropped
		}
	}

	if m.IsFragmented() {
		c.metrics.Fragment()
		if c.log != nil {
			c.log.Debugf("dispatching fragment %d (last=%v) of mid=%d unassembled",
				m.FragmentID, m.LastFragment, m.MessageID)
		}
	}

	c.metrics.FrameReceived(m.MessageType.String())
	if c.log != nil {
		c.log.Debugf("received %s mid=%d with %d TLVs from %s (%s)",
			m.MessageType, m.MessageID, m.Count(), source, origin)
	}

	c.handler(&ReceivedFrame{
		CMDU:         m,
		Source:       source,
		SourceOrigin: origin,
		PeerAddr:     peer,
	})

	return PollHandled
}

func (c *Context) drop(reason string, peer net.Addr, err error) {
	c.metrics.FrameDropped(reason)
	if c.log == nil {
		return
	}
	if err != nil {
		c.log.Warnf("dropping %s datagram from %v: %v", reason, peer, err)
	} else {
		c.log.Debugf("dropping %s datagram from %v", reason, peer)
	}
}

// resolveSource picks the best available sender identity: the link-layer
// source, then the AL MAC carried in the payload, then a random address.
func (c *Context) resolveSource(m *cmdu.CMDU, peer net.Addr) (net.HardwareAddr, SourceOrigin) {
	if mac, ok := hardwareSource(peer); ok {
		return mac, SourceLinkLayer
	}

	if rec, ok := m.Find(tlv.TypeALMACAddress); ok {
		if mac, err := rec.MAC(); err == nil {
			return mac, SourcePayload
		}
	}
	if rec, ok := m.Find(tlv.TypeDeviceInformation); ok {
		if info, err := tlv.ParseDeviceInfo(rec); err == nil {
			return info.ALMAC, SourcePayload
		}
	}

	mac, err := randomLocalAddress(c.rand)
	if err != nil {
		if c.log != nil {
			c.log.Warnf("synthesizing source address: %v", err)
		}
		mac = net.HardwareAddr{0x02, 0, 0, 0, 0, 0}
	}
	return mac, SourceSynthesized
}

// randomLocalAddress draws a locally administered unicast MAC from r.
func randomLocalAddress(r io.Reader) (net.HardwareAddr, error) {
	mac := make(net.HardwareAddr, tlv.MACLen)
	if _, err := io.ReadFull(r, mac); err != nil {
		return nil, err
	}
	mac[0] = mac[0]&^0x01 | 0x02
	return mac, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
