// Package daemon runs one IEEE 1905.1 transport context behind an HTTP
// API: requests to send CMDUs come in over HTTP, received frames go out
// as WebSocket events.
package daemon

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync/atomic"

	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/backkem/ieee1905/pkg/cmdu"
	"github.com/backkem/ieee1905/pkg/linklayer"
	"github.com/backkem/ieee1905/pkg/metrics"
	"github.com/backkem/ieee1905/pkg/transport"
)

// Options carries the dependencies New would otherwise create itself.
type Options struct {
	// Conn replaces the socket the config describes.
	Conn net.PacketConn

	// Rand is passed to the transport context. If nil, crypto/rand is used.
	Rand io.Reader

	// LoggerFactory overrides the factory built from Config.LogLevel.
	LoggerFactory logging.LoggerFactory

	// Registry receives the traffic metrics. If nil, a private registry is used.
	Registry *prometheus.Registry

	// MDNS registers the API advertisement. If nil, grandcat/zeroconf is used.
	MDNS MDNSServerFactory
}

// Daemon owns a transport context and the event loop driving it.
type Daemon struct {
	config   Config
	tc       *transport.Context
	hub      *Hub
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	log      logging.LeveledLogger
	lf       logging.LoggerFactory
	mdns     MDNSServerFactory

	// ifaceMAC is the interface / radio id written into outgoing frames and
	// auto replies.
	ifaceMAC net.HardwareAddr

	sendCh  chan sendCommand
	done    chan struct{}
	started atomic.Bool

	// pending holds auto-responses queued by the frame handler. Only
	// touched on the loop goroutine.
	pending []reply
}

type reply struct {
	msg  *cmdu.CMDU
	peer net.Addr
}

// New validates config, opens the socket and creates the transport context.
func New(config Config, opts Options) (*Daemon, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	lf := opts.LoggerFactory
	if lf == nil {
		lf = config.LoggerFactory()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	mdns := opts.MDNS
	if mdns == nil {
		mdns = zeroconfServerFactory{}
	}

	d := &Daemon{
		config:   config,
		hub:      NewHub(lf),
		metrics:  metrics.New(reg),
		registry: reg,
		log:      lf.NewLogger("ieee1905d"),
		lf:       lf,
		mdns:     mdns,
		ifaceMAC: config.APMAC,
		sendCh:   make(chan sendCommand),
		done:     make(chan struct{}),
	}

	conn := opts.Conn
	if conn == nil && config.Transport == TransportLinkLayer {
		mac, err := linklayer.InterfaceAddress(config.Interface)
		if err != nil {
			return nil, err
		}
		pc, err := linklayer.Listen(config.Interface)
		if err != nil {
			return nil, err
		}
		d.ifaceMAC = mac
		conn = pc
	}
	if conn != nil {
		// Link-layer sockets, injected or not, answer with their own address.
		if mac, ok := linklayer.SourceAddress(conn.LocalAddr()); ok {
			d.ifaceMAC = mac
		}
	}

	tc, err := transport.NewContext(transport.Config{
		Role:          config.Role,
		ListenAddr:    config.ListenAddr(),
		Conn:          conn,
		LocalAddress:  config.ALMAC,
		Handler:       d.onFrame,
		Rand:          opts.Rand,
		LoggerFactory: lf,
		Metrics:       d.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("daemon: open transport: %w", err)
	}
	d.tc = tc

	return d, nil
}

// Config returns the daemon's configuration.
func (d *Daemon) Config() Config {
	return d.config
}

// Hub returns the event hub.
func (d *Daemon) Hub() *Hub {
	return d.hub
}

// Registry returns the metrics registry.
func (d *Daemon) Registry() *prometheus.Registry {
	return d.registry
}

// LocalAddress returns the AL MAC identity of the transport context.
func (d *Daemon) LocalAddress() net.HardwareAddr {
	return d.tc.LocalAddress()
}

// LocalAddr returns the data socket's local address.
func (d *Daemon) LocalAddr() net.Addr {
	return d.tc.LocalAddr()
}

// Send queues req on the event loop and waits for the assigned message id.
func (d *Daemon) Send(ctx context.Context, req SendRequest) (uint16, error) {
	cmd, err := req.command(d.ifaceMAC)
	if err != nil {
		return 0, err
	}
	cmd.reply = make(chan sendResult, 1)

	select {
	case d.sendCh <- cmd:
	case <-d.done:
		return 0, ErrStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res.mid, res.err
	case <-d.done:
		return 0, ErrStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// onFrame runs on the loop goroutine, inside Poll or DrainReady.
func (d *Daemon) onFrame(f *transport.ReceivedFrame) {
	d.hub.Publish(NewEvent(f))

	if !d.config.AutoRespond || f.PeerAddr == nil {
		return
	}

	var (
		msg *cmdu.CMDU
		err error
	)
	switch f.CMDU.MessageType {
	case cmdu.MessageTypeTopologyQuery:
		msg, err = cmdu.NewTopologyResponse(d.tc.LocalAddress(), d.ifaceMAC)
	case cmdu.MessageTypeAPAutoconfigSearch:
		if d.tc.Role() != transport.RoleController {
			return
		}
		msg, err = cmdu.NewAPAutoconfigResponse(d.ifaceMAC)
	default:
		return
	}
	if err != nil {
		d.log.Warnf("composing reply to %s: %v", f.CMDU.MessageType, err)
		return
	}

	d.pending = append(d.pending, reply{msg: msg, peer: f.PeerAddr})
}

// flushReplies sends the queued auto-responses.
func (d *Daemon) flushReplies() {
	for i, r := range d.pending {
		if err := d.tc.SendTo(r.msg, r.peer); err != nil {
			d.log.Warnf("auto-reply %s to %v: %v", r.msg.MessageType, r.peer, err)
		} else {
			d.log.Debugf("auto-replied %s mid=%d to %v", r.msg.MessageType, r.msg.MessageID, r.peer)
		}
		d.pending[i] = reply{}
	}
	d.pending = d.pending[:0]
}
