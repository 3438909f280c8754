// Package integration runs controller and agent daemons against each other.
package integration

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/backkem/ieee1905/internal/daemon"
	"github.com/backkem/ieee1905/pkg/transport"
)

// Substrates a test pair can run over.
const (
	// SubstrateUDP binds both daemons to loopback UDP sockets.
	SubstrateUDP = "udp"

	// SubstratePipe connects both daemons through an in-memory Ethernet
	// segment, addressed by MAC.
	SubstratePipe = "pipe"
)

// Endpoint is one running daemon of a TestPair.
type Endpoint struct {
	*daemon.Daemon

	// Client talks to the daemon's HTTP API.
	Client *daemon.Client

	// DataAddr is where the peer sends frames for this endpoint.
	DataAddr string

	cancel context.CancelFunc
	errc   chan error
}

// TestPair holds a controller and an agent daemon that can reach each other.
//
// Example usage:
//
//	pair := NewTestPair(t)
//	pair.Agent.Client.Send(ctx, daemon.SendRequest{Type: daemon.SendAPSearch, Dst: pair.Controller.DataAddr})
type TestPair struct {
	Controller *Endpoint
	Agent      *Endpoint

	// Pipe is the in-memory segment on SubstratePipe, nil otherwise.
	Pipe *transport.Pipe

	t *testing.T
}

// TestPairConfig configures the test pair creation.
type TestPairConfig struct {
	// Substrate is SubstrateUDP or SubstratePipe. Default: SubstrateUDP.
	Substrate string

	// DrainMode applies to both daemons on SubstrateUDP. The pipe has no
	// socket to wait on and always polls.
	DrainMode string

	// ControllerMAC and AgentMAC are the AL MAC identities. On the pipe
	// they are also the interface addresses.
	ControllerMAC net.HardwareAddr
	AgentMAC      net.HardwareAddr

	// AutoRespond enables the daemons' automatic answers. Default: true.
	AutoRespond *bool
}

// DefaultTestPairConfig returns default configuration for test pairs.
func DefaultTestPairConfig() TestPairConfig {
	return TestPairConfig{
		Substrate:     SubstrateUDP,
		DrainMode:     daemon.DrainEvent,
		ControllerMAC: net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x10},
		AgentMAC:      net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x20},
	}
}

// NewTestPair starts a controller and an agent over loopback UDP.
func NewTestPair(t *testing.T) *TestPair {
	return NewTestPairWithConfig(t, DefaultTestPairConfig())
}

// NewTestPairWithConfig starts a pair with custom configuration. Both
// daemons are stopped when the test ends.
func NewTestPairWithConfig(t *testing.T, config TestPairConfig) *TestPair {
	t.Helper()

	def := DefaultTestPairConfig()
	if config.Substrate == "" {
		config.Substrate = def.Substrate
	}
	if config.DrainMode == "" {
		config.DrainMode = def.DrainMode
	}
	if config.ControllerMAC == nil {
		config.ControllerMAC = def.ControllerMAC
	}
	if config.AgentMAC == nil {
		config.AgentMAC = def.AgentMAC
	}

	pair := &TestPair{t: t}

	var controllerConn, agentConn net.PacketConn
	if config.Substrate == SubstratePipe {
		pair.Pipe = transport.NewPipe(config.ControllerMAC, config.AgentMAC)
		t.Cleanup(func() { pair.Pipe.Close() })
		controllerConn = pair.Pipe.Conn(0)
		agentConn = pair.Pipe.Conn(1)
	}

	pair.Controller = pair.start(config, transport.RoleController, config.ControllerMAC, controllerConn)
	pair.Agent = pair.start(config, transport.RoleAgent, config.AgentMAC, agentConn)

	if pair.Pipe != nil {
		// On the segment a peer is addressed by its interface MAC.
		pair.Controller.DataAddr = config.ControllerMAC.String()
		pair.Agent.DataAddr = config.AgentMAC.String()
	}

	return pair
}

func (p *TestPair) start(config TestPairConfig, role transport.Role, alMAC net.HardwareAddr, conn net.PacketConn) *Endpoint {
	p.t.Helper()

	cfg := daemon.DefaultConfig()
	cfg.Role = role
	cfg.BindAddress = "127.0.0.1"
	cfg.ListenPort = 0
	cfg.ALMAC = alMAC
	cfg.LogLevel = "disabled"
	cfg.Advertise = false
	cfg.DrainMode = config.DrainMode
	cfg.PollInterval = 10 * time.Millisecond
	if conn != nil {
		cfg.DrainMode = daemon.DrainPoll
	}
	if config.AutoRespond != nil {
		cfg.AutoRespond = *config.AutoRespond
	}

	d, err := daemon.New(cfg, daemon.Options{Conn: conn})
	if err != nil {
		p.t.Fatalf("create %s: %v", role, err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		p.t.Fatalf("listen %s api: %v", role, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ep := &Endpoint{
		Daemon:   d,
		Client:   daemon.NewClient(ln.Addr().String()),
		DataAddr: d.LocalAddr().String(),
		cancel:   cancel,
		errc:     make(chan error, 1),
	}
	go func() { ep.errc <- d.ServeListener(ctx, ln) }()
	p.t.Cleanup(func() { ep.Close(p.t) })

	return ep
}

// Close stops the daemon and reports a failing shutdown.
func (e *Endpoint) Close(t *testing.T) {
	e.cancel()
	select {
	case err := <-e.errc:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("daemon stopped with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("daemon did not stop")
	}
}

// Watch subscribes to e's received-frame events. The returned channel is
// fed until the test ends.
func (e *Endpoint) Watch(t *testing.T) <-chan daemon.Event {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	before := e.Hub().ClientCount()
	events := make(chan daemon.Event, 16)
	go e.Client.Watch(ctx, func(ev daemon.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})

	deadline := time.Now().Add(3 * time.Second)
	for e.Hub().ClientCount() <= before {
		if time.Now().After(deadline) {
			t.Fatal("event client never connected")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return events
}

// AwaitEvent waits for an event of the given message type name.
func AwaitEvent(t *testing.T, events <-chan daemon.Event, typeName string) daemon.Event {
	t.Helper()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.TypeName == typeName {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", typeName)
			return daemon.Event{}
		}
	}
}
