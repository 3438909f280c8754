package transport

import (
	"bytes"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/mdlayher/packet"
	"github.com/pion/transport/v3/test"

	"github.com/backkem/ieee1905/pkg/linklayer"
)

// NetworkCondition configures network behavior simulation.
// Use this to test protocol behavior under adverse network conditions.
type NetworkCondition struct {
	// DropRate is the probability of dropping a frame (0.0 - 1.0).
	DropRate float64

	// DelayMin is the minimum delay to add to each frame.
	DelayMin time.Duration

	// DelayMax is the maximum delay to add to each frame.
	// Actual delay is uniformly distributed between DelayMin and DelayMax.
	DelayMax time.Duration

	// DuplicateRate is the probability of delivering a frame twice (0.0 - 1.0).
	DuplicateRate float64
}

// PipeConfig configures a Pipe.
type PipeConfig struct {
	// AutoProcess enables automatic frame delivery in a background goroutine.
	// Default: true
	AutoProcess bool

	// ProcessInterval is how often the auto-processor checks for frames.
	// Default: 1ms
	ProcessInterval time.Duration

	// Seed seeds the condition simulator. Zero uses the current time.
	Seed int64
}

// DefaultPipeConfig returns the default pipe configuration.
func DefaultPipeConfig() PipeConfig {
	return PipeConfig{
		AutoProcess:     true,
		ProcessInterval: 1 * time.Millisecond,
	}
}

// Pipe simulates a point-to-point Ethernet segment between two endpoints
// in memory. It wraps pion's test.Bridge and adds network condition
// simulation. Each endpoint is a PipePacketConn with its own hardware
// address, so contexts on a pipe see link-layer source addresses as they
// would on a packet socket.
//
// Frames are delivered only while the receiving side is blocked in a read:
// with AutoProcess disabled, call Tick or Process after the reader started.
type Pipe struct {
	bridge *test.Bridge
	conns  [2]*PipePacketConn

	mu              sync.RWMutex
	condition       NetworkCondition
	closed          bool
	rng             *rand.Rand
	autoProcess     bool
	processInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewPipe creates a pipe between mac0 and mac1 with auto-processing enabled.
func NewPipe(mac0, mac1 net.HardwareAddr) *Pipe {
	return NewPipeWithConfig(mac0, mac1, DefaultPipeConfig())
}

// NewPipeWithConfig creates a pipe between mac0 and mac1 with the given configuration.
func NewPipeWithConfig(mac0, mac1 net.HardwareAddr, config PipeConfig) *Pipe {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	p := &Pipe{
		bridge:          test.NewBridge(),
		rng:             rand.New(rand.NewSource(seed)),
		autoProcess:     config.AutoProcess,
		processInterval: config.ProcessInterval,
		stopCh:          make(chan struct{}),
	}

	if config.ProcessInterval == 0 {
		p.processInterval = 1 * time.Millisecond
	}

	p.conns[0] = &PipePacketConn{
		conn:  p.bridge.GetConn0(),
		local: cloneMAC(mac0),
		peer:  cloneMAC(mac1),
		pipe:  p,
	}
	p.conns[1] = &PipePacketConn{
		conn:  p.bridge.GetConn1(),
		local: cloneMAC(mac1),
		peer:  cloneMAC(mac0),
		pipe:  p,
	}

	if p.autoProcess {
		p.startAutoProcess()
	}

	return p
}

// startAutoProcess starts the background delivery goroutine.
func (p *Pipe) startAutoProcess() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.processInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.bridge.Tick()
			}
		}
	}()
}

// SetAutoProcess enables or disables automatic frame delivery.
// When disabled, you must call Tick() or Process() manually.
func (p *Pipe) SetAutoProcess(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.autoProcess == enabled {
		return
	}

	p.autoProcess = enabled

	if enabled {
		p.stopCh = make(chan struct{})
		p.startAutoProcess()
	} else {
		close(p.stopCh)
		p.wg.Wait()
	}
}

// AutoProcess returns whether auto-processing is enabled.
func (p *Pipe) AutoProcess() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.autoProcess
}

// SetCondition configures network condition simulation.
// The conditions apply to frames in both directions.
func (p *Pipe) SetCondition(cond NetworkCondition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.condition = cond
}

// Condition returns the current network condition configuration.
func (p *Pipe) Condition() NetworkCondition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.condition
}

// Conn returns endpoint 0 or 1.
func (p *Pipe) Conn(id int) *PipePacketConn {
	if id < 0 || id > 1 {
		return nil
	}
	return p.conns[id]
}

// Tick delivers one frame in each direction (if available).
// Returns the number of frames delivered (0, 1, or 2).
func (p *Pipe) Tick() int {
	return p.bridge.Tick()
}

// Process delivers all queued frames that have a waiting reader.
// Returns the number of frames delivered.
func (p *Pipe) Process() int {
	count := 0
	for {
		n := p.Tick()
		if n == 0 {
			break
		}
		count += n
	}
	return count
}

// Close closes both endpoints of the pipe and stops auto-processing.
func (p *Pipe) Close() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	if p.autoProcess {
		close(p.stopCh)
	}
	p.mu.Unlock()

	// Wait for goroutine outside lock
	p.wg.Wait()

	var firstErr error
	for _, c := range p.conns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PipePacketConn is one endpoint of a Pipe. It implements net.PacketConn
// with *packet.Addr addresses, like the sockets of package linklayer.
type PipePacketConn struct {
	conn  net.Conn
	local net.HardwareAddr
	peer  net.HardwareAddr
	pipe  *Pipe

	closeOnce sync.Once
	closeErr  error
}

// ReadFrom reads a frame from the pipe.
// The returned address is the peer's hardware address.
func (c *PipePacketConn) ReadFrom(b []byte) (n int, addr net.Addr, err error) {
	n, err = c.conn.Read(b)
	return n, &packet.Addr{HardwareAddr: cloneMAC(c.peer)}, err
}

// WriteTo writes a frame to the pipe. Frames addressed to a unicast MAC
// other than the peer's are accepted and discarded, as on a real segment.
func (c *PipePacketConn) WriteTo(b []byte, addr net.Addr) (n int, err error) {
	dst, ok := linklayer.SourceAddress(addr)
	if !ok {
		return 0, &net.OpError{Op: "write", Net: "pipe", Addr: addr, Err: fmt.Errorf("%w: %v", ErrInvalidAddress, addr)}
	}
	if !isGroupAddress(dst) && !bytes.Equal(dst, c.peer) {
		return len(b), nil
	}

	if c.pipe != nil {
		// Exclusive lock: rand.Rand is not safe for concurrent use.
		c.pipe.mu.Lock()
		cond := c.pipe.condition
		drop := cond.DropRate > 0 && c.pipe.rng.Float64() < cond.DropRate
		duplicate := cond.DuplicateRate > 0 && c.pipe.rng.Float64() < cond.DuplicateRate
		var delay time.Duration
		if cond.DelayMax > 0 {
			delay = cond.DelayMin
			if cond.DelayMax > cond.DelayMin {
				delay += time.Duration(c.pipe.rng.Int63n(int64(cond.DelayMax - cond.DelayMin)))
			}
		}
		c.pipe.mu.Unlock()

		if drop {
			return len(b), nil // Silently drop
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		if duplicate {
			if _, err := c.conn.Write(b); err != nil {
				return 0, err
			}
		}
	}

	return c.conn.Write(b)
}

// Close closes the endpoint. Further calls return the first result.
func (c *PipePacketConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// LocalAddr returns the endpoint's hardware address.
func (c *PipePacketConn) LocalAddr() net.Addr {
	return &packet.Addr{HardwareAddr: cloneMAC(c.local)}
}

// PeerAddr returns the hardware address of the other endpoint.
func (c *PipePacketConn) PeerAddr() net.Addr {
	return &packet.Addr{HardwareAddr: cloneMAC(c.peer)}
}

// SetDeadline sets the read and write deadlines.
func (c *PipePacketConn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline sets the read deadline.
func (c *PipePacketConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline.
func (c *PipePacketConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// Verify PipePacketConn implements net.PacketConn.
var _ net.PacketConn = (*PipePacketConn)(nil)

func isGroupAddress(mac net.HardwareAddr) bool {
	return len(mac) > 0 && mac[0]&0x01 != 0
}

func cloneMAC(mac net.HardwareAddr) net.HardwareAddr {
	return append(net.HardwareAddr(nil), mac...)
}
