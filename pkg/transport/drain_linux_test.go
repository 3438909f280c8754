//go:build linux

package transport

import (
	"net"
	"testing"
	"time"

	"github.com/backkem/ieee1905/pkg/cmdu"
)

func TestDrainReadyEmpty(t *testing.T) {
	rec := &recorder{}
	c := newUDPContext(t, Config{Handler: rec.handle})

	start := time.Now()
	n, err := c.DrainReady()
	if err != nil {
		t.Fatalf("DrainReady() error = %v", err)
	}
	if n != 0 || len(rec.frames) != 0 {
		t.Errorf("DrainReady() = %d, dispatched %d; want 0, 0", n, len(rec.frames))
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("DrainReady() took %v on an empty socket", elapsed)
	}

	res, err := c.Poll(0)
	if err != nil {
		t.Fatalf("Poll(0) error = %v", err)
	}
	if res != PollTimedOut {
		t.Errorf("Poll(0) = %v, want %v", res, PollTimedOut)
	}
}

// drainUntil drains c until want frames were dispatched or a second passed.
func drainUntil(t *testing.T, c *Context, want int) int {
	t.Helper()
	total := 0
	deadline := time.Now().Add(time.Second)
	for total < want && time.Now().Before(deadline) {
		n, err := c.DrainReady()
		if err != nil {
			t.Fatalf("DrainReady() error = %v", err)
		}
		total += n
		if total < want {
			time.Sleep(time.Millisecond)
		}
	}
	return total
}

func TestDrainReadyMultiple(t *testing.T) {
	rec := &recorder{}
	server := newUDPContext(t, Config{Handler: rec.handle})
	client := newUDPContext(t, Config{LocalAddress: agentMAC})
	dst := server.LocalAddr().String()

	raw, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer raw.Close()

	if _, err := client.SendTopologyQuery(dst); err != nil {
		t.Fatalf("SendTopologyQuery() error = %v", err)
	}
	// A malformed datagram between two good ones is dropped.
	if _, err := raw.WriteTo([]byte{0x00, 0x01}, server.LocalAddr()); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if _, err := client.SendTopologyDiscovery(dst, ifaceMAC); err != nil {
		t.Fatalf("SendTopologyDiscovery() error = %v", err)
	}

	if got := drainUntil(t, server, 2); got != 2 {
		t.Fatalf("dispatched %d frames, want 2", got)
	}

	want := []cmdu.MessageType{cmdu.MessageTypeTopologyQuery, cmdu.MessageTypeTopologyDiscovery}
	for i, f := range rec.frames {
		if f.CMDU.MessageType != want[i] {
			t.Errorf("frame[%d] = %v, want %v", i, f.CMDU.MessageType, want[i])
		}
		udpAddr, ok := f.PeerAddr.(*net.UDPAddr)
		if !ok {
			t.Fatalf("PeerAddr type = %T, want *net.UDPAddr", f.PeerAddr)
		}
		if udpAddr.String() != client.LocalAddr().String() {
			t.Errorf("PeerAddr = %v, want %v", udpAddr, client.LocalAddr())
		}
	}

	// Exhausted: the next drain returns at once.
	if n, err := server.DrainReady(); err != nil || n != 0 {
		t.Errorf("DrainReady() = %d, %v; want 0, nil", n, err)
	}
}

func TestDrainReadyOversized(t *testing.T) {
	rec := &recorder{}
	server := newUDPContext(t, Config{Handler: rec.handle})

	raw, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer raw.Close()

	big := make([]byte, cmdu.MaxFrameSize+100)
	if _, err := raw.WriteTo(big, server.LocalAddr()); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		res, err := server.Poll(0)
		if err != nil {
			t.Fatalf("Poll(0) error = %v", err)
		}
		if res == PollDropped {
			return
		}
		if res == PollHandled {
			t.Fatal("oversized datagram dispatched")
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("oversized datagram never dropped")
}

func TestPollAfterDrain(t *testing.T) {
	rec := &recorder{}
	server := newUDPContext(t, Config{Handler: rec.handle})
	client := newUDPContext(t, Config{LocalAddress: agentMAC})

	// A timed out Poll must not leave a deadline behind for raw reads.
	if res, _ := server.Poll(5 * time.Millisecond); res != PollTimedOut {
		t.Fatalf("Poll() = %v, want %v", res, PollTimedOut)
	}
	if _, err := client.SendTopologyQuery(server.LocalAddr().String()); err != nil {
		t.Fatalf("SendTopologyQuery() error = %v", err)
	}
	if got := drainUntil(t, server, 1); got != 1 {
		t.Errorf("dispatched %d frames, want 1", got)
	}
}

func TestSyscallConn(t *testing.T) {
	c := newUDPContext(t, Config{})
	rc, err := c.SyscallConn()
	if err != nil {
		t.Fatalf("SyscallConn() error = %v", err)
	}
	if rc == nil {
		t.Error("SyscallConn() = nil")
	}
}
