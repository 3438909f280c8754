package daemon

import (
	"net"
	"testing"

	"github.com/backkem/ieee1905/pkg/cmdu"
	"github.com/backkem/ieee1905/pkg/transport"
)

func TestNewEvent(t *testing.T) {
	m, err := cmdu.NewTopologyDiscovery(agentMAC, testIfaceMAC)
	if err != nil {
		t.Fatalf("NewTopologyDiscovery() error = %v", err)
	}
	m.MessageID = 42

	peerAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 19051}
	ev := NewEvent(&transport.ReceivedFrame{
		CMDU:         m,
		Source:       agentMAC,
		SourceOrigin: transport.SourcePayload,
		PeerAddr:     peerAddr,
	})

	want := Event{
		Type:      0x0000,
		TypeName:  "TopologyDiscovery",
		MID:       42,
		TLVCount:  2,
		Src:       agentMAC.String(),
		SrcOrigin: "payload",
		Peer:      "127.0.0.1:19051",
	}
	if ev != want {
		t.Errorf("NewEvent() = %+v, want %+v", ev, want)
	}

	ev = NewEvent(&transport.ReceivedFrame{CMDU: m, Source: agentMAC})
	if ev.Peer != "" {
		t.Errorf("NewEvent() without peer: Peer = %q, want empty", ev.Peer)
	}
}

func TestHubWithoutClients(t *testing.T) {
	h := NewHub(nil)
	h.Publish(Event{TypeName: "TopologyQuery"})
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", h.ClientCount())
	}
	h.Close()
}
