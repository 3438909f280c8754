package daemon

import (
	"bytes"
	"errors"
	"net"
	"testing"
)

var testIfaceMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x30}

func TestSendRequestCommand(t *testing.T) {
	tests := []struct {
		name    string
		req     SendRequest
		wantErr error
		wantDst string
		wantMAC net.HardwareAddr
	}{
		{
			name:    "dst",
			req:     SendRequest{Type: SendTopologyDiscovery, Dst: "127.0.0.1:19050"},
			wantDst: "127.0.0.1:19050",
			wantMAC: testIfaceMAC,
		},
		{
			name:    "dst ip and port",
			req:     SendRequest{Type: SendTopologyQuery, DstIP: "::1", DstPort: 19050},
			wantDst: "[::1]:19050",
			wantMAC: testIfaceMAC,
		},
		{
			name:    "mac override",
			req:     SendRequest{Type: SendAPSearch, Dst: "127.0.0.1:1", MAC: "02:aa:bb:cc:dd:ee"},
			wantDst: "127.0.0.1:1",
			wantMAC: net.HardwareAddr{0x02, 0xaa, 0xbb, 0xcc, 0xdd, 0xee},
		},
		{name: "unknown type", req: SendRequest{Type: "hello", Dst: "127.0.0.1:1"}, wantErr: ErrUnknownSendType},
		{name: "empty type", req: SendRequest{Dst: "127.0.0.1:1"}, wantErr: ErrUnknownSendType},
		{name: "no destination", req: SendRequest{Type: SendTopologyQuery}, wantErr: ErrMissingDestination},
		{name: "bad port", req: SendRequest{Type: SendTopologyQuery, DstIP: "127.0.0.1"}, wantErr: ErrInvalidRequest},
		{name: "bad mac", req: SendRequest{Type: SendAPSearch, Dst: "127.0.0.1:1", MAC: "nope"}, wantErr: ErrInvalidRequest},
		{name: "bad payload", req: SendRequest{Type: SendAPWSC, Dst: "127.0.0.1:1", Payload: "xyz"}, wantErr: ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := tt.req.command(testIfaceMAC)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("command() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("command() error = %v", err)
			}
			if cmd.dst != tt.wantDst {
				t.Errorf("dst = %q, want %q", cmd.dst, tt.wantDst)
			}
			if !bytes.Equal(cmd.mac, tt.wantMAC) {
				t.Errorf("mac = %v, want %v", cmd.mac, tt.wantMAC)
			}
		})
	}
}

func TestSendRequestPayload(t *testing.T) {
	cmd, err := SendRequest{Type: SendAPWSC, Dst: "127.0.0.1:1", Payload: "deadbeef"}.command(testIfaceMAC)
	if err != nil {
		t.Fatalf("command() error = %v", err)
	}
	if !bytes.Equal(cmd.payload, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Errorf("payload = %x", cmd.payload)
	}

	// An empty payload is still a payload.
	cmd, err = SendRequest{Type: SendAPWSC, Dst: "127.0.0.1:1"}.command(testIfaceMAC)
	if err != nil {
		t.Fatalf("command() error = %v", err)
	}
	if cmd.payload == nil || len(cmd.payload) != 0 {
		t.Errorf("payload = %#v, want empty non-nil", cmd.payload)
	}
}

func TestSendTypesValid(t *testing.T) {
	for _, st := range SendTypes {
		if !st.valid() {
			t.Errorf("%q.valid() = false", st)
		}
	}
}
