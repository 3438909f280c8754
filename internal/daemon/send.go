package daemon

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"

	"github.com/backkem/ieee1905/pkg/transport"
)

// SendType names a message kind the daemon can send on request.
type SendType string

// Send types.
const (
	SendTopologyDiscovery    SendType = "topology_discovery"
	SendTopologyNotification SendType = "topology_notification"
	SendTopologyQuery        SendType = "topology_query"
	SendTopologyResponse     SendType = "topology_response"
	SendAPSearch             SendType = "ap_search"
	SendAPResponse           SendType = "ap_response"
	SendAPWSC                SendType = "ap_wsc"
)

// SendTypes lists every accepted send type.
var SendTypes = []SendType{
	SendTopologyDiscovery,
	SendTopologyNotification,
	SendTopologyQuery,
	SendTopologyResponse,
	SendAPSearch,
	SendAPResponse,
	SendAPWSC,
}

// SendRequest asks the daemon to send one CMDU.
type SendRequest struct {
	Type SendType `json:"type"`

	// Dst is the destination: host:port on UDP, a MAC on the link layer.
	Dst string `json:"dst,omitempty"`
	// DstIP and DstPort build a UDP destination when Dst is empty.
	DstIP   string `json:"dst_ip,omitempty"`
	DstPort int    `json:"dst_port,omitempty"`

	// MAC overrides the interface / radio id address.
	MAC string `json:"mac,omitempty"`
	// Payload is the hex encoded configuration payload of ap_wsc.
	Payload string `json:"payload,omitempty"`
}

// SendResponse reports the message id assigned to a sent CMDU.
type SendResponse struct {
	MID uint16 `json:"mid"`
}

// sendCommand is a validated SendRequest, executed on the loop goroutine.
type sendCommand struct {
	typ     SendType
	dst     string
	mac     net.HardwareAddr
	payload []byte
	reply   chan sendResult
}

type sendResult struct {
	mid uint16
	err error
}

// command validates r. ifaceMAC fills in a missing MAC.
func (r SendRequest) command(ifaceMAC net.HardwareAddr) (sendCommand, error) {
	cmd := sendCommand{typ: r.Type, dst: r.Dst, mac: ifaceMAC}

	if !r.Type.valid() {
		return sendCommand{}, fmt.Errorf("%w: %q", ErrUnknownSendType, r.Type)
	}

	if cmd.dst == "" && r.DstIP != "" {
		if r.DstPort <= 0 || r.DstPort > 65535 {
			return sendCommand{}, fmt.Errorf("%w: dst_port %d", ErrInvalidRequest, r.DstPort)
		}
		cmd.dst = net.JoinHostPort(r.DstIP, strconv.Itoa(r.DstPort))
	}
	if cmd.dst == "" {
		return sendCommand{}, ErrMissingDestination
	}

	if r.MAC != "" {
		mac, err := parseMAC(r.MAC)
		if err != nil {
			return sendCommand{}, fmt.Errorf("%w: mac: %v", ErrInvalidRequest, err)
		}
		cmd.mac = mac
	}

	if r.Type == SendAPWSC {
		payload, err := hex.DecodeString(r.Payload)
		if err != nil {
			return sendCommand{}, fmt.Errorf("%w: payload: %v", ErrInvalidRequest, err)
		}
		if payload == nil {
			payload = []byte{}
		}
		cmd.payload = payload
	}

	return cmd, nil
}

func (t SendType) valid() bool {
	for _, s := range SendTypes {
		if s == t {
			return true
		}
	}
	return false
}

// execute runs cmd on tc. Must be called on the goroutine owning tc.
func (cmd sendCommand) execute(tc *transport.Context) (uint16, error) {
	switch cmd.typ {
	case SendTopologyDiscovery:
		return tc.SendTopologyDiscovery(cmd.dst, cmd.mac)
	case SendTopologyNotification:
		return tc.SendTopologyNotification(cmd.dst, cmd.mac)
	case SendTopologyQuery:
		return tc.SendTopologyQuery(cmd.dst)
	case SendTopologyResponse:
		return tc.SendTopologyResponse(cmd.dst, cmd.mac)
	case SendAPSearch:
		return tc.SendAPAutoconfigSearch(cmd.dst, cmd.mac)
	case SendAPResponse:
		return tc.SendAPAutoconfigResponse(cmd.dst, cmd.mac)
	case SendAPWSC:
		return tc.SendAPAutoconfigWSC(cmd.dst, cmd.payload)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSendType, cmd.typ)
	}
}
