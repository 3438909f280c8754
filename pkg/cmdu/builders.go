package cmdu

import (
	"net"

	"github.com/backkem/ieee1905/pkg/tlv"
)

// SearchPlaceholderWSC is the configuration payload carried by an
// AP-autoconfiguration search until a real WSC M1 is built.
var SearchPlaceholderWSC = []byte{0x10, 0x47, 0x00, 0x06, '1', '9', '0', '5', 'W', 'S'}

// Composers assemble the fixed record set of each message kind. They leave
// MessageID at zero; the transport assigns it at send time.

// NewTopologyDiscovery builds a topology discovery: AL MAC + interface MAC.
func NewTopologyDiscovery(alMAC, ifaceMAC net.HardwareAddr) (*CMDU, error) {
	return withMACs(MessageTypeTopologyDiscovery, alMAC, ifaceMAC)
}

// NewTopologyNotification builds a topology notification: AL MAC + interface MAC.
func NewTopologyNotification(alMAC, ifaceMAC net.HardwareAddr) (*CMDU, error) {
	return withMACs(MessageTypeTopologyNotification, alMAC, ifaceMAC)
}

// NewTopologyQuery builds a topology query carrying the sender's AL MAC.
func NewTopologyQuery(alMAC net.HardwareAddr) (*CMDU, error) {
	al, err := tlv.NewMAC(tlv.TypeALMACAddress, alMAC)
	if err != nil {
		return nil, err
	}
	return build(MessageTypeTopologyQuery, al)
}

// NewTopologyResponse builds a topology response with one device information record.
func NewTopologyResponse(alMAC, ifaceMAC net.HardwareAddr) (*CMDU, error) {
	dev, err := tlv.NewDeviceInfo(alMAC, ifaceMAC)
	if err != nil {
		return nil, err
	}
	return build(MessageTypeTopologyResponse, dev)
}

// NewAPAutoconfigSearch builds an AP-autoconfiguration search for the given radio.
func NewAPAutoconfigSearch(radioID net.HardwareAddr) (*CMDU, error) {
	radio, err := tlv.NewMAC(tlv.TypeMACAddress, radioID)
	if err != nil {
		return nil, err
	}
	wsc, err := tlv.NewConfigPayload(SearchPlaceholderWSC)
	if err != nil {
		return nil, err
	}
	return build(MessageTypeAPAutoconfigSearch, radio, wsc)
}

// NewAPAutoconfigResponse builds an AP-autoconfiguration response for the given radio.
func NewAPAutoconfigResponse(radioID net.HardwareAddr) (*CMDU, error) {
	radio, err := tlv.NewMAC(tlv.TypeMACAddress, radioID)
	if err != nil {
		return nil, err
	}
	return build(MessageTypeAPAutoconfigResponse, radio)
}

// NewAPAutoconfigWSC builds an AP-autoconfiguration WSC message carrying payload.
func NewAPAutoconfigWSC(payload []byte) (*CMDU, error) {
	wsc, err := tlv.NewConfigPayload(payload)
	if err != nil {
		return nil, err
	}
	return build(MessageTypeAPAutoconfigWSC, wsc)
}

func withMACs(mt MessageType, alMAC, ifaceMAC net.HardwareAddr) (*CMDU, error) {
	al, err := tlv.NewMAC(tlv.TypeALMACAddress, alMAC)
	if err != nil {
		return nil, err
	}
	iface, err := tlv.NewMAC(tlv.TypeMACAddress, ifaceMAC)
	if err != nil {
		return nil, err
	}
	return build(mt, al, iface)
}

func build(mt MessageType, records ...tlv.TLV) (*CMDU, error) {
	c := New(mt)
	for _, r := range records {
		if err := c.Append(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}
