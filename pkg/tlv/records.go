package tlv

import (
	"encoding/binary"
	"net"
)

// MediaTypeGeneric is the media type written for interfaces of unknown kind.
const MediaTypeGeneric uint16 = 0x0000

// NewMAC builds a 6-byte MAC address record of the given type.
// Only the address-carrying types and types without a fixed shape are accepted.
func NewMAC(typ Type, mac net.HardwareAddr) (TLV, error) {
	if mac == nil {
		return TLV{}, ErrMissingValue
	}
	if len(mac) != MACLen {
		return TLV{}, ErrInvalidLength
	}
	if want, ok := typ.fixedLen(); ok && want != MACLen {
		return TLV{}, ErrInvalidType
	}
	if typ == TypeWSC {
		return TLV{}, ErrInvalidType
	}

	value := make([]byte, MACLen)
	copy(value, mac)
	return TLV{Type: typ, Value: value}, nil
}

// NewDeviceInfo builds a device information record describing a single
// interface with the generic media type.
func NewDeviceInfo(alMAC, ifaceMAC net.HardwareAddr) (TLV, error) {
	if alMAC == nil || ifaceMAC == nil {
		return TLV{}, ErrMissingValue
	}
	if len(alMAC) != MACLen || len(ifaceMAC) != MACLen {
		return TLV{}, ErrInvalidLength
	}

	value := make([]byte, DeviceInfoLen)
	offset := copy(value, alMAC)
	value[offset] = 1 // interface count
	offset++
	offset += copy(value[offset:], ifaceMAC)
	binary.BigEndian.PutUint16(value[offset:], MediaTypeGeneric)

	return TLV{Type: TypeDeviceInformation, Value: value}, nil
}

// NewConfigPayload builds a WSC record holding a copy of payload.
func NewConfigPayload(payload []byte) (TLV, error) {
	if payload == nil {
		return TLV{}, ErrMissingValue
	}
	if len(payload) > MaxValueLen {
		return TLV{}, ErrValueTooLong
	}

	value := make([]byte, len(payload))
	copy(value, payload)
	return TLV{Type: TypeWSC, Value: value}, nil
}

// MAC returns the address carried by a MAC record.
func (t TLV) MAC() (net.HardwareAddr, error) {
	if t.Type != TypeALMACAddress && t.Type != TypeMACAddress {
		return nil, ErrInvalidType
	}
	if len(t.Value) != MACLen {
		return nil, ErrInvalidLength
	}
	mac := make(net.HardwareAddr, MACLen)
	copy(mac, t.Value)
	return mac, nil
}

// DeviceInfo is the decoded form of a device information record.
type DeviceInfo struct {
	ALMAC     net.HardwareAddr
	Interface net.HardwareAddr
	MediaType uint16
}

// ParseDeviceInfo decodes a single-interface device information record.
func ParseDeviceInfo(t TLV) (DeviceInfo, error) {
	if t.Type != TypeDeviceInformation {
		return DeviceInfo{}, ErrInvalidType
	}
	if len(t.Value) != DeviceInfoLen || t.Value[MACLen] != 1 {
		return DeviceInfo{}, ErrInvalidLength
	}

	info := DeviceInfo{
		ALMAC:     make(net.HardwareAddr, MACLen),
		Interface: make(net.HardwareAddr, MACLen),
	}
	copy(info.ALMAC, t.Value[:MACLen])
	copy(info.Interface, t.Value[MACLen+1:2*MACLen+1])
	info.MediaType = binary.BigEndian.Uint16(t.Value[2*MACLen+1:])

	return info, nil
}
