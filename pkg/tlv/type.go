// Package tlv implements the IEEE 1905.1 type-length-value records carried
// inside a CMDU.
//
// On the wire every record is a 1-byte type, a 2-byte big-endian length and
// the value. Values are capped at MaxValueLen bytes.
package tlv

import "fmt"

// Type identifies the kind of a TLV record.
type Type uint8

const (
	// TypeEndOfMessage terminates the record list of a CMDU. Always zero length.
	TypeEndOfMessage Type = 0x00

	// TypeALMACAddress carries the 1905 abstraction-layer (local identity) address.
	TypeALMACAddress Type = 0x01

	// TypeMACAddress carries an interface (or radio) MAC address.
	TypeMACAddress Type = 0x02

	// TypeDeviceInformation describes the device and its interfaces.
	TypeDeviceInformation Type = 0x09

	// TypeWSC carries an opaque WSC/WPS configuration payload.
	TypeWSC Type = 0x0A

	// TypeVendorSpecific is a vendor blob placeholder. Nothing builds it yet.
	TypeVendorSpecific Type = 0x0B
)

// Size constants.
const (
	// MaxValueLen is the largest value a single record may carry.
	MaxValueLen = 1024

	// HeaderLen is the encoded size of type + length.
	HeaderLen = 3

	// MACLen is the size of a MAC address value.
	MACLen = 6

	// DeviceInfoLen is the size of a single-interface device information value:
	// AL MAC (6) + interface count (1) + interface MAC (6) + media type (2).
	DeviceInfoLen = MACLen + 1 + MACLen + 2
)

// String returns a human-readable name for the type.
func (t Type) String() string {
	switch t {
	case TypeEndOfMessage:
		return "EndOfMessage"
	case TypeALMACAddress:
		return "ALMACAddress"
	case TypeMACAddress:
		return "MACAddress"
	case TypeDeviceInformation:
		return "DeviceInformation"
	case TypeWSC:
		return "WSC"
	case TypeVendorSpecific:
		return "VendorSpecific"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
	}
}

// fixedLen returns the exact value length a type requires, if it has one.
func (t Type) fixedLen() (int, bool) {
	switch t {
	case TypeEndOfMessage:
		return 0, true
	case TypeALMACAddress, TypeMACAddress:
		return MACLen, true
	case TypeDeviceInformation:
		return DeviceInfoLen, true
	default:
		return 0, false
	}
}
