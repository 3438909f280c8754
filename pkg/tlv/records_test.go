package tlv

import (
	"bytes"
	"errors"
	"net"
	"testing"
)

func mustMAC(t *testing.T, s string) net.HardwareAddr {
	t.Helper()
	mac, err := net.ParseMAC(s)
	if err != nil {
		t.Fatalf("ParseMAC(%q) error = %v", s, err)
	}
	return mac
}

func TestNewMAC(t *testing.T) {
	mac := mustMAC(t, "02:00:00:00:00:10")

	rec, err := NewMAC(TypeALMACAddress, mac)
	if err != nil {
		t.Fatalf("NewMAC() error = %v", err)
	}
	if rec.Type != TypeALMACAddress || rec.Len() != MACLen {
		t.Errorf("NewMAC() = {%v, len %d}, want {ALMACAddress, len 6}", rec.Type, rec.Len())
	}
	if !bytes.Equal(rec.Value, mac) {
		t.Errorf("Value = %x, want %x", rec.Value, []byte(mac))
	}

	mac[0] = 0xFF
	if rec.Value[0] != 0x02 {
		t.Error("NewMAC() value aliases input address")
	}

	got, err := rec.MAC()
	if err != nil {
		t.Fatalf("MAC() error = %v", err)
	}
	if got.String() != "02:00:00:00:00:10" {
		t.Errorf("MAC() = %s, want 02:00:00:00:00:10", got)
	}
}

func TestNewMACRejects(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		mac     net.HardwareAddr
		wantErr error
	}{
		{"nil address", TypeMACAddress, nil, ErrMissingValue},
		{"EUI-64 address", TypeMACAddress, net.HardwareAddr{1, 2, 3, 4, 5, 6, 7, 8}, ErrInvalidLength},
		{"device info type", TypeDeviceInformation, net.HardwareAddr{1, 2, 3, 4, 5, 6}, ErrInvalidType},
		{"end of message type", TypeEndOfMessage, net.HardwareAddr{1, 2, 3, 4, 5, 6}, ErrInvalidType},
		{"config payload type", TypeWSC, net.HardwareAddr{1, 2, 3, 4, 5, 6}, ErrInvalidType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := NewMAC(tc.typ, tc.mac)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("NewMAC() error = %v, want %v", err, tc.wantErr)
			}
			if rec.Value != nil {
				t.Error("NewMAC() returned a value on failure")
			}
		})
	}
}

func TestNewDeviceInfo(t *testing.T) {
	al := mustMAC(t, "aa:bb:cc:dd:ee:ff")
	iface := mustMAC(t, "11:22:33:44:55:66")

	rec, err := NewDeviceInfo(al, iface)
	if err != nil {
		t.Fatalf("NewDeviceInfo() error = %v", err)
	}

	want := []byte{
		0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
		0x01,
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66,
		0x00, 0x00,
	}
	if rec.Type != TypeDeviceInformation {
		t.Errorf("Type = %v, want %v", rec.Type, TypeDeviceInformation)
	}
	if rec.Len() != DeviceInfoLen {
		t.Errorf("Len() = %d, want %d", rec.Len(), DeviceInfoLen)
	}
	if !bytes.Equal(rec.Value, want) {
		t.Errorf("Value = %x, want %x", rec.Value, want)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	info, err := ParseDeviceInfo(rec)
	if err != nil {
		t.Fatalf("ParseDeviceInfo() error = %v", err)
	}
	if info.ALMAC.String() != al.String() || info.Interface.String() != iface.String() {
		t.Errorf("ParseDeviceInfo() = {%s, %s}, want {%s, %s}", info.ALMAC, info.Interface, al, iface)
	}
	if info.MediaType != MediaTypeGeneric {
		t.Errorf("MediaType = 0x%04X, want 0x0000", info.MediaType)
	}
}

func TestNewDeviceInfoRejects(t *testing.T) {
	good := net.HardwareAddr{1, 2, 3, 4, 5, 6}

	if _, err := NewDeviceInfo(nil, good); !errors.Is(err, ErrMissingValue) {
		t.Errorf("NewDeviceInfo(nil, ...) error = %v, want %v", err, ErrMissingValue)
	}
	if _, err := NewDeviceInfo(good, net.HardwareAddr{1, 2}); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("NewDeviceInfo(short) error = %v, want %v", err, ErrInvalidLength)
	}
}

func TestParseDeviceInfoRejects(t *testing.T) {
	if _, err := ParseDeviceInfo(TLV{Type: TypeMACAddress, Value: make([]byte, 15)}); !errors.Is(err, ErrInvalidType) {
		t.Errorf("ParseDeviceInfo() error = %v, want %v", err, ErrInvalidType)
	}

	value := make([]byte, DeviceInfoLen)
	value[MACLen] = 2
	if _, err := ParseDeviceInfo(TLV{Type: TypeDeviceInformation, Value: value}); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("ParseDeviceInfo(count=2) error = %v, want %v", err, ErrInvalidLength)
	}
}

func TestNewConfigPayload(t *testing.T) {
	t.Run("copies payload", func(t *testing.T) {
		payload := []byte{0x10, 0x47, 0x00, 0x06}
		rec, err := NewConfigPayload(payload)
		if err != nil {
			t.Fatalf("NewConfigPayload() error = %v", err)
		}
		if rec.Type != TypeWSC {
			t.Errorf("Type = %v, want %v", rec.Type, TypeWSC)
		}
		payload[0] = 0x00
		if rec.Value[0] != 0x10 {
			t.Error("NewConfigPayload() value aliases payload")
		}
	})

	t.Run("at cap", func(t *testing.T) {
		rec, err := NewConfigPayload(make([]byte, MaxValueLen))
		if err != nil {
			t.Fatalf("NewConfigPayload() error = %v", err)
		}
		if rec.Len() != MaxValueLen {
			t.Errorf("Len() = %d, want %d", rec.Len(), MaxValueLen)
		}
	})

	t.Run("empty is allowed", func(t *testing.T) {
		rec, err := NewConfigPayload([]byte{})
		if err != nil {
			t.Fatalf("NewConfigPayload() error = %v", err)
		}
		if rec.Len() != 0 {
			t.Errorf("Len() = %d, want 0", rec.Len())
		}
	})

	t.Run("over cap", func(t *testing.T) {
		if _, err := NewConfigPayload(make([]byte, MaxValueLen+1)); !errors.Is(err, ErrValueTooLong) {
			t.Errorf("NewConfigPayload() error = %v, want %v", err, ErrValueTooLong)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if _, err := NewConfigPayload(nil); !errors.Is(err, ErrMissingValue) {
			t.Errorf("NewConfigPayload() error = %v, want %v", err, ErrMissingValue)
		}
	})
}
