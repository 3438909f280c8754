package tlv

import "encoding/binary"

// TLV is a single type-length-value record. The length is len(Value).
type TLV struct {
	Type  Type
	Value []byte
}

// Len returns the value length in bytes.
func (t TLV) Len() int {
	return len(t.Value)
}

// Size returns the encoded size of the record, header included.
func (t TLV) Size() int {
	return HeaderLen + len(t.Value)
}

// Validate checks the length cap and, for types with a fixed shape, that
// the value has exactly that length.
func (t TLV) Validate() error {
	if len(t.Value) > MaxValueLen {
		return ErrValueTooLong
	}
	if want, ok := t.Type.fixedLen(); ok && len(t.Value) != want {
		return ErrInvalidLength
	}
	return nil
}

// EncodeTo writes the record into buf and returns the number of bytes written.
// Nothing is written when buf is too small or the value exceeds MaxValueLen.
func (t TLV) EncodeTo(buf []byte) (int, error) {
	if len(t.Value) > MaxValueLen {
		return 0, ErrValueTooLong
	}
	size := t.Size()
	if len(buf) < size {
		return 0, ErrBufferTooSmall
	}

	buf[0] = byte(t.Type)
	binary.BigEndian.PutUint16(buf[1:], uint16(len(t.Value)))
	copy(buf[HeaderLen:], t.Value)

	return size, nil
}

// DecodeHeader reads a record header from data.
func DecodeHeader(data []byte) (Type, int, error) {
	if len(data) < HeaderLen {
		return 0, 0, ErrUnexpectedEOF
	}
	return Type(data[0]), int(binary.BigEndian.Uint16(data[1:])), nil
}

// Decode reads one record from data and returns it together with the
// number of bytes consumed. The value is copied out of data.
func Decode(data []byte) (TLV, int, error) {
	typ, length, err := DecodeHeader(data)
	if err != nil {
		return TLV{}, 0, err
	}
	if length > MaxValueLen {
		return TLV{}, 0, ErrValueTooLong
	}
	if length > len(data)-HeaderLen {
		return TLV{}, 0, ErrOverrun
	}

	value := make([]byte, length)
	copy(value, data[HeaderLen:HeaderLen+length])

	return TLV{Type: typ, Value: value}, HeaderLen + length, nil
}
