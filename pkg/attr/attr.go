// Package attr implements the DPP attribute wire format: a flat sequence
// of little-endian type/length/value records, plus the AES-SIV Wrapped
// Data attribute that protects the inner attributes of a protocol frame.
package attr

import (
	"encoding/binary"
	"errors"
	"math"
)

// Type identifies a DPP attribute.
type Type uint16

// Published attribute identifiers.
const (
	TypeStatus              Type = 0x1000
	TypeInitiatorBootHash   Type = 0x1001
	TypeResponderBootHash   Type = 0x1002
	TypeInitiatorProtocolKey Type = 0x1003
	TypeWrappedData         Type = 0x1004
	TypeInitiatorNonce      Type = 0x1005
	TypeInitiatorCaps       Type = 0x1006
	TypeResponderNonce      Type = 0x1007
	TypeResponderCaps       Type = 0x1008
	TypeResponderProtocolKey Type = 0x1009
	TypeInitiatorAuthTag    Type = 0x100a
	TypeResponderAuthTag    Type = 0x100b
	TypeConfigurationObject Type = 0x100c
	TypeConnector           Type = 0x100d
	TypeConfigAttributes    Type = 0x100e
	TypeBootstrappingKey    Type = 0x100f
	TypeFiniteCyclicGroup   Type = 0x1012
	TypeEncryptedKey        Type = 0x1013
	TypeEnrolleeNonce       Type = 0x1014
	TypeCodeIdentifier      Type = 0x1015
	TypeTransactionID       Type = 0x1016
	TypeBootstrappingInfo   Type = 0x1017
	TypeChannel             Type = 0x1018
	TypeProtocolVersion     Type = 0x1019
	TypeEnvelopedData       Type = 0x101a
	TypeSendConnStatus      Type = 0x101b
	TypeConnStatus          Type = 0x101c
	TypeReconfigFlags       Type = 0x101d
	TypeCSignKeyHash        Type = 0x101e
)

const headerSize = 4

// Errors for attribute iteration and construction.
var (
	ErrTruncated     = errors.New("attr: attribute overruns the buffer")
	ErrValueTooLarge = errors.New("attr: attribute value exceeds 64 KiB")
)

// Iterator walks a serialized attribute sequence.
//
//	it := attr.NewIterator(buf)
//	for it.Next() {
//		use it.Type(), it.Value()
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	buf   []byte
	typ   Type
	value []byte
	err   error
}

// NewIterator creates an iterator over a serialized attribute sequence.
func NewIterator(buf []byte) *Iterator {
	return &Iterator{buf: buf}
}

// Next advances to the next attribute. It returns false on exhaustion or
// when a declared length would overrun the buffer; Err distinguishes the
// two.
func (it *Iterator) Next() bool {
	if it.err != nil || len(it.buf) == 0 {
		return false
	}
	if len(it.buf) < headerSize {
		it.err = ErrTruncated
		return false
	}

	length := int(binary.LittleEndian.Uint16(it.buf[2:4]))
	if len(it.buf) < headerSize+length {
		it.err = ErrTruncated
		return false
	}

	it.typ = Type(binary.LittleEndian.Uint16(it.buf[0:2]))
	it.value = it.buf[headerSize : headerSize+length]
	it.buf = it.buf[headerSize+length:]
	return true
}

// Type returns the type of the current attribute.
func (it *Iterator) Type() Type {
	return it.typ
}

// Value returns the value of the current attribute. The slice aliases the
// iterated buffer.
func (it *Iterator) Value() []byte {
	return it.value
}

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Find returns the value of the first attribute of type t in buf.
func Find(buf []byte, t Type) ([]byte, bool) {
	it := NewIterator(buf)
	for it.Next() {
		if it.Type() == t {
			return it.Value(), true
		}
	}
	return nil, false
}

// Builder serializes an attribute sequence.
type Builder struct {
	buf []byte
	err error
}

// Add appends an attribute. Values larger than 64 KiB cannot be
// represented and poison the builder.
func (b *Builder) Add(t Type, value []byte) *Builder {
	if b.err != nil {
		return b
	}
	if len(value) > math.MaxUint16 {
		b.err = ErrValueTooLarge
		return b
	}

	var hdr [headerSize]byte
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(t))
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(value)))
	b.buf = append(b.buf, hdr[:]...)
	b.buf = append(b.buf, value...)
	return b
}

// AddUint8 appends a single-byte attribute.
func (b *Builder) AddUint8(t Type, v uint8) *Builder {
	return b.Add(t, []byte{v})
}

// AddUint16 appends a little-endian 16-bit attribute.
func (b *Builder) AddUint16(t Type, v uint16) *Builder {
	var val [2]byte
	binary.LittleEndian.PutUint16(val[:], v)
	return b.Add(t, val[:])
}

// Bytes returns the serialized sequence.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.buf, nil
}
