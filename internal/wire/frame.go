package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/ueno-go/xim-wayland/internal/xerr"
)

// Endian is the per-transport byte-order marker, set from the first byte of
// the CONNECT payload: 'B' for big-endian, 'l' for little-endian. Every
// multi-byte field on the wire for a given transport is encoded in this
// order; caller-facing Go values are always host order.
type Endian byte

const (
	BigEndian    Endian = 'B'
	LittleEndian Endian = 'l'
)

// Order returns the standard library byte order matching e.
func (e Endian) Order() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

// Pad returns the number of padding bytes required to round n up to a
// 4-byte boundary: (4 - (n mod 4)) mod 4.
func Pad(n int) int {
	return (4 - (n % 4)) % 4
}

// Frame is one XIM message: [major, minor, length, payload...] where length
// is payload-byte-count/4 and the whole message (header + payload) is
// padded so its total size is a multiple of 4 bytes.
type Frame struct {
	Major   Opcode
	Minor   byte
	Payload []byte
}

// Encode serializes f using endian e, padding Payload to a 4-byte boundary
// and filling in the length field.
func (f Frame) Encode(e Endian) ([]byte, error) {
	padded := Pad(len(f.Payload))
	total := 4 + len(f.Payload) + padded

	if total%4 != 0 {
		return nil, fmt.Errorf("%w: frame body %d bytes is not 4-byte aligned", xerr.ErrProtocol, total)
	}

	length := (len(f.Payload) + padded) / 4
	if length > 0xffff {
		return nil, fmt.Errorf("%w: frame payload too large (%d words)", xerr.ErrProtocol, length)
	}

	buf := make([]byte, total)
	buf[0] = byte(f.Major)
	buf[1] = f.Minor
	e.Order().PutUint16(buf[2:4], uint16(length))
	copy(buf[4:], f.Payload)

	return buf, nil
}

// DecodeFrame reads one frame from the head of buf, returning the frame and
// the number of bytes consumed. It refuses to yield when buf is shorter than
// the header declares, the sole defense against malformed peers (§4.1).
func DecodeFrame(buf []byte, e Endian) (Frame, int, error) {
	if len(buf) < 4 {
		return Frame{}, 0, fmt.Errorf("%w: frame header truncated (%d bytes)", xerr.ErrProtocol, len(buf))
	}

	length := e.Order().Uint16(buf[2:4])
	payloadBytes := int(length) * 4
	total := 4 + payloadBytes

	if len(buf) < total {
		return Frame{}, 0, fmt.Errorf("%w: frame declares %d payload bytes but only %d available", xerr.ErrProtocol, payloadBytes, len(buf)-4)
	}

	return Frame{
		Major:   Opcode(buf[0]),
		Minor:   buf[1],
		Payload: buf[4:total],
	}, total, nil
}
