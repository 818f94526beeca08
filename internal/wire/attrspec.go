package wire

import (
	"fmt"

	"github.com/ueno-go/xim-wayland/internal/xerr"
)

// AttributeSpec is the metadata advertised for a settable/gettable
// attribute: its id, its value-type tag, and a human-readable name. Sent in
// OPEN_REPLY so the client knows how to interpret values it sets or reads
// back. On the wire: [u16 id][u16 type][u16 name_length][name bytes][pad].
type AttributeSpec struct {
	ID   uint16
	Type AttrType
	Name string
}

// Size returns the on-the-wire byte size of s, header plus padded name.
func (s AttributeSpec) Size() int {
	return 6 + len(s.Name) + Pad(len(s.Name))
}

// Encode appends s's wire representation to buf.
func (s AttributeSpec) Encode(e Endian, buf []byte) []byte {
	var hdr [6]byte
	e.Order().PutUint16(hdr[0:2], s.ID)
	e.Order().PutUint16(hdr[2:4], uint16(s.Type))
	e.Order().PutUint16(hdr[4:6], uint16(len(s.Name)))

	buf = append(buf, hdr[:]...)
	buf = append(buf, s.Name...)
	buf = append(buf, make([]byte, Pad(len(s.Name)))...)

	return buf
}

// DecodeAttributeSpec reads one attribute spec from the head of buf.
func DecodeAttributeSpec(buf []byte, e Endian) (AttributeSpec, int, error) {
	if len(buf) < 6 {
		return AttributeSpec{}, 0, fmt.Errorf("%w: attribute-spec header truncated (%d bytes)", xerr.ErrProtocol, len(buf))
	}

	id := e.Order().Uint16(buf[0:2])
	typ := e.Order().Uint16(buf[2:4])
	n := int(e.Order().Uint16(buf[4:6]))
	pad := Pad(n)

	if len(buf) < 6+n+pad {
		return AttributeSpec{}, 0, fmt.Errorf("%w: attribute-spec declares %d name bytes but only %d available", xerr.ErrProtocol, n, len(buf)-6)
	}

	name := make([]byte, n)
	copy(name, buf[6:6+n])

	return AttributeSpec{ID: id, Type: AttrType(typ), Name: string(name)}, 6 + n + pad, nil
}

// EncodeAttributeSpecList encodes a full list of specs with no outer length
// prefix (the caller embeds the list inside a larger reply whose own length
// field covers it, as OPEN_REPLY does for both the IM and IC spec lists).
func EncodeAttributeSpecList(specs []AttributeSpec, e Endian) []byte {
	var buf []byte
	for _, s := range specs {
		buf = s.Encode(e, buf)
	}

	return buf
}
