package wire

import (
	"fmt"

	"github.com/ueno-go/xim-wayland/internal/xerr"
)

// AttrType is the recognized value-type tag for a typed attribute (§3).
type AttrType uint16

const (
	TypeCard8 AttrType = iota
	TypeCard16
	TypeCard32
	TypeString
	TypeWindow
	TypeStyles
	TypeRectangle
	TypePoint
	TypeFontSet
	TypeHotKeyTriggers
	TypeStringConversion
	TypeNested
)

// Attribute is a length-prefixed typed value: on the wire,
// [u16 id][u16 value_byte_length][value bytes...][pad]. Integer values
// inside Value are already stored in the owning transport's byte order, so
// serialization is a straight copy.
type Attribute struct {
	ID    uint16
	Type  AttrType
	Value []byte
}

// Size returns the on-the-wire byte size of a, including its 4-byte header
// and trailing padding.
func (a Attribute) Size() int {
	return 4 + len(a.Value) + Pad(len(a.Value))
}

// Encode appends a's wire representation to buf and returns the result.
func (a Attribute) Encode(e Endian, buf []byte) []byte {
	var hdr [4]byte
	e.Order().PutUint16(hdr[0:2], a.ID)
	e.Order().PutUint16(hdr[2:4], uint16(len(a.Value)))

	buf = append(buf, hdr[:]...)
	buf = append(buf, a.Value...)
	buf = append(buf, make([]byte, Pad(len(a.Value)))...)

	return buf
}

// DecodeAttribute reads one attribute from the head of buf. It refuses to
// yield when buf is shorter than the declared value length requires.
func DecodeAttribute(buf []byte, e Endian) (Attribute, int, error) {
	if len(buf) < 4 {
		return Attribute{}, 0, fmt.Errorf("%w: attribute header truncated (%d bytes)", xerr.ErrProtocol, len(buf))
	}

	id := e.Order().Uint16(buf[0:2])
	n := int(e.Order().Uint16(buf[2:4]))
	pad := Pad(n)

	if len(buf) < 4+n+pad {
		return Attribute{}, 0, fmt.Errorf("%w: attribute declares %d value bytes but only %d available", xerr.ErrProtocol, n, len(buf)-4)
	}

	value := make([]byte, n)
	copy(value, buf[4:4+n])

	return Attribute{ID: id, Value: value}, 4 + n + pad, nil
}

// --- typed constructors -----------------------------------------------

// NewCard8Attribute builds a CARD8-valued attribute.
func NewCard8Attribute(id uint16, v uint8) Attribute {
	return Attribute{ID: id, Type: TypeCard8, Value: []byte{v}}
}

// NewCard16Attribute builds a CARD16-valued attribute, encoding v in e's
// byte order.
func NewCard16Attribute(id uint16, v uint16, e Endian) Attribute {
	buf := make([]byte, 2)
	e.Order().PutUint16(buf, v)

	return Attribute{ID: id, Type: TypeCard16, Value: buf}
}

// NewCard32Attribute builds a CARD32-valued attribute, encoding v in e's
// byte order.
func NewCard32Attribute(id uint16, v uint32, e Endian) Attribute {
	buf := make([]byte, 4)
	e.Order().PutUint32(buf, v)

	return Attribute{ID: id, Type: TypeCard32, Value: buf}
}

// NewStringAttribute builds a STRING8-valued attribute from a UTF-8 string.
func NewStringAttribute(id uint16, s string) Attribute {
	return Attribute{ID: id, Type: TypeString, Value: []byte(s)}
}

// NewWindowAttribute builds a WINDOW-valued attribute (a CARD32 window id).
func NewWindowAttribute(id uint16, win uint32, e Endian) Attribute {
	buf := make([]byte, 4)
	e.Order().PutUint32(buf, win)

	return Attribute{ID: id, Type: TypeWindow, Value: buf}
}

// NewStylesAttribute builds an XIMSTYLES-valued attribute: a list of CARD32
// input-style bitmasks.
func NewStylesAttribute(id uint16, styles []uint32, e Endian) Attribute {
	buf := make([]byte, 4*len(styles))
	for i, s := range styles {
		e.Order().PutUint32(buf[i*4:i*4+4], s)
	}

	return Attribute{ID: id, Type: TypeStyles, Value: buf}
}

// XRectangle is a position/size pair used by XRECTANGLE-valued attributes.
type XRectangle struct {
	X, Y          int16
	Width, Height uint16
}

// NewRectangleAttribute builds an XRECTANGLE-valued attribute.
func NewRectangleAttribute(id uint16, r XRectangle, e Endian) Attribute {
	buf := make([]byte, 8)
	e.Order().PutUint16(buf[0:2], uint16(r.X))
	e.Order().PutUint16(buf[2:4], uint16(r.Y))
	e.Order().PutUint16(buf[4:6], r.Width)
	e.Order().PutUint16(buf[6:8], r.Height)

	return Attribute{ID: id, Type: TypeRectangle, Value: buf}
}

// XPoint is a coordinate pair used by XPOINT-valued attributes.
type XPoint struct {
	X, Y int16
}

// NewPointAttribute builds an XPOINT-valued attribute.
func NewPointAttribute(id uint16, p XPoint, e Endian) Attribute {
	buf := make([]byte, 4)
	e.Order().PutUint16(buf[0:2], uint16(p.X))
	e.Order().PutUint16(buf[2:4], uint16(p.Y))

	return Attribute{ID: id, Type: TypePoint, Value: buf}
}

// NewFontSetAttribute builds an XFONTSET-valued attribute: a length-prefixed
// base font name followed by padding, per the XIM wire format for STR-typed
// font set names.
func NewFontSetAttribute(id uint16, name string, e Endian) Attribute {
	buf := make([]byte, 2, 2+len(name))
	e.Order().PutUint16(buf, uint16(len(name)))
	buf = append(buf, name...)

	return Attribute{ID: id, Type: TypeFontSet, Value: buf}
}

// HotKeyTrigger is one element of an XIMHOTKEYTRIGGERS list: a keysym,
// modifier mask, modifier mask mask, and its parallel on/off state.
type HotKeyTrigger struct {
	Keysym      uint32
	Modifier    uint32
	ModifierMsk uint32
	State       uint32
}

// NewHotKeyTriggersAttribute builds an XIMHOTKEYTRIGGERS-valued attribute:
// a CARD32 count followed by that many HotKeyTrigger quadruples.
func NewHotKeyTriggersAttribute(id uint16, triggers []HotKeyTrigger, e Endian) Attribute {
	buf := make([]byte, 4+16*len(triggers))
	e.Order().PutUint32(buf[0:4], uint32(len(triggers)))

	for i, t := range triggers {
		off := 4 + i*16
		e.Order().PutUint32(buf[off:off+4], t.Keysym)
		e.Order().PutUint32(buf[off+4:off+8], t.Modifier)
		e.Order().PutUint32(buf[off+8:off+12], t.ModifierMsk)
		e.Order().PutUint32(buf[off+12:off+16], t.State)
	}

	return Attribute{ID: id, Type: TypeHotKeyTriggers, Value: buf}
}

// NewStringConversionAttribute builds an XIMSTRINGCONVERSION-valued
// attribute: position, direction, operation, factor, and the conversion
// text itself, all CARD16 fields followed by the length-prefixed text.
func NewStringConversionAttribute(id uint16, position, direction, operation, factor uint16, text string, e Endian) Attribute {
	buf := make([]byte, 10, 10+len(text))
	e.Order().PutUint16(buf[0:2], position)
	e.Order().PutUint16(buf[2:4], direction)
	e.Order().PutUint16(buf[4:6], operation)
	e.Order().PutUint16(buf[6:8], factor)
	e.Order().PutUint16(buf[8:10], uint16(len(text)))
	buf = append(buf, text...)

	return Attribute{ID: id, Type: TypeStringConversion, Value: buf}
}

// NewNestedAttribute builds a NEST-typed attribute whose payload is itself a
// packed list of attributes, copied contiguously with per-element padding.
func NewNestedAttribute(id uint16, children []Attribute, e Endian) Attribute {
	var buf []byte
	for _, c := range children {
		buf = c.Encode(e, buf)
	}

	return Attribute{ID: id, Type: TypeNested, Value: buf}
}

// AsUint16 interprets a.Value as a single CARD16 in order e.
func (a Attribute) AsUint16(e Endian) (uint16, error) {
	if len(a.Value) < 2 {
		return 0, fmt.Errorf("%w: attribute %d too short for CARD16", xerr.ErrProtocol, a.ID)
	}

	return e.Order().Uint16(a.Value[:2]), nil
}

// AsUint32 interprets a.Value as a single CARD32 in order e.
func (a Attribute) AsUint32(e Endian) (uint32, error) {
	if len(a.Value) < 4 {
		return 0, fmt.Errorf("%w: attribute %d too short for CARD32", xerr.ErrProtocol, a.ID)
	}

	return e.Order().Uint32(a.Value[:4]), nil
}

// AsString interprets a.Value as a raw STRING8 value.
func (a Attribute) AsString() string {
	return string(a.Value)
}
