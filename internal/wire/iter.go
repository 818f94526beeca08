package wire

// This file implements the stateless "has-next/next" iterators described in
// §4.1. Each one walks a byte slice without mutating it and refuses to yield
// once the remainder is too small for the next element — the sole defense
// this codec has against malformed peers.

// StringIter walks a sequence of length-prefixed byte strings (STR):
// [u8 length][bytes...], advancing by 1+length each step.
type StringIter struct {
	buf []byte
}

// NewStringIter returns an iterator over the length-prefixed strings in buf.
func NewStringIter(buf []byte) StringIter {
	return StringIter{buf: buf}
}

// HasNext reports whether another string can be decoded.
func (it StringIter) HasNext() bool {
	if len(it.buf) < 1 {
		return false
	}

	n := int(it.buf[0])

	return len(it.buf) >= 1+n
}

// Next returns the next string and an iterator positioned after it.
func (it StringIter) Next() (string, StringIter) {
	n := int(it.buf[0])
	s := string(it.buf[1 : 1+n])

	return s, StringIter{buf: it.buf[1+n:]}
}

// IDIter walks a list of CARD16 attribute ids, advancing by 2 each step.
type IDIter struct {
	buf []byte
	e   Endian
}

// NewIDIter returns an iterator over the CARD16 ids in buf.
func NewIDIter(buf []byte, e Endian) IDIter {
	return IDIter{buf: buf, e: e}
}

// HasNext reports whether another id can be decoded.
func (it IDIter) HasNext() bool {
	return len(it.buf) >= 2
}

// Next returns the next id and an iterator positioned after it.
func (it IDIter) Next() (uint16, IDIter) {
	id := it.e.Order().Uint16(it.buf[0:2])

	return id, IDIter{buf: it.buf[2:], e: it.e}
}

// AttrIter walks a packed list of full attributes, advancing by
// 4+value_byte_length+pad(value_byte_length) each step.
type AttrIter struct {
	buf []byte
	e   Endian
}

// NewAttrIter returns an iterator over the attributes in buf.
func NewAttrIter(buf []byte, e Endian) AttrIter {
	return AttrIter{buf: buf, e: e}
}

// HasNext reports whether another attribute can be decoded without
// exceeding the remaining bytes.
func (it AttrIter) HasNext() bool {
	if len(it.buf) < 4 {
		return false
	}

	n := int(it.e.Order().Uint16(it.buf[2:4]))

	return len(it.buf) >= 4+n+Pad(n)
}

// Next decodes the next attribute and returns an iterator positioned after
// it. Callers check HasNext first; Next returns an error if the remaining
// bytes do not hold a whole attribute.
func (it AttrIter) Next() (Attribute, AttrIter, error) {
	a, n, err := DecodeAttribute(it.buf, it.e)
	if err != nil {
		return Attribute{}, it, err
	}

	return a, AttrIter{buf: it.buf[n:], e: it.e}, nil
}

// NestedIter constructs an iterator over the inner attributes of a NEST
// attribute, stopping once the remainder is smaller than an attribute
// header (< 4 bytes) rather than requiring an exact final boundary — nested
// lists are padded as a whole, not element-by-element at the tail.
type NestedIter struct {
	AttrIter
}

// NewNestedIter returns an iterator over the children of a NEST-typed
// attribute.
func NewNestedIter(parent Attribute, e Endian) NestedIter {
	return NestedIter{AttrIter: NewAttrIter(parent.Value, e)}
}

// HasNext reports whether another nested attribute remains.
func (it NestedIter) HasNext() bool {
	return len(it.buf) >= 4 && it.AttrIter.HasNext()
}
