package wire

// ExtensionRecord describes one protocol extension the server supports, as
// used in QUERY_EXTENSION_REPLY: [u8 major][u8 minor][u16 name_length][name]
// [pad]. This engine never advertises any (§4.3 "Query extension" always
// replies with an empty list), but the wire shape is kept so a future
// extension could be added without changing the framing.
type ExtensionRecord struct {
	Major byte
	Minor byte
	Name  string
}

// Size returns the on-the-wire byte size of r.
func (r ExtensionRecord) Size() int {
	return 4 + len(r.Name) + Pad(len(r.Name))
}

// Encode appends r's wire representation to buf.
func (r ExtensionRecord) Encode(e Endian, buf []byte) []byte {
	var hdr [4]byte
	hdr[0] = r.Major
	hdr[1] = r.Minor
	e.Order().PutUint16(hdr[2:4], uint16(len(r.Name)))

	buf = append(buf, hdr[:]...)
	buf = append(buf, r.Name...)
	buf = append(buf, make([]byte, Pad(len(r.Name)))...)

	return buf
}

// EncodeExtensionList encodes zero or more extension records back to back.
func EncodeExtensionList(records []ExtensionRecord, e Endian) []byte {
	var buf []byte
	for _, r := range records {
		buf = r.Encode(e, buf)
	}

	return buf
}
