package session

import (
	"github.com/ueno-go/xim-wayland/internal/wire"
	"github.com/ueno-go/xim-wayland/internal/xtransport"
)

// handleOpen implements §4.3 "Open": allocate an IM, populate its attribute
// spec tables, and reply with both spec lists.
func (e *Engine) handleOpen(req xtransport.QueuedRequest) error {
	if len(req.Payload) < 1 {
		return protocolErrorf("OPEN payload too short (%d bytes)", len(req.Payload))
	}

	n := int(req.Payload[0])
	if len(req.Payload) < 1+n {
		return protocolErrorf("OPEN declares locale length %d, only %d bytes available", n, len(req.Payload)-1)
	}

	locale := string(req.Payload[1 : 1+n])

	e.nextIMID++
	im := newInputMethod(e.nextIMID, req.Transport)
	e.addIM(im)

	if err := e.send(req.Transport, wire.OpOpenReply, encodeOpenReply(im)); err != nil {
		return err
	}

	e.Log.Debug("open", "im", im.ID, "locale", locale)

	return nil
}

func encodeOpenReply(im *InputMethod) []byte {
	ord := im.Transport.Endian

	imSpecBytes := wire.EncodeAttributeSpecList(im.imSpecs, ord)
	icSpecBytes := wire.EncodeAttributeSpecList(im.icSpecs, ord)

	buf := make([]byte, 4, 4+len(imSpecBytes)+4+len(icSpecBytes))
	ord.Order().PutUint16(buf[0:2], im.ID)
	ord.Order().PutUint16(buf[2:4], uint16(len(imSpecBytes)))
	buf = append(buf, imSpecBytes...)

	var tail [4]byte
	ord.Order().PutUint16(tail[0:2], uint16(len(icSpecBytes)))
	buf = append(buf, tail[:]...)
	buf = append(buf, icSpecBytes...)

	return buf
}

// handleClose implements §4.3 "Close": detach and destroy the matching IM.
func (e *Engine) handleClose(req xtransport.QueuedRequest) error {
	id, err := readU16(req.Payload, 0, req.Transport.Endian)
	if err != nil {
		return protocolErrorf("CLOSE: %s", err)
	}

	im := e.imByID(req.Transport, id)
	if im == nil {
		return protocolErrorf("CLOSE: %w (%d)", errUnknownIM, id)
	}

	e.removeIM(im)

	reply := make([]byte, 4)
	req.Transport.Endian.Order().PutUint16(reply[0:2], id)

	return e.send(req.Transport, wire.OpCloseReply, reply)
}

// handleQueryExtension implements §4.3 "Query extension": always an empty
// extension list, since none are supported.
func (e *Engine) handleQueryExtension(req xtransport.QueuedRequest) error {
	id, err := readU16(req.Payload, 0, req.Transport.Endian)
	if err != nil {
		return protocolErrorf("QUERY_EXTENSION: %s", err)
	}

	ord := req.Transport.Endian
	extensions := wire.EncodeExtensionList(nil, ord)

	reply := make([]byte, 4)
	ord.Order().PutUint16(reply[0:2], id)
	ord.Order().PutUint16(reply[2:4], uint16(len(extensions)))
	reply = append(reply, extensions...)

	return e.send(req.Transport, wire.OpQueryExtensionReply, reply)
}

// handleEncodingNegotiation implements §4.3 "Encoding negotiation": accept
// only if UTF-8 is among the client's offered encodings.
func (e *Engine) handleEncodingNegotiation(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("ENCODING_NEGOTIATION: %s", err)
	}

	n, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("ENCODING_NEGOTIATION: %s", err)
	}

	if len(req.Payload) < 4+int(n) {
		return protocolErrorf("ENCODING_NEGOTIATION: declares %d encoding bytes, only %d available", n, len(req.Payload)-4)
	}

	it := wire.NewStringIter(req.Payload[4 : 4+n])

	index := int16(-1)

	for i := 0; it.HasNext(); i++ {
		var s string
		s, it = it.Next()

		if s == "UTF-8" {
			index = int16(i)

			break
		}
	}

	if index < 0 {
		return protocolErrorf("ENCODING_NEGOTIATION: client does not offer UTF-8")
	}

	reply := make([]byte, 8)
	ord.Order().PutUint16(reply[0:2], imID)
	ord.Order().PutUint16(reply[2:4], 0) // category: always the first (only) category
	ord.Order().PutUint16(reply[4:6], uint16(index))

	return e.send(req.Transport, wire.OpEncodingNegotiationReply, reply)
}

// handleSetIMValues implements §4.3 "Set values" for the IM attribute
// table.
func (e *Engine) handleSetIMValues(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("SET_IM_VALUES: %s", err)
	}

	im := e.imByID(req.Transport, imID)
	if im == nil {
		return protocolErrorf("SET_IM_VALUES: %w (%d)", errUnknownIM, imID)
	}

	n, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("SET_IM_VALUES: %s", err)
	}

	if len(req.Payload) < 4+int(n) {
		return protocolErrorf("SET_IM_VALUES: declares %d attribute bytes, only %d available", n, len(req.Payload)-4)
	}

	it := wire.NewAttrIter(req.Payload[4:4+n], ord)

	for it.HasNext() {
		attr, next, err := it.Next()
		if err != nil {
			return protocolErrorf("SET_IM_VALUES: %s", err)
		}

		im.setValue(attr.ID, attr.Value)

		it = next
	}

	reply := make([]byte, 4)
	ord.Order().PutUint16(reply[0:2], imID)

	return e.send(req.Transport, wire.OpSetIMValuesReply, reply)
}

// handleGetIMValues implements §4.3 "Get values" for the IM attribute
// table.
func (e *Engine) handleGetIMValues(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("GET_IM_VALUES: %s", err)
	}

	im := e.imByID(req.Transport, imID)
	if im == nil {
		return protocolErrorf("GET_IM_VALUES: %w (%d)", errUnknownIM, imID)
	}

	n, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("GET_IM_VALUES: %s", err)
	}

	if len(req.Payload) < 4+int(n) {
		return protocolErrorf("GET_IM_VALUES: declares %d id bytes, only %d available", n, len(req.Payload)-4)
	}

	var attrs []byte

	it := wire.NewIDIter(req.Payload[4:4+n], ord)
	for it.HasNext() {
		var id uint16
		id, it = it.Next()

		value, ok := im.getValue(id)
		if !ok {
			continue
		}

		attrs = wire.Attribute{ID: id, Value: value}.Encode(ord, attrs)
	}

	buf := make([]byte, 4, 4+len(attrs))
	ord.Order().PutUint16(buf[0:2], imID)
	ord.Order().PutUint16(buf[2:4], uint16(len(attrs)))
	buf = append(buf, attrs...)

	return e.send(req.Transport, wire.OpGetIMValuesReply, buf)
}

// handleSync implements XIM_SYNC_REPLY: an echo acknowledging the client's
// SYNC, identifying the IM/IC the request named.
func (e *Engine) handleSync(req xtransport.QueuedRequest) error {
	if len(req.Payload) < 4 {
		return protocolErrorf("SYNC payload too short (%d bytes)", len(req.Payload))
	}

	reply := append([]byte(nil), req.Payload[:4]...)

	return e.send(req.Transport, wire.OpSyncReply, reply)
}

// readU16 reads a CARD16 at byte offset off in buf, in endian order e.
func readU16(buf []byte, off int, e wire.Endian) (uint16, error) {
	if len(buf) < off+2 {
		return 0, protocolErrorf("buffer too short to read CARD16 at offset %d (%d bytes)", off, len(buf))
	}

	return e.Order().Uint16(buf[off : off+2]), nil
}
