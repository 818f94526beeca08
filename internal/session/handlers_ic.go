package session

import (
	"fmt"

	"github.com/ueno-go/xim-wayland/internal/wire"
	"github.com/ueno-go/xim-wayland/internal/xerr"
	"github.com/ueno-go/xim-wayland/internal/xtransport"
)

// lookupIC resolves (im_id, ic_id) against e's live input methods.
func (e *Engine) lookupIC(t *xtransport.Transport, imID, icID uint16) (*InputMethod, *InputContext, error) {
	im := e.imByID(t, imID)
	if im == nil {
		return nil, nil, protocolErrorf("%w (%d)", errUnknownIM, imID)
	}

	ic := im.icByID(icID)
	if ic == nil {
		return nil, nil, protocolErrorf("%w (%d)", errUnknownIC, icID)
	}

	return im, ic, nil
}

// handleCreateIC implements §4.3 "Create IC": allocate an IC, create its
// text-input session and surface, seed default attribute values, then
// apply the request's attributes as in "Set values".
func (e *Engine) handleCreateIC(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("CREATE_IC: %s", err)
	}

	im := e.imByID(req.Transport, imID)
	if im == nil {
		return protocolErrorf("CREATE_IC: %w (%d)", errUnknownIM, imID)
	}

	n, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("CREATE_IC: %s", err)
	}

	if len(req.Payload) < 4+int(n) {
		return protocolErrorf("CREATE_IC: declares %d attribute bytes, only %d available", n, len(req.Payload)-4)
	}

	seat, err := e.Input.DefaultSeat()
	if err != nil {
		return fmt.Errorf("%w: default seat: %w", xerr.ErrProvider, err)
	}

	sessionID, err := e.Input.CreateSession(seat)
	if err != nil {
		return fmt.Errorf("%w: create text-input session: %w", xerr.ErrProvider, err)
	}

	surface, err := e.Input.CreateSurface()
	if err != nil {
		return fmt.Errorf("%w: create surface: %w", xerr.ErrProvider, err)
	}

	ic := newInputContext(im.allocICID(), im, sessionID, surface)

	it := wire.NewAttrIter(req.Payload[4:4+n], ord)
	for it.HasNext() {
		attr, next, err := it.Next()
		if err != nil {
			return protocolErrorf("CREATE_IC: %s", err)
		}

		ic.setValue(attr.ID, attr.Value)

		it = next
	}

	im.addIC(ic)

	reply := make([]byte, 4)
	ord.Order().PutUint16(reply[0:2], imID)
	ord.Order().PutUint16(reply[2:4], ic.ID)

	if err := e.send(req.Transport, wire.OpCreateICReply, reply); err != nil {
		return err
	}

	e.Log.Debug("create ic", "im", imID, "ic", ic.ID)

	return nil
}

// handleDestroyIC implements §4.3 "Destroy IC".
func (e *Engine) handleDestroyIC(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("DESTROY_IC: %s", err)
	}

	icID, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("DESTROY_IC: %s", err)
	}

	im, ic, err := e.lookupIC(req.Transport, imID, icID)
	if err != nil {
		return fmt.Errorf("DESTROY_IC: %w", err)
	}

	im.removeIC(ic)

	if err := e.Input.DestroySurface(ic.Surface); err != nil {
		e.Log.Warn("destroy surface failed", "ic", icID, "err", err)
	}

	if err := e.Input.DestroySession(ic.Session); err != nil {
		e.Log.Warn("destroy session failed", "ic", icID, "err", err)
	}

	reply := make([]byte, 4)
	ord.Order().PutUint16(reply[0:2], imID)
	ord.Order().PutUint16(reply[2:4], icID)

	return e.send(req.Transport, wire.OpDestroyICReply, reply)
}

// handleSetICValues implements §4.3 "Set values" for the IC attribute
// table.
func (e *Engine) handleSetICValues(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("SET_IC_VALUES: %s", err)
	}

	icID, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("SET_IC_VALUES: %s", err)
	}

	_, ic, err := e.lookupIC(req.Transport, imID, icID)
	if err != nil {
		return fmt.Errorf("SET_IC_VALUES: %w", err)
	}

	n, err := readU16(req.Payload, 4, ord)
	if err != nil {
		return protocolErrorf("SET_IC_VALUES: %s", err)
	}

	if len(req.Payload) < 8+int(n) {
		return protocolErrorf("SET_IC_VALUES: declares %d attribute bytes, only %d available", n, len(req.Payload)-8)
	}

	it := wire.NewAttrIter(req.Payload[8:8+n], ord)
	for it.HasNext() {
		attr, next, err := it.Next()
		if err != nil {
			return protocolErrorf("SET_IC_VALUES: %s", err)
		}

		ic.setValue(attr.ID, attr.Value)

		it = next
	}

	reply := make([]byte, 4)
	ord.Order().PutUint16(reply[0:2], imID)
	ord.Order().PutUint16(reply[2:4], icID)

	return e.send(req.Transport, wire.OpSetICValuesReply, reply)
}

// handleGetICValues implements §4.3 "Get values" for the IC attribute
// table. Note the request has no padding field between the byte-length and
// the CARD16 id list (unlike SET_IC_VALUES).
func (e *Engine) handleGetICValues(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("GET_IC_VALUES: %s", err)
	}

	icID, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("GET_IC_VALUES: %s", err)
	}

	_, ic, err := e.lookupIC(req.Transport, imID, icID)
	if err != nil {
		return fmt.Errorf("GET_IC_VALUES: %w", err)
	}

	n, err := readU16(req.Payload, 4, ord)
	if err != nil {
		return protocolErrorf("GET_IC_VALUES: %s", err)
	}

	if len(req.Payload) < 6+int(n) {
		return protocolErrorf("GET_IC_VALUES: declares %d id bytes, only %d available", n, len(req.Payload)-6)
	}

	var attrs []byte

	it := wire.NewIDIter(req.Payload[6:6+n], ord)
	for it.HasNext() {
		var id uint16
		id, it = it.Next()

		value, ok := ic.getValue(id)
		if !ok {
			continue
		}

		attrs = wire.Attribute{ID: id, Value: value}.Encode(ord, attrs)
	}

	buf := make([]byte, 8, 8+len(attrs))
	ord.Order().PutUint16(buf[0:2], imID)
	ord.Order().PutUint16(buf[2:4], icID)
	ord.Order().PutUint16(buf[4:6], uint16(len(attrs)))
	buf = append(buf, attrs...)

	return e.send(req.Transport, wire.OpGetICValuesReply, buf)
}

// handleSetICFocus implements §4.3 "Set focus": show the input panel and
// activate the provider session. There is no XIM reply for this request.
func (e *Engine) handleSetICFocus(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("SET_IC_FOCUS: %s", err)
	}

	icID, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("SET_IC_FOCUS: %s", err)
	}

	_, ic, err := e.lookupIC(req.Transport, imID, icID)
	if err != nil {
		return fmt.Errorf("SET_IC_FOCUS: %w", err)
	}

	seat, err := e.Input.DefaultSeat()
	if err != nil {
		return fmt.Errorf("%w: default seat: %w", xerr.ErrProvider, err)
	}

	if err := e.Input.ShowInputPanel(ic.Session); err != nil {
		return fmt.Errorf("%w: show input panel: %w", xerr.ErrProvider, err)
	}

	if err := e.Input.Activate(ic.Session, seat, ic.Surface); err != nil {
		return fmt.Errorf("%w: activate: %w", xerr.ErrProvider, err)
	}

	return e.Input.Flush()
}

// handleUnsetICFocus implements §4.3 "Unset focus".
func (e *Engine) handleUnsetICFocus(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("UNSET_IC_FOCUS: %s", err)
	}

	icID, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("UNSET_IC_FOCUS: %s", err)
	}

	_, ic, err := e.lookupIC(req.Transport, imID, icID)
	if err != nil {
		return fmt.Errorf("UNSET_IC_FOCUS: %w", err)
	}

	if err := e.Input.Deactivate(ic.Session); err != nil {
		return fmt.Errorf("%w: deactivate: %w", xerr.ErrProvider, err)
	}

	return e.Input.Flush()
}

// handleResetIC is a supplemented feature (see SPEC_FULL.md): the original
// bridge never wires a RESET_IC handler into its request table at all and
// silently drops the request, so there is no behavior to match here. This
// clears the IC's preedit state exactly as the commit_string("") path of
// §4.3.1 would (PREEDIT_DONE only if a preedit was actually active), then
// replies with the (always empty) committed string, reusing xim.c's
// RESET_IC_REPLY wire shape (xcb_xim_reset_ic_reply) even though nothing
// in the original ever calls it.
func (e *Engine) handleResetIC(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("RESET_IC: %s", err)
	}

	icID, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("RESET_IC: %s", err)
	}

	_, ic, err := e.lookupIC(req.Transport, imID, icID)
	if err != nil {
		return fmt.Errorf("RESET_IC: %w", err)
	}

	if err := e.clearPreedit(ic); err != nil {
		return fmt.Errorf("RESET_IC: %w", err)
	}

	pad := wire.Pad(2)
	reply := make([]byte, 4+2+pad)
	ord.Order().PutUint16(reply[0:2], imID)
	ord.Order().PutUint16(reply[2:4], icID)
	ord.Order().PutUint16(reply[4:6], 0) // preedit_length: always 0, the preedit is cleared above

	return e.send(req.Transport, wire.OpResetICReply, reply)
}

// handlePreeditCaretReply implements §4.3 "Preedit caret reply": update the
// IC's caret only if the reported position is within the preedit string.
func (e *Engine) handlePreeditCaretReply(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("PREEDIT_CARET_REPLY: %s", err)
	}

	icID, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("PREEDIT_CARET_REPLY: %s", err)
	}

	_, ic, err := e.lookupIC(req.Transport, imID, icID)
	if err != nil {
		return fmt.Errorf("PREEDIT_CARET_REPLY: %w", err)
	}

	if len(req.Payload) < 8 {
		return protocolErrorf("PREEDIT_CARET_REPLY payload too short (%d bytes)", len(req.Payload))
	}

	position := int(int32(ord.Order().Uint32(req.Payload[4:8])))

	if position <= len(ic.preeditString) {
		ic.caret = position
	}

	return nil
}

// handleStrConversion is a supplemented feature (see SPEC_FULL.md): the
// bridge has no compositor-side string-conversion backend, so it always
// replies with an empty conversion result rather than leaving the client
// hanging.
func (e *Engine) handleStrConversion(req xtransport.QueuedRequest) error {
	ord := req.Transport.Endian

	imID, err := readU16(req.Payload, 0, ord)
	if err != nil {
		return protocolErrorf("STR_CONVERSION: %s", err)
	}

	icID, err := readU16(req.Payload, 2, ord)
	if err != nil {
		return protocolErrorf("STR_CONVERSION: %s", err)
	}

	if _, _, err := e.lookupIC(req.Transport, imID, icID); err != nil {
		return fmt.Errorf("STR_CONVERSION: %w", err)
	}

	reply := make([]byte, 8)
	ord.Order().PutUint16(reply[0:2], imID)
	ord.Order().PutUint16(reply[2:4], icID)
	// feedback/string_length both left at 0: empty conversion.

	return e.send(req.Transport, wire.OpStrConversionReply, reply)
}
