package session

import (
	"github.com/ueno-go/xim-wayland/internal/textinput"
	"github.com/ueno-go/xim-wayland/internal/wire"
)

// stylingRun is one pending preedit styling run (§3 "Styling run"): a byte
// range of the preedit string and the feedback mask to OR into it on the
// next redraw.
type stylingRun struct {
	index, length int
	feedback      uint32
}

// InputContext is a per-focus-target object inside an input method; it owns
// preedit state and the text-input session/surface bridging it to the
// compositor (§3 "Input context").
type InputContext struct {
	ID uint16
	IM *InputMethod

	Session textinput.SessionID
	Surface textinput.SurfaceID

	serial uint32

	values [icAttrCount][]byte

	preeditStarted bool
	preeditString  []byte
	caret          int
	stylings       []stylingRun
}

// newInputContext allocates an IC with the default attribute values of
// §4.3 "Create IC": inputStyle = PREEDIT_CALLBACKS|STATUS_CALLBACKS,
// filterEvents = 0, clientWindow = focusWindow = 0.
func newInputContext(id uint16, im *InputMethod, session textinput.SessionID, surface textinput.SurfaceID) *InputContext {
	e := im.Transport.Endian

	ic := &InputContext{ID: id, IM: im, Session: session, Surface: surface}
	ic.values[ICAttrInputStyle] = wire.NewCard32Attribute(ICAttrInputStyle, StylePreeditCallbacks|StyleStatusCallback, e).Value
	ic.values[ICAttrFilterEvents] = wire.NewCard32Attribute(ICAttrFilterEvents, 0, e).Value
	ic.values[ICAttrClientWindow] = wire.NewWindowAttribute(ICAttrClientWindow, 0, e).Value
	ic.values[ICAttrFocusWindow] = wire.NewWindowAttribute(ICAttrFocusWindow, 0, e).Value

	return ic
}

func (ic *InputContext) setValue(id uint16, raw []byte) {
	if int(id) >= len(ic.values) {
		return
	}

	ic.values[id] = append([]byte(nil), raw...)
}

func (ic *InputContext) getValue(id uint16) ([]byte, bool) {
	if int(id) >= len(ic.values) {
		return nil, false
	}

	return ic.values[id], true
}

// inputStyle decodes the current inputStyle attribute value.
func (ic *InputContext) inputStyle() uint32 {
	raw, ok := ic.getValue(ICAttrInputStyle)
	if !ok || len(raw) < 4 {
		return 0
	}

	return ic.IM.Transport.Endian.Order().Uint32(raw[:4])
}

// preeditCallbacksEnabled reports whether PREEDIT_CALLBACKS is set in the
// IC's current input style (§4.3.1 precondition for every preedit event).
func (ic *InputContext) preeditCallbacksEnabled() bool {
	return ic.inputStyle()&StylePreeditCallbacks != 0
}

func (ic *InputContext) nextSerial() uint32 {
	ic.serial++

	return ic.serial
}
