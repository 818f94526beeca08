package session

import (
	"github.com/ueno-go/xim-wayland/internal/textinput"
	"github.com/ueno-go/xim-wayland/internal/wire"
)

// commitKeysym is the fixed keysym value the bridge reports on every
// COMMIT: the original XIM wire protocol has no "no keysym" sentinel other
// than this value (VoidSymbol), since the actual character always travels
// in the accompanying string.
const commitKeysym = 0xffffff

// icBySession finds the input context bound to a text-input session,
// searching every live input method.
func (e *Engine) icBySession(session textinput.SessionID) (*InputContext, bool) {
	for _, im := range e.ims {
		for _, ic := range im.ics {
			if ic.Session == session {
				return ic, true
			}
		}
	}

	return nil, false
}

// DispatchCallback bridges one text-input provider callback to XIM
// PREEDIT_START/DRAW/CARET/DONE and COMMIT messages per §4.3.1. It is the
// entry point the main loop calls for every callback the provider
// delivers.
func (e *Engine) DispatchCallback(cb textinput.Callback) error {
	ic, ok := e.icBySession(cb.Session)
	if !ok {
		e.Log.Warn("callback for unknown session", "session", cb.Session)

		return nil
	}

	if !ic.preeditCallbacksEnabled() {
		e.Log.Debug("preedit callback ignored: PREEDIT_CALLBACKS not set", "ic", ic.ID, "kind", cb.Kind)

		return nil
	}

	switch cb.Kind {
	case textinput.CallbackPreeditStyling:
		return e.onPreeditStyling(ic, cb)
	case textinput.CallbackPreeditString:
		return e.onPreeditString(ic, cb)
	case textinput.CallbackPreeditCursor:
		return e.onPreeditCursor(ic, cb)
	case textinput.CallbackCommitString:
		return e.onCommitString(ic, cb)
	default:
		return nil
	}
}

// styleToFeedback maps a provider styling hint to a feedback bit (§4.3.1).
// Unknown styles are dropped. SELECTION maps to REVERSE: the original
// dispatcher's switch fell through into default for this case, making the
// mapping unreachable; a conservative re-implementation treats that as the
// documented intent.
func styleToFeedback(s textinput.Style) (uint32, bool) {
	switch s {
	case textinput.StyleHighlight:
		return FeedbackHighlight, true
	case textinput.StyleUnderline:
		return FeedbackUnderline, true
	case textinput.StyleActive:
		return FeedbackPrimary, true
	case textinput.StyleInactive:
		return FeedbackSecondary, true
	case textinput.StyleSelection:
		return FeedbackReverse, true
	default:
		return 0, false
	}
}

func (e *Engine) onPreeditStyling(ic *InputContext, cb textinput.Callback) error {
	feedback, ok := styleToFeedback(cb.Style)
	if !ok {
		return nil
	}

	ic.stylings = append(ic.stylings, stylingRun{index: cb.Index, length: cb.Length, feedback: feedback})

	return nil
}

func (e *Engine) onPreeditCursor(ic *InputContext, cb textinput.Callback) error {
	payload := make([]byte, 16)
	ord := ic.IM.Transport.Endian
	ord.Order().PutUint16(payload[0:2], ic.IM.ID)
	ord.Order().PutUint16(payload[2:4], ic.ID)
	ord.Order().PutUint32(payload[4:8], uint32(int32(cb.CursorIndex)))
	ord.Order().PutUint32(payload[8:12], CaretAbsolutePosition)
	ord.Order().PutUint32(payload[12:16], CaretStylePrimary)

	return e.send(ic.IM.Transport, wire.OpPreeditCaret, payload)
}

// onPreeditString implements the two preedit_string rows of §4.3.1's
// table: clearing the preedit when text is empty, or (re)drawing it when
// non-empty.
func (e *Engine) onPreeditString(ic *InputContext, cb textinput.Callback) error {
	if cb.Text == "" {
		return e.clearPreedit(ic)
	}

	return e.drawPreedit(ic, []byte(cb.Text))
}

func (e *Engine) clearPreedit(ic *InputContext) error {
	oldLength := len(ic.preeditString)

	draw := encodePreeditDraw(ic.IM.ID, ic.ID, 0, 0, int32(oldLength), 0, nil, nil, ic.IM.Transport.Endian)
	if err := e.send(ic.IM.Transport, wire.OpPreeditDraw, draw); err != nil {
		return err
	}

	if ic.preeditStarted {
		if err := e.send(ic.IM.Transport, wire.OpPreeditDone, encodePreeditStartOrDone(ic.IM.ID, ic.ID, ic.IM.Transport.Endian)); err != nil {
			return err
		}

		// Cleared only after PREEDIT_DONE is sent, never before (the
		// original's condition for this was inverted).
		ic.preeditStarted = false
	}

	ic.preeditString = nil
	ic.caret = 0
	ic.stylings = nil

	return nil
}

func (e *Engine) drawPreedit(ic *InputContext, text []byte) error {
	if !ic.preeditStarted {
		if err := e.send(ic.IM.Transport, wire.OpPreeditStart, encodePreeditStartOrDone(ic.IM.ID, ic.ID, ic.IM.Transport.Endian)); err != nil {
			return err
		}

		ic.preeditStarted = true
	}

	oldLength := len(ic.preeditString)

	feedbacks := buildFeedbacks(text, ic.stylings)

	draw := encodePreeditDraw(ic.IM.ID, ic.ID, 0, 0, int32(oldLength), 0, text, feedbacks, ic.IM.Transport.Endian)
	if err := e.send(ic.IM.Transport, wire.OpPreeditDraw, draw); err != nil {
		return err
	}

	ic.preeditString = append([]byte(nil), text...)
	ic.stylings = nil

	return nil
}

// buildFeedbacks builds a per-byte feedback array for text by OR-ing every
// pending run whose range fits inside text; out-of-range runs are skipped
// silently (§4.3.1, §8 "Styling runs whose index+length > byte_len never
// affect the feedback array").
func buildFeedbacks(text []byte, runs []stylingRun) []uint32 {
	feedbacks := make([]uint32, len(text))

	for _, r := range runs {
		if r.index < 0 || r.length < 0 || r.index+r.length > len(text) {
			continue
		}

		for i := r.index; i < r.index+r.length; i++ {
			feedbacks[i] |= r.feedback
		}
	}

	return feedbacks
}

func (e *Engine) onCommitString(ic *InputContext, cb textinput.Callback) error {
	if err := e.clearPreedit(ic); err != nil {
		return err
	}

	flag := CommitFlagKeysym | CommitFlagString
	payload := encodeCommit(ic.IM.ID, ic.ID, flag, commitKeysym, []byte(cb.CommitText), ic.IM.Transport.Endian)

	return e.send(ic.IM.Transport, wire.OpCommit, payload)
}

// encodePreeditStartOrDone builds the 4-byte (im_id, ic_id) payload shared
// by PREEDIT_START and PREEDIT_DONE.
func encodePreeditStartOrDone(imID, icID uint16, e wire.Endian) []byte {
	buf := make([]byte, 4)
	e.Order().PutUint16(buf[0:2], imID)
	e.Order().PutUint16(buf[2:4], icID)

	return buf
}

// encodePreeditDraw builds a PREEDIT_DRAW payload per §6's wire layout.
func encodePreeditDraw(imID, icID uint16, caret, changeFirst, changeLength int32, status uint32, text []byte, feedbacks []uint32, e wire.Endian) []byte {
	n := len(text)
	pad := wire.Pad(2 + n)
	total := 2 + 2 + 4 + 4 + 4 + 4 + 2 + n + pad + 2 + 2 + 4*len(feedbacks)

	buf := make([]byte, total)
	off := 0

	e.Order().PutUint16(buf[off:off+2], imID)
	off += 2
	e.Order().PutUint16(buf[off:off+2], icID)
	off += 2
	e.Order().PutUint32(buf[off:off+4], uint32(caret))
	off += 4
	e.Order().PutUint32(buf[off:off+4], uint32(changeFirst))
	off += 4
	e.Order().PutUint32(buf[off:off+4], uint32(changeLength))
	off += 4
	e.Order().PutUint32(buf[off:off+4], status)
	off += 4
	e.Order().PutUint16(buf[off:off+2], uint16(n))
	off += 2
	copy(buf[off:off+n], text)
	off += n + pad
	e.Order().PutUint16(buf[off:off+2], uint16(len(feedbacks)))
	off += 4 // feedbacks_length plus its 2-byte pad

	for _, f := range feedbacks {
		e.Order().PutUint32(buf[off:off+4], f)
		off += 4
	}

	return buf
}

// encodeCommit builds a COMMIT payload per §6's wire layout; flag selects
// which of the keysym/string sections are present.
func encodeCommit(imID, icID uint16, flag uint16, keysym uint32, text []byte, e wire.Endian) []byte {
	buf := make([]byte, 6, 6+6+2+len(text))
	e.Order().PutUint16(buf[0:2], imID)
	e.Order().PutUint16(buf[2:4], icID)
	e.Order().PutUint16(buf[4:6], flag)

	if flag&CommitFlagKeysym != 0 {
		var ks [6]byte
		e.Order().PutUint32(ks[2:6], keysym)
		buf = append(buf, ks[:]...)
	}

	if flag&CommitFlagString != 0 {
		var lenBuf [2]byte
		e.Order().PutUint16(lenBuf[:], uint16(len(text)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, text...)
	}

	return buf
}
