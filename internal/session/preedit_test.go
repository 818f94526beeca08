package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ueno-go/xim-wayland/internal/textinput"
	"github.com/ueno-go/xim-wayland/internal/wire"
	"github.com/ueno-go/xim-wayland/internal/xtransport"
)

// testIC builds an engine with one IM/IC pair whose input style enables
// preedit callbacks, bound to a fresh text-input session.
func testIC(t *testing.T) (*Engine, *InputContext, *fakeXProvider) {
	t.Helper()

	engine, _, tr, xp := testEngine(t)

	im := newInputMethod(1, tr)
	engine.addIM(im)

	ic := newInputContext(1, im, textinput.SessionID(7), textinput.SurfaceID(1))
	im.addIC(ic)

	return engine, ic, xp
}

func lastSent(t *testing.T, p *fakeXProvider) xtransport.ClientMessageEvent {
	t.Helper()
	require.NotEmpty(t, p.sentClientMessages)

	return p.sentClientMessages[len(p.sentClientMessages)-1]
}

func Test_preeditString_empty_noPriorPreedit_noDone(t *testing.T) {
	engine, ic, xp := testIC(t)

	// testEngine's handshake has already sent the XCONNECT and CONNECT replies.
	before := len(xp.sentClientMessages)

	err := engine.DispatchCallback(textinput.Callback{
		Kind:    textinput.CallbackPreeditString,
		Session: ic.Session,
		Text:    "",
	})
	require.NoError(t, err)

	// Only PREEDIT_DRAW should have been sent; never PREEDIT_DONE, since the
	// IC was never ACTIVE (§8 "Empty preedit_string with no prior preedit
	// must not emit PREEDIT_DONE"). The empty draw's payload is large enough
	// to take the property-fallback path (§8 scenario 6), so exactly one
	// client-message announces it.
	assert.False(t, ic.preeditStarted)
	require.Len(t, xp.sentClientMessages, before+1)
	assert.Equal(t, 32, xp.sentClientMessages[before].Format)
}

func Test_preeditString_nonEmpty_startsAndDraws(t *testing.T) {
	engine, ic, xp := testIC(t)

	// testEngine's handshake has already sent the XCONNECT and CONNECT replies.
	before := len(xp.sentClientMessages)

	err := engine.DispatchCallback(textinput.Callback{
		Kind:    textinput.CallbackPreeditStyling,
		Session: ic.Session,
		Index:   0,
		Length:  3,
		Style:   textinput.StyleHighlight,
	})
	require.NoError(t, err)

	err = engine.DispatchCallback(textinput.Callback{
		Kind:    textinput.CallbackPreeditString,
		Session: ic.Session,
		Text:    "abc",
	})
	require.NoError(t, err)

	assert.True(t, ic.preeditStarted)
	assert.Equal(t, []byte("abc"), ic.preeditString)
	assert.Empty(t, ic.stylings, "pending stylings are consumed on draw")

	// PREEDIT_START is small enough to embed (format 8); the draw that
	// follows, carrying both text and a feedback array, takes the
	// property-fallback path (format 32).
	require.Len(t, xp.sentClientMessages, before+2)

	startFrame, _, err := wire.DecodeFrame(xp.sentClientMessages[before].Data8, ic.IM.Transport.Endian)
	require.NoError(t, err)
	assert.Equal(t, wire.OpPreeditStart, startFrame.Major)
	assert.Equal(t, 32, xp.sentClientMessages[before+1].Format)
}

func Test_preeditStyling_outOfRange_doesNotAffectFeedback(t *testing.T) {
	_, ic, _ := testIC(t)

	ic.stylings = []stylingRun{{index: 0, length: 10, feedback: FeedbackHighlight}}

	feedbacks := buildFeedbacks([]byte("ab"), ic.stylings)
	for _, f := range feedbacks {
		assert.Zero(t, f, "a run longer than the text must be dropped, not clamped")
	}
}

func Test_preeditStyling_selection_mapsToReverse(t *testing.T) {
	feedback, ok := styleToFeedback(textinput.StyleSelection)
	require.True(t, ok)
	assert.Equal(t, FeedbackReverse, feedback)
}

func Test_preeditStyling_unknownStyle_dropped(t *testing.T) {
	_, ok := styleToFeedback(textinput.Style(99))
	assert.False(t, ok)
}

func Test_commitString_clearsPreeditThenCommits(t *testing.T) {
	engine, ic, _ := testIC(t)

	require.NoError(t, engine.DispatchCallback(textinput.Callback{
		Kind:    textinput.CallbackPreeditString,
		Session: ic.Session,
		Text:    "preedit",
	}))
	require.True(t, ic.preeditStarted)

	require.NoError(t, engine.DispatchCallback(textinput.Callback{
		Kind:       textinput.CallbackCommitString,
		Session:    ic.Session,
		CommitText: "committed",
	}))

	assert.False(t, ic.preeditStarted)
	assert.Empty(t, ic.preeditString)
}

func Test_commitString_payloadShape(t *testing.T) {
	_, ic, _ := testIC(t)

	payload := encodeCommit(ic.IM.ID, ic.ID, CommitFlagKeysym|CommitFlagString, commitKeysym, []byte("x"), ic.IM.Transport.Endian)

	ord := ic.IM.Transport.Endian
	assert.Equal(t, ic.IM.ID, ord.Order().Uint16(payload[0:2]))
	assert.Equal(t, ic.ID, ord.Order().Uint16(payload[2:4]))
	flag := ord.Order().Uint16(payload[4:6])
	assert.Equal(t, CommitFlagKeysym|CommitFlagString, flag)
}

func Test_preeditCursor_emitsAbsoluteCaret(t *testing.T) {
	engine, ic, xp := testIC(t)

	require.NoError(t, engine.DispatchCallback(textinput.Callback{
		Kind:        textinput.CallbackPreeditCursor,
		Session:     ic.Session,
		CursorIndex: 3,
	}))

	msg := lastSent(t, xp)
	frame, _, err := wire.DecodeFrame(msg.Data8, ic.IM.Transport.Endian)
	require.NoError(t, err)
	assert.Equal(t, wire.OpPreeditCaret, frame.Major)

	ord := ic.IM.Transport.Endian
	require.Len(t, frame.Payload, 16)
	assert.Equal(t, ic.IM.ID, ord.Order().Uint16(frame.Payload[0:2]))
	assert.Equal(t, ic.ID, ord.Order().Uint16(frame.Payload[2:4]))
	assert.EqualValues(t, 3, ord.Order().Uint32(frame.Payload[4:8]))
	assert.Equal(t, CaretAbsolutePosition, ord.Order().Uint32(frame.Payload[8:12]))
	assert.Equal(t, CaretStylePrimary, ord.Order().Uint32(frame.Payload[12:16]))
}

func Test_preeditCallbacks_ignoredWhenStyleLacksCallbacks(t *testing.T) {
	engine, ic, _ := testIC(t)

	ic.values[ICAttrInputStyle] = wire.NewCard32Attribute(ICAttrInputStyle, StyleStatusCallback, ic.IM.Transport.Endian).Value

	err := engine.DispatchCallback(textinput.Callback{
		Kind:    textinput.CallbackPreeditString,
		Session: ic.Session,
		Text:    "abc",
	})
	require.NoError(t, err)
	assert.False(t, ic.preeditStarted, "PREEDIT_CALLBACKS not set: callback must be ignored")
}

func Test_buildFeedbacks_orsOverlappingRuns(t *testing.T) {
	runs := []stylingRun{
		{index: 0, length: 2, feedback: FeedbackHighlight},
		{index: 1, length: 2, feedback: FeedbackUnderline},
	}

	feedbacks := buildFeedbacks([]byte("abc"), runs)
	require.Len(t, feedbacks, 3)
	assert.Equal(t, FeedbackHighlight, feedbacks[0])
	assert.Equal(t, FeedbackHighlight|FeedbackUnderline, feedbacks[1])
	assert.Equal(t, FeedbackUnderline, feedbacks[2])
}
