package session

import "github.com/ueno-go/xim-wayland/internal/wire"

// IM attribute indices (§3 "Closed enumerations").
const (
	IMAttrQueryInputStyle = 0
)

// IC attribute indices (§3 "Closed enumerations").
const (
	ICAttrInputStyle = iota
	ICAttrFilterEvents
	ICAttrClientWindow
	ICAttrFocusWindow
	ICAttrPreeditAttributes
	ICAttrStatusAttributes

	icAttrCount
)

// Input style bits (bitmask on ICAttrInputStyle).
const (
	StylePreeditArea      uint32 = 0x0001
	StylePreeditCallbacks uint32 = 0x0002
	StylePreeditPosition  uint32 = 0x0004
	StylePreeditNothing   uint32 = 0x0008
	StylePreeditNone      uint32 = 0x0010

	StyleStatusArea     uint32 = 0x0100
	StyleStatusCallback uint32 = 0x0200
	StyleStatusNothing  uint32 = 0x0400
	StyleStatusNone     uint32 = 0x0800
)

// Commit flags (§3 "Closed enumerations").
const (
	CommitFlagSynchronous uint16 = 0x1
	CommitFlagKeysym      uint16 = 0x2
	CommitFlagString      uint16 = 0x4
)

// Feedback flags, one bit per byte of preedit text.
const (
	FeedbackReverse   uint32 = 1 << 0
	FeedbackUnderline uint32 = 1 << 1
	FeedbackHighlight uint32 = 1 << 2
	FeedbackPrimary   uint32 = 1 << 3
	FeedbackSecondary uint32 = 1 << 4
	FeedbackTertiary  uint32 = 1 << 5

	FeedbackVisibleToForward  uint32 = 1 << 6
	FeedbackVisibleToBackward uint32 = 1 << 7
	FeedbackVisibleToCenter   uint32 = 1 << 8
)

// Caret directions and styles used by PREEDIT_CARET (XIM 1.0 enums).
const (
	CaretForwardChar uint32 = iota
	CaretBackwardChar
	CaretForwardWord
	CaretBackwardWord
	CaretCaretUp
	CaretCaretDown
	CaretNextLine
	CaretPreviousLine
	CaretLineStart
	CaretLineEnd
	CaretAbsolutePosition
	CaretDontChange
)

const (
	CaretStyleInvisible uint32 = iota
	CaretStylePrimary
	CaretStyleSecondary
)

// imAttrSpecs is the fixed IM attribute-spec table sent in OPEN_REPLY,
// populated once per input method (§4.3 "Open").
func imAttrSpecs() []wire.AttributeSpec {
	return []wire.AttributeSpec{
		{ID: IMAttrQueryInputStyle, Type: wire.TypeStyles, Name: "queryInputStyle"},
	}
}

// icAttrSpecs is the fixed IC attribute-spec table sent in OPEN_REPLY.
func icAttrSpecs() []wire.AttributeSpec {
	return []wire.AttributeSpec{
		{ID: ICAttrInputStyle, Type: wire.TypeCard32, Name: "inputStyle"},
		{ID: ICAttrFilterEvents, Type: wire.TypeCard32, Name: "filterEvents"},
		{ID: ICAttrClientWindow, Type: wire.TypeWindow, Name: "clientWindow"},
		{ID: ICAttrFocusWindow, Type: wire.TypeWindow, Name: "focusWindow"},
		{ID: ICAttrPreeditAttributes, Type: wire.TypeNested, Name: "preeditAttributes"},
		{ID: ICAttrStatusAttributes, Type: wire.TypeNested, Name: "statusAttributes"},
	}
}

// queryStyleList is the value published for IMAttrQueryInputStyle: the set
// of (preedit, status) style combinations this bridge actually supports.
func queryStyleList() []uint32 {
	return []uint32{
		StylePreeditCallbacks | StyleStatusCallback,
		StylePreeditCallbacks | StyleStatusNothing,
		StylePreeditNothing | StyleStatusNothing,
	}
}
