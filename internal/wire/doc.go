// Package wire implements the byte-order-aware XIM wire codec: framed
// request/reply headers, length-tagged strings, typed attributes, attribute
// specs, and the nested attribute-list payload used to parameterize input
// methods and input contexts.
//
// Everything in this package is pure encode/decode over byte slices; it has
// no knowledge of transports, sockets, or the X11/Wayland world. Byte order
// is a parameter (Endian), never a global, because a running server talks to
// one client as little-endian and another as big-endian at the same time.
package wire

// Opcode identifies an XIM request or reply on the wire (XIM 1.0 spec,
// constrained to the subset this bridge implements per the engine's scope).
type Opcode byte

const (
	OpConnect      Opcode = 1
	OpConnectReply Opcode = 2

	OpDisconnect      Opcode = 3
	OpDisconnectReply Opcode = 4

	OpError Opcode = 20

	OpOpen      Opcode = 30
	OpOpenReply Opcode = 31

	OpClose      Opcode = 32
	OpCloseReply Opcode = 33

	OpRegisterTriggerKeys Opcode = 34
	OpTriggerNotify       Opcode = 35
	OpTriggerNotifyReply  Opcode = 36

	OpSetEventMask Opcode = 37

	OpEncodingNegotiation      Opcode = 38
	OpEncodingNegotiationReply Opcode = 39

	OpQueryExtension      Opcode = 40
	OpQueryExtensionReply Opcode = 41

	OpSetIMValues      Opcode = 42
	OpSetIMValuesReply Opcode = 43

	OpGetIMValues      Opcode = 44
	OpGetIMValuesReply Opcode = 45

	OpCreateIC      Opcode = 50
	OpCreateICReply Opcode = 51

	OpDestroyIC      Opcode = 52
	OpDestroyICReply Opcode = 53

	OpSetICValues      Opcode = 54
	OpSetICValuesReply Opcode = 55

	OpGetICValues      Opcode = 56
	OpGetICValuesReply Opcode = 57

	OpSetICFocus   Opcode = 58
	OpUnsetICFocus Opcode = 59

	OpForwardEvent Opcode = 60

	OpSync      Opcode = 61
	OpSyncReply Opcode = 62

	OpCommit Opcode = 63

	OpResetIC      Opcode = 64
	OpResetICReply Opcode = 65

	OpGeometry Opcode = 70

	OpStrConversion      Opcode = 71
	OpStrConversionReply Opcode = 72

	OpPreeditStart      Opcode = 73
	OpPreeditStartReply Opcode = 74

	OpPreeditDraw Opcode = 75

	OpPreeditCaret      Opcode = 76
	OpPreeditCaretReply Opcode = 77

	OpPreeditDone Opcode = 78

	OpStatusStart Opcode = 79
	OpStatusDraw  Opcode = 80
	OpStatusDone  Opcode = 81

	OpPreeditState Opcode = 82
)
