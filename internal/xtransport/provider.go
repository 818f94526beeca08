// Package xtransport implements service registration, per-client transport
// lifecycle, and the framed-message transport tunneled over client-messages
// and window properties (§4.2). It depends on an XProvider abstraction for
// every concrete window-system operation, so the engine itself never talks
// to Xlib/XCB directly.
package xtransport

// Atom is an interned X atom.
type Atom uint32

// WindowID is an X window resource id.
type WindowID uint32

// ClientMessageEvent mirrors an XClientMessageEvent: a typed, fixed-size
// payload sent to a window. Format is 8 when Data8 is populated and 32 when
// Data32 is.
type ClientMessageEvent struct {
	Window WindowID
	Type   Atom
	Format int
	Data8  []byte
	Data32 [5]uint32
}

// SelectionRequestEvent mirrors an XSelectionRequestEvent: a request that
// Owner answer a conversion of Selection into Target, to be placed in
// Property on Requestor.
type SelectionRequestEvent struct {
	Owner     WindowID
	Requestor WindowID
	Selection Atom
	Target    Atom
	Property  Atom
	Time      uint32
}

// EventKind tags the variant populated in Event.
type EventKind int

const (
	EventOther EventKind = iota
	EventClientMessage
	EventSelectionRequest
)

// Event is a generic window-system event, only as detailed as the engine
// needs: a client-message (used for XCONNECT and the protocol tunnel) or a
// selection request (used to answer LOCALES/TRANSPORT conversions). Every
// other event type is reported as EventOther and ignored by the dispatcher.
type Event struct {
	Kind             EventKind
	ClientMessage    ClientMessageEvent
	SelectionRequest SelectionRequestEvent
}

// XProvider is the narrow interface the engine requires of the concrete
// window-system transport (§6 "Window-system provider"). All integer
// endianness on this interface is the provider's own; the engine never
// assumes a byte order for it.
type XProvider interface {
	// InternAtom interns name, creating it if necessary, and returns its id.
	InternAtom(name string) (Atom, error)

	// FirstScreenRoot returns the root window of the first screen.
	FirstScreenRoot() (WindowID, error)

	// CreateWindow creates a 1x1 input-output window on root.
	CreateWindow(root WindowID) (WindowID, error)

	// DestroyWindow destroys a window previously created by CreateWindow.
	DestroyWindow(win WindowID) error

	// AllocID allocates a fresh window id without creating a window
	// (used for the per-transport server-side window handle).
	AllocID() (WindowID, error)

	// GetProperty reads the value of prop on win with the given type.
	GetProperty(win WindowID, prop Atom, typ Atom) (value []byte, format int, err error)

	// SetProperty replaces the value of prop on win.
	SetProperty(win WindowID, prop Atom, typ Atom, format int, value []byte) error

	// AppendProperty appends to the value of prop on win, creating it if
	// absent.
	AppendProperty(win WindowID, prop Atom, typ Atom, format int, value []byte) error

	// DeleteProperty removes prop from win.
	DeleteProperty(win WindowID, prop Atom) error

	// GetSelectionOwner returns the current owner of sel, or 0 if none.
	GetSelectionOwner(sel Atom) (WindowID, error)

	// SetSelectionOwner attempts to become the owner of sel on win.
	SetSelectionOwner(sel Atom, win WindowID) error

	// SendClientMessage sends msg to win.
	SendClientMessage(win WindowID, msg ClientMessageEvent) error

	// SendSelectionNotify replies to a SELECTION_REQUEST.
	SendSelectionNotify(req SelectionRequestEvent) error

	// PollEvent returns the next available event without blocking. ok is
	// false when no event is currently queued.
	PollEvent() (ev Event, ok bool, err error)

	// Fd returns a file descriptor suitable for passing to a readiness
	// primitive (poll/select) alongside the text-input provider's fd.
	Fd() int

	// Flush pushes any buffered output to the window system.
	Flush() error
}
