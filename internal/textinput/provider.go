// Package textinput declares the narrow interface the engine requires of
// the concrete compositor text-input provider (§6 "Text-input provider"):
// activate/deactivate input, show/hide the panel, and receive preedit
// text/styling/cursor and commit-text callbacks. It has no knowledge of XIM;
// the session layer is what bridges the two.
package textinput

// SessionID identifies a text-input session bound to one input context.
type SessionID uint64

// SurfaceID identifies a compositor surface created for focus purposes.
type SurfaceID uint64

// SeatID identifies the input seat a session is activated on.
type SeatID uint64

// Style is the preedit styling hint a callback reports, mirroring the
// text-input-unstable-v3 preedit_styling enum.
type Style int

const (
	StyleDefault Style = iota
	StyleHighlight
	StyleUnderline
	StyleActive
	StyleInactive
	StyleSelection
)

// CallbackKind tags the variant populated in a Callback.
type CallbackKind int

const (
	CallbackPreeditString CallbackKind = iota
	CallbackPreeditStyling
	CallbackPreeditCursor
	CallbackCommitString
)

// Callback is one event delivered by the provider for a given session. The
// provider must deliver these in the order styling* string per update
// (§6), so a single logical redraw is zero or more PreeditStyling calls
// followed by exactly one PreeditString call.
type Callback struct {
	Kind    CallbackKind
	Session SessionID

	// Populated when Kind == CallbackPreeditString.
	Text   string
	Commit string

	// Populated when Kind == CallbackPreeditStyling.
	Index  int
	Length int
	Style  Style

	// Populated when Kind == CallbackPreeditCursor.
	CursorIndex int

	// Populated when Kind == CallbackCommitString.
	CommitText string
}

// Provider is the interface the session layer drives to activate input,
// show UI, and receive preedit/commit callbacks from the compositor.
type Provider interface {
	// Bind resolves the text-input-manager, a seat, and the compositor
	// from the provider's registry. Must be called once before any
	// session is created.
	Bind() error

	// CreateSession creates a text-input session bound to seat.
	CreateSession(seat SeatID) (SessionID, error)

	// DestroySession releases a session created by CreateSession.
	DestroySession(s SessionID) error

	// CreateSurface creates a surface the engine can use purely to carry
	// focus (no visible content is ever drawn to it).
	CreateSurface() (SurfaceID, error)

	// DestroySurface releases a surface created by CreateSurface.
	DestroySurface(surf SurfaceID) error

	// ShowInputPanel asks the compositor to show its on-screen input
	// panel for s, if any.
	ShowInputPanel(s SessionID) error

	// HideInputPanel asks the compositor to hide the input panel for s.
	HideInputPanel(s SessionID) error

	// Activate focuses s on seat and surf.
	Activate(s SessionID, seat SeatID, surf SurfaceID) error

	// Deactivate unfocuses s.
	Deactivate(s SessionID) error

	// DefaultSeat returns the seat to activate sessions on absent any
	// more specific selection.
	DefaultSeat() (SeatID, error)

	// PollCallback returns the next available callback without
	// blocking. ok is false when none is currently queued.
	PollCallback() (cb Callback, ok bool, err error)

	// Fd returns a file descriptor suitable for passing to a readiness
	// primitive alongside the X-transport provider's fd.
	Fd() int

	// Flush pushes any buffered requests to the compositor.
	Flush() error
}
