package xtransport

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ueno-go/xim-wayland/internal/xerr"
)

// Well-known atom names, interned once at startup (§4.2 step 1).
const (
	atomXIMServers    = "XIM_SERVERS"
	atomXConnect      = "_XIM_XCONNECT"
	atomMoreData      = "_XIM_MOREDATA"
	atomProtocol      = "_XIM_PROTOCOL"
	atomLocales       = "LOCALES"
	atomTransportName = "TRANSPORT"
	atomString        = "STRING"
	atomAtom          = "ATOM"
)

// maxEmbeddedPayload is the largest message the engine will tunnel inline in
// a format-8 client-message before falling back to the property transport
// (§4.2 "Client connect": the CONNECT reply advertises this as 20).
const maxEmbeddedPayload = 20

// Atoms holds the well-known atom ids a Server interns at startup.
type Atoms struct {
	XIMServers Atom
	XConnect   Atom
	MoreData   Atom
	Protocol   Atom
	Locales    Atom
	Transport  Atom
	PerServer  Atom // "@server=<name>"
	String     Atom
	AtomType   Atom
}

// Server is the process-wide XIM server connection state machine (§3
// "Server connection"). It owns registration, the list of live transports,
// and the FIFO of parsed requests waiting to be drained by the session
// layer.
type Server struct {
	Provider XProvider
	Log      *log.Logger

	Name   string
	Locale string

	Atoms       Atoms
	AcceptWindow WindowID

	transports []*Transport
	queue      []QueuedRequest

	propertyCounter int
}

// QueuedRequest is a parsed, not-yet-handled XIM request copied off the
// wire and enqueued for the consumer to drain (§4.2 "Framework vs session
// requests").
type QueuedRequest struct {
	Transport *Transport
	Major     byte
	Minor     byte
	Payload   []byte
}

// NewServer constructs a Server. Call Init to perform the registration
// handshake before accepting clients.
func NewServer(provider XProvider, name, locale string, logger *log.Logger) *Server {
	return &Server{Provider: provider, Name: name, Locale: locale, Log: logger}
}

// Init performs the registration protocol of §4.2: intern the well-known
// atoms plus the per-server atom, create the 1x1 accept window, publish
// this server in XIM_SERVERS, and become its selection owner.
func (s *Server) Init() error {
	var err error

	if s.Atoms.XIMServers, err = s.Provider.InternAtom(atomXIMServers); err != nil {
		return fmt.Errorf("%w: intern XIM_SERVERS: %w", xerr.ErrProvider, err)
	}

	if s.Atoms.XConnect, err = s.Provider.InternAtom(atomXConnect); err != nil {
		return fmt.Errorf("%w: intern _XIM_XCONNECT: %w", xerr.ErrProvider, err)
	}

	if s.Atoms.MoreData, err = s.Provider.InternAtom(atomMoreData); err != nil {
		return fmt.Errorf("%w: intern _XIM_MOREDATA: %w", xerr.ErrProvider, err)
	}

	if s.Atoms.Protocol, err = s.Provider.InternAtom(atomProtocol); err != nil {
		return fmt.Errorf("%w: intern _XIM_PROTOCOL: %w", xerr.ErrProvider, err)
	}

	if s.Atoms.Locales, err = s.Provider.InternAtom(atomLocales); err != nil {
		return fmt.Errorf("%w: intern LOCALES: %w", xerr.ErrProvider, err)
	}

	if s.Atoms.Transport, err = s.Provider.InternAtom(atomTransportName); err != nil {
		return fmt.Errorf("%w: intern TRANSPORT: %w", xerr.ErrProvider, err)
	}

	if s.Atoms.String, err = s.Provider.InternAtom(atomString); err != nil {
		return fmt.Errorf("%w: intern STRING: %w", xerr.ErrProvider, err)
	}

	if s.Atoms.AtomType, err = s.Provider.InternAtom(atomAtom); err != nil {
		return fmt.Errorf("%w: intern ATOM: %w", xerr.ErrProvider, err)
	}

	perServerName := "@server=" + s.Name
	if s.Atoms.PerServer, err = s.Provider.InternAtom(perServerName); err != nil {
		return fmt.Errorf("%w: intern %s: %w", xerr.ErrProvider, perServerName, err)
	}

	root, err := s.Provider.FirstScreenRoot()
	if err != nil {
		return fmt.Errorf("%w: first screen root: %w", xerr.ErrProvider, err)
	}

	s.AcceptWindow, err = s.Provider.CreateWindow(root)
	if err != nil {
		return fmt.Errorf("%w: create accept window: %w", xerr.ErrProvider, err)
	}

	if err := s.publishServerList(root); err != nil {
		return err
	}

	owner, err := s.Provider.GetSelectionOwner(s.Atoms.PerServer)
	if err != nil {
		return fmt.Errorf("%w: get selection owner: %w", xerr.ErrProvider, err)
	}

	if owner != 0 && owner != s.AcceptWindow {
		return fmt.Errorf("%w: %s already owned by another server", xerr.ErrProtocol, perServerName)
	}

	if err := s.Provider.SetSelectionOwner(s.Atoms.PerServer, s.AcceptWindow); err != nil {
		return fmt.Errorf("%w: set selection owner: %w", xerr.ErrProvider, err)
	}

	if err := s.Provider.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", xerr.ErrProvider, err)
	}

	s.Log.Info("registered", "server", s.Name, "locale", s.Locale, "selection", perServerName)

	return nil
}

func (s *Server) publishServerList(root WindowID) error {
	value, format, err := s.Provider.GetProperty(root, s.Atoms.XIMServers, s.Atoms.AtomType)
	if err != nil {
		return fmt.Errorf("%w: read XIM_SERVERS: %w", xerr.ErrProvider, err)
	}

	perServerName := "@server=" + s.Name
	if containsAtomName(value, format, perServerName) {
		return nil
	}

	prefixed := append([]byte(perServerName+"\x00"), value...)

	if err := s.Provider.SetProperty(root, s.Atoms.XIMServers, s.Atoms.AtomType, 32, prefixed); err != nil {
		return fmt.Errorf("%w: write XIM_SERVERS: %w", xerr.ErrProvider, err)
	}

	return nil
}

func containsAtomName(value []byte, format int, name string) bool {
	_ = format

	for _, part := range splitNUL(value) {
		if part == name {
			return true
		}
	}

	return false
}

func splitNUL(b []byte) []string {
	var out []string

	start := 0

	for i, c := range b {
		if c == 0 {
			if i > start {
				out = append(out, string(b[start:i]))
			}

			start = i + 1
		}
	}

	if start < len(b) {
		out = append(out, string(b[start:]))
	}

	return out
}

// Transports returns the currently active transports.
func (s *Server) Transports() []*Transport {
	return s.transports
}

// TransportByClientWindow looks up the transport whose client window is
// win, or nil if none matches.
func (s *Server) TransportByClientWindow(win WindowID) *Transport {
	for _, t := range s.transports {
		if t.ClientWindow == win {
			return t
		}
	}

	return nil
}

// TransportByServerWindow looks up the transport whose server-allocated
// window is win, or nil if none matches.
func (s *Server) TransportByServerWindow(win WindowID) *Transport {
	for _, t := range s.transports {
		if t.ServerWindow == win {
			return t
		}
	}

	return nil
}

func (s *Server) addTransport(t *Transport) {
	s.transports = append(s.transports, t)
}

// RemoveTransport releases t, e.g. on DISCONNECT.
func (s *Server) RemoveTransport(t *Transport) {
	for i, cur := range s.transports {
		if cur == t {
			s.transports = append(s.transports[:i], s.transports[i+1:]...)

			return
		}
	}
}

// Dequeue pops the oldest queued request, if any. The caller (session
// layer) drains this FIFO on its own schedule; nothing here blocks.
func (s *Server) Dequeue() (QueuedRequest, bool) {
	if len(s.queue) == 0 {
		return QueuedRequest{}, false
	}

	req := s.queue[0]
	s.queue = s.queue[1:]

	return req, true
}

func (s *Server) enqueue(req QueuedRequest) {
	s.queue = append(s.queue, req)
}
