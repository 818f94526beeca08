package xtransport

import (
	"fmt"

	"github.com/ueno-go/xim-wayland/internal/wire"
	"github.com/ueno-go/xim-wayland/internal/xerr"
)

// Result is the outcome of one Dispatch call (§4.2 "Framework vs session
// requests"). Unlike the original dispatcher this switches explicitly on
// every case; Continue and Remove never fall through into each other.
type Result int

const (
	// Continue means the event was not ours; the caller should keep
	// looking (e.g. hand it to whatever else shares the connection).
	Continue Result = iota
	// Remove means the event was consumed: answered inline, or copied
	// into the request queue for the session layer to drain.
	Remove
	// Error means a fatal peer protocol or provider violation occurred;
	// the caller should terminate the event loop (§7).
	Error
)

// Dispatch turns one raw provider event into a Result, performing any
// framework-level handling (CONNECT, DISCONNECT, selection service)
// inline and queueing everything else for the session layer.
func (s *Server) Dispatch(ev Event) (Result, error) {
	switch ev.Kind {
	case EventClientMessage:
		return s.dispatchClientMessage(ev.ClientMessage)
	case EventSelectionRequest:
		return s.dispatchSelectionRequest(ev.SelectionRequest)
	case EventOther:
		return Continue, nil
	default:
		return Continue, nil
	}
}

func (s *Server) dispatchClientMessage(cm ClientMessageEvent) (Result, error) {
	switch cm.Type {
	case s.Atoms.XConnect:
		return s.handleXConnect(cm)
	case s.Atoms.Protocol:
		return s.handleProtocolMessage(cm)
	default:
		return Continue, nil
	}
}

func (s *Server) handleXConnect(cm ClientMessageEvent) (Result, error) {
	clientWindow := WindowID(cm.Data32[0])

	serverWindow, err := s.Provider.AllocID()
	if err != nil {
		return Error, fmt.Errorf("%w: allocate server window: %w", xerr.ErrAlloc, err)
	}

	t := newTransport(clientWindow, serverWindow)
	s.addTransport(t)

	reply := ClientMessageEvent{
		Window: clientWindow,
		Type:   s.Atoms.XConnect,
		Format: 32,
		Data32: [5]uint32{uint32(serverWindow), 0, 0, maxEmbeddedPayload, 0},
	}

	if err := s.Provider.SendClientMessage(clientWindow, reply); err != nil {
		return Error, fmt.Errorf("%w: send XCONNECT reply: %w", xerr.ErrProvider, err)
	}

	if err := s.Provider.Flush(); err != nil {
		return Error, fmt.Errorf("%w: flush after XCONNECT: %w", xerr.ErrProvider, err)
	}

	s.Log.Debug("transport connected", "client_window", clientWindow, "server_window", serverWindow)

	return Remove, nil
}

func (s *Server) handleProtocolMessage(cm ClientMessageEvent) (Result, error) {
	t := s.TransportByClientWindow(cm.Window)
	if t == nil {
		return Continue, nil
	}

	raw, err := s.ReceiveMessage(t, cm)
	if err != nil {
		return Error, err
	}

	major := wire.Opcode(raw[0])
	minor := raw[1]

	if !t.endianKnown {
		if major != wire.OpConnect {
			return Error, fmt.Errorf("%w: first message on transport was opcode %d, expected CONNECT", xerr.ErrProtocol, major)
		}

		if len(raw) < 5 {
			return Error, fmt.Errorf("%w: CONNECT frame too short to carry an endian marker", xerr.ErrProtocol)
		}

		t.setEndian(raw[4])
	}

	declaredWords := t.Endian.Order().Uint16(raw[2:4])
	payloadLen := int(declaredWords) * 4

	if 4+payloadLen > len(raw) {
		return Error, fmt.Errorf("%w: frame declares %d payload bytes, only %d available", xerr.ErrProtocol, payloadLen, len(raw)-4)
	}

	payload := raw[4 : 4+payloadLen]

	switch major {
	case wire.OpConnect:
		return s.handleConnect(t, minor, payload)
	case wire.OpDisconnect:
		return s.handleDisconnect(t)
	default:
		s.enqueue(QueuedRequest{Transport: t, Major: byte(major), Minor: minor, Payload: payload})

		return Remove, nil
	}
}

// serverMajorVersion and serverMinorVersion are the XIM protocol version
// this bridge reports in CONNECT_REPLY. It always replies with this fixed
// (1,0); the version the client offered is not checked.
const (
	serverMajorVersion = 1
	serverMinorVersion = 0
)

func (s *Server) handleConnect(t *Transport, minor byte, payload []byte) (Result, error) {
	_ = minor
	_ = payload // client's offered proto version / auth names are accepted unconditionally

	replyPayload := make([]byte, 4)
	t.Endian.Order().PutUint16(replyPayload[0:2], serverMajorVersion)
	t.Endian.Order().PutUint16(replyPayload[2:4], serverMinorVersion)

	reply := wire.Frame{Major: wire.OpConnectReply, Minor: 0, Payload: replyPayload}

	if err := s.SendMessage(t, reply); err != nil {
		return Error, fmt.Errorf("%w: send CONNECT_REPLY: %w", xerr.ErrProvider, err)
	}

	s.Log.Debug("connect", "client_window", t.ClientWindow, "endian", string(rune(t.Endian)))

	return Remove, nil
}

func (s *Server) handleDisconnect(t *Transport) (Result, error) {
	reply := wire.Frame{Major: wire.OpDisconnectReply, Minor: 0}

	if err := s.SendMessage(t, reply); err != nil {
		return Error, fmt.Errorf("%w: send DISCONNECT_REPLY: %w", xerr.ErrProvider, err)
	}

	s.RemoveTransport(t)

	s.Log.Debug("disconnect", "client_window", t.ClientWindow)

	return Remove, nil
}

func (s *Server) dispatchSelectionRequest(req SelectionRequestEvent) (Result, error) {
	var value string

	switch req.Target {
	case s.Atoms.Locales:
		value = "@locale=" + s.Locale
	case s.Atoms.Transport:
		value = "@transport=X/"
	default:
		return Continue, nil
	}

	if err := s.Provider.SetProperty(req.Requestor, req.Property, req.Target, 8, []byte(value)); err != nil {
		return Error, fmt.Errorf("%w: set selection property: %w", xerr.ErrProvider, err)
	}

	if err := s.Provider.SendSelectionNotify(req); err != nil {
		return Error, fmt.Errorf("%w: send selection notify: %w", xerr.ErrProvider, err)
	}

	return Remove, nil
}
