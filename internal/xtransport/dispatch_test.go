package xtransport

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ueno-go/xim-wayland/internal/wire"
)

func testServer(t *testing.T) (*Server, *fakeProvider) {
	t.Helper()

	p := newFakeProvider()
	s := NewServer(p, "wayland", "C,en", log.New(io.Discard))
	require.NoError(t, s.Init())

	return s, p
}

func Test_init_registersSelectionOwner(t *testing.T) {
	s, p := testServer(t)

	owner, err := p.GetSelectionOwner(s.Atoms.PerServer)
	require.NoError(t, err)
	assert.Equal(t, s.AcceptWindow, owner)

	assert.Contains(t, p.atoms, "@server=wayland")
	assert.Contains(t, p.atoms, "XIM_SERVERS")
	assert.Contains(t, p.atoms, "_XIM_XCONNECT")
}

func Test_init_refusesWhenAlreadyOwnedElsewhere(t *testing.T) {
	p := newFakeProvider()
	s1 := NewServer(p, "wayland", "C,en", log.New(io.Discard))
	require.NoError(t, s1.Init())

	s2 := NewServer(p, "wayland", "C,en", log.New(io.Discard))
	err := s2.Init()
	assert.Error(t, err)
}

func Test_xconnectHandshake(t *testing.T) {
	s, p := testServer(t)

	clientWindow := WindowID(42)
	p.windows[clientWindow] = true // the peer's own window, target of the XCONNECT reply

	result, err := s.Dispatch(Event{
		Kind: EventClientMessage,
		ClientMessage: ClientMessageEvent{
			Window: clientWindow,
			Type:   s.Atoms.XConnect,
			Format: 32,
			Data32: [5]uint32{uint32(clientWindow), 0, 0, 0, 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Remove, result)

	tr := s.TransportByClientWindow(clientWindow)
	require.NotNil(t, tr)

	require.Len(t, p.sentClientMessages, 1)

	reply := p.sentClientMessages[0]
	assert.Equal(t, s.Atoms.XConnect, reply.Type)
	assert.Equal(t, uint32(tr.ServerWindow), reply.Data32[0])
	assert.EqualValues(t, maxEmbeddedPayload, reply.Data32[3])
}

func connectTransport(t *testing.T, s *Server, p *fakeProvider, clientWindow WindowID) *Transport {
	t.Helper()

	p.windows[clientWindow] = true // the peer's own window, target of every reply

	_, err := s.Dispatch(Event{
		Kind: EventClientMessage,
		ClientMessage: ClientMessageEvent{
			Window: clientWindow,
			Type:   s.Atoms.XConnect,
			Data32: [5]uint32{uint32(clientWindow)},
		},
	})
	require.NoError(t, err)

	return s.TransportByClientWindow(clientWindow)
}

func Test_connectRequest_embeddedRoundTrip(t *testing.T) {
	s, p := testServer(t)

	clientWindow := WindowID(7)
	tr := connectTransport(t, s, p, clientWindow)

	connectPayload := []byte{byte(wire.LittleEndian), 0, 1, 0, 0, 0, 0, 0}
	frame := wire.Frame{Major: wire.OpConnect, Minor: 0, Payload: connectPayload}
	encoded, err := frame.Encode(wire.LittleEndian)
	require.NoError(t, err)

	var data8 [20]byte
	copy(data8[:], encoded)

	result, err := s.Dispatch(Event{
		Kind: EventClientMessage,
		ClientMessage: ClientMessageEvent{
			Window: clientWindow,
			Type:   s.Atoms.Protocol,
			Format: 8,
			Data8:  data8[:],
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Remove, result)
	assert.Equal(t, wire.LittleEndian, tr.Endian)

	require.Len(t, p.sentClientMessages, 2) // XCONNECT reply + CONNECT_REPLY

	reply := p.sentClientMessages[1]
	assert.Equal(t, s.Atoms.Protocol, reply.Type)
	assert.Equal(t, 8, reply.Format)

	replyFrame, _, err := wire.DecodeFrame(reply.Data8, wire.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, wire.OpConnectReply, replyFrame.Major)
}

func Test_largeReply_usesPropertyFallback(t *testing.T) {
	s, p := testServer(t)

	clientWindow := WindowID(9)
	tr := connectTransport(t, s, p, clientWindow)
	tr.setEndian(byte(wire.BigEndian))

	bigPayload := make([]byte, 64-4) // total encoded frame size becomes 64 bytes
	frame := wire.Frame{Major: wire.OpGetIMValuesReply, Payload: bigPayload}

	require.NoError(t, s.SendMessage(tr, frame))

	require.NotEmpty(t, p.sentClientMessages)
	msg := p.sentClientMessages[len(p.sentClientMessages)-1]
	assert.Equal(t, 32, msg.Format)
	assert.EqualValues(t, 64, msg.Data32[0])

	atom := Atom(msg.Data32[1])
	prop := p.properties[tr.ClientWindow][atom]
	assert.Len(t, prop.value, 64)
}

func Test_disconnect_removesTransport(t *testing.T) {
	s, p := testServer(t)

	clientWindow := WindowID(11)
	tr := connectTransport(t, s, p, clientWindow)
	tr.setEndian(byte(wire.BigEndian))

	frame := wire.Frame{Major: wire.OpDisconnect}
	encoded, err := frame.Encode(wire.BigEndian)
	require.NoError(t, err)

	var data8 [20]byte
	copy(data8[:], encoded)

	result, err := s.Dispatch(Event{
		Kind: EventClientMessage,
		ClientMessage: ClientMessageEvent{
			Window: clientWindow,
			Type:   s.Atoms.Protocol,
			Format: 8,
			Data8:  data8[:],
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Remove, result)
	assert.Nil(t, s.TransportByClientWindow(clientWindow))
}

func Test_selectionRequest_locales(t *testing.T) {
	s, p := testServer(t)

	result, err := s.Dispatch(Event{
		Kind: EventSelectionRequest,
		SelectionRequest: SelectionRequestEvent{
			Owner:     s.AcceptWindow,
			Requestor: WindowID(500),
			Selection: s.Atoms.PerServer,
			Target:    s.Atoms.Locales,
			Property:  Atom(999),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Remove, result)

	prop := p.properties[WindowID(500)][Atom(999)]
	assert.Equal(t, "@locale=C,en", string(prop.value))
	assert.Len(t, p.sentNotifies, 1)
}

func Test_selectionRequest_transport(t *testing.T) {
	s, p := testServer(t)

	_, err := s.Dispatch(Event{
		Kind: EventSelectionRequest,
		SelectionRequest: SelectionRequestEvent{
			Requestor: WindowID(501),
			Target:    s.Atoms.Transport,
			Property:  Atom(998),
		},
	})
	require.NoError(t, err)

	prop := p.properties[WindowID(501)][Atom(998)]
	assert.Equal(t, "@transport=X/", string(prop.value))
}

func Test_unknownProtocolTransport_isContinue(t *testing.T) {
	s, _ := testServer(t)

	result, err := s.Dispatch(Event{
		Kind: EventClientMessage,
		ClientMessage: ClientMessageEvent{
			Window: WindowID(12345),
			Type:   s.Atoms.Protocol,
			Format: 8,
			Data8:  make([]byte, 20),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Continue, result)
}
