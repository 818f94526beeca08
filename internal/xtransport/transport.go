package xtransport

import "github.com/ueno-go/xim-wayland/internal/wire"

// Transport identifies one peer connection (§3 "Transport"). It is created
// on the CONNECT client-message and destroyed on DISCONNECT or engine
// teardown. The zero value is not valid; use newTransport.
type Transport struct {
	ClientWindow WindowID
	ServerWindow WindowID
	Endian       wire.Endian

	endianKnown bool
}

func newTransport(clientWindow, serverWindow WindowID) *Transport {
	return &Transport{ClientWindow: clientWindow, ServerWindow: serverWindow}
}

// setEndian records the transport's byte order from the first payload byte
// of the first CONNECT frame. Subsequent calls are no-ops: a transport's endian is
// fixed for its lifetime.
func (t *Transport) setEndian(b byte) {
	if t.endianKnown {
		return
	}

	if b == byte(wire.LittleEndian) {
		t.Endian = wire.LittleEndian
	} else {
		t.Endian = wire.BigEndian
	}

	t.endianKnown = true
}
