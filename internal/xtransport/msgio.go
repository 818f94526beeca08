package xtransport

import (
	"fmt"

	"github.com/ueno-go/xim-wayland/internal/wire"
	"github.com/ueno-go/xim-wayland/internal/xerr"
)

// SendMessage encodes f with t's byte order and tunnels it to the client:
// embedded in a format-8 _XIM_PROTOCOL client-message when the encoded
// frame is small enough, otherwise staged as a STRING property on the
// client window and announced with a format-32 client-message (§4.2
// "Framed message transport").
func (s *Server) SendMessage(t *Transport, f wire.Frame) error {
	encoded, err := f.Encode(t.Endian)
	if err != nil {
		return err
	}

	if len(encoded) <= maxEmbeddedPayload {
		var data8 [maxEmbeddedPayload]byte
		copy(data8[:], encoded)

		return s.Provider.SendClientMessage(t.ClientWindow, ClientMessageEvent{
			Window: t.ClientWindow,
			Type:   s.Atoms.Protocol,
			Format: 8,
			Data8:  data8[:],
		})
	}

	s.propertyCounter++
	atomName := fmt.Sprintf("server%d", s.propertyCounter)

	atom, err := s.Provider.InternAtom(atomName)
	if err != nil {
		return fmt.Errorf("%w: intern %s: %w", xerr.ErrProvider, atomName, err)
	}

	if err := s.Provider.DeleteProperty(t.ClientWindow, atom); err != nil {
		return fmt.Errorf("%w: delete stale %s: %w", xerr.ErrProvider, atomName, err)
	}

	if err := s.Provider.AppendProperty(t.ClientWindow, atom, s.Atoms.String, 8, encoded); err != nil {
		return fmt.Errorf("%w: write %s: %w", xerr.ErrProvider, atomName, err)
	}

	data32 := [5]uint32{uint32(len(encoded)), uint32(atom), 0, 0, 0}

	return s.Provider.SendClientMessage(t.ClientWindow, ClientMessageEvent{
		Window: t.ClientWindow,
		Type:   s.Atoms.Protocol,
		Format: 32,
		Data32: data32,
	})
}

// ReceiveMessage extracts the raw frame bytes tunneled in cm (§4.2). On the
// format-8 path it checks only that a frame header fits; the frame's own
// declared length is checked by the caller. On the format-32 path it checks
// that the property holds exactly the declared byte count and at least a
// frame header.
func (s *Server) ReceiveMessage(t *Transport, cm ClientMessageEvent) ([]byte, error) {
	switch cm.Format {
	case 8:
		if len(cm.Data8) < 4 {
			return nil, fmt.Errorf("%w: format-8 message shorter than a frame header", xerr.ErrProtocol)
		}

		return cm.Data8, nil

	case 32:
		declared := cm.Data32[0]
		atom := Atom(cm.Data32[1])

		value, _, err := s.Provider.GetProperty(t.ServerWindow, atom, s.Atoms.String)
		if err != nil {
			return nil, fmt.Errorf("%w: read property for format-32 message: %w", xerr.ErrProvider, err)
		}

		if err := s.Provider.DeleteProperty(t.ServerWindow, atom); err != nil {
			return nil, fmt.Errorf("%w: delete property after read: %w", xerr.ErrProvider, err)
		}

		if uint32(len(value)) != declared {
			return nil, fmt.Errorf("%w: format-32 message declared %d bytes, property held %d", xerr.ErrProtocol, declared, len(value))
		}

		if len(value) < 4 {
			return nil, fmt.Errorf("%w: format-32 message shorter than a frame header (%d bytes)", xerr.ErrProtocol, len(value))
		}

		return value, nil

	default:
		return nil, fmt.Errorf("%w: unsupported client-message format %d", xerr.ErrProtocol, cm.Format)
	}
}
