package session

import (
	"fmt"

	"github.com/ueno-go/xim-wayland/internal/textinput"
	"github.com/ueno-go/xim-wayland/internal/xtransport"
)

// fakeXProvider is an in-memory xtransport.XProvider, just enough to drive
// a Transport through a real registration handshake under test. Mirrors
// xtransport's own fakeProvider (fakeprovider_test.go), duplicated here
// since that one is unexported to its package.
type fakeXProvider struct {
	atoms      map[string]xtransport.Atom
	nextAtom   xtransport.Atom
	windows    map[xtransport.WindowID]bool
	nextWin    xtransport.WindowID
	root       xtransport.WindowID
	properties map[xtransport.WindowID]map[xtransport.Atom][]byte
	selections map[xtransport.Atom]xtransport.WindowID

	sentClientMessages []xtransport.ClientMessageEvent
}

func newFakeXProvider() *fakeXProvider {
	p := &fakeXProvider{
		atoms:      map[string]xtransport.Atom{},
		nextAtom:   1,
		windows:    map[xtransport.WindowID]bool{},
		nextWin:    100,
		root:       1,
		properties: map[xtransport.WindowID]map[xtransport.Atom][]byte{},
		selections: map[xtransport.Atom]xtransport.WindowID{},
	}
	p.windows[p.root] = true

	return p
}

func (p *fakeXProvider) InternAtom(name string) (xtransport.Atom, error) {
	if a, ok := p.atoms[name]; ok {
		return a, nil
	}

	a := p.nextAtom
	p.nextAtom++
	p.atoms[name] = a

	return a, nil
}

func (p *fakeXProvider) FirstScreenRoot() (xtransport.WindowID, error) { return p.root, nil }

func (p *fakeXProvider) CreateWindow(_ xtransport.WindowID) (xtransport.WindowID, error) {
	w := p.nextWin
	p.nextWin++
	p.windows[w] = true

	return w, nil
}

func (p *fakeXProvider) DestroyWindow(win xtransport.WindowID) error {
	delete(p.windows, win)

	return nil
}

func (p *fakeXProvider) AllocID() (xtransport.WindowID, error) {
	w := p.nextWin
	p.nextWin++
	p.windows[w] = true

	return w, nil
}

func (p *fakeXProvider) GetProperty(win xtransport.WindowID, prop xtransport.Atom, _ xtransport.Atom) ([]byte, int, error) {
	return p.properties[win][prop], 8, nil
}

func (p *fakeXProvider) SetProperty(win xtransport.WindowID, prop xtransport.Atom, _ xtransport.Atom, _ int, value []byte) error {
	if p.properties[win] == nil {
		p.properties[win] = map[xtransport.Atom][]byte{}
	}

	p.properties[win][prop] = append([]byte(nil), value...)

	return nil
}

func (p *fakeXProvider) AppendProperty(win xtransport.WindowID, prop xtransport.Atom, typ xtransport.Atom, format int, value []byte) error {
	if p.properties[win] == nil {
		p.properties[win] = map[xtransport.Atom][]byte{}
	}

	p.properties[win][prop] = append(p.properties[win][prop], value...)

	return nil
}

func (p *fakeXProvider) DeleteProperty(win xtransport.WindowID, prop xtransport.Atom) error {
	delete(p.properties[win], prop)

	return nil
}

func (p *fakeXProvider) GetSelectionOwner(sel xtransport.Atom) (xtransport.WindowID, error) {
	return p.selections[sel], nil
}

func (p *fakeXProvider) SetSelectionOwner(sel xtransport.Atom, win xtransport.WindowID) error {
	p.selections[sel] = win

	return nil
}

func (p *fakeXProvider) SendClientMessage(win xtransport.WindowID, msg xtransport.ClientMessageEvent) error {
	if !p.windows[win] {
		return fmt.Errorf("send to unknown window %d", win)
	}

	p.sentClientMessages = append(p.sentClientMessages, msg)

	return nil
}

func (p *fakeXProvider) SendSelectionNotify(_ xtransport.SelectionRequestEvent) error { return nil }

func (p *fakeXProvider) PollEvent() (xtransport.Event, bool, error) {
	return xtransport.Event{}, false, nil
}

func (p *fakeXProvider) Fd() int { return -1 }

func (p *fakeXProvider) Flush() error { return nil }

var _ xtransport.XProvider = (*fakeXProvider)(nil)

// fakeTextInput is a minimal textinput.Provider: enough to satisfy the
// interface for engine construction. The session tests below drive
// DispatchCallback directly rather than through PollCallback.
type fakeTextInput struct {
	nextSession textinput.SessionID
	nextSurface textinput.SurfaceID
}

func (p *fakeTextInput) Bind() error { return nil }

func (p *fakeTextInput) CreateSession(_ textinput.SeatID) (textinput.SessionID, error) {
	p.nextSession++

	return p.nextSession, nil
}

func (p *fakeTextInput) DestroySession(_ textinput.SessionID) error { return nil }

func (p *fakeTextInput) CreateSurface() (textinput.SurfaceID, error) {
	p.nextSurface++

	return p.nextSurface, nil
}

func (p *fakeTextInput) DestroySurface(_ textinput.SurfaceID) error { return nil }

func (p *fakeTextInput) ShowInputPanel(_ textinput.SessionID) error { return nil }

func (p *fakeTextInput) HideInputPanel(_ textinput.SessionID) error { return nil }

func (p *fakeTextInput) Activate(_ textinput.SessionID, _ textinput.SeatID, _ textinput.SurfaceID) error {
	return nil
}

func (p *fakeTextInput) Deactivate(_ textinput.SessionID) error { return nil }

func (p *fakeTextInput) DefaultSeat() (textinput.SeatID, error) { return 1, nil }

func (p *fakeTextInput) PollCallback() (textinput.Callback, bool, error) {
	return textinput.Callback{}, false, nil
}

func (p *fakeTextInput) Fd() int { return -1 }

func (p *fakeTextInput) Flush() error { return nil }

var _ textinput.Provider = (*fakeTextInput)(nil)
