package xtransport

import "fmt"

// fakeProvider is an in-memory XProvider good enough to drive the
// registration and dispatch paths under test, without any real window
// system behind it.
type fakeProvider struct {
	atoms     map[string]Atom
	atomNames map[Atom]string
	nextAtom  Atom

	windows  map[WindowID]bool
	nextWin  WindowID
	root     WindowID

	properties map[WindowID]map[Atom]propValue
	selections map[Atom]WindowID

	sentClientMessages []ClientMessageEvent
	sentNotifies       []SelectionRequestEvent
}

type propValue struct {
	typ    Atom
	format int
	value  []byte
}

func newFakeProvider() *fakeProvider {
	p := &fakeProvider{
		atoms:      map[string]Atom{},
		atomNames:  map[Atom]string{},
		nextAtom:   1,
		windows:    map[WindowID]bool{},
		nextWin:    100,
		root:       1,
		properties: map[WindowID]map[Atom]propValue{},
		selections: map[Atom]WindowID{},
	}
	p.windows[p.root] = true

	return p
}

func (p *fakeProvider) InternAtom(name string) (Atom, error) {
	if a, ok := p.atoms[name]; ok {
		return a, nil
	}

	a := p.nextAtom
	p.nextAtom++
	p.atoms[name] = a
	p.atomNames[a] = name

	return a, nil
}

func (p *fakeProvider) FirstScreenRoot() (WindowID, error) {
	return p.root, nil
}

func (p *fakeProvider) CreateWindow(root WindowID) (WindowID, error) {
	_ = root

	w := p.nextWin
	p.nextWin++
	p.windows[w] = true

	return w, nil
}

func (p *fakeProvider) DestroyWindow(win WindowID) error {
	delete(p.windows, win)

	return nil
}

func (p *fakeProvider) AllocID() (WindowID, error) {
	w := p.nextWin
	p.nextWin++
	p.windows[w] = true

	return w, nil
}

func (p *fakeProvider) GetProperty(win WindowID, prop Atom, _ Atom) ([]byte, int, error) {
	byWin, ok := p.properties[win]
	if !ok {
		return nil, 0, nil
	}

	v, ok := byWin[prop]
	if !ok {
		return nil, 0, nil
	}

	return v.value, v.format, nil
}

func (p *fakeProvider) SetProperty(win WindowID, prop Atom, typ Atom, format int, value []byte) error {
	if p.properties[win] == nil {
		p.properties[win] = map[Atom]propValue{}
	}

	p.properties[win][prop] = propValue{typ: typ, format: format, value: append([]byte(nil), value...)}

	return nil
}

func (p *fakeProvider) AppendProperty(win WindowID, prop Atom, typ Atom, format int, value []byte) error {
	if p.properties[win] == nil {
		p.properties[win] = map[Atom]propValue{}
	}

	cur := p.properties[win][prop]
	cur.typ = typ
	cur.format = format
	cur.value = append(cur.value, value...)
	p.properties[win][prop] = cur

	return nil
}

func (p *fakeProvider) DeleteProperty(win WindowID, prop Atom) error {
	delete(p.properties[win], prop)

	return nil
}

func (p *fakeProvider) GetSelectionOwner(sel Atom) (WindowID, error) {
	return p.selections[sel], nil
}

func (p *fakeProvider) SetSelectionOwner(sel Atom, win WindowID) error {
	p.selections[sel] = win

	return nil
}

func (p *fakeProvider) SendClientMessage(win WindowID, msg ClientMessageEvent) error {
	if !p.windows[win] {
		return fmt.Errorf("send to unknown window %d", win)
	}

	p.sentClientMessages = append(p.sentClientMessages, msg)

	return nil
}

func (p *fakeProvider) SendSelectionNotify(req SelectionRequestEvent) error {
	p.sentNotifies = append(p.sentNotifies, req)

	return nil
}

func (p *fakeProvider) PollEvent() (Event, bool, error) {
	return Event{}, false, nil
}

func (p *fakeProvider) Fd() int {
	return -1
}

func (p *fakeProvider) Flush() error {
	return nil
}

var _ XProvider = (*fakeProvider)(nil)
