package session

import (
	"github.com/ueno-go/xim-wayland/internal/wire"
	"github.com/ueno-go/xim-wayland/internal/xtransport"
)

// InputMethod is a per-session object representing one client's connection
// to the input-method service (§3 "Input method"). It is owned by the
// server connection, keyed by (transport, id), and owns the input contexts
// created under it.
type InputMethod struct {
	ID        uint16
	Transport *xtransport.Transport

	nextICID uint16

	imSpecs []wire.AttributeSpec
	icSpecs []wire.AttributeSpec

	// imValues holds the current raw wire bytes of each IM attribute,
	// indexed by the IM attribute enum. There is exactly one slot today
	// (queryInputStyle), but the table is sized generically so a future
	// attribute needs no reshaping.
	imValues [1][]byte

	ics []*InputContext
}

// newInputMethod allocates an IM with its attribute tables populated per
// §4.3 "Open" and the fixed queryInputStyle value.
func newInputMethod(id uint16, t *xtransport.Transport) *InputMethod {
	im := &InputMethod{
		ID:        id,
		Transport: t,
		imSpecs:   imAttrSpecs(),
		icSpecs:   icAttrSpecs(),
	}

	im.imValues[IMAttrQueryInputStyle] = wire.NewStylesAttribute(IMAttrQueryInputStyle, queryStyleList(), t.Endian).Value

	return im
}

// icByID returns the input context with the given id, or nil.
func (im *InputMethod) icByID(id uint16) *InputContext {
	for _, ic := range im.ics {
		if ic.ID == id {
			return ic
		}
	}

	return nil
}

func (im *InputMethod) addIC(ic *InputContext) {
	im.ics = append(im.ics, ic)
}

func (im *InputMethod) removeIC(ic *InputContext) {
	for i, cur := range im.ics {
		if cur == ic {
			im.ics = append(im.ics[:i], im.ics[i+1:]...)

			return
		}
	}
}

// allocICID returns the next input-context id for this IM (§3 "Every IC's
// id is unique within its IM").
func (im *InputMethod) allocICID() uint16 {
	im.nextICID++

	return im.nextICID
}

// setValue implements "Set values" for the IM attribute table: ids below
// the known count overwrite the slot with a fresh copy of raw; unknown ids
// are silently skipped.
func (im *InputMethod) setValue(id uint16, raw []byte) {
	if int(id) >= len(im.imValues) {
		return
	}

	im.imValues[id] = append([]byte(nil), raw...)
}

// getValue implements "Get values" for the IM attribute table: returns the
// currently stored bytes and whether id was known.
func (im *InputMethod) getValue(id uint16) ([]byte, bool) {
	if int(id) >= len(im.imValues) {
		return nil, false
	}

	return im.imValues[id], true
}
