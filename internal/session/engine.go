// Package session implements the XIM session logic (§4.3): input methods
// and input contexts with their attribute tables, the opcode handlers that
// answer parsed requests drained from the transport layer's queue, and the
// preedit state machine bridging text-input provider callbacks to XIM
// PREEDIT_*/COMMIT messages.
package session

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ueno-go/xim-wayland/internal/textinput"
	"github.com/ueno-go/xim-wayland/internal/wire"
	"github.com/ueno-go/xim-wayland/internal/xerr"
	"github.com/ueno-go/xim-wayland/internal/xtransport"
)

// Engine owns the live input methods and answers requests the transport
// layer has queued. It is the consumer referred to throughout §4 as
// draining the transport's FIFO.
type Engine struct {
	Transport *xtransport.Server
	Input     textinput.Provider
	Log       *log.Logger

	ims      []*InputMethod
	nextIMID uint16
}

// NewEngine constructs an Engine over an already-initialized transport
// server and a bound text-input provider.
func NewEngine(transport *xtransport.Server, input textinput.Provider, logger *log.Logger) *Engine {
	return &Engine{Transport: transport, Input: input, Log: logger}
}

// Drain dequeues and handles every request currently queued by the
// transport layer. It returns the first fatal error encountered, if any;
// per §7 a peer protocol or provider error is fatal for the whole loop.
func (e *Engine) Drain() error {
	for {
		req, ok := e.Transport.Dequeue()
		if !ok {
			return nil
		}

		if err := e.handle(req); err != nil {
			return err
		}
	}
}

func (e *Engine) handle(req xtransport.QueuedRequest) error {
	switch wire.Opcode(req.Major) {
	case wire.OpOpen:
		return e.handleOpen(req)
	case wire.OpClose:
		return e.handleClose(req)
	case wire.OpQueryExtension:
		return e.handleQueryExtension(req)
	case wire.OpEncodingNegotiation:
		return e.handleEncodingNegotiation(req)
	case wire.OpSetIMValues:
		return e.handleSetIMValues(req)
	case wire.OpGetIMValues:
		return e.handleGetIMValues(req)
	case wire.OpCreateIC:
		return e.handleCreateIC(req)
	case wire.OpDestroyIC:
		return e.handleDestroyIC(req)
	case wire.OpSetICValues:
		return e.handleSetICValues(req)
	case wire.OpGetICValues:
		return e.handleGetICValues(req)
	case wire.OpSetICFocus:
		return e.handleSetICFocus(req)
	case wire.OpUnsetICFocus:
		return e.handleUnsetICFocus(req)
	case wire.OpResetIC:
		return e.handleResetIC(req)
	case wire.OpPreeditCaretReply:
		return e.handlePreeditCaretReply(req)
	case wire.OpForwardEvent:
		return nil // §4.3 "Forward-event": intentionally never answered.
	case wire.OpRegisterTriggerKeys:
		return nil // supplemented as a no-op; see SPEC_FULL.md.
	case wire.OpGeometry:
		return nil // supplemented as a no-op; the bridge has no on-screen preedit area.
	case wire.OpStrConversion:
		return e.handleStrConversion(req)
	case wire.OpSync:
		return e.handleSync(req)
	default:
		e.Log.Warn("unhandled opcode", "opcode", req.Major)

		return nil
	}
}

// imByID finds the IM with id on req's transport.
func (e *Engine) imByID(t *xtransport.Transport, id uint16) *InputMethod {
	for _, im := range e.ims {
		if im.Transport == t && im.ID == id {
			return im
		}
	}

	return nil
}

func (e *Engine) addIM(im *InputMethod) {
	e.ims = append(e.ims, im)
}

func (e *Engine) removeIM(im *InputMethod) {
	for i, cur := range e.ims {
		if cur == im {
			e.ims = append(e.ims[:i], e.ims[i+1:]...)

			return
		}
	}
}

// RemoveTransport releases every IM (and its ICs) owned by t, matching the
// cascade described in §3 "Input method" lifecycle when the owning
// transport disappears.
func (e *Engine) RemoveTransport(t *xtransport.Transport) {
	var remaining []*InputMethod

	for _, im := range e.ims {
		if im.Transport != t {
			remaining = append(remaining, im)
		}
	}

	e.ims = remaining
}

// PruneTransports releases every IM whose owning transport is no longer in
// live, the set xtransport.Server currently tracks. The transport layer
// removes a Transport record on DISCONNECT without knowing about the
// session layer's IMs; the main loop calls this once per iteration to keep
// the two in sync.
func (e *Engine) PruneTransports(live []*xtransport.Transport) {
	isLive := make(map[*xtransport.Transport]bool, len(live))
	for _, t := range live {
		isLive[t] = true
	}

	var remaining []*InputMethod

	for _, im := range e.ims {
		if isLive[im.Transport] {
			remaining = append(remaining, im)
		}
	}

	e.ims = remaining
}

func (e *Engine) send(t *xtransport.Transport, major wire.Opcode, payload []byte) error {
	return e.Transport.SendMessage(t, wire.Frame{Major: major, Payload: payload})
}

func protocolErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{xerr.ErrProtocol}, args...)...)
}

var errUnknownIM = errors.New("xim: unknown input method id")
var errUnknownIC = errors.New("xim: unknown input context id")
