// Package xerr defines the sentinel error categories shared across the
// codec, transport, and session layers (spec §7).
package xerr

import "errors"

var (
	// ErrProtocol marks a peer protocol violation: a truncated frame, an
	// impossible length, an unknown opcode, unsupported encoding, an
	// unknown IM/IC id, a malformed attribute list, or a non-conforming
	// selection owner. Fatal for the event loop.
	ErrProtocol = errors.New("xim: peer protocol violation")

	// ErrProvider marks a failure reported by the X-transport or
	// text-input provider. Fatal for the event loop.
	ErrProvider = errors.New("xim: provider error")

	// ErrAlloc marks exhaustion of an id space or other allocation
	// failure in the engine itself.
	ErrAlloc = errors.New("xim: allocation failure")
)
