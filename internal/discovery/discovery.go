// Package discovery optionally announces a running bridge over mDNS, the
// way the teacher announces its KISS-over-TCP service (src/dns_sd.go). It is
// strictly supplementary: the required XIM-facing discovery mechanism is the
// X11 selection-owner handshake in internal/xtransport, which works whether
// or not this package is ever used.
package discovery

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
)

// ServiceType is the mDNS service type this bridge announces itself as.
const ServiceType = "_xim-wayland._tcp"

// Announcer wraps a dnssd responder advertising one bridge instance.
type Announcer struct {
	responder dnssd.Responder
}

// Announce registers name (conventionally "@server=<server name>", the name
// of the selection the bridge owns) on port and starts responding to mDNS
// queries in the background. Responding stops when ctx is cancelled.
func Announce(ctx context.Context, name string, port int) (*Announcer, error) {
	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("discovery: create service: %w", err)
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("discovery: create responder: %w", err)
	}

	if _, err := rp.Add(svc); err != nil {
		return nil, fmt.Errorf("discovery: add service: %w", err)
	}

	a := &Announcer{responder: rp}

	go func() {
		_ = rp.Respond(ctx)
	}()

	return a, nil
}
