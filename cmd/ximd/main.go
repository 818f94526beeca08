// Command ximd bridges a legacy X11 Input Method client to a Wayland
// compositor's text-input protocol. See SPEC_FULL.md for the full design.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"

	"github.com/ueno-go/xim-wayland/internal/buildinfo"
	"github.com/ueno-go/xim-wayland/internal/diag"
	"github.com/ueno-go/xim-wayland/internal/discovery"
	"github.com/ueno-go/xim-wayland/internal/session"
	"github.com/ueno-go/xim-wayland/internal/textinput"
	"github.com/ueno-go/xim-wayland/internal/xtransport"
)

// newXProvider and newTextInputProvider construct the concrete collaborators
// named in §1 as explicitly out of scope for this repository: the X11
// window-system transport and the compositor text-input client. Wiring them
// up is real X11/Wayland protocol client work with no natural home in this
// bridge's own module — a deployment links in its own implementation of
// xtransport.XProvider and textinput.Provider (e.g. over XCB and
// wl_text_input_manager_v3) and replaces these two functions.
func newXProvider() (xtransport.XProvider, error) {
	return nil, errors.New("ximd: no X-transport provider wired into this build; supply an xtransport.XProvider implementation")
}

func newTextInputProvider() (textinput.Provider, error) {
	return nil, errors.New("ximd: no text-input provider wired into this build; supply a textinput.Provider implementation")
}

const serverName = "xim-wayland"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		locale          = pflag.StringP("locale", "l", "C,en", "Locale string published through the LOCALES selection.")
		verbose         = pflag.BoolP("verbose", "v", false, "Enable debug-level logging.")
		version         = pflag.Bool("version", false, "Print version information and exit.")
		timestampFormat = pflag.StringP("timestamp-format", "T", "", "strftime format for the startup/shutdown banner.")
		announce        = pflag.Bool("announce", false, "Additionally announce this bridge over mDNS (supplementary, not required for XIM clients).")
		help            = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - bridges an X11 Input Method client to a Wayland compositor's text-input protocol.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nUsage: %s [options]\n\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()

		return 0
	}

	if *version {
		fmt.Println(buildinfo.String())

		return 0
	}

	logger := diag.New(os.Stderr, *verbose)
	logger.Info(diag.Banner(*timestampFormat, "starting %s", serverName))

	xprovider, err := newXProvider()
	if err != nil {
		logger.Error("x provider init failed", "err", err)

		return 1
	}

	tiProvider, err := newTextInputProvider()
	if err != nil {
		logger.Error("text-input provider init failed", "err", err)

		return 1
	}

	if err := tiProvider.Bind(); err != nil {
		logger.Error("text-input bind failed", "err", err)

		return 1
	}

	server := xtransport.NewServer(xprovider, serverName, *locale, logger)
	if err := server.Init(); err != nil {
		logger.Error("registration failed", "err", err)

		return 1
	}

	if *announce {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if _, err := discovery.Announce(ctx, "@server="+serverName, 0); err != nil {
			logger.Warn("mDNS announce failed", "err", err)
		}
	}

	engine := session.NewEngine(server, tiProvider, logger)

	if err := eventLoop(engine, server, xprovider, tiProvider); err != nil {
		logger.Error(diag.Banner(*timestampFormat, "fatal: %v", err))

		return 1
	}

	logger.Info(diag.Banner(*timestampFormat, "shutting down %s", serverName))

	return 0
}

// eventLoop implements §5's single-threaded, cooperative scheduling model:
// block in unix.Poll over the two provider file descriptors, then drain
// every available event/callback from whichever source became ready before
// blocking again.
func eventLoop(engine *session.Engine, server *xtransport.Server, xprovider xtransport.XProvider, tiProvider textinput.Provider) error {
	fds := []unix.PollFd{
		{Fd: int32(xprovider.Fd()), Events: unix.POLLIN},
		{Fd: int32(tiProvider.Fd()), Events: unix.POLLIN},
	}

	for {
		_, err := unix.Poll(fds, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}

			return fmt.Errorf("poll: %w", err)
		}

		if fds[0].Revents&unix.POLLIN != 0 {
			if err := drainX(server, xprovider); err != nil {
				return err
			}
		}

		if fds[1].Revents&unix.POLLIN != 0 {
			if err := drainTextInput(engine, tiProvider); err != nil {
				return err
			}
		}

		if err := engine.Drain(); err != nil {
			return err
		}

		engine.PruneTransports(server.Transports())
	}
}

func drainX(server *xtransport.Server, xprovider xtransport.XProvider) error {
	for {
		ev, ok, err := xprovider.PollEvent()
		if err != nil {
			return fmt.Errorf("poll event: %w", err)
		}

		if !ok {
			return nil
		}

		result, err := server.Dispatch(ev)
		if err != nil {
			return err
		}

		_ = result // Continue/Remove both fall through to the next event; Error already returned above.
	}
}

func drainTextInput(engine *session.Engine, tiProvider textinput.Provider) error {
	for {
		cb, ok, err := tiProvider.PollCallback()
		if err != nil {
			return fmt.Errorf("poll callback: %w", err)
		}

		if !ok {
			return nil
		}

		if err := engine.DispatchCallback(cb); err != nil {
			return err
		}
	}
}
