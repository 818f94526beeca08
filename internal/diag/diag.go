// Package diag configures the single structured logger the engine and its
// providers log through, and renders the one-line startup/shutdown banners
// an operator watches a running bridge through. It replaces the teacher's
// text_color_set/dw_printf pair (src/textcolor.go, src/log.go) with
// github.com/charmbracelet/log, structured the way the teacher tags output
// per client number.
package diag

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// New builds the logger the caller passes on to the server and engine:
// debug level when verbose, info otherwise, written to w.
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})

	return logger
}

// Banner renders a one-line message prefixed with a strftime-formatted
// timestamp, the way the teacher's --timestamp-format (-T) option prefixes
// received frames (cmd/direwolf/main.go). layout is a strftime pattern
// (e.g. "%Y-%m-%d %H:%M:%S"); an empty layout omits the prefix entirely.
func Banner(layout, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)

	if layout == "" {
		return msg
	}

	f, err := strftime.New(layout)
	if err != nil {
		return msg
	}

	return f.FormatString(time.Now()) + " " + msg
}
