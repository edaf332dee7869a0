package deskinit

import (
	"log/slog"

	"github.com/deskenv/deskinit/internal/core"
)

// SetLogger replaces the package-level logger used by deskinit.
// This allows applications to integrate deskinit logging with their own
// logging infrastructure. The provided logger should already have any
// desired attributes; deskinit will not add additional attributes.
//
// If l is nil, the logger resets to the default: slog.Default() with
// "component" attribute, re-derived on the next use and then cached.
// Call SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently with other deskinit operations.
// For a strict happens-before guarantee, call SetLogger before starting
// the supervisor.
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
