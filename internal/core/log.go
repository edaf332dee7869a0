package core

import (
	"log/slog"
	"sync/atomic"
)

// logger holds the supervisor's package-level logger. Atomic because
// SetLogger may race with process lifecycle goroutines that are logging;
// "logger" rather than "log" so the stdlib log package stays reachable.
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches the fallback built from slog.Default() so Logger does
// not re-allocate the attribute-carrying child on every call. The cache is
// invalidated by SetLogger(nil); until then a later slog.SetDefault is not
// picked up.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the logger the supervisor and its children log through.
// When SetLogger has not been called it falls back to slog.Default()
// annotated with the deskinit component attribute. Safe for concurrent use.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := newDefaultLogger()
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	// Lost the race to cache. Prefer the winner's logger; if a concurrent
	// SetLogger cleared the cache in between, fall back to our own so the
	// caller never gets nil.
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

func newDefaultLogger() *slog.Logger {
	return slog.Default().With("component", "deskinit")
}

// SetLogger replaces the package-level logger. Passing nil reverts to the
// default: the next Logger call re-derives it from slog.Default(), so
// SetLogger(nil) is also the way to pick up a changed process-wide default.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	defaultLogger.Store(nil)
}
