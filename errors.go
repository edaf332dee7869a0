package deskinit

import (
	"github.com/deskenv/deskinit/internal/core"
	"github.com/deskenv/deskinit/internal/netutil"
	"github.com/deskenv/deskinit/internal/process"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrAlreadyRunning is returned by Run when another supervisor holds the
	// data-dir lock. A container should only ever have one supervisor.
	ErrAlreadyRunning = core.ErrAlreadyRunning

	// ErrPortInUse is returned by Run when a service's fixed port is already
	// bound during the launch preflight.
	ErrPortInUse = netutil.ErrPortInUse

	// ErrAlreadyStarted is returned when a service process is started twice
	// without being stopped in between.
	ErrAlreadyStarted = process.ErrAlreadyStarted
)
