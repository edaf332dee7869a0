package netutil

import (
	"fmt"
	"net"
	"strconv"

	"github.com/deskenv/deskinit/internal/sentinel"
)

// ErrPortInUse is returned by CheckFree when something is already bound to
// the port. Callers can match it with errors.Is through wrapped chains.
const ErrPortInUse = sentinel.Error("port already in use")

// CheckFree reports whether the given local TCP port can be bound. It binds
// a listener on all interfaces and closes it immediately.
//
// This is inherently a point-in-time check: the port could be taken between
// the close and the service's own bind. The check only needs to catch the
// common case of a stale process still holding a service's fixed port, where
// the service's own bind failure would otherwise be buried in its log file.
func CheckFree(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("check port %d: port must be between 1 and 65535", port)
	}
	l, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("port %d: %w", port, ErrPortInUse)
	}
	if err := l.Close(); err != nil {
		return fmt.Errorf("close probe listener on port %d: %w", port, err)
	}
	return nil
}
