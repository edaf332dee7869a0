package deskinit

import (
	"os"
	"path/filepath"
	"time"
)

// Default configuration values for NewSupervisor.
// These constants are exported so callers can reference the defaults
// when building custom configurations relative to them.
const (
	// DefaultWebPort is the fixed port of the static content server.
	DefaultWebPort = 8080

	// DefaultAPIPort is the fixed port of the API server.
	DefaultAPIPort = 9000

	// DefaultDataDirName is the directory name under the system temp
	// directory where the supervisor keeps its lock file and run journal.
	// The full path is computed as filepath.Join(os.TempDir(), DefaultDataDirName).
	DefaultDataDirName = "deskinit"

	// DefaultStopTimeout is the maximum time allowed for each service to
	// stop gracefully before escalation to SIGKILL completes the shutdown.
	DefaultStopTimeout = 10 * time.Second

	// DefaultReadyTimeout is the readiness wait applied when
	// WithReadyTimeout is used without an explicit duration elsewhere.
	// Readiness waiting is off by default; launches are fire-and-forget.
	DefaultReadyTimeout = 30 * time.Second
)

// DefaultDataDir returns the default data directory path.
func DefaultDataDir() string {
	return filepath.Join(os.TempDir(), DefaultDataDirName)
}
