package core

import (
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"

	"github.com/deskenv/deskinit/internal/sentinel"
)

// ErrAlreadyRunning is returned by Run when another supervisor holds the
// data-dir lock. A container should only ever have one supervisor; a second
// one would double-launch every service onto the same fixed ports.
const ErrAlreadyRunning = sentinel.Error("another supervisor is already running in this data directory")

// acquireLock takes an exclusive non-blocking lock on the given file path.
// Unlike a waiting lock, failing immediately is the right behavior here:
// a held lock means a live supervisor, and waiting for it to exit would just
// delay the inevitable port conflicts.
func acquireLock(lockPath string) (*flock.Flock, error) {
	fl := flock.New(lockPath)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s held: %w", lockPath, ErrAlreadyRunning)
	}
	return fl, nil
}

// releaseLock releases the file lock and closes the file descriptor.
// The lock file is intentionally left on disk to avoid a race where removing
// it could invalidate a lock concurrently acquired by another process.
// Close() calls Unlock() internally, so no explicit Unlock is needed.
// Errors are logged at debug level to aid troubleshooting; this is
// best-effort cleanup so errors are not returned.
func releaseLock(logger *slog.Logger, fl *flock.Flock) {
	if fl != nil {
		if err := fl.Close(); err != nil {
			logger.Debug("failed to release file lock", "path", fl.Path(), "err", err)
		}
	}
}
