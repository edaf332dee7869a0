package core

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/deskenv/deskinit/internal/service"
	"github.com/deskenv/deskinit/internal/setup"
)

// SupervisorConfig holds configuration for a Supervisor.
type SupervisorConfig struct {
	// DataDir is the directory for the lock file and the run journal.
	// Required.
	DataDir string

	// SetupSteps run synchronously, in order, before any service launches.
	// The first failure aborts the run.
	SetupSteps []setup.Step

	// Services are the background services to launch after setup succeeds.
	Services []service.Config

	// ExtraWatch lists additional log files to follow beyond the services'
	// own logs, such as the display stack's log written by a setup
	// collaborator.
	ExtraWatch []string

	// StatusLines are printed to Output once all services are launched.
	StatusLines []string

	// Output receives setup step output, status lines, and the followed log
	// stream. Defaults to os.Stdout when nil (applied by the public API).
	Output io.Writer

	// ReadyTimeout, when positive, makes Run wait for every service's TCP
	// port to accept connections before printing the status lines. Zero
	// preserves fire-and-forget launches.
	ReadyTimeout time.Duration

	// StopTimeout bounds the SIGTERM-to-SIGKILL shutdown of each service.
	// Zero uses process.DefaultStopTimeout.
	StopTimeout time.Duration

	// SkipPortPreflight disables the check that each service's fixed port is
	// unbound before launching. With the check skipped, a port conflict is
	// only visible in the crashed service's log file.
	SkipPortPreflight bool

	// FollowFromStart emits each watched file's existing content before
	// following appends.
	FollowFromStart bool

	// Logger (optional, defaults to the package-level Logger()).
	Logger *slog.Logger
}

// validate checks the configuration and returns an error describing every
// violation found. It uses errors.Join to report multiple issues at once,
// allowing callers to fix all problems in a single pass rather than playing
// whack-a-mole with one error at a time.
func (c SupervisorConfig) validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir must not be empty"))
	}
	if len(c.Services) == 0 && len(c.ExtraWatch) == 0 {
		errs = append(errs, errors.New("at least one service or watched log is required"))
	}

	names := make(map[string]struct{}, len(c.Services))
	ports := make(map[int]struct{}, len(c.Services))
	logs := make(map[string]struct{}, len(c.Services))
	for _, svc := range c.Services {
		if _, ok := names[svc.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate service name %q", svc.Name))
		}
		names[svc.Name] = struct{}{}
		if _, ok := ports[svc.Port]; ok {
			errs = append(errs, fmt.Errorf("duplicate service port %d", svc.Port))
		}
		ports[svc.Port] = struct{}{}
		if _, ok := logs[svc.LogPath]; ok {
			errs = append(errs, fmt.Errorf("duplicate service log path %q", svc.LogPath))
		}
		logs[svc.LogPath] = struct{}{}
	}

	if c.ReadyTimeout < 0 {
		errs = append(errs, errors.New("ready timeout must not be negative"))
	}
	if c.StopTimeout < 0 {
		errs = append(errs, errors.New("stop timeout must not be negative"))
	}

	return errors.Join(errs...)
}
