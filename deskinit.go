package deskinit

import (
	"context"
	"fmt"

	"github.com/deskenv/deskinit/internal/core"
	"github.com/deskenv/deskinit/internal/service"
	"github.com/deskenv/deskinit/internal/setup"
)

// SetupStep is a blocking setup command that must succeed before any
// background service is launched. Steps run synchronously in the order they
// are added; the first non-zero exit aborts the whole run.
type SetupStep struct {
	Name    string   // Identifier used in errors and log lines
	Command []string // Argv; Command[0] is resolved via PATH
	Dir     string   // Working directory (optional)
	Env     []string // Extra KEY=VALUE entries appended to the environment
}

// Service is a long-running background child process launched after setup
// succeeds. Its combined stdout and stderr are appended to LogPath, which is
// then followed as part of the supervisor's output stream.
type Service struct {
	Name    string   // Identifier used in errors, log lines, and the journal
	Command []string // Argv; Command[0] is resolved via PATH
	Dir     string   // Working directory (optional)
	Env     []string // Extra KEY=VALUE entries (e.g., PYTHONPATH for the API server)
	Port    int      // Fixed TCP port the service binds
	LogPath string   // Combined stdout/stderr log file, opened in append mode
}

// Supervisor drives the container entrypoint sequence. Create one with
// NewSupervisor and call Run; Run blocks until the context is cancelled.
type Supervisor struct {
	core *core.Supervisor
}

// NewSupervisor builds a Supervisor from the default configuration and the
// given options. It returns an error when the resulting configuration is
// invalid (for example, no services and no watched logs, or duplicate
// service ports).
func NewSupervisor(opts ...Option) (*Supervisor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c, err := core.NewSupervisor(cfg.toCoreConfig())
	if err != nil {
		return nil, fmt.Errorf("deskinit: %w", err)
	}
	return &Supervisor{core: c}, nil
}

// Run executes the supervisor sequence: setup steps, service launches,
// status lines, then the log-follow loop. It blocks until ctx is cancelled
// and returns nil on a clean shutdown. Wire ctx to SIGTERM/SIGINT via
// signal.NotifyContext so the container runtime's stop request triggers a
// graceful stop of every service.
func (s *Supervisor) Run(ctx context.Context) error {
	return s.core.Run(ctx)
}

// toSetupStep converts the public SetupStep to the internal representation.
func toSetupStep(s SetupStep) setup.Step {
	return setup.Step{Name: s.Name, Command: s.Command, Dir: s.Dir, Env: s.Env}
}

// toServiceConfig converts the public Service to the internal representation.
func toServiceConfig(s Service) service.Config {
	return service.Config{
		Name:    s.Name,
		Command: s.Command,
		Dir:     s.Dir,
		Env:     s.Env,
		Port:    s.Port,
		LogPath: s.LogPath,
	}
}
