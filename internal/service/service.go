package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"strconv"
	"time"

	"github.com/deskenv/deskinit/internal/process"
)

// readinessPollInterval is the interval between consecutive TCP connection
// attempts when waiting for a service to become ready.
const readinessPollInterval = 25 * time.Millisecond

// readinessDialTimeout is the per-attempt timeout for the TCP dial used in
// readiness checks. 1 second is generous for a localhost connection; early
// attempts that fail because the service is not yet listening return
// immediately with a connection-refused error, so this timeout only guards
// against pathological cases (e.g., SYN sent but no SYN-ACK).
const readinessDialTimeout = time.Second

// Compile-time interface satisfaction check.
var _ process.Stoppable = (*Process)(nil)

// Config holds the configuration for a background service process.
type Config struct {
	Name    string   // Service name for logs and errors (e.g., "web", "api")
	Command []string // Argv; Command[0] is resolved via PATH
	Dir     string   // Working directory (optional)
	Env     []string // Extra KEY=VALUE entries appended to the environment
	Port    int      // Fixed TCP port the service binds
	LogPath string   // Combined stdout/stderr log file, opened in append mode

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// Process manages a background service's lifecycle. The service is
// fire-and-forget: the supervisor does not restart it, and a crash after a
// successful spawn is surfaced only through the service's log file and the
// Exited channel.
type Process struct {
	config Config
	base   process.BaseProcess
}

// validate checks that all required Config fields are set and returns an
// error describing every violation found, joined with errors.Join.
func (c Config) validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("service name must not be empty"))
	}
	if len(c.Command) == 0 {
		errs = append(errs, errors.New("service command must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("port must be between 1 and 65535"))
	}
	if c.LogPath == "" {
		errs = append(errs, errors.New("log path must not be empty"))
	}
	return errors.Join(errs...)
}

// New creates a new service Process with the given configuration.
// It returns an error if any required field is missing or invalid.
// New performs no I/O; the log file is opened by Start.
func New(cfg Config) (*Process, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %w", err)
	}
	return &Process{
		config: cfg,
		base:   process.NewBaseProcess(cfg.Name, cfg.Logger),
	}, nil
}

// Start launches the service process with its combined stdout and stderr
// appended to the configured log file. Start returns as soon as the spawn
// succeeds; it does not wait for the service to become ready.
func (p *Process) Start(ctx context.Context) error {
	if p.base.IsStarted() {
		return process.ErrAlreadyStarted
	}

	cmd := exec.CommandContext(ctx, p.config.Command[0], p.config.Command[1:]...)
	cmd.Dir = p.config.Dir
	if len(p.config.Env) > 0 {
		cmd.Env = append(cmd.Environ(), p.config.Env...)
	}

	if err := p.base.SetupAndStart(cmd, p.config.LogPath); err != nil {
		return fmt.Errorf("setup and start %s service: %w", p.config.Name, err)
	}
	return nil
}

// WaitReady polls the service's TCP port until it accepts connections.
// Polling aborts early if the process exits first.
func (p *Process) WaitReady(ctx context.Context, timeout time.Duration) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(p.config.Port))

	log := p.base.Logger()
	dialer := &net.Dialer{Timeout: readinessDialTimeout}
	if err := process.WaitReady(ctx, process.WaitReadyConfig{
		Interval:      readinessPollInterval,
		Timeout:       timeout,
		Name:          p.config.Name,
		Port:          p.config.Port,
		Logger:        log,
		ProcessExited: p.base.Exited(),
	}, func(checkCtx context.Context, attempt int) (bool, error) {
		conn, err := dialer.DialContext(checkCtx, "tcp", addr)
		if err != nil {
			log.Debug("readiness attempt", "service", p.config.Name,
				"port", p.config.Port, "attempt", attempt, "error", err)
			return false, nil // Not ready yet
		}
		_ = conn.Close() // best-effort close of readiness check connection
		return true, nil // service is listening
	}); err != nil {
		return fmt.Errorf("%s not ready: %w", p.config.Name, err)
	}
	return nil
}

// Name returns the configured service name.
func (p *Process) Name() string {
	return p.config.Name
}

// Port returns the fixed TCP port the service binds.
func (p *Process) Port() int {
	return p.config.Port
}

// LogPath returns the path of the service's combined stdout/stderr log file.
func (p *Process) LogPath() string {
	return p.config.LogPath
}

// Pid returns the OS process ID of the running service, or 0 if it has not
// been started or has already been stopped.
func (p *Process) Pid() int {
	return p.base.Pid()
}

// Exited returns a channel closed when the service process exits, or nil if
// the service has not been started.
func (p *Process) Exited() <-chan struct{} {
	return p.base.Exited()
}

// Stop terminates the service process with the given timeout.
func (p *Process) Stop(timeout time.Duration) error {
	return p.base.Stop(timeout)
}

// Close releases the log file handle held by the process.
func (p *Process) Close() {
	p.base.Close()
}
