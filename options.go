package deskinit

import (
	"fmt"
	"io"
	"time"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("deskinit: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("deskinit: %s must not be empty", name))
	}
}

// Option configures a Supervisor during construction via NewSupervisor.
// Each With* function returns an Option that sets a specific field.
//
// Several With* functions panic on invalid input (empty names, non-positive
// durations). These panics are intentional: option values are typically
// compile-time constants or configuration loaded before construction, so an
// invalid value indicates a programmer error rather than a runtime condition.
// The pattern mirrors [regexp.MustCompile]: fail fast during initialization
// instead of returning errors that would be universally fatal anyway.
type Option func(*supervisorConfig)

// WithDataDir sets the directory for the supervisor's lock file and run
// journal.
//
// Default: filepath.Join(os.TempDir(), DefaultDataDirName).
//
// Panics if dir is empty.
func WithDataDir(dir string) Option {
	requireNonEmpty("data dir", dir)
	return func(c *supervisorConfig) {
		c.DataDir = dir
	}
}

// WithSetupStep appends a blocking setup step. Steps run in the order added.
// Panics if the step's name or command is empty.
func WithSetupStep(s SetupStep) Option {
	requireNonEmpty("setup step name", s.Name)
	if len(s.Command) == 0 {
		panic(fmt.Sprintf("deskinit: setup step %s command must not be empty", s.Name))
	}
	return func(c *supervisorConfig) {
		c.SetupSteps = append(c.SetupSteps, toSetupStep(s))
	}
}

// WithService appends a background service launched after setup succeeds.
// Services are launched in the order added. Panics if the service's name,
// command, port, or log path is missing.
func WithService(s Service) Option {
	requireNonEmpty("service name", s.Name)
	if len(s.Command) == 0 {
		panic(fmt.Sprintf("deskinit: service %s command must not be empty", s.Name))
	}
	requirePositive("service port", s.Port)
	requireNonEmpty("service log path", s.LogPath)
	return func(c *supervisorConfig) {
		c.Services = append(c.Services, toServiceConfig(s))
	}
}

// WithWatchLog appends an extra log file to follow beyond the services' own
// logs, such as the display stack's log written by a setup collaborator. The
// file is created empty if it does not exist when following begins.
// Panics if path is empty.
func WithWatchLog(path string) Option {
	requireNonEmpty("watch log path", path)
	return func(c *supervisorConfig) {
		c.ExtraWatch = append(c.ExtraWatch, path)
	}
}

// WithStatusLine appends a human-readable line printed to the output stream
// once all services are launched, before log following begins.
// Panics if line is empty.
func WithStatusLine(line string) Option {
	requireNonEmpty("status line", line)
	return func(c *supervisorConfig) {
		c.StatusLines = append(c.StatusLines, line)
	}
}

// WithOutput sets the writer receiving setup output, status lines, and the
// followed log stream.
//
// Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	if w == nil {
		panic("deskinit: output writer must not be nil")
	}
	return func(c *supervisorConfig) {
		c.Output = w
	}
}

// WithReadyTimeout makes Run wait for every service's TCP port to accept
// connections before printing the status lines, bounded by d per service.
//
// Default: no readiness wait; launches are fire-and-forget.
//
// Panics if d <= 0.
func WithReadyTimeout(d time.Duration) Option {
	requirePositive("ready timeout", d)
	return func(c *supervisorConfig) {
		c.ReadyTimeout = d
	}
}

// WithStopTimeout bounds the SIGTERM-to-SIGKILL shutdown of each service.
//
// Default: DefaultStopTimeout.
//
// Panics if d <= 0.
func WithStopTimeout(d time.Duration) Option {
	requirePositive("stop timeout", d)
	return func(c *supervisorConfig) {
		c.StopTimeout = d
	}
}

// WithoutPortPreflight disables the check that each service's fixed port is
// unbound before launching. With the check disabled, a port conflict is only
// visible in the crashed service's log file, matching the classic entrypoint
// script behavior.
func WithoutPortPreflight() Option {
	return func(c *supervisorConfig) {
		c.SkipPortPreflight = true
	}
}

// WithFollowFromStart emits each watched file's existing content before
// following new appends. The default follows from the end of each file,
// matching tail -f semantics.
func WithFollowFromStart() Option {
	return func(c *supervisorConfig) {
		c.FollowFromStart = true
	}
}
