package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

// Step is a blocking setup command that must succeed before the supervisor
// proceeds. Steps run synchronously in declaration order; the first non-zero
// exit aborts the whole run before any background service is launched.
type Step struct {
	// Name identifies the step in errors and log lines (e.g., "display-stack").
	Name string

	// Command is the argv to execute. Command[0] is resolved via PATH unless
	// it contains a path separator.
	Command []string

	// Dir is the working directory. Empty means the supervisor's own.
	Dir string

	// Env is appended to the supervisor's environment, entries in KEY=VALUE
	// form.
	Env []string
}

// validate returns an error describing every problem with the step.
func (s Step) validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("step name must not be empty"))
	}
	if len(s.Command) == 0 {
		errs = append(errs, errors.New("step command must not be empty"))
	}
	return errors.Join(errs...)
}

// Run executes the step synchronously with stdout and stderr wired to the
// given writers. It returns an error if the command cannot be started or
// exits non-zero; the error carries the step name and wraps the underlying
// *exec.ExitError for inspection.
func (s Step) Run(ctx context.Context, stdout, stderr io.Writer, log *slog.Logger) error {
	if err := s.validate(); err != nil {
		return fmt.Errorf("invalid setup step: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	cmd := exec.CommandContext(ctx, s.Command[0], s.Command[1:]...)
	cmd.Dir = s.Dir
	if len(s.Env) > 0 {
		cmd.Env = append(cmd.Environ(), s.Env...)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Info("running setup step", "step", s.Name, "command", s.Command[0])
	start := time.Now()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("setup step %s: %w", s.Name, err)
	}
	log.Debug("setup step finished", "step", s.Name, "elapsed", time.Since(start))
	return nil
}

// RunAll executes the steps in order, stopping at the first failure.
func RunAll(ctx context.Context, steps []Step, stdout, stderr io.Writer, log *slog.Logger) error {
	for _, s := range steps {
		if err := s.Run(ctx, stdout, stderr, log); err != nil {
			return err
		}
	}
	return nil
}
