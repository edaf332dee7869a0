package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/deskenv/deskinit/internal/fileutil"
	"github.com/deskenv/deskinit/internal/journal"
	"github.com/deskenv/deskinit/internal/netutil"
	"github.com/deskenv/deskinit/internal/process"
	"github.com/deskenv/deskinit/internal/service"
	"github.com/deskenv/deskinit/internal/setup"
	"github.com/deskenv/deskinit/internal/tailer"
)

// lockFileName is the data-dir lock file guarding against a second supervisor.
const lockFileName = "deskinit.lock"

// JournalFileName is the SQLite run journal inside the data directory.
// Exported so read-only consumers (the history command) can locate it.
const JournalFileName = "journal.db"

// Supervisor runs the container entrypoint sequence: blocking setup steps,
// background service launches with log capture, status lines, and then a
// log-follow loop that keeps the process alive until the context is
// cancelled. Cancellation (typically SIGTERM from the container runtime)
// triggers a graceful stop of every service before Run returns.
type Supervisor struct {
	cfg SupervisorConfig
	log *slog.Logger
	out io.Writer
}

// NewSupervisor validates the configuration and returns a Supervisor.
func NewSupervisor(cfg SupervisorConfig) (*Supervisor, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid supervisor config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	return &Supervisor{cfg: cfg, log: log, out: out}, nil
}

// Run executes the supervisor sequence and blocks until ctx is cancelled or
// a fatal error occurs. It returns nil on a clean, cancellation-driven
// shutdown. A setup failure, a service spawn failure, or a failure to open
// the followed logs returns an error before or instead of the follow loop;
// a service dying after a successful spawn does not (its log file and the
// journal are the failure surface).
func (s *Supervisor) Run(ctx context.Context) error {
	if err := fileutil.EnsureDir(s.cfg.DataDir); err != nil {
		return err
	}

	fl, err := acquireLock(filepath.Join(s.cfg.DataDir, lockFileName))
	if err != nil {
		return err
	}
	defer releaseLock(s.log, fl)

	jnl, err := journal.Open(filepath.Join(s.cfg.DataDir, JournalFileName), s.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := jnl.Close(); err != nil {
			s.log.Warn("close journal", "error", err)
		}
	}()

	// Journal records must survive shutdown: once ctx is cancelled, writes
	// through it would fail with context.Canceled, losing exactly the
	// events an operator cares about most.
	jctx := context.WithoutCancel(ctx)
	jnl.Record(jctx, journal.KindRunStarted, "", "")

	// Setup steps run to completion, in order, before anything else. Their
	// output goes straight to the supervisor's output stream, not to a log
	// file: when one fails the container exits and this is all there is.
	if err := setup.RunAll(ctx, s.cfg.SetupSteps, s.out, s.out, s.log); err != nil {
		jnl.Record(jctx, journal.KindRunStopped, "", err.Error())
		return err
	}
	jnl.Record(jctx, journal.KindSetupCompleted, "", "")

	procs, err := s.startServices(ctx, jctx, jnl)
	if err != nil {
		jnl.Record(jctx, journal.KindRunStopped, "", err.Error())
		return err
	}

	// shuttingDown suppresses the exit watchers once the supervisor itself
	// begins stopping services, so a deliberate SIGTERM is not reported as
	// a service crash.
	shuttingDown := make(chan struct{})
	var watchers sync.WaitGroup
	for _, p := range procs {
		exited := p.Exited()
		watchers.Add(1)
		go func() {
			defer watchers.Done()
			select {
			case <-ctx.Done():
			case <-shuttingDown:
			case <-exited:
				// Fire-and-forget contract: the service stays down and the
				// supervisor stays up. The warn line and the journal entry
				// are the only traces outside the service's own log.
				s.log.Warn("service exited; not restarting",
					"service", p.Name(), "log", p.LogPath())
				jnl.Record(jctx, journal.KindServiceExited, p.Name(), "")
			}
		}()
	}

	fail := func(cause error) error {
		close(shuttingDown)
		stopErr := s.stopServices(procs, jctx, jnl)
		watchers.Wait()
		jnl.Record(jctx, journal.KindRunStopped, "", cause.Error())
		return errors.Join(cause, stopErr)
	}

	if s.cfg.ReadyTimeout > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, p := range procs {
			g.Go(func() error {
				return p.WaitReady(gctx, s.cfg.ReadyTimeout)
			})
		}
		if err := g.Wait(); err != nil {
			return fail(err)
		}
	}

	for _, line := range s.cfg.StatusLines {
		if _, err := fmt.Fprintln(s.out, line); err != nil {
			s.log.Warn("write status line failed", "error", err)
		}
	}

	// Every watched file must exist before following begins, even when its
	// service has not written anything yet; otherwise the follower would
	// fail on a file the service is still about to create.
	watch := s.watchPaths(procs)
	if err := fileutil.EnsureFiles(watch); err != nil {
		return fail(err)
	}

	tl, err := tailer.New(tailer.Config{
		Paths:     watch,
		Output:    s.out,
		FromStart: s.cfg.FollowFromStart,
		Logger:    s.log,
	})
	if err != nil {
		return fail(err)
	}

	s.log.Info("following logs", "paths", watch, "run", jnl.RunID())
	followErr := tl.Run(ctx)

	close(shuttingDown)
	stopErr := s.stopServices(procs, jctx, jnl)
	watchers.Wait()

	if followErr != nil {
		jnl.Record(jctx, journal.KindRunStopped, "", followErr.Error())
	} else {
		jnl.Record(jctx, journal.KindRunStopped, "", "")
	}
	return errors.Join(followErr, stopErr)
}

// startServices launches every configured service in order. On any failure it
// stops the services already started and returns the error; no service is
// ever launched twice.
func (s *Supervisor) startServices(ctx, jctx context.Context, jnl *journal.Journal) ([]*service.Process, error) {
	procs := make([]*service.Process, 0, len(s.cfg.Services))

	abort := func(cause error) error {
		if err := s.stopServices(procs, jctx, jnl); err != nil {
			s.log.Warn("stop after failed launch", "error", err)
		}
		return cause
	}

	for _, cfg := range s.cfg.Services {
		if cfg.Logger == nil {
			cfg.Logger = s.log
		}

		if !s.cfg.SkipPortPreflight {
			if err := netutil.CheckFree(cfg.Port); err != nil {
				return nil, abort(fmt.Errorf("preflight %s: %w", cfg.Name, err))
			}
		}

		p, err := service.New(cfg)
		if err != nil {
			return nil, abort(err)
		}

		// The services must not inherit run-context cancellation: exec's
		// context kill is an immediate SIGKILL, which would bypass the
		// graceful SIGTERM sequence in stopServices.
		if err := p.Start(context.WithoutCancel(ctx)); err != nil {
			return nil, abort(err)
		}
		s.log.Info("service started", "service", cfg.Name, "port", cfg.Port,
			"pid", p.Pid(), "log", cfg.LogPath)
		jnl.Record(jctx, journal.KindServiceStarted, cfg.Name, fmt.Sprintf("pid %d", p.Pid()))
		procs = append(procs, p)
	}
	return procs, nil
}

// stopServices stops every non-nil process in the slice, last-started first,
// and records each stop in the journal. Signal-caused exits count as clean
// stops; anything else is joined into the returned error.
func (s *Supervisor) stopServices(procs []*service.Process, jctx context.Context, jnl *journal.Journal) error {
	timeout := s.cfg.StopTimeout
	if timeout <= 0 {
		timeout = process.DefaultStopTimeout
	}

	var errs []error
	for i := len(procs) - 1; i >= 0; i-- {
		if procs[i] == nil {
			continue
		}
		name := procs[i].Name()

		// A service that already died on its own has nothing left to stop;
		// its stale exit status (any non-signal code) must not read as a
		// stop failure, and its death was already journaled by the exit
		// watcher.
		alreadyExited := false
		if ch := procs[i].Exited(); ch != nil {
			select {
			case <-ch:
				alreadyExited = true
			default:
			}
		}

		err := process.StopCloseAndNil(&procs[i], timeout)
		if alreadyExited {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
		}
		jnl.Record(jctx, journal.KindServiceStopped, name, "")
	}
	return errors.Join(errs...)
}

// watchPaths returns the full ordered list of log files to follow: each
// service's log first, then the extra watched files, with duplicates removed.
func (s *Supervisor) watchPaths(procs []*service.Process) []string {
	seen := make(map[string]struct{}, len(procs)+len(s.cfg.ExtraWatch))
	paths := make([]string, 0, len(procs)+len(s.cfg.ExtraWatch))
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	for _, p := range procs {
		add(p.LogPath())
	}
	for _, p := range s.cfg.ExtraWatch {
		add(p)
	}
	return paths
}
