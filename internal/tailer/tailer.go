package tailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nxadm/tail"
	"golang.org/x/sync/errgroup"
)

// ErrNoPaths is returned by New when no files are given to follow.
var ErrNoPaths = errors.New("tailer: at least one path is required")

// Config configures a Tailer.
type Config struct {
	// Paths are the log files to follow. Every path must exist before Run is
	// called; the supervisor guarantees this so that following can never miss
	// a file that a slow service has not created yet.
	Paths []string

	// Output receives the followed lines. Writes are serialized through a
	// single goroutine, so Output does not need to be safe for concurrent use.
	Output io.Writer

	// FromStart emits each file's existing content before following new
	// appends. The default is to seek to the end and emit only new lines,
	// matching tail -f semantics.
	FromStart bool

	// Logger (optional, defaults to slog.Default()).
	Logger *slog.Logger
}

// line pairs a followed line with the file it came from.
type line struct {
	path string
	text string
}

// Tailer follows a set of log files and re-emits newly appended lines to a
// single output stream, with tail(1)-style "==> path <==" headers whenever
// the source file changes. Lines from the same file always appear in the
// order they were written; no ordering is defined between files.
type Tailer struct {
	cfg Config
	log *slog.Logger
}

// New validates the configuration and returns a Tailer.
func New(cfg Config) (*Tailer, error) {
	if len(cfg.Paths) == 0 {
		return nil, ErrNoPaths
	}
	if cfg.Output == nil {
		return nil, errors.New("tailer: output must not be nil")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Tailer{cfg: cfg, log: log}, nil
}

// Run follows all configured files until the context is cancelled. It blocks
// for the lifetime of the supervisor: this call is what keeps the container's
// foreground process alive. Run returns nil on context cancellation and an
// error only when a file cannot be opened or the follow machinery fails.
func (t *Tailer) Run(ctx context.Context) error {
	location := &tail.SeekInfo{Whence: io.SeekEnd}
	if t.cfg.FromStart {
		location = nil
	}

	tails := make([]*tail.Tail, 0, len(t.cfg.Paths))
	for _, path := range t.cfg.Paths {
		tl, err := tail.TailFile(path, tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: true,
			Location:  location,
			Logger:    tail.DiscardingLogger,
		})
		if err != nil {
			for _, started := range tails {
				_ = started.Stop()
			}
			return fmt.Errorf("follow %s: %w", path, err)
		}
		tails = append(tails, tl)
	}

	lines := make(chan line)

	g, gctx := errgroup.WithContext(ctx)
	for _, tl := range tails {
		g.Go(func() error {
			return t.forward(gctx, tl, lines)
		})
	}

	// Writer goroutine: the single consumer of the lines channel. It owns
	// the output stream, so per-file ordering established by each forwarder
	// survives the fan-in.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		t.write(lines)
	}()

	err := g.Wait()

	// All forwarders have returned; stop the tail goroutines and let the
	// writer drain.
	for _, tl := range tails {
		_ = tl.Stop()
		tl.Cleanup()
	}
	close(lines)
	<-writerDone

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// forward relays lines from one followed file into the shared channel until
// the context is cancelled or the tail terminates.
func (t *Tailer) forward(ctx context.Context, tl *tail.Tail, lines chan<- line) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-tl.Lines:
			if !ok {
				// The tail goroutine has terminated. Err is non-nil when the
				// file became unreadable; treat that as fatal per the
				// supervisor's follow contract.
				if err := tl.Err(); err != nil {
					return fmt.Errorf("follow %s: %w", tl.Filename, err)
				}
				return nil
			}
			if l.Err != nil {
				return fmt.Errorf("follow %s: %w", tl.Filename, l.Err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case lines <- line{path: tl.Filename, text: l.Text}:
			}
		}
	}
}

// write emits lines to the output with a filename header whenever the source
// file changes, matching the familiar multi-file tail -f format.
func (t *Tailer) write(lines <-chan line) {
	lastPath := ""
	for l := range lines {
		if l.path != lastPath {
			if lastPath != "" {
				if _, err := fmt.Fprintln(t.cfg.Output); err != nil {
					t.log.Warn("write to output failed", "error", err)
				}
			}
			if _, err := fmt.Fprintf(t.cfg.Output, "==> %s <==\n", l.path); err != nil {
				t.log.Warn("write to output failed", "error", err)
			}
			lastPath = l.path
		}
		if _, err := fmt.Fprintln(t.cfg.Output, l.text); err != nil {
			t.log.Warn("write to output failed", "error", err)
		}
	}
}
