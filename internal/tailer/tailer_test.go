package tailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// appendLine appends a line to a file the way a service process would: open
// in append mode, write, close.
func appendLine(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	if _, err := f.WriteString(text + "\n"); err != nil {
		t.Fatalf("append to %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	t.Run("no paths", func(t *testing.T) {
		t.Parallel()
		_, err := New(Config{Output: &bytes.Buffer{}})
		if !errors.Is(err, ErrNoPaths) {
			t.Fatalf("error = %v, want ErrNoPaths", err)
		}
	})

	t.Run("nil output", func(t *testing.T) {
		t.Parallel()
		_, err := New(Config{Paths: []string{"/tmp/x.log"}})
		if err == nil {
			t.Fatal("expected error for nil output")
		}
	})
}

func TestRun_MissingFileFails(t *testing.T) {
	t.Parallel()

	tl, err := New(Config{
		Paths:  []string{filepath.Join(t.TempDir(), "absent.log")},
		Output: &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tl.Run(ctx); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRun_EmitsAppendedLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	webLog := filepath.Join(dir, "web.log")
	apiLog := filepath.Join(dir, "api.log")
	appendLine(t, webLog, "before follow") // must not appear: we follow from the end
	appendLine(t, apiLog, "also before")

	var out bytes.Buffer
	tl, err := New(Config{Paths: []string{webLog, apiLog}, Output: &out})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- tl.Run(ctx) }()

	// Give the followers a moment to reach the end of each file before
	// appending, so the new lines are seen as appends.
	time.Sleep(200 * time.Millisecond)
	appendLine(t, webLog, "web ready")
	appendLine(t, apiLog, "api ready")

	// Output is only safe to read after Run returns; give the lines time to
	// flow through, then cancel and wait.
	time.Sleep(time.Second)
	cancel()

	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	got := out.String()
	if strings.Contains(got, "before follow") {
		t.Errorf("output contains pre-follow content:\n%s", got)
	}
	if !strings.Contains(got, "web ready") {
		t.Errorf("output missing web line:\n%s", got)
	}
	if !strings.Contains(got, "api ready") {
		t.Errorf("output missing api line:\n%s", got)
	}
	if !strings.Contains(got, "==> "+webLog+" <==") {
		t.Errorf("output missing header for %s:\n%s", webLog, got)
	}
}

func TestRun_PreservesPerFileOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "ordered.log")
	appendLine(t, logPath, "seed")

	var out bytes.Buffer
	tl, err := New(Config{Paths: []string{logPath}, Output: &out})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- tl.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	const n = 20
	for i := range n {
		appendLine(t, logPath, fmt.Sprintf("line-%02d", i))
	}
	time.Sleep(500 * time.Millisecond)
	cancel()

	if err := <-runErr; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	got := out.String()
	last := -1
	for i := range n {
		idx := strings.Index(got, fmt.Sprintf("line-%02d", i))
		if idx < 0 {
			t.Fatalf("output missing line-%02d:\n%s", i, got)
		}
		if idx < last {
			t.Fatalf("line-%02d appeared out of order:\n%s", i, got)
		}
		last = idx
	}
}

func TestRun_FromStart(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "history.log")
	appendLine(t, logPath, "historic line")

	var out bytes.Buffer
	tl, err := New(Config{Paths: []string{logPath}, Output: &out, FromStart: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- tl.Run(ctx) }()

	time.Sleep(500 * time.Millisecond)
	cancel()
	if err := <-runErr; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if !strings.Contains(out.String(), "historic line") {
		t.Errorf("output missing existing content:\n%s", out.String())
	}
}
