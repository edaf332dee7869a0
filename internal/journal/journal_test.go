package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestJournal_RecordAndLastRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer j.Close()

	if j.RunID() == "" {
		t.Fatal("RunID() is empty")
	}

	j.Record(ctx, KindRunStarted, "", "")
	j.Record(ctx, KindServiceStarted, "web", "pid 4242")
	j.Record(ctx, KindServiceExited, "web", "exit status 1")
	j.Record(ctx, KindRunStopped, "", "")

	events, err := j.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun() error: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("len(events) = %d, want 4", len(events))
	}

	wantKinds := []string{KindRunStarted, KindServiceStarted, KindServiceExited, KindRunStopped}
	for i, e := range events {
		if e.Kind != wantKinds[i] {
			t.Errorf("events[%d].Kind = %q, want %q", i, e.Kind, wantKinds[i])
		}
		if e.RunID != j.RunID() {
			t.Errorf("events[%d].RunID = %q, want %q", i, e.RunID, j.RunID())
		}
		if e.Time.IsZero() {
			t.Errorf("events[%d].Time is zero", i)
		}
	}
	if events[1].Name != "web" || events[1].Detail != "pid 4242" {
		t.Errorf("events[1] = %+v, want web/pid 4242", events[1])
	}
}

func TestJournal_LastRunReturnsMostRecentRunOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "journal.db")

	first, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	first.Record(ctx, KindRunStarted, "", "")
	first.Record(ctx, KindRunStopped, "", "")
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	second, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer second.Close()
	second.Record(ctx, KindRunStarted, "", "")

	events, err := second.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun() error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1 (second run only)", len(events))
	}
	if events[0].RunID != second.RunID() {
		t.Errorf("RunID = %q, want %q", events[0].RunID, second.RunID())
	}
}

func TestJournal_LastRunEmpty(t *testing.T) {
	t.Parallel()

	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer j.Close()

	events, err := j.LastRun(context.Background())
	if err != nil {
		t.Fatalf("LastRun() error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("len(events) = %d, want 0", len(events))
	}
}

func TestNewRunID_Distinct(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := newRunID(now)
	b := newRunID(now)
	if a == b {
		t.Fatalf("two run IDs collided: %q", a)
	}
}
