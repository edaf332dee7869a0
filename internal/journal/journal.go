package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"
)

// schema creates the events table on first open. One row per lifecycle
// event; run_id groups the events of a single supervisor run.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id  TEXT    NOT NULL,
	ts      TEXT    NOT NULL,
	kind    TEXT    NOT NULL,
	name    TEXT    NOT NULL DEFAULT '',
	detail  TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS events_run_id ON events (run_id, id);
`

// Event kinds recorded by the supervisor.
const (
	KindRunStarted     = "run-started"
	KindSetupCompleted = "setup-completed"
	KindServiceStarted = "service-started"
	KindServiceExited  = "service-exited"
	KindServiceStopped = "service-stopped"
	KindRunStopped     = "run-stopped"
)

// Event is one recorded lifecycle event.
type Event struct {
	RunID  string
	Time   time.Time
	Kind   string
	Name   string
	Detail string
}

// Journal is an append-only SQLite ledger of supervisor runs and child
// process events. It exists for the operator: when a container is found
// wedged or restarting, the journal answers "what did the supervisor do and
// when" without digging through interleaved service logs.
//
// Journal is safe for concurrent use; database/sql serializes access.
type Journal struct {
	db    *sql.DB
	runID string
	log   *slog.Logger
}

// newRunID produces a sortable, collision-resistant run identifier from the
// wall clock and a random suffix.
func newRunID(now time.Time) string {
	return fmt.Sprintf("%s-%08x", now.UTC().Format("20060102T150405"), rand.Uint32())
}

// Open opens (creating if necessary) the journal database at path and begins
// a new run. The returned Journal must be closed by the caller.
//
// The database is opened in WAL mode with a busy timeout, matching how other
// writers in this process family treat ephemeral operational state; crash
// durability is not a goal, so synchronous=NORMAL keeps fsync traffic low.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	// Single connection: the journal is a low-traffic ledger, not a pool
	// workload, and one connection sidesteps SQLITE_BUSY between writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &Journal{
		db:    db,
		runID: newRunID(time.Now()),
		log:   logger,
	}, nil
}

// RunID returns the identifier of the run this journal was opened for.
func (j *Journal) RunID() string {
	return j.runID
}

// Record appends one event for the current run. Recording is operational
// bookkeeping, not control flow: callers treat failures as non-fatal and
// Record logs them at warn instead of propagating.
func (j *Journal) Record(ctx context.Context, kind, name, detail string) {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (run_id, ts, kind, name, detail) VALUES (?, ?, ?, ?, ?)`,
		j.runID, time.Now().UTC().Format(time.RFC3339Nano), kind, name, detail)
	if err != nil {
		j.log.Warn("journal record failed", "kind", kind, "name", name, "error", err)
	}
}

// LastRun returns all events of the most recent run in insertion order.
// Returns an empty slice when the journal holds no events.
func (j *Journal) LastRun(ctx context.Context) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, ts, kind, name, detail
		FROM events
		WHERE run_id = (SELECT run_id FROM events ORDER BY id DESC LIMIT 1)
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts string
		if err := rows.Scan(&e.RunID, &ts, &e.Kind, &e.Name, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan journal event: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse journal timestamp %q: %w", ts, err)
		}
		e.Time = t
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal events: %w", err)
	}
	return events, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}
