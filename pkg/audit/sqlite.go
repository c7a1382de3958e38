package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fluxorio/relay/pkg/worker"
)

// SQLiteRecorder is a Recorder backed by database/sql over
// mattn/go-sqlite3, grounded on Roasbeef-substrate's internal/db.sqlite.go
// (WAL mode, busy timeout, single-writer posture). Writes are serialized
// through a single-worker pool — SQLite permits only one writer at a
// time, so pkg/worker.WorkerPool(1, ...) is the natural adaptation of
// that pool abstraction here: the dispatch loop that calls Record never
// blocks on the write landing, and writes never race each other.
type SQLiteRecorder struct {
	db   *sql.DB
	pool *worker.WorkerPool
}

// NewSQLiteRecorder opens (or creates) a SQLite database at path and
// ensures the audit_events table exists.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open sqlite: %w", err)
	}
	if _, err := db.Exec(schemaSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: migrate sqlite: %w", err)
	}

	pool := worker.NewWorkerPool(1, 256)
	pool.Start()
	return &SQLiteRecorder{db: db, pool: pool}, nil
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	process_id INTEGER NOT NULL,
	name       TEXT NOT NULL,
	peer_id    INTEGER NOT NULL DEFAULT 0,
	reason     TEXT NOT NULL DEFAULT '',
	at         DATETIME NOT NULL
);`

// Record queues ev for insertion and returns once queued; the actual
// write happens on the recorder's single worker goroutine.
func (r *SQLiteRecorder) Record(ctx context.Context, ev Event) error {
	return r.pool.Submit(func() {
		_, _ = r.db.ExecContext(ctx,
			`INSERT INTO audit_events (kind, process_id, name, peer_id, reason, at) VALUES (?, ?, ?, ?, ?, ?)`,
			string(ev.Kind), ev.ProcessID, ev.Name, ev.PeerID, ev.Reason, ev.At,
		)
	})
}

// Close drains the write queue and closes the database.
func (r *SQLiteRecorder) Close() error {
	r.pool.Stop(context.Background())
	return r.db.Close()
}

// QueueDepth implements audit.Introspectable.
func (r *SQLiteRecorder) QueueDepth() int {
	return r.pool.QueueDepth()
}
