package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fluxorio/relay/pkg/worker"
)

// PostgresRecorder is a Recorder backed by jackc/pgx/v5's pool, grounded
// on the todo-api example's pgxpool.Pool wiring (examples/todo-api/cmd/
// main.go, pkg/todo/service.go). Unlike SQLiteRecorder, Postgres handles
// concurrent writers natively, so this recorder spreads writes across a
// small worker pool instead of serializing them onto one goroutine.
type PostgresRecorder struct {
	pool    *pgxpool.Pool
	workers *worker.WorkerPool
}

// NewPostgresRecorder connects to dsn, ensures the audit_events table
// exists, and starts a workerCount-sized write pool (workerCount<=0
// defaults to 4).
func NewPostgresRecorder(ctx context.Context, dsn string, workerCount int) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaPostgres); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit: migrate postgres: %w", err)
	}

	if workerCount <= 0 {
		workerCount = 4
	}
	workers := worker.NewWorkerPool(workerCount, 1024)
	workers.Start()
	return &PostgresRecorder{pool: pool, workers: workers}, nil
}

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         BIGSERIAL PRIMARY KEY,
	kind       TEXT NOT NULL,
	process_id BIGINT NOT NULL,
	name       TEXT NOT NULL,
	peer_id    BIGINT NOT NULL DEFAULT 0,
	reason     TEXT NOT NULL DEFAULT '',
	at         TIMESTAMPTZ NOT NULL
);`

// Record queues ev for insertion across the write pool.
func (r *PostgresRecorder) Record(ctx context.Context, ev Event) error {
	return r.workers.Submit(func() {
		_, _ = r.pool.Exec(ctx,
			`INSERT INTO audit_events (kind, process_id, name, peer_id, reason, at) VALUES ($1, $2, $3, $4, $5, $6)`,
			string(ev.Kind), ev.ProcessID, ev.Name, ev.PeerID, ev.Reason, ev.At,
		)
	})
}

// Close drains the write queue and closes the pool.
func (r *PostgresRecorder) Close() error {
	r.workers.Stop(context.Background())
	r.pool.Close()
	return nil
}

// QueueDepth implements audit.Introspectable.
func (r *PostgresRecorder) QueueDepth() int {
	return r.workers.QueueDepth()
}
