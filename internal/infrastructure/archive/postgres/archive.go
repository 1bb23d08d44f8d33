package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/loan-intake/internal/core/domain"
)

// EventArchive is the append-only compliance record of every application
// event, written by the worker. It mirrors the in-memory audit trail but
// survives restarts; the core never reads it back.
type EventArchive struct {
	db *sql.DB
}

func NewEventArchive(db *sql.DB) *EventArchive {
	return &EventArchive{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (a *EventArchive) EnsureSchema(ctx context.Context) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker replicas.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS loan_application_events (
	event_id BIGSERIAL PRIMARY KEY,
	application_id TEXT NOT NULL,
	action TEXT NOT NULL,
	actor TEXT NOT NULL,
	comment TEXT,
	full_name TEXT NOT NULL,
	requested_amount NUMERIC NOT NULL,
	status TEXT NOT NULL,
	decision TEXT,
	explanation TEXT,
	occurred_at TIMESTAMPTZ NOT NULL,
	snapshot JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_loan_events_application ON loan_application_events(application_id);
CREATE INDEX IF NOT EXISTS idx_loan_events_occurred_at ON loan_application_events(occurred_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (a *EventArchive) SaveEvent(ctx context.Context, event domain.ApplicationEvent) error {
	snapshot, err := json.Marshal(event.Application)
	if err != nil {
		return fmt.Errorf("marshal application snapshot: %w", err)
	}

	var decision, explanation string
	if event.Application.Result != nil {
		decision = string(event.Application.Result.Decision)
		explanation = event.Application.Result.Explanation
	}

	_, err = a.db.ExecContext(ctx, `
INSERT INTO loan_application_events (
	application_id, action, actor, comment, full_name, requested_amount, status, decision, explanation, occurred_at, snapshot
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		event.Application.ID, event.Action, event.Actor, event.Comment,
		event.Application.Form.FullName, event.Application.Form.RequestedAmount,
		string(event.Application.Status), decision, explanation,
		event.OccurredAt, snapshot,
	)
	if err != nil {
		return fmt.Errorf("insert application event: %w", err)
	}
	return nil
}
