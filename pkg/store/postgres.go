package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores sessions and reports in PostgreSQL via a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool, verifies it, and runs pending migrations.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if err := Migrate(dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) CreateSession(ctx context.Context, rec SessionRecord) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO exercise_sessions (session_id, domain, exercise_name, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.SessionID, rec.Domain, rec.ExerciseName, StatusStarted, rec.StartedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (p *Postgres) CompleteSession(ctx context.Context, sessionID, status string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE exercise_sessions SET status = $2, ended_at = now()
		WHERE session_id = $1`,
		sessionID, status)
	if err != nil {
		return fmt.Errorf("completing session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}

func (p *Postgres) SaveReport(ctx context.Context, sessionID string, report json.RawMessage) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO session_reports (session_id, report)
		VALUES ($1, $2)
		ON CONFLICT (session_id) DO UPDATE SET report = EXCLUDED.report, saved_at = now()`,
		sessionID, report)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

func (p *Postgres) History(ctx context.Context, domain, search string, limit int) ([]HistoryEntry, error) {
	query := `
		SELECT s.session_id, s.domain, s.exercise_name, s.status, s.started_at, s.ended_at, r.report
		FROM exercise_sessions s
		LEFT JOIN session_reports r ON r.session_id = s.session_id`
	var (
		conds []string
		args  []any
	)
	if domain != "" {
		args = append(args, domain)
		conds = append(conds, fmt.Sprintf("s.domain = $%d", len(args)))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		conds = append(conds, fmt.Sprintf("s.exercise_name ILIKE $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY s.started_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.SessionID, &e.Domain, &e.ExerciseName, &e.Status, &e.StartedAt, &e.EndedAt, &e.Report); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history rows: %w", err)
	}
	return out, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
