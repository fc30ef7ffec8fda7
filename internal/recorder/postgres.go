package recorder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"DealSentinel/internal/model"
)

// PostgresRecorder persists evaluation history to PostgreSQL.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to url, verifies the connection and runs
// migrations.
func NewPostgresRecorder(ctx context.Context, url string) (*PostgresRecorder, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] postgres recorder connected: %s@%s", cfg.ConnConfig.User, cfg.ConnConfig.Host)
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id                 UUID PRIMARY KEY,
			kind               TEXT NOT NULL,
			deal_json          JSONB NOT NULL,
			profile_json       JSONB NOT NULL,
			result_json        JSONB NOT NULL,
			status             TEXT NOT NULL DEFAULT '',
			confidence_percent INTEGER NOT NULL DEFAULT 0,
			estimated_fmv      DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at         TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_created ON evaluations(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_status ON evaluations(status)`,
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

const pgColumns = `id::text, kind, deal_json::text, profile_json::text, result_json::text,
	status, confidence_percent, estimated_fmv, created_at`

func scanRecord(row pgx.Row) (*EvaluationRecord, error) {
	var rec EvaluationRecord
	var kind string
	err := row.Scan(&rec.ID, &kind, &rec.DealJSON, &rec.ProfileJSON, &rec.ResultJSON,
		&rec.Status, &rec.ConfidencePercent, &rec.EstimatedFMV, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Kind = model.EvaluationKind(kind)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

func (r *PostgresRecorder) Record(ctx context.Context, rec *EvaluationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO evaluations
			(id, kind, deal_json, profile_json, result_json, status, confidence_percent, estimated_fmv, created_at)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb, $6, $7, $8, $9)
	`, rec.ID, string(rec.Kind), rec.DealJSON, rec.ProfileJSON, rec.ResultJSON,
		rec.Status, rec.ConfidencePercent, rec.EstimatedFMV, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Get(ctx context.Context, id string) (*EvaluationRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	rec, err := scanRecord(r.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM evaluations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return rec, nil
}

func (r *PostgresRecorder) ListRecent(ctx context.Context, limit int) ([]EvaluationRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pgColumns+` FROM evaluations ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var out []EvaluationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *PostgresRecorder) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	s := &Summary{Since: since, ByStatus: map[string]int{}}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM evaluations WHERE created_at >= $1 GROUP BY status`, since)
	if err != nil {
		return nil, fmt.Errorf("count evaluations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		s.Total += n
		if status != "" {
			s.ByStatus[status] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(estimated_fmv), 0)
		FROM evaluations WHERE created_at >= $1 AND kind <> $2
	`, since, string(model.KindClearinghouse)).Scan(&s.Valuations, &s.AvgFMV)
	if err != nil {
		return nil, fmt.Errorf("average fmv: %w", err)
	}
	return s, nil
}

func (r *PostgresRecorder) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM evaluations WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune evaluations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}
