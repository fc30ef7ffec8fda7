package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"DealSentinel/internal/model"
)

// SQLiteRecorder persists evaluation history to a SQLite database.
type SQLiteRecorder struct {
	db *sqlx.DB
	mu sync.Mutex
}

// sqliteRow mirrors the evaluations table; created_at is unix seconds.
type sqliteRow struct {
	ID                string  `db:"id"`
	Kind              string  `db:"kind"`
	DealJSON          string  `db:"deal_json"`
	ProfileJSON       string  `db:"profile_json"`
	ResultJSON        string  `db:"result_json"`
	Status            string  `db:"status"`
	ConfidencePercent int     `db:"confidence_percent"`
	EstimatedFMV      float64 `db:"estimated_fmv"`
	CreatedAt         int64   `db:"created_at"`
}

func (r sqliteRow) record() EvaluationRecord {
	return EvaluationRecord{
		ID:                r.ID,
		Kind:              model.EvaluationKind(r.Kind),
		DealJSON:          r.DealJSON,
		ProfileJSON:       r.ProfileJSON,
		ResultJSON:        r.ResultJSON,
		Status:            r.Status,
		ConfidencePercent: r.ConfidencePercent,
		EstimatedFMV:      r.EstimatedFMV,
		CreatedAt:         time.Unix(r.CreatedAt, 0).UTC(),
	}
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id                 TEXT PRIMARY KEY,
			kind               TEXT NOT NULL,
			deal_json          TEXT NOT NULL,
			profile_json       TEXT NOT NULL,
			result_json        TEXT NOT NULL,
			status             TEXT NOT NULL DEFAULT '',
			confidence_percent INTEGER NOT NULL DEFAULT 0,
			estimated_fmv      REAL NOT NULL DEFAULT 0,
			created_at         INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_created ON evaluations(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_status ON evaluations(status)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Record(ctx context.Context, rec *EvaluationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO evaluations
		(id, kind, deal_json, profile_json, result_json, status, confidence_percent, estimated_fmv, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), rec.DealJSON, rec.ProfileJSON, rec.ResultJSON,
		rec.Status, rec.ConfidencePercent, rec.EstimatedFMV, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Get(ctx context.Context, id string) (*EvaluationRecord, error) {
	var row sqliteRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM evaluations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	rec := row.record()
	return &rec, nil
}

func (r *SQLiteRecorder) ListRecent(ctx context.Context, limit int) ([]EvaluationRecord, error) {
	var rows []sqliteRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM evaluations ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	out := make([]EvaluationRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out, nil
}

func (r *SQLiteRecorder) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	s := &Summary{Since: since, ByStatus: map[string]int{}}

	var counts []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	err := r.db.SelectContext(ctx, &counts,
		`SELECT status, COUNT(*) AS n FROM evaluations WHERE created_at >= ? GROUP BY status`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("count evaluations: %w", err)
	}
	for _, c := range counts {
		s.Total += c.N
		if c.Status != "" {
			s.ByStatus[c.Status] = c.N
		}
	}

	var fmv struct {
		N   int     `db:"n"`
		Avg float64 `db:"avg_fmv"`
	}
	err = r.db.GetContext(ctx, &fmv,
		`SELECT COUNT(*) AS n, COALESCE(AVG(estimated_fmv), 0) AS avg_fmv
		 FROM evaluations WHERE created_at >= ? AND kind != ?`, since.Unix(), string(model.KindClearinghouse))
	if err != nil {
		return nil, fmt.Errorf("average fmv: %w", err)
	}
	s.Valuations = fmv.N
	s.AvgFMV = fmv.Avg
	return s, nil
}

func (r *SQLiteRecorder) Prune(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM evaluations WHERE created_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune evaluations: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
