package recorder

import (
	"context"
	"errors"
	"time"

	"DealSentinel/internal/model"
)

// ErrNotFound is returned by Get when no evaluation has the requested ID.
var ErrNotFound = errors.New("evaluation not found")

// EvaluationRecord is one stored evaluation. Inputs and results are kept
// verbatim as JSON; Status, ConfidencePercent and EstimatedFMV are copied out
// for querying.
type EvaluationRecord struct {
	ID                string               `json:"id"`
	Kind              model.EvaluationKind `json:"kind"`
	DealJSON          string               `json:"deal"`
	ProfileJSON       string               `json:"profile"`
	ResultJSON        string               `json:"result"`
	Status            string               `json:"status,omitempty"` // clearinghouse status, empty for valuation only
	ConfidencePercent int                  `json:"confidencePercent"`
	EstimatedFMV      float64              `json:"estimatedFmv,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
}

// Summary aggregates evaluations recorded since a point in time.
type Summary struct {
	Since      time.Time      `json:"since"`
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	Valuations int            `json:"valuations"`
	AvgFMV     float64        `json:"avgFmv"`
}

// Recorder persists evaluation history.
type Recorder interface {
	Record(ctx context.Context, rec *EvaluationRecord) error
	Get(ctx context.Context, id string) (*EvaluationRecord, error)
	ListRecent(ctx context.Context, limit int) ([]EvaluationRecord, error)
	Summary(ctx context.Context, since time.Time) (*Summary, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}
