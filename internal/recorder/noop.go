package recorder

import (
	"context"
	"time"
)

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(_ context.Context, _ *EvaluationRecord) error { return nil }
func (n *NoopRecorder) Get(_ context.Context, _ string) (*EvaluationRecord, error) {
	return nil, ErrNotFound
}
func (n *NoopRecorder) ListRecent(_ context.Context, _ int) ([]EvaluationRecord, error) {
	return nil, nil
}
func (n *NoopRecorder) Summary(_ context.Context, since time.Time) (*Summary, error) {
	return &Summary{Since: since, ByStatus: map[string]int{}}, nil
}
func (n *NoopRecorder) Prune(_ context.Context, _ time.Time) (int64, error) { return 0, nil }
func (n *NoopRecorder) Close() error                                          { return nil }
