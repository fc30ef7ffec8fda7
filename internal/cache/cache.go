// Package cache memoizes evaluation results by a hash of their input.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"DealSentinel/internal/model"
)

const keyPrefix = "dealsentinel"

// Cache stores serialized results by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Close() error
}

// Key derives a content-addressed key from the evaluation kind and inputs.
// Inputs that encode to the same canonical JSON share a key.
func Key(kind model.EvaluationKind, deal *model.DealTerms, profile *model.AthleteProfile) (string, error) {
	if deal == nil {
		deal = &model.DealTerms{}
	}
	if profile == nil {
		profile = &model.AthleteProfile{}
	}
	data, err := json.Marshal(struct {
		Kind    model.EvaluationKind  `json:"kind"`
		Deal    *model.DealTerms      `json:"deal"`
		Profile *model.AthleteProfile `json:"profile"`
	}{kind, deal, profile})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	return fmt.Sprintf("%s:%s:%016x", keyPrefix, kind, xxhash.Sum64(data)), nil
}
