// Package service runs evaluations for the API, the CLI and the bot. It owns
// the cache, history and alerting around the pure scoring engines.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"DealSentinel/internal/cache"
	"DealSentinel/internal/clearinghouse"
	"DealSentinel/internal/model"
	"DealSentinel/internal/notifier"
	"DealSentinel/internal/recorder"
	"DealSentinel/internal/tables"
	"DealSentinel/internal/valuation"
)

const alertRetries = 3

// Request is one deal/profile pair to evaluate.
type Request struct {
	Deal    *model.DealTerms      `json:"deal"`
	Profile *model.AthleteProfile `json:"profile"`
}

// Service evaluates deals and keeps their history.
type Service struct {
	Evaluator *clearinghouse.Evaluator
	Estimator *valuation.Estimator
	Cache     cache.Cache
	Recorder  recorder.Recorder
	Notifier  notifier.Notifier
	Workers   int

	now     func() time.Time
	pending sync.WaitGroup
}

// NewService creates a Service. Nil collaborators fall back to no-op versions
// and workers below one becomes one.
func NewService(t *tables.Tables, c cache.Cache, rec recorder.Recorder, n notifier.Notifier, workers int) *Service {
	if c == nil {
		c = cache.NewMemoryCache(0)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	if workers < 1 {
		workers = 1
	}
	return &Service{
		Evaluator: clearinghouse.NewEvaluator(t),
		Estimator: valuation.NewEstimator(t),
		Cache:     c,
		Recorder:  rec,
		Notifier:  n,
		Workers:   workers,
		now:       time.Now,
	}
}

// Clearinghouse predicts the clearinghouse outcome only.
func (s *Service) Clearinghouse(ctx context.Context, req Request) (*model.Evaluation, error) {
	return s.run(ctx, model.KindClearinghouse, req)
}

// Valuation estimates fair market value only.
func (s *Service) Valuation(ctx context.Context, req Request) (*model.Evaluation, error) {
	return s.run(ctx, model.KindValuation, req)
}

// Evaluate computes both predictions.
func (s *Service) Evaluate(ctx context.Context, req Request) (*model.Evaluation, error) {
	return s.run(ctx, model.KindCombined, req)
}

// EvaluateBatch evaluates every request with at most Workers running at once.
// Results keep the input order. The first failure cancels the batch and is
// returned wrapped with the item index.
func (s *Service) EvaluateBatch(ctx context.Context, reqs []Request) ([]*model.Evaluation, error) {
	out := make([]*model.Evaluation, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev, err := s.Evaluate(gctx, req)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get loads a stored evaluation.
func (s *Service) Get(ctx context.Context, id string) (*recorder.EvaluationRecord, error) {
	return s.Recorder.Get(ctx, id)
}

// Recent lists the latest stored evaluations.
func (s *Service) Recent(ctx context.Context, limit int) ([]recorder.EvaluationRecord, error) {
	return s.Recorder.ListRecent(ctx, limit)
}

// Summary aggregates evaluations recorded since the given time.
func (s *Service) Summary(ctx context.Context, since time.Time) (*recorder.Summary, error) {
	return s.Recorder.Summary(ctx, since)
}

// Prune deletes evaluations older than the retention period.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return s.Recorder.Prune(ctx, s.now().Add(-retention))
}

// Report renders a stored evaluation as an HTML page.
func (s *Service) Report(ctx context.Context, id string) (string, error) {
	rec, err := s.Recorder.Get(ctx, id)
	if err != nil {
		return "", err
	}
	md, err := notifier.FormatReport(rec)
	if err != nil {
		return "", err
	}
	return notifier.RenderHTML("Evaluation "+rec.ID, md)
}

// Wait blocks until alerts already in flight have been sent.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) run(ctx context.Context, kind model.EvaluationKind, req Request) (*model.Evaluation, error) {
	deal, profile := req.Deal, req.Profile
	if deal == nil {
		deal = &model.DealTerms{}
	}
	if profile == nil {
		profile = &model.AthleteProfile{}
	}

	key, err := cache.Key(kind, deal, profile)
	if err != nil {
		log.Printf("[WARN] %v", err)
	}
	if key != "" {
		if ev, ok := s.cached(ctx, key); ok {
			return ev, nil
		}
	}

	ev := &model.Evaluation{}
	if kind != model.KindValuation {
		if ev.Clearinghouse, err = s.Evaluator.Evaluate(deal, profile); err != nil {
			return nil, err
		}
	}
	if kind != model.KindClearinghouse {
		if ev.Valuation, err = s.Estimator.Estimate(deal, profile); err != nil {
			return nil, err
		}
	}
	ev.ID = uuid.NewString()
	ev.CreatedAt = s.now().UTC().Truncate(time.Second)

	s.record(ctx, kind, deal, profile, ev)
	if key != "" {
		s.store(ctx, key, ev)
	}
	if ch := ev.Clearinghouse; ch != nil && ch.Status == model.StatusInformationNeeded {
		s.alert(ctx, ev.ID, deal, ch)
	}
	return ev, nil
}

func (s *Service) cached(ctx context.Context, key string) (*model.Evaluation, bool) {
	raw, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		log.Printf("[WARN] cache get: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var ev model.Evaluation
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		log.Printf("[WARN] discard cached evaluation %s: %v", key, err)
		return nil, false
	}
	return &ev, true
}

func (s *Service) store(ctx context.Context, key string, ev *model.Evaluation) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[WARN] encode evaluation for cache: %v", err)
		return
	}
	if err := s.Cache.Set(ctx, key, string(data)); err != nil {
		log.Printf("[WARN] cache set: %v", err)
	}
}

func (s *Service) record(ctx context.Context, kind model.EvaluationKind, deal *model.DealTerms, profile *model.AthleteProfile, ev *model.Evaluation) {
	rec, err := newRecord(kind, deal, profile, ev)
	if err != nil {
		log.Printf("[ERROR] encode evaluation %s: %v", ev.ID, err)
		return
	}
	if err := s.Recorder.Record(ctx, rec); err != nil {
		log.Printf("[ERROR] record evaluation %s: %v", ev.ID, err)
	}
}

func newRecord(kind model.EvaluationKind, deal *model.DealTerms, profile *model.AthleteProfile, ev *model.Evaluation) (*recorder.EvaluationRecord, error) {
	dealJSON, err := json.Marshal(deal)
	if err != nil {
		return nil, fmt.Errorf("deal: %w", err)
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	resultJSON, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	rec := &recorder.EvaluationRecord{
		ID:          ev.ID,
		Kind:        kind,
		DealJSON:    string(dealJSON),
		ProfileJSON: string(profileJSON),
		ResultJSON:  string(resultJSON),
		CreatedAt:   ev.CreatedAt,
	}
	if ch := ev.Clearinghouse; ch != nil {
		rec.Status = string(ch.Status)
		rec.ConfidencePercent = ch.ConfidencePercent
	}
	if v := ev.Valuation; v != nil {
		rec.EstimatedFMV = v.EstimatedFMV
		if ev.Clearinghouse == nil {
			rec.ConfidencePercent = v.ConfidencePercent
		}
	}
	return rec, nil
}

// alert sends in the background so a slow chat API never holds up a request.
func (s *Service) alert(ctx context.Context, id string, deal *model.DealTerms, ch *model.ClearinghouseResult) {
	text := notifier.FormatAlert(id, deal, ch)
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.Notifier.SendWithRetry(ctx, text, alertRetries); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[ERROR] send alert for %s: %v", id, err)
		}
	}()
}
