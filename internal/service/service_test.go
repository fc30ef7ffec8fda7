package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"DealSentinel/internal/cache"
	"DealSentinel/internal/model"
	"DealSentinel/internal/recorder"
)

// memRecorder is an in-memory Recorder for tests.
type memRecorder struct {
	mu   sync.Mutex
	recs []recorder.EvaluationRecord
	err  error
}

func (m *memRecorder) Record(_ context.Context, rec *recorder.EvaluationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, *rec)
	return nil
}

func (m *memRecorder) Get(_ context.Context, id string) (*recorder.EvaluationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, recorder.ErrNotFound
}

func (m *memRecorder) ListRecent(_ context.Context, limit int) ([]recorder.EvaluationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recorder.EvaluationRecord
	for i := len(m.recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.recs[i])
	}
	return out, nil
}

func (m *memRecorder) Summary(_ context.Context, since time.Time) (*recorder.Summary, error) {
	return &recorder.Summary{Since: since, ByStatus: map[string]int{}}, nil
}

func (m *memRecorder) Prune(_ context.Context, _ time.Time) (int64, error) { return 0, nil }
func (m *memRecorder) Close() error                                          { return nil }

func (m *memRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func newTestService() (*Service, *memRecorder, *fakeNotifier, *cache.MemoryCache) {
	rec := &memRecorder{}
	n := &fakeNotifier{}
	c := cache.NewMemoryCache(time.Hour)
	return NewService(nil, c, rec, n, 3), rec, n, c
}

func cleanRequest() Request {
	return Request{
		Deal: &model.DealTerms{
			CashAmount: model.NumInt(1500),
			PayorName:  "Acme Sports LLC",
			PayorType:  model.PayorBusiness,
			Activities: []model.Activity{{ActivityType: "television_commercial", Details: map[string]any{"spots": 2}}},
		},
		Profile: &model.AthleteProfile{InstagramFollowers: model.NumInt(20000)},
	}
}

func collectiveRequest() Request {
	return Request{
		Deal: &model.DealTerms{
			CashAmount:        model.NumInt(50000),
			PayorName:         "Alabama Boosters Collective",
			PayorType:         model.PayorIndividual,
			Activities:        []model.Activity{{ActivityType: "other"}},
			GrantsExclusivity: true,
		},
	}
}

func TestEvaluate_RedisCacheHit(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()
	c, err := cache.NewRedisCache(ctx, srv.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()
	rec := &memRecorder{}
	svc := NewService(nil, c, rec, &fakeNotifier{}, 2)

	ev, err := svc.Evaluate(ctx, collectiveRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if keys := srv.Keys(); len(keys) != 1 || !strings.HasPrefix(keys[0], "dealsentinel:combined:") {
		t.Errorf("expected one combined cache key, got %v", keys)
	}
	again, err := svc.Evaluate(ctx, collectiveRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if again.ID != ev.ID || again.Clearinghouse.Status != ev.Clearinghouse.Status ||
		!again.Clearinghouse.TotalCompensation.Equal(ev.Clearinghouse.TotalCompensation) {
		t.Errorf("cached evaluation differs: %+v vs %+v", again.Clearinghouse, ev.Clearinghouse)
	}
	svc.Wait()
	if rec.count() != 1 {
		t.Errorf("expected a single record, got %d", rec.count())
	}
}

func TestEvaluate_RecordsAndCaches(t *testing.T) {
	svc, rec, n, c := newTestService()
	ctx := context.Background()

	ev, err := svc.Evaluate(ctx, cleanRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.ID == "" || ev.Clearinghouse == nil || ev.Valuation == nil {
		t.Fatalf("expected both results with an ID, got %+v", ev)
	}
	if ev.Clearinghouse.Status != model.StatusCleared {
		t.Errorf("expected cleared, got %s", ev.Clearinghouse.Status)
	}
	if rec.count() != 1 || c.Len() != 1 {
		t.Errorf("expected 1 record and 1 cache entry, got %d and %d", rec.count(), c.Len())
	}
	stored := rec.recs[0]
	if stored.Kind != model.KindCombined || stored.Status != "cleared" || stored.EstimatedFMV != ev.Valuation.EstimatedFMV {
		t.Errorf("unexpected stored record %+v", stored)
	}

	again, err := svc.Evaluate(ctx, cleanRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if again.ID != ev.ID {
		t.Errorf("expected cached evaluation %s, got %s", ev.ID, again.ID)
	}
	if rec.count() != 1 {
		t.Errorf("cache hit should not record again, got %d records", rec.count())
	}

	svc.Wait()
	if len(n.sent) != 0 {
		t.Errorf("cleared deal should not alert, sent %v", n.sent)
	}
}

func TestEvaluate_KindsDoNotShareCache(t *testing.T) {
	svc, rec, _, _ := newTestService()
	ctx := context.Background()

	ch, err := svc.Clearinghouse(ctx, cleanRequest())
	if err != nil {
		t.Fatalf("Clearinghouse: %v", err)
	}
	if ch.Valuation != nil {
		t.Error("clearinghouse-only result should not carry a valuation")
	}
	v, err := svc.Valuation(ctx, cleanRequest())
	if err != nil {
		t.Fatalf("Valuation: %v", err)
	}
	if v.Clearinghouse != nil || v.Valuation == nil {
		t.Errorf("unexpected valuation result %+v", v)
	}
	if rec.count() != 2 {
		t.Errorf("expected 2 records, got %d", rec.count())
	}
	if rec.recs[1].Status != "" || rec.recs[1].ConfidencePercent != v.Valuation.ConfidencePercent {
		t.Errorf("unexpected valuation record %+v", rec.recs[1])
	}
}

func TestEvaluate_AlertsOnInformationNeeded(t *testing.T) {
	svc, _, n, _ := newTestService()
	ev, err := svc.Clearinghouse(context.Background(), collectiveRequest())
	if err != nil {
		t.Fatalf("Clearinghouse: %v", err)
	}
	svc.Wait()
	if ev.Clearinghouse.Status != model.StatusInformationNeeded {
		t.Fatalf("expected information_needed, got %s", ev.Clearinghouse.Status)
	}
	if len(n.sent) != 1 || !strings.Contains(n.sent[0], ev.ID) {
		t.Errorf("expected one alert naming %s, got %v", ev.ID, n.sent)
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	svc, rec, _, c := newTestService()
	req := Request{Deal: &model.DealTerms{CashAmount: model.Num("a lot")}}
	_, err := svc.Evaluate(context.Background(), req)
	var inv *model.InvalidInputError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if rec.count() != 0 || c.Len() != 0 {
		t.Error("invalid input must not be recorded or cached")
	}
}

func TestEvaluate_RecorderFailureIsNotFatal(t *testing.T) {
	svc, rec, _, _ := newTestService()
	rec.err = errors.New("disk full")
	if _, err := svc.Evaluate(context.Background(), cleanRequest()); err != nil {
		t.Fatalf("expected success despite recorder failure, got %v", err)
	}
}

func TestEvaluateBatch_KeepsOrder(t *testing.T) {
	svc, rec, _, _ := newTestService()
	var reqs []Request
	for i := 0; i < 10; i++ {
		r := cleanRequest()
		r.Deal.CashAmount = model.NumInt(int64(700 + i*1000))
		reqs = append(reqs, r)
	}
	out, err := svc.EvaluateBatch(context.Background(), reqs)
	if err != nil {
		t.Fatalf("EvaluateBatch: %v", err)
	}
	if len(out) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(out))
	}
	for i, ev := range out {
		want := fmt.Sprintf("%d", 700+i*1000)
		if got := ev.Clearinghouse.TotalCompensation.String(); got != want {
			t.Errorf("result %d: expected total %s, got %s", i, want, got)
		}
	}
	if rec.count() != 10 {
		t.Errorf("expected 10 records, got %d", rec.count())
	}
}

func TestEvaluateBatch_FailsWithIndex(t *testing.T) {
	svc, _, _, _ := newTestService()
	bad := Request{Profile: &model.AthleteProfile{Gender: "robot"}}
	_, err := svc.EvaluateBatch(context.Background(), []Request{cleanRequest(), bad})
	var inv *model.InvalidInputError
	if !errors.As(err, &inv) || !strings.Contains(err.Error(), "item 1") {
		t.Errorf("expected item 1 InvalidInputError, got %v", err)
	}
}

func TestReportAndGet(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	ev, err := svc.Evaluate(ctx, collectiveRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	svc.Wait()

	got, err := svc.Get(ctx, ev.ID)
	if err != nil || got.ID != ev.ID {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	page, err := svc.Report(ctx, ev.ID)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	for _, want := range []string{"Clearinghouse prediction", "information_needed", "Valuation", "<table>"} {
		if !strings.Contains(page, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if _, err := svc.Report(ctx, "missing"); !errors.Is(err, recorder.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
