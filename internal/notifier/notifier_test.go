package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"DealSentinel/internal/model"
	"DealSentinel/internal/recorder"
)

func sampleResult() *model.ClearinghouseResult {
	return &model.ClearinghouseResult{
		Status:            model.StatusInformationNeeded,
		ConfidencePercent: 24,
		TotalCompensation: decimal.NewFromInt(50000),
		FactorScores: map[string]model.FactorScore{
			model.FactorPayorAssociation: {Score: 30, Weight: 0.4, Weighted: 12, Commentary: "collective"},
		},
		Issues: []model.Issue{
			{Type: "associated_entity", Severity: model.SeverityHigh, Message: "Payor <collective> & co"},
		},
		Recommendations: []string{"Verify payor independence"},
		FMVRange:        &model.Range{Low: 546, High: 910},
	}
}

func TestFormatAlert(t *testing.T) {
	msg := FormatAlert("abc-123", &model.DealTerms{PayorName: "Tide & Co"}, sampleResult())
	for _, want := range []string{"Tide &amp; Co", "$50,000", "$546-$910", "information_needed", "&lt;collective&gt;", "abc-123"} {
		if !strings.Contains(msg, want) {
			t.Errorf("alert missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatDigest(t *testing.T) {
	s := &recorder.Summary{
		Since:      time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		Total:      5,
		ByStatus:   map[string]int{"cleared": 3, "in_review": 2},
		Valuations: 4,
		AvgFMV:     12345.4,
	}
	msg := FormatDigest(s)
	if !strings.Contains(msg, "Evaluations: 5") || !strings.Contains(msg, "cleared: 3") || !strings.Contains(msg, "$12,345") {
		t.Errorf("unexpected digest:\n%s", msg)
	}
	if strings.Index(msg, "cleared: 3") > strings.Index(msg, "in_review: 2") {
		t.Error("expected statuses in sorted order")
	}

	empty := FormatDigest(&recorder.Summary{ByStatus: map[string]int{}})
	if !strings.Contains(empty, "No deals evaluated") {
		t.Errorf("unexpected empty digest:\n%s", empty)
	}
}

func TestFormatReportAndRenderHTML(t *testing.T) {
	ev := model.Evaluation{
		ID:            "abc-123",
		Clearinghouse: sampleResult(),
		Valuation: &model.ValuationResult{
			EstimatedFMV: 23600, LowRange: 15340, HighRange: 31860, ConfidencePercent: 90,
			Factors: map[string]model.ValuationFactor{
				model.ValuationSchool:     {Kind: model.KindMultiplier, Amount: 1.8, Description: "alabama"},
				model.ValuationConference: {Kind: model.KindValue, Amount: 2000, Description: "SEC"},
			},
			MarketComparison: "In line with Power Five starters",
		},
	}
	result, _ := json.Marshal(ev)
	rec := &recorder.EvaluationRecord{
		ID:         "abc-123",
		Kind:       model.KindCombined,
		DealJSON:   `{"payorName":"Alabama Boosters Collective","payorType":"business"}`,
		ResultJSON: string(result),
		CreatedAt:  time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	md, err := FormatReport(rec)
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	for _, want := range []string{"# NIL deal evaluation", "## Clearinghouse prediction", "## Valuation", "$23,600", "| school | 1.8x |", "| conference | $2,000 |"} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}

	page, err := RenderHTML("Evaluation abc-123", md)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{"<title>Evaluation abc-123</title>", "<h1>NIL deal evaluation</h1>", "<table>", "<li>"} {
		if !strings.Contains(page, want) {
			t.Errorf("html missing %q", want)
		}
	}

	if _, err := FormatReport(&recorder.EvaluationRecord{ResultJSON: "not json"}); err == nil {
		t.Error("expected error for corrupt stored result")
	}
}

func TestTelegramSend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 0); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if got["chat_id"] != "42" || got["text"] != "hello" || got["parse_mode"] != "HTML" || got["disable_web_page_preview"] != true {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestTelegramSend_ClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	err := n.SendWithRetry(context.Background(), "hello", 3)
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Errorf("expected status error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt for a 400, got %d", calls)
	}
}

func TestTelegramSend_ServerErrorExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 0); err == nil || !strings.Contains(err.Error(), "after 1 attempts") {
		t.Errorf("expected exhausted error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate kept %q", got)
	}
	long := strings.Repeat("é", 20)
	got := truncate(long, 10)
	if n := len([]rune(got)); n != 10 || !strings.HasSuffix(got, "…") {
		t.Errorf("truncate = %q (%d runes)", got, n)
	}
}

func TestNormalizeCommand(t *testing.T) {
	tests := map[string]string{
		"/summary":                 "/summary",
		"  /recent  ":              "/recent",
		"/summary@DealSentinelBot": "/summary",
		"/recent@bot  10":          "/recent 10",
	}
	for in, want := range tests {
		if got := normalizeCommand(in); got != want {
			t.Errorf("normalizeCommand(%q) = %q, want %q", in, got, want)
		}
	}
}
