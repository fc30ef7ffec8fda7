package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"DealSentinel/internal/calculator"
	"DealSentinel/internal/model"
	"DealSentinel/internal/recorder"
)

var statusIcon = map[model.ClearinghouseStatus]string{
	model.StatusCleared:           "✅",
	model.StatusInReview:          "🟡",
	model.StatusInformationNeeded: "🚩",
}

// FormatAlert formats an information_needed result into a Telegram message.
func FormatAlert(id string, deal *model.DealTerms, r *model.ClearinghouseResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>DealSentinel alert</b> | %s\n\n", statusIcon[r.Status], time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Payor: %s\n", html.EscapeString(orNotSpecified(deal.PayorName))))
	b.WriteString(fmt.Sprintf("Compensation: %s\n", calculator.FormatCurrency(r.TotalCompensation.InexactFloat64())))
	if r.FMVRange != nil {
		b.WriteString(fmt.Sprintf("FMV range: %s-%s\n", calculator.FormatCurrency(r.FMVRange.Low), calculator.FormatCurrency(r.FMVRange.High)))
	}
	b.WriteString(fmt.Sprintf("Status: %s (confidence %d%%)\n\n", r.Status, r.ConfidencePercent))

	if len(r.Issues) > 0 {
		b.WriteString("<b>Issues:</b>\n")
		for _, is := range r.Issues {
			b.WriteString(fmt.Sprintf("  [%s] %s\n", is.Severity, html.EscapeString(is.Message)))
		}
	}
	if id != "" {
		b.WriteString(fmt.Sprintf("\nID: <code>%s</code>\n", id))
	}
	return b.String()
}

// FormatDigest formats an evaluation summary for the daily digest and /summary.
func FormatDigest(s *recorder.Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>DealSentinel digest</b> | since %s\n\n", s.Since.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Evaluations: %d\n", s.Total))

	statuses := make([]string, 0, len(s.ByStatus))
	for st := range s.ByStatus {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		b.WriteString(fmt.Sprintf("  %s %s: %d\n", statusIcon[model.ClearinghouseStatus(st)], st, s.ByStatus[st]))
	}
	if s.Valuations > 0 {
		b.WriteString(fmt.Sprintf("Valuations: %d, average FMV %s\n", s.Valuations, calculator.FormatCurrency(s.AvgFMV)))
	}
	if s.Total == 0 {
		b.WriteString("\nNo deals evaluated in this period.")
	}
	return b.String()
}

// FormatRecent lists recent evaluations, newest first.
func FormatRecent(recs []recorder.EvaluationRecord) string {
	if len(recs) == 0 {
		return "No evaluations recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent evaluations</b>\n\n")
	for _, rec := range recs {
		line := fmt.Sprintf("%s %s", rec.CreatedAt.Format("01-02 15:04"), rec.Kind)
		if rec.Status != "" {
			line += fmt.Sprintf(" %s %s %d%%", statusIcon[model.ClearinghouseStatus(rec.Status)], rec.Status, rec.ConfidencePercent)
		}
		if rec.EstimatedFMV > 0 {
			line += " FMV " + calculator.FormatCurrency(rec.EstimatedFMV)
		}
		b.WriteString(fmt.Sprintf("%s\n  <code>%s</code>\n", line, rec.ID))
	}
	return b.String()
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}
