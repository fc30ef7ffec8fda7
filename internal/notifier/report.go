package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"DealSentinel/internal/calculator"
	"DealSentinel/internal/model"
	"DealSentinel/internal/recorder"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// FormatReport renders a stored evaluation as a Markdown document.
func FormatReport(rec *recorder.EvaluationRecord) (string, error) {
	var ev model.Evaluation
	if err := json.Unmarshal([]byte(rec.ResultJSON), &ev); err != nil {
		return "", fmt.Errorf("decode stored result: %w", err)
	}
	var deal model.DealTerms
	if err := json.Unmarshal([]byte(rec.DealJSON), &deal); err != nil {
		return "", fmt.Errorf("decode stored deal: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# NIL deal evaluation\n\n")
	fmt.Fprintf(&b, "- **ID:** `%s`\n", rec.ID)
	fmt.Fprintf(&b, "- **Evaluated:** %s\n", rec.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- **Payor:** %s\n", escapeMarkdown(orNotSpecified(deal.PayorName)))
	if deal.PayorType != "" {
		fmt.Fprintf(&b, "- **Payor type:** %s\n", deal.PayorType)
	}
	b.WriteString("\n")

	if ch := ev.Clearinghouse; ch != nil {
		writeClearinghouse(&b, ch)
	}
	if v := ev.Valuation; v != nil {
		writeValuation(&b, v)
	}
	b.WriteString("---\n\n_Advisory estimate only. This is not a compliance determination._\n")
	return b.String(), nil
}

func writeClearinghouse(b *strings.Builder, ch *model.ClearinghouseResult) {
	fmt.Fprintf(b, "## Clearinghouse prediction\n\n")
	fmt.Fprintf(b, "**Status:** %s %s (confidence %d%%)\n\n", statusIcon[ch.Status], ch.Status, ch.ConfidencePercent)
	fmt.Fprintf(b, "Total compensation: %s\n\n", calculator.FormatCurrency(ch.TotalCompensation.InexactFloat64()))
	if ch.AutoCleared {
		b.WriteString("Below the review threshold, so the deal is cleared automatically.\n\n")
		return
	}

	b.WriteString("| Factor | Score | Weight | Notes |\n|---|---:|---:|---|\n")
	for _, key := range []string{model.FactorPayorAssociation, model.FactorBusinessPurpose, model.FactorCompensationRange} {
		f, ok := ch.FactorScores[key]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "| %s | %.0f | %.1f | %s |\n", key, f.Score, f.Weight, escapeMarkdown(f.Commentary))
	}
	b.WriteString("\n")
	if ch.FMVRange != nil {
		fmt.Fprintf(b, "Estimated fair market range: %s-%s\n\n",
			calculator.FormatCurrency(ch.FMVRange.Low), calculator.FormatCurrency(ch.FMVRange.High))
	}

	if len(ch.Issues) > 0 {
		b.WriteString("### Issues\n\n")
		for _, is := range ch.Issues {
			fmt.Fprintf(b, "- **%s** (%s): %s\n", is.Type, is.Severity, escapeMarkdown(is.Message))
		}
		b.WriteString("\n")
	}
	if len(ch.Recommendations) > 0 {
		b.WriteString("### Recommendations\n\n")
		for i, r := range ch.Recommendations {
			fmt.Fprintf(b, "%d. %s\n", i+1, escapeMarkdown(r))
		}
		b.WriteString("\n")
	}
}

func writeValuation(b *strings.Builder, v *model.ValuationResult) {
	fmt.Fprintf(b, "## Valuation\n\n")
	fmt.Fprintf(b, "**Estimated FMV:** %s (range %s-%s, confidence %d%%)\n\n",
		calculator.FormatCurrency(v.EstimatedFMV), calculator.FormatCurrency(v.LowRange),
		calculator.FormatCurrency(v.HighRange), v.ConfidencePercent)

	keys := make([]string, 0, len(v.Factors))
	for k := range v.Factors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("| Factor | Value | Description |\n|---|---:|---|\n")
	for _, k := range keys {
		f := v.Factors[k]
		value := calculator.FormatMultiple(f.Amount)
		if f.Kind == model.KindValue {
			value = calculator.FormatCurrency(f.Amount)
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n", k, value, escapeMarkdown(f.Description))
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "%s.\n\n%s\n\n", v.MarketComparison, escapeMarkdown(v.Rationale))
}

// RenderHTML converts a Markdown report into a standalone HTML page.
func RenderHTML(title, md string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(title))
	b.WriteString("</head><body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body></html>\n")
	return b.String(), nil
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;", ">", "&gt;")

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }
