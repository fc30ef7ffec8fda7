package valuation

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"DealSentinel/internal/calculator"
	"DealSentinel/internal/model"
	"DealSentinel/internal/tables"
)

// marketBands frame an estimate against comparable athletes, highest first.
var marketBands = []struct {
	Above float64
	Text  string
}{
	{50_000, "Comparable to top-tier SEC athletes with national brand recognition"},
	{20_000, "In line with Power Five starters in high-profile sports"},
	{5_000, "Typical of Power Five rotation players and standout mid-major athletes"},
	{1_000, "Consistent with Group of Five and mid-major athletes"},
}

const emergingMarket = "Typical of emerging athletes building an NIL presence"

func marketComparison(fmv float64) string {
	for _, b := range marketBands {
		if fmv > b.Above {
			return b.Text
		}
	}
	return emergingMarket
}

// rationale summarises which factors moved the estimate.
func rationale(r *model.ValuationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estimated value of %s (range %s-%s) starts from a %s social reach base",
		calculator.FormatCurrency(r.EstimatedFMV),
		calculator.FormatCurrency(r.LowRange),
		calculator.FormatCurrency(r.HighRange),
		calculator.FormatCurrency(r.Factors[model.ValuationSocialMedia].Amount))

	var drivers []string
	for _, key := range []string{model.ValuationSchool, model.ValuationSport, model.ValuationActivity, model.ValuationGender} {
		f := r.Factors[key]
		if f.Amount != 1.0 {
			drivers = append(drivers, fmt.Sprintf("%s %s", key, calculator.FormatMultiple(f.Amount)))
		}
	}
	if len(drivers) > 0 {
		fmt.Fprintf(&b, ", adjusted by %s", strings.Join(drivers, ", "))
	}
	if c := r.Factors[model.ValuationConference]; c.Amount > 0 {
		fmt.Fprintf(&b, ", plus a %s conference bonus", calculator.FormatCurrency(c.Amount))
	}
	b.WriteString(".")
	return b.String()
}

func formatCount(n int64) string { return humanize.Comma(n) }

func schoolDescription(university string, m float64, exact bool) string {
	switch {
	case strings.TrimSpace(university) == "":
		return "School not specified"
	case exact:
		return fmt.Sprintf("%s school tier (%s)", university, calculator.FormatMultiple(m))
	case m != 1.0:
		return fmt.Sprintf("%s not in school table, fallback tier (%s)", university, calculator.FormatMultiple(m))
	default:
		return fmt.Sprintf("%s not in school table", university)
	}
}

func sportDescription(sports []string, m float64) string {
	if len(sports) == 0 {
		return "Sport not specified"
	}
	return fmt.Sprintf("%s market (%s)", tables.Normalize(sports[0]), calculator.FormatMultiple(m))
}

func activityDescription(activityType string, m float64) string {
	if activityType == "" {
		return "No activities listed"
	}
	return fmt.Sprintf("Highest-value activity %s (%s)", activityType, calculator.FormatMultiple(m))
}

func genderDescription(g model.Gender, m float64) string {
	if g == model.GenderFemale {
		return fmt.Sprintf("Women's sports premium (%s)", calculator.FormatMultiple(m))
	}
	return "No adjustment"
}

func conferenceDescription(c tables.Conference, ok bool) string {
	if !ok {
		return "No conference bonus"
	}
	return fmt.Sprintf("%s conference bonus", c.Name)
}
