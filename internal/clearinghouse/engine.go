// Package clearinghouse predicts how a compliance clearinghouse would treat an
// NIL deal: cleared, held for review, or sent back for more information.
package clearinghouse

import (
	"math"

	"github.com/shopspring/decimal"

	"DealSentinel/internal/calculator"
	"DealSentinel/internal/model"
	"DealSentinel/internal/tables"
)

// AutoClearThreshold is the total compensation below which review is waived.
var AutoClearThreshold = decimal.NewFromInt(600)

const autoClearConfidence = 95

// StatusRules maps an overall score to a status. Rules are checked in order.
var StatusRules = []struct {
	Status model.ClearinghouseStatus
	Match  func(score float64, r *model.ClearinghouseResult) bool
}{
	{model.StatusCleared, func(s float64, r *model.ClearinghouseResult) bool { return s >= 80 && len(r.Issues) == 0 }},
	{model.StatusInReview, func(s float64, r *model.ClearinghouseResult) bool { return s >= 60 || !r.HasHighSeverity() }},
}

// DefaultStatus applies when no rule matches.
const DefaultStatus = model.StatusInformationNeeded

func decideStatus(score float64, r *model.ClearinghouseResult) model.ClearinghouseStatus {
	for _, rule := range StatusRules {
		if rule.Match(score, r) {
			return rule.Status
		}
	}
	return DefaultStatus
}

// Evaluator runs the three-step verification chain. It holds only read-only
// tables and may be shared across goroutines.
type Evaluator struct {
	tables *tables.Tables
}

// NewEvaluator creates an Evaluator backed by t (the embedded defaults when nil).
func NewEvaluator(t *tables.Tables) *Evaluator {
	if t == nil {
		t = tables.Default()
	}
	return &Evaluator{tables: t}
}

// Evaluate computes the clearinghouse prediction for a deal. Absent fields are
// treated as zero or empty; only malformed fields return an error.
func (e *Evaluator) Evaluate(deal *model.DealTerms, profile *model.AthleteProfile) (*model.ClearinghouseResult, error) {
	if deal == nil {
		deal = &model.DealTerms{}
	}
	if profile == nil {
		profile = &model.AthleteProfile{}
	}
	if err := deal.Validate(); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	followers, err := calculator.ProfileFollowers(profile)
	if err != nil {
		return nil, err
	}

	// Step 1: total compensation
	total, err := calculator.TotalCompensation(deal)
	if err != nil {
		return nil, err
	}

	// Step 2: auto-clear
	if total.LessThan(AutoClearThreshold) {
		return autoCleared(total, e.tables.Weights), nil
	}

	result := &model.ClearinghouseResult{
		TotalCompensation: total,
		FactorScores:      make(map[string]model.FactorScore, 3),
		Issues:            []model.Issue{},
	}

	// Step 3: payor association
	payor, issues := e.scorePayorAssociation(deal)
	result.FactorScores[model.FactorPayorAssociation] = payor
	result.Issues = append(result.Issues, issues...)

	// Step 4: business purpose
	purpose, issues := e.scoreBusinessPurpose(deal)
	result.FactorScores[model.FactorBusinessPurpose] = purpose
	result.Issues = append(result.Issues, issues...)

	// Step 5: compensation vs. fair market value
	fmvRange := e.fmvRange(deal, followers)
	result.FMVRange = &fmvRange
	comp, issues := scoreCompensationRange(total.InexactFloat64(), fmvRange, e.tables.Weights.CompensationRange)
	result.FactorScores[model.FactorCompensationRange] = comp
	result.Issues = append(result.Issues, issues...)

	// Step 6: weighted sum
	overall := payor.Weighted + purpose.Weighted + comp.Weighted
	result.OverallScore = overall
	result.ConfidencePercent = confidence(overall)

	// Step 7: status
	result.Status = decideStatus(overall, result)

	// Step 8: recommendations
	result.Recommendations = recommend(result)

	return result, nil
}

func autoCleared(total decimal.Decimal, w tables.FactorWeights) *model.ClearinghouseResult {
	scores := map[string]model.FactorScore{
		model.FactorPayorAssociation:  weighted(100, w.PayorAssociation, "auto-cleared"),
		model.FactorBusinessPurpose:   weighted(100, w.BusinessPurpose, "auto-cleared"),
		model.FactorCompensationRange: weighted(100, w.CompensationRange, "auto-cleared"),
	}
	return &model.ClearinghouseResult{
		Status:            model.StatusCleared,
		ConfidencePercent: autoClearConfidence,
		AutoCleared:       true,
		TotalCompensation: total,
		OverallScore:      100,
		FactorScores:      scores,
		Issues:            []model.Issue{},
		Recommendations:   []string{},
	}
}

func weighted(score, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{Score: score, Weight: weight, Weighted: score * weight, Commentary: commentary}
}

func confidence(overall float64) int {
	c := int(math.Round(overall))
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
