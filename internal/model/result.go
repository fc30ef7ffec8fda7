package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClearinghouseStatus is the predicted outcome of a compliance review.
type ClearinghouseStatus string

const (
	StatusCleared           ClearinghouseStatus = "cleared"
	StatusInReview          ClearinghouseStatus = "in_review"
	StatusInformationNeeded ClearinghouseStatus = "information_needed"
)

// Severity of a single issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Factor names used as FactorScores keys.
const (
	FactorPayorAssociation  = "payor_association"
	FactorBusinessPurpose   = "business_purpose"
	FactorCompensationRange = "compensation_range"
)

// FactorScore is one weighted component of the clearinghouse score.
type FactorScore struct {
	Score      float64 `json:"score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary,omitempty"`
}

// Issue is a finding raised while scoring.
type Issue struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Range is a closed dollar interval.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v float64) bool { return v >= r.Low && v <= r.High }

// ClearinghouseResult is the compliance-likelihood prediction for a deal.
type ClearinghouseResult struct {
	Status            ClearinghouseStatus    `json:"status"`
	ConfidencePercent int                    `json:"confidencePercent"`
	AutoCleared       bool                   `json:"autoCleared"`
	TotalCompensation decimal.Decimal        `json:"totalCompensation"`
	OverallScore      float64                `json:"overallScore"`
	FactorScores      map[string]FactorScore `json:"factorScores"`
	Issues            []Issue                `json:"issues"`
	Recommendations   []string               `json:"recommendations"`
	FMVRange          *Range                 `json:"fmvRange,omitempty"`
}

// HasHighSeverity reports whether any issue is high severity.
func (r *ClearinghouseResult) HasHighSeverity() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// FactorKind tells whether a valuation factor is a dollar amount or a multiplier.
type FactorKind string

const (
	KindValue      FactorKind = "value"
	KindMultiplier FactorKind = "multiplier"
)

// Valuation factor keys.
const (
	ValuationSocialMedia = "social_media"
	ValuationSchool      = "school"
	ValuationSport       = "sport"
	ValuationActivity    = "activity"
	ValuationGender      = "gender"
	ValuationConference  = "conference"
)

// ValuationFactor is one contributor to the fair-market-value estimate.
type ValuationFactor struct {
	Kind        FactorKind `json:"kind"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description"`
}

// ValuationResult is the fair-market-value prediction for a deal.
type ValuationResult struct {
	EstimatedFMV      float64                    `json:"estimatedFmv"`
	LowRange          float64                    `json:"lowRange"`
	HighRange         float64                    `json:"highRange"`
	ConfidencePercent int                        `json:"confidencePercent"`
	Factors           map[string]ValuationFactor `json:"factors"`
	MarketComparison  string                     `json:"marketComparison"`
	Rationale         string                     `json:"rationale"`
}

// EvaluationKind names what was computed for a stored evaluation.
type EvaluationKind string

const (
	KindClearinghouse EvaluationKind = "clearinghouse"
	KindValuation     EvaluationKind = "valuation"
	KindCombined      EvaluationKind = "combined"
)

// Evaluation pairs both predictions for one deal.
type Evaluation struct {
	ID            string               `json:"id,omitempty"`
	Clearinghouse *ClearinghouseResult `json:"clearinghouse,omitempty"`
	Valuation     *ValuationResult     `json:"valuation,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}
