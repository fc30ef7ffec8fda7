// Package valuation estimates the fair market value of an NIL deal from the
// athlete's reach, school, sport and the deal's activities.
package valuation

import (
	"fmt"
	"math"
	"strings"

	"DealSentinel/internal/calculator"
	"DealSentinel/internal/model"
	"DealSentinel/internal/tables"
)

// Range bounds and spread.
const (
	RangeFloor   = 100.0
	RangeCeiling = 500_000.0
	rangeSpread  = 0.35
)

const femaleMultiplier = 1.15

// Data-availability weights for confidence. They sum to 100.
const (
	weightFollowers   = 30
	weightSport       = 25
	weightSchool      = 20
	weightActivities  = 15
	weightPerformance = 10
)

// Estimator computes fair-market-value estimates. It holds only read-only
// tables and may be shared across goroutines.
type Estimator struct {
	tables *tables.Tables
}

// NewEstimator creates an Estimator backed by t (the embedded defaults when nil).
func NewEstimator(t *tables.Tables) *Estimator {
	if t == nil {
		t = tables.Default()
	}
	return &Estimator{tables: t}
}

// Estimate computes the valuation for a deal. The low and high range are
// clamped to [RangeFloor, RangeCeiling]; EstimatedFMV is reported unclamped.
func (e *Estimator) Estimate(deal *model.DealTerms, profile *model.AthleteProfile) (*model.ValuationResult, error) {
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

	// Step a: social base
	base := socialBase(followers)

	// Step b: multipliers
	school, exactSchool := e.tables.SchoolMultiplier(profile.University)
	sport := e.tables.SportMultiplier(profile.Sports)
	activity, activityType := e.tables.MaxActivityMultiplier(deal.Activities)
	gender := 1.0
	if profile.Gender == model.GenderFemale {
		gender = femaleMultiplier
	}

	// Step c: conference bonus, added after the multiplicative part
	bonus := 0.0
	conf, inConference := e.tables.ConferenceFor(profile.University)
	if inConference {
		bonus = conf.Bonus
	}

	adjusted := calculator.Round(base*school*sport*activity*gender) + bonus
	low := math.Max(RangeFloor, calculator.Round(adjusted*(1-rangeSpread)))
	high := math.Min(RangeCeiling, calculator.Round(adjusted*(1+rangeSpread)))

	factors := map[string]model.ValuationFactor{
		model.ValuationSocialMedia: {
			Kind:        model.KindValue,
			Amount:      base,
			Description: fmt.Sprintf("%s base from %s total followers", calculator.FormatCurrency(base), formatCount(followers.Total())),
		},
		model.ValuationSchool: {
			Kind:        model.KindMultiplier,
			Amount:      school,
			Description: schoolDescription(profile.University, school, exactSchool),
		},
		model.ValuationSport: {
			Kind:        model.KindMultiplier,
			Amount:      sport,
			Description: sportDescription(profile.Sports, sport),
		},
		model.ValuationActivity: {
			Kind:        model.KindMultiplier,
			Amount:      activity,
			Description: activityDescription(activityType, activity),
		},
		model.ValuationGender: {
			Kind:        model.KindMultiplier,
			Amount:      gender,
			Description: genderDescription(profile.Gender, gender),
		},
		model.ValuationConference: {
			Kind:        model.KindValue,
			Amount:      bonus,
			Description: conferenceDescription(conf, inConference),
		},
	}

	result := &model.ValuationResult{
		EstimatedFMV:      adjusted,
		LowRange:          low,
		HighRange:         high,
		ConfidencePercent: confidence(deal, profile, followers),
		Factors:           factors,
		MarketComparison:  marketComparison(adjusted),
	}
	result.Rationale = rationale(result)
	return result, nil
}

func confidence(deal *model.DealTerms, profile *model.AthleteProfile, f calculator.Followers) int {
	earned := 0
	if f.Total() > 0 {
		earned += weightFollowers
	}
	if len(profile.Sports) > 0 && strings.TrimSpace(profile.Sports[0]) != "" {
		earned += weightSport
	}
	if strings.TrimSpace(profile.University) != "" {
		earned += weightSchool
	}
	if len(deal.Activities) > 0 {
		earned += weightActivities
	}
	if len(profile.PerformanceStats) > 0 {
		earned += weightPerformance
	}
	return earned
}
