package clearinghouse

import (
	"fmt"
	"math"

	"DealSentinel/internal/calculator"
	"DealSentinel/internal/model"
)

// Issue types raised by the factors.
const (
	IssueMissingActivities      = "missing_activities"
	IssueVagueActivity          = "vague_activity"
	IssueGrantsExclusivity      = "grants_exclusivity"
	IssueSchoolIP               = "school_ip"
	IssueMissingActivityDetails = "missing_activity_details"
	IssueFMVOverage             = "fmv_overage"
)

const (
	businessPayorScore     = 90.0
	individualPayorScore   = 75.0
	defaultPayorScore      = 85.0
	missingActivityScore   = 40.0
	redFlagPenalty         = 30.0
	redFlagFloor           = 20.0
	fmvBaseRate            = 500.0
	performancePlaceholder = 65.0
	marketSizePlaceholder  = 70.0
)

// scorePayorAssociation checks whether the payor looks like an associated
// entity (collective, booster, school-affiliated group).
func (e *Evaluator) scorePayorAssociation(deal *model.DealTerms) (model.FactorScore, []model.Issue) {
	name := deal.PayorName
	weight := e.tables.Weights.PayorAssociation
	if pc, ok := e.tables.MatchPayor(name); ok {
		issue := model.Issue{
			Type:     pc.IssueType,
			Severity: pc.Severity,
			Message:  fmt.Sprintf("Payor %q matches the %s indicator and may be an associated entity", name, pc.Name),
		}
		return weighted(pc.Score, weight, pc.Name), []model.Issue{issue}
	}

	switch {
	case e.tables.IsBusinessName(name):
		return weighted(businessPayorScore, weight, "registered business"), nil
	case deal.PayorType == model.PayorIndividual:
		return weighted(individualPayorScore, weight, "individual payor"), nil
	default:
		return weighted(defaultPayorScore, weight, "no association indicators"), nil
	}
}

// scoreBusinessPurpose rates how clearly the activities describe real work.
// Red flags (exclusivity, school IP, missing details) each raise an issue, but
// the score penalty is applied once.
func (e *Evaluator) scoreBusinessPurpose(deal *model.DealTerms) (model.FactorScore, []model.Issue) {
	weight := e.tables.Weights.BusinessPurpose
	if len(deal.Activities) == 0 {
		issue := model.Issue{
			Type:     IssueMissingActivities,
			Severity: model.SeverityHigh,
			Message:  "No activities are listed, so the deal has no demonstrable business purpose",
		}
		return weighted(missingActivityScore, weight, "no activities"), []model.Issue{issue}
	}

	var issues []model.Issue
	sum := 0.0
	missingDetails := false
	for _, a := range deal.Activities {
		tier := e.tables.TierFor(a.ActivityType)
		sum += tier.Score
		if tier.Vague {
			issues = append(issues, model.Issue{
				Type:     IssueVagueActivity,
				Severity: model.SeverityMedium,
				Message:  fmt.Sprintf("Activity %q is too vague to show what the athlete delivers", activityLabel(a.ActivityType)),
			})
		}
		if !hasDetails(a.Details) {
			missingDetails = true
		}
	}
	score := sum / float64(len(deal.Activities))
	commentary := fmt.Sprintf("%d activities, avg %.0f", len(deal.Activities), score)

	redFlags := 0
	if deal.GrantsExclusivity {
		redFlags++
		issues = append(issues, model.Issue{
			Type:     IssueGrantsExclusivity,
			Severity: model.SeverityHigh,
			Message:  "Deal grants the payor exclusivity over the athlete's NIL",
		})
	}
	if deal.UsesSchoolIP {
		redFlags++
		issues = append(issues, model.Issue{
			Type:     IssueSchoolIP,
			Severity: model.SeverityHigh,
			Message:  "Deal uses school marks, logos or other intellectual property",
		})
	}
	if missingDetails {
		redFlags++
		issues = append(issues, model.Issue{
			Type:     IssueMissingActivityDetails,
			Severity: model.SeverityMedium,
			Message:  "One or more activities have no details describing the deliverable",
		})
	}
	if redFlags > 0 {
		score = math.Max(redFlagFloor, score-redFlagPenalty)
		commentary += fmt.Sprintf(", %d red flags", redFlags)
	}

	return weighted(score, weight, commentary), issues
}

// scoreCompensationRange compares the total against the estimated FMV range.
// Being under market is not penalized.
func scoreCompensationRange(total float64, fmv model.Range, weight float64) (model.FactorScore, []model.Issue) {
	switch {
	case fmv.Contains(total):
		return weighted(95, weight, "within FMV range"), nil
	case total < fmv.Low:
		return weighted(90, weight, "below FMV range"), nil
	}

	multiple := total / fmv.High
	commentary := fmt.Sprintf("%s above FMV high", calculator.FormatMultiple(multiple))
	switch {
	case multiple <= 2:
		return weighted(70, weight, commentary), nil
	case multiple <= 3:
		issue := model.Issue{
			Type:     IssueFMVOverage,
			Severity: model.SeverityMedium,
			Message: fmt.Sprintf("Compensation of %s is %s the top of the estimated fair market range (%s-%s)",
				calculator.FormatCurrency(total), calculator.FormatMultiple(multiple),
				calculator.FormatCurrency(fmv.Low), calculator.FormatCurrency(fmv.High)),
		}
		return weighted(40, weight, commentary), []model.Issue{issue}
	default:
		issue := model.Issue{
			Type:     IssueFMVOverage,
			Severity: model.SeverityHigh,
			Message: fmt.Sprintf("Compensation of %s is %s the top of the estimated fair market range (%s-%s), a pay-for-play risk",
				calculator.FormatCurrency(total), calculator.FormatMultiple(multiple),
				calculator.FormatCurrency(fmv.Low), calculator.FormatCurrency(fmv.High)),
		}
		return weighted(20, weight, commentary), []model.Issue{issue}
	}
}

// fmvRange estimates fair market value from reach, placeholder performance and
// market-size scores, and the strongest activity, then widens it by ±25%.
func (e *Evaluator) fmvRange(deal *model.DealTerms, followers calculator.Followers) model.Range {
	activityMult, _ := e.tables.MaxActivityMultiplier(deal.Activities)
	fmv := fmvBaseRate *
		(socialMediaScore(followers.Total()) / 50) *
		(performancePlaceholder / 50) *
		(marketSizePlaceholder / 50) *
		activityMult
	return model.Range{Low: fmv * 0.75, High: fmv * 1.25}
}

// socialMediaScore maps total followers to a 40-100 reach score.
func socialMediaScore(total int64) float64 {
	switch {
	case total > 1_000_000:
		return 100
	case total > 500_000:
		return 90
	case total > 100_000:
		return 80
	case total > 50_000:
		return 70
	case total > 10_000:
		return 60
	case total > 1_000:
		return 50
	default:
		return 40
	}
}

func hasDetails(details map[string]any) bool {
	for _, v := range details {
		switch x := v.(type) {
		case nil:
		case string:
			if x != "" {
				return true
			}
		default:
			return true
		}
	}
	return false
}

func activityLabel(t string) string {
	if t == "" {
		return "unspecified"
	}
	return t
}
