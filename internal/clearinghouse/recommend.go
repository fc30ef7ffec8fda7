package clearinghouse

import (
	"fmt"

	"DealSentinel/internal/calculator"
	"DealSentinel/internal/model"
)

var informationNeededAdvice = []string{
	"Provide documentation showing the payor's business purpose and its independence from school boosters",
	"Submit a written description of each deliverable with comparable market rates",
}

// recommend derives advisory text from the status and the issues, in the
// order each issue type first appears.
func recommend(r *model.ClearinghouseResult) []string {
	out := []string{}
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	if r.Status == model.StatusInformationNeeded {
		for _, s := range informationNeededAdvice {
			add(s)
		}
	}
	for _, is := range r.Issues {
		add(adviceFor(is, r.FMVRange))
	}
	return out
}

func adviceFor(is model.Issue, fmv *model.Range) string {
	switch is.Type {
	case IssueFMVOverage:
		if fmv == nil {
			return "Consider reducing compensation toward the estimated fair market value"
		}
		return fmt.Sprintf("Consider reducing compensation toward the estimated fair market range of %s-%s",
			calculator.FormatCurrency(fmv.Low), calculator.FormatCurrency(fmv.High))
	case IssueGrantsExclusivity:
		return "Document the scope, duration and category limits of the exclusivity grant"
	case IssueSchoolIP:
		return "Obtain and attach written university approval for any use of school marks or logos"
	case "associated_entity", "possible_associated_entity":
		return "Verify and document that the payor is not an associated entity of the athlete's school"
	case IssueMissingActivities, IssueVagueActivity, IssueMissingActivityDetails:
		return "List each deliverable with specific details such as dates, platforms and quantities"
	default:
		return ""
	}
}
