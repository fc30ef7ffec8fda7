package model

import "fmt"

// Gender as recorded on the athlete profile.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// AthleteProfile is the athlete record the deal is evaluated against.
type AthleteProfile struct {
	InstagramFollowers Number         `json:"instagramFollowers"`
	TiktokFollowers    Number         `json:"tiktokFollowers"`
	TwitterFollowers   Number         `json:"twitterFollowers"`
	University         string         `json:"university,omitempty"`
	Sports             []string       `json:"sports,omitempty"`
	Gender             Gender         `json:"gender,omitempty"`
	PerformanceStats   map[string]any `json:"performanceStats,omitempty"`
}

// Validate checks the enum fields.
func (p *AthleteProfile) Validate() error {
	switch p.Gender {
	case "", GenderMale, GenderFemale, GenderOther:
		return nil
	default:
		return &InvalidInputError{Field: "gender", Value: string(p.Gender), Reason: "must be male, female or other"}
	}
}

func fieldIndex(list string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", list, i, field)
}
