// Package tables holds the hand-authored lookup data the scoring engine reads:
// school, sport and activity multipliers, conference bonuses, payor categories,
// business-purpose tiers and clearinghouse factor weights. Defaults are embedded; a YAML file with the same
// schema replaces them wholesale.
package tables

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"DealSentinel/internal/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// SchoolFallback applies when a university has no exact table entry.
type SchoolFallback struct {
	Contains   string  `yaml:"contains"`
	Multiplier float64 `yaml:"multiplier"`
	Default    float64 `yaml:"default"`
}

// Conference grants a flat bonus to its member schools.
type Conference struct {
	Name    string   `yaml:"name"`
	Bonus   float64  `yaml:"bonus"`
	Schools []string `yaml:"schools"`
}

// PayorCategory is one entry of the ordered payor-association list.
type PayorCategory struct {
	Name      string         `yaml:"name"`
	Pattern   string         `yaml:"pattern"`
	Score     float64        `yaml:"score"`
	Severity  model.Severity `yaml:"severity"`
	IssueType string         `yaml:"issue_type"`

	re *regexp.Regexp
}

// ActivityTier scores the business purpose of an activity type.
type ActivityTier struct {
	Name     string   `yaml:"name"`
	Score    float64  `yaml:"score"`
	Vague    bool     `yaml:"vague"`
	Fallback bool     `yaml:"fallback"`
	Types    []string `yaml:"types"`
}

// FactorWeights weigh the three clearinghouse factors. They must sum to 1.
type FactorWeights struct {
	PayorAssociation  float64 `yaml:"payor_association"`
	BusinessPurpose   float64 `yaml:"business_purpose"`
	CompensationRange float64 `yaml:"compensation_range"`
}

// Sum returns the total of the three weights.
func (w FactorWeights) Sum() float64 {
	return w.PayorAssociation + w.BusinessPurpose + w.CompensationRange
}

const weightTolerance = 1e-9

// Tables is the parsed, validated lookup data. It is read-only after Load and
// safe for concurrent use.
type Tables struct {
	Schools         map[string]float64 `yaml:"schools"`
	SchoolFallback  SchoolFallback     `yaml:"school_fallback"`
	Sports          map[string]float64 `yaml:"sports"`
	SportUnknown    float64            `yaml:"sport_unknown"`
	Activities      map[string]float64 `yaml:"activities"`
	Conferences     []Conference       `yaml:"conferences"`
	PayorCategories []PayorCategory    `yaml:"payor_categories"`
	BusinessSuffix  string             `yaml:"business_suffix"`
	ActivityTiers   []ActivityTier     `yaml:"activity_tiers"`
	Weights         FactorWeights      `yaml:"clearinghouse_weights"`

	businessRE   *regexp.Regexp
	tierByType   map[string]int
	fallbackTier int
	conference   map[string]int
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the embedded tables.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Parse(defaultsYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded tables: %v", err))
		}
		defaultTables = t
	})
	return defaultTables
}

// Load reads tables from path. An empty path yields the embedded defaults.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("tables %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a tables document.
func Parse(data []byte) (*Tables, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var t Tables
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	if err := t.compile(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tables) compile() error {
	var problems []string

	t.Schools = normalizeKeys(t.Schools)
	t.Sports = normalizeKeys(t.Sports)
	t.Activities = normalizeKeys(t.Activities)
	for _, m := range []map[string]float64{t.Schools, t.Sports, t.Activities} {
		for k, v := range m {
			if v <= 0 {
				problems = append(problems, fmt.Sprintf("multiplier for %q must be positive", k))
			}
		}
	}
	if t.SportUnknown <= 0 {
		problems = append(problems, "sport_unknown must be positive")
	}
	if t.SchoolFallback.Multiplier <= 0 || t.SchoolFallback.Default <= 0 {
		problems = append(problems, "school_fallback multipliers must be positive")
	}
	t.SchoolFallback.Contains = Normalize(t.SchoolFallback.Contains)

	t.conference = make(map[string]int)
	for i, c := range t.Conferences {
		for _, s := range c.Schools {
			key := Normalize(s)
			if _, dup := t.conference[key]; !dup {
				t.conference[key] = i
			}
		}
	}

	if len(t.PayorCategories) == 0 {
		problems = append(problems, "at least one payor category is required")
	}
	for i := range t.PayorCategories {
		pc := &t.PayorCategories[i]
		re, err := regexp.Compile("(?i)" + pc.Pattern)
		if err != nil {
			problems = append(problems, fmt.Sprintf("payor category %q: %v", pc.Name, err))
			continue
		}
		pc.re = re
		switch pc.Severity {
		case model.SeverityLow, model.SeverityMedium, model.SeverityHigh:
		default:
			problems = append(problems, fmt.Sprintf("payor category %q: unknown severity %q", pc.Name, pc.Severity))
		}
	}
	if t.BusinessSuffix != "" {
		re, err := regexp.Compile("(?i)" + t.BusinessSuffix)
		if err != nil {
			problems = append(problems, fmt.Sprintf("business_suffix: %v", err))
		}
		t.businessRE = re
	}

	t.tierByType = make(map[string]int)
	t.fallbackTier = -1
	for i, tier := range t.ActivityTiers {
		if tier.Fallback {
			if t.fallbackTier >= 0 {
				problems = append(problems, "only one activity tier may be the fallback")
			}
			t.fallbackTier = i
		}
		for _, typ := range tier.Types {
			t.tierByType[Normalize(typ)] = i
		}
	}
	if t.fallbackTier < 0 {
		problems = append(problems, "one activity tier must be marked fallback")
	}

	w := t.Weights
	if w.PayorAssociation <= 0 || w.BusinessPurpose <= 0 || w.CompensationRange <= 0 {
		problems = append(problems, "clearinghouse_weights must all be positive")
	} else if math.Abs(w.Sum()-1) > weightTolerance {
		problems = append(problems, fmt.Sprintf("clearinghouse_weights sum to %g, want 1", w.Sum()))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid tables: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SchoolMultiplier returns the school-tier multiplier for university and
// whether it came from an exact table entry.
func (t *Tables) SchoolMultiplier(university string) (float64, bool) {
	key := Normalize(university)
	if key == "" {
		return t.SchoolFallback.Default, false
	}
	if m, ok := t.Schools[key]; ok {
		return m, true
	}
	if t.SchoolFallback.Contains != "" && strings.Contains(key, t.SchoolFallback.Contains) {
		return t.SchoolFallback.Multiplier, false
	}
	return t.SchoolFallback.Default, false
}

// SportMultiplier looks up the first sport only. No sports yields 1.0.
func (t *Tables) SportMultiplier(sports []string) float64 {
	if len(sports) == 0 {
		return 1.0
	}
	if m, ok := t.Sports[Normalize(sports[0])]; ok {
		return m
	}
	return t.SportUnknown
}

// ActivityMultiplier returns the multiplier for one activity type; unknown
// types are 1.0.
func (t *Tables) ActivityMultiplier(activityType string) float64 {
	if m, ok := t.Activities[Normalize(activityType)]; ok {
		return m
	}
	return 1.0
}

// MaxActivityMultiplier returns the highest multiplier across activities, or
// 1.0 when there are none.
func (t *Tables) MaxActivityMultiplier(activities []model.Activity) (float64, string) {
	if len(activities) == 0 {
		return 1.0, ""
	}
	best, bestType := t.ActivityMultiplier(activities[0].ActivityType), activities[0].ActivityType
	for _, a := range activities[1:] {
		if m := t.ActivityMultiplier(a.ActivityType); m > best {
			best, bestType = m, a.ActivityType
		}
	}
	return best, bestType
}

// ConferenceFor returns the conference university belongs to.
func (t *Tables) ConferenceFor(university string) (Conference, bool) {
	i, ok := t.conference[Normalize(university)]
	if !ok {
		return Conference{}, false
	}
	return t.Conferences[i], true
}

// MatchPayor returns the first payor category whose pattern matches name.
func (t *Tables) MatchPayor(name string) (PayorCategory, bool) {
	for _, pc := range t.PayorCategories {
		if pc.re != nil && pc.re.MatchString(name) {
			return pc, true
		}
	}
	return PayorCategory{}, false
}

// IsBusinessName reports whether name carries a business-entity suffix.
func (t *Tables) IsBusinessName(name string) bool {
	return t.businessRE != nil && t.businessRE.MatchString(name)
}

// TierFor returns the business-purpose tier of an activity type.
func (t *Tables) TierFor(activityType string) ActivityTier {
	if i, ok := t.tierByType[Normalize(activityType)]; ok {
		return t.ActivityTiers[i]
	}
	return t.ActivityTiers[t.fallbackTier]
}

// Normalize lowercases, trims and collapses inner whitespace.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func normalizeKeys(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[Normalize(k)] = v
	}
	return out
}
