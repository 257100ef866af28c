package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Fallbacks when no band matches a composite score.
const (
	StatusUnknown = "Unknown"
	ActionReview  = "Review required"
)

// ScoreBand is a named inclusive score range mapping to a status label and a
// recommended action. Bands may overlap or leave gaps; resolution scans the
// catalog in order and the first match wins.
type ScoreBand struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	MinScore float64 `json:"minScore" yaml:"min_score"`
	MaxScore float64 `json:"maxScore" yaml:"max_score"`
	Action   string  `json:"action" yaml:"action"`
	Color    string  `json:"color" yaml:"color"` // presentation only, derived from Name
}

// Validate checks a band definition before it is saved.
func (b ScoreBand) Validate() error {
	if b.Name == "" {
		return eris.New("band: name is required")
	}
	if b.Action == "" {
		return eris.Errorf("band %q: action is required", b.Name)
	}
	if b.MaxScore < b.MinScore {
		return eris.Errorf("band %q: max score must not be below min score", b.Name)
	}
	return nil
}

// statusColors maps status-name keywords to a display color token, first
// match wins.
var statusColors = []struct {
	color    string
	keywords []string
}{
	{"green", []string{"green", "good", "healthy", "excellent"}},
	{"yellow", []string{"yellow", "warning", "caution", "moderate"}},
	{"red", []string{"red", "critical", "danger", "poor", "bad"}},
	{"gray", []string{"grey", "gray", "neutral", "pending"}},
	{"blue", []string{"blue", "info", "information"}},
	{"purple", []string{"purple", "premium", "special"}},
}

// StatusColor derives a display color token from a status name. Not part of
// the scoring contract.
func StatusColor(name string) string {
	lower := strings.ToLower(name)
	for _, sc := range statusColors {
		for _, kw := range sc.keywords {
			if strings.Contains(lower, kw) {
				return sc.color
			}
		}
	}
	return "slate"
}
