// Package model defines the domain types for the health-score platform:
// metric and score-band catalogs, custom fields, customer records, and the
// raw metric value variant the scoring engine consumes.
package model

import "github.com/rotisserie/eris"

// InputType documents how a metric's values arrive. It is provenance
// metadata only and never alters scoring.
type InputType string

const (
	InputManual InputType = "manual"
	InputUpload InputType = "upload"
)

// Metric is a named, weighted scoring dimension. Non-trending metrics are
// normalized against the [LowerBand, UpperBand] range; trending metrics are
// scored by the direction of a 4-point sequence and ignore the band fields.
//
// LowerIsBetter is also ignored on trending metrics: a strictly decreasing
// sequence scores 25 even for metrics where falling values are good (for
// example a ticket count). This mirrors the production behavior and is an
// acknowledged asymmetry, not an oversight.
type Metric struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Weight        float64   `json:"weight" yaml:"weight"`
	InputType     InputType `json:"inputType" yaml:"input_type"`
	LowerBand     float64   `json:"lowerBand" yaml:"lower_band"`
	UpperBand     float64   `json:"upperBand" yaml:"upper_band"`
	LowerIsBetter bool      `json:"lowerIsBetter" yaml:"lower_is_better"`
	UseTrending   bool      `json:"useTrending" yaml:"use_trending"`
}

// Validate checks a metric definition before it is saved. A zero-width band
// would make the normalization formula divide by zero, so non-trending
// metrics must have UpperBand > LowerBand.
func (m Metric) Validate() error {
	if m.Name == "" {
		return eris.New("metric: name is required")
	}
	if m.Weight < 0 {
		return eris.Errorf("metric %q: weight must be non-negative", m.Name)
	}
	switch m.InputType {
	case InputManual, InputUpload:
	default:
		return eris.Errorf("metric %q: input type must be %q or %q", m.Name, InputManual, InputUpload)
	}
	if !m.UseTrending && m.UpperBand <= m.LowerBand {
		return eris.Errorf("metric %q: upper band must exceed lower band", m.Name)
	}
	return nil
}

// TotalWeight sums the weights of a metric catalog. The catalog is expected
// to sum to 100 but this is advisory, never enforced.
func TotalWeight(metrics []Metric) float64 {
	var sum float64
	for _, m := range metrics {
		sum += m.Weight
	}
	return sum
}
