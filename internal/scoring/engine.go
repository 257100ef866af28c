// Package scoring is the health-score engine: it normalizes heterogeneous
// per-metric inputs to a 0-100 scale, aggregates them into a weighted
// composite score, and resolves the composite against the score-band
// catalog. Every function is pure; catalogs are passed in explicitly and
// nothing here performs I/O or holds state.
package scoring

import (
	"math"

	"github.com/sells-group/healthscore/internal/model"
)

// Trend classification scores. A strictly rising sequence is healthiest,
// a strictly falling one is most concerning, a flat one is stable, and
// anything mixed signals uncertainty.
const (
	trendUp    = 100
	trendFlat  = 75
	trendDown  = 25
	trendMixed = 50
)

// Normalize maps one customer's raw value for one metric to a 0-100 health
// number, pre-rounding.
//
// Priority order: a trending metric with a trend value is classified by
// direction; a scalar value (on any metric) is scaled against the band
// range; anything else (absent, wrong shape) scores 0. An absent value on
// a non-trending metric is treated as scalar 0.
func Normalize(m model.Metric, v model.MetricValue) float64 {
	if m.UseTrending && v.Kind() == model.ValueTrend {
		return classifyTrend(v.TrendValues())
	}

	switch v.Kind() {
	case model.ValueScalar:
		return normalizeScalar(m, v.ScalarValue())
	case model.ValueAbsent:
		if !m.UseTrending {
			return normalizeScalar(m, 0)
		}
		return 0
	default:
		// Trend value on a non-trending metric: wrong shape.
		return 0
	}
}

// classifyTrend scores a 4-point sequence (oldest first) by strict pairwise
// comparison. The four cases partition all possible tuples. LowerIsBetter is
// deliberately not consulted here; see the model.Metric doc.
func classifyTrend(p [model.TrendPoints]float64) float64 {
	switch {
	case p[0] < p[1] && p[1] < p[2] && p[2] < p[3]:
		return trendUp
	case p[0] == p[1] && p[1] == p[2] && p[2] == p[3]:
		return trendFlat
	case p[0] > p[1] && p[1] > p[2] && p[2] > p[3]:
		return trendDown
	default:
		return trendMixed
	}
}

// normalizeScalar scales a single reading against the metric's band range
// and clamps to [0, 100]. A zero-width range is rejected at config-save
// time; the guard here keeps records saved before that validation existed
// from producing NaN or Inf.
func normalizeScalar(m model.Metric, value float64) float64 {
	rng := m.UpperBand - m.LowerBand
	if rng == 0 {
		return 0
	}

	var score float64
	if m.LowerIsBetter {
		score = (m.UpperBand - value) / rng * 100
	} else {
		score = (value - m.LowerBand) / rng * 100
	}
	return math.Max(0, math.Min(100, score))
}

// Composite combines all per-metric normalized scores into one 0-100
// integer. Each term is scaled by weight/100 rather than divided by the
// weight total, so the result is a true weighted average only when weights
// sum to exactly 100. That is the documented expectation of the catalog and
// is preserved here verbatim; callers warn when the total drifts.
func Composite(metrics []model.Metric, values map[string]model.MetricValue) int {
	if len(metrics) == 0 {
		return 0
	}

	var totalWeightedScore, totalWeight float64
	for _, m := range metrics {
		normalized := Normalize(m, values[m.ID])
		totalWeightedScore += normalized * (m.Weight / 100)
		totalWeight += m.Weight
	}

	if totalWeight <= 0 {
		return 0
	}
	return int(math.Round(totalWeightedScore))
}

// Resolve maps a composite score onto the band catalog: the first band in
// catalog order whose inclusive [MinScore, MaxScore] range contains the
// score wins. Bands may overlap, so order matters and "first match" must
// not be replaced with any best-match strategy. No match falls back to
// Unknown / Review required.
func Resolve(bands []model.ScoreBand, score int) (status, action string) {
	s := float64(score)
	for _, b := range bands {
		if s >= b.MinScore && s <= b.MaxScore {
			return b.Name, b.Action
		}
	}
	return model.StatusUnknown, model.ActionReview
}

// RecomputeRecord returns a copy of the customer with the three derived
// fields replaced. Everything else is carried through untouched.
func RecomputeRecord(metrics []model.Metric, bands []model.ScoreBand, c model.Customer) model.Customer {
	out := c.Clone()
	out.Score = Composite(metrics, out.MetricValues)
	out.Status, out.Action = Resolve(bands, out.Score)
	return out
}

// RecomputeAll runs a full recomputation pass over every record. Catalog
// changes invalidate every cached score, so bulk operations always
// recompute the whole collection rather than a delta.
func RecomputeAll(metrics []model.Metric, bands []model.ScoreBand, customers []model.Customer) []model.Customer {
	out := make([]model.Customer, len(customers))
	for i, c := range customers {
		out[i] = RecomputeRecord(metrics, bands, c)
	}
	return out
}

// DefaultValue is the back-fill value for a newly added metric: the floored
// midpoint of its band range.
func DefaultValue(m model.Metric) model.MetricValue {
	return model.Scalar(math.Floor((m.LowerBand + m.UpperBand) / 2))
}
