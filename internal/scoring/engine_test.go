package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/healthscore/internal/model"
)

func scalarMetric(lower, upper float64, lowerIsBetter bool) model.Metric {
	return model.Metric{
		ID: "m1", Name: "Test", Weight: 100, InputType: model.InputManual,
		LowerBand: lower, UpperBand: upper, LowerIsBetter: lowerIsBetter,
	}
}

func trendMetric() model.Metric {
	return model.Metric{
		ID: "t1", Name: "Ticket", Weight: 100, InputType: model.InputUpload,
		LowerBand: 0, UpperBand: 24, LowerIsBetter: true, UseTrending: true,
	}
}

func TestNormalizeScalar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		metric model.Metric
		value  model.MetricValue
		want   float64
	}{
		{"higher is better midpoint", scalarMetric(0, 100, false), model.Scalar(50), 50},
		{"higher is better at lower band", scalarMetric(0, 100, false), model.Scalar(0), 0},
		{"higher is better at upper band", scalarMetric(0, 100, false), model.Scalar(100), 100},
		{"clamped below", scalarMetric(0, 100, false), model.Scalar(-20), 0},
		{"clamped above", scalarMetric(0, 100, false), model.Scalar(250), 100},
		{"lower is better at lower band", scalarMetric(0, 100, true), model.Scalar(0), 100},
		{"lower is better at upper band", scalarMetric(0, 100, true), model.Scalar(100), 0},
		{"nonzero lower band", scalarMetric(1, 10, false), model.Scalar(5.5), 50},
		{"absent treated as zero", scalarMetric(0, 100, false), model.MetricValue{}, 0},
		{"absent zero scores high when lower is better", scalarMetric(0, 100, true), model.MetricValue{}, 100},
		{"trend shape on scalar metric is invalid", scalarMetric(0, 100, false), model.Trend([4]float64{1, 2, 3, 4}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Normalize(tt.metric, tt.value), 1e-9)
		})
	}
}

func TestNormalizeScalarTicketScenario(t *testing.T) {
	t.Parallel()

	// Ticket-style metric: band 0-24, lower is better, value 5.
	m := scalarMetric(0, 24, true)
	got := Normalize(m, model.Scalar(5))
	assert.InDelta(t, (24.0-5.0)/24.0*100, got, 1e-9)
	assert.InDelta(t, 79.17, got, 0.01)
}

func TestNormalizeZeroWidthBandGuard(t *testing.T) {
	t.Parallel()

	m := scalarMetric(50, 50, false)
	got := Normalize(m, model.Scalar(50))
	assert.Equal(t, 0.0, got)
	assert.False(t, got != got, "must not be NaN")
}

func TestNormalizeTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		points [4]float64
		want   float64
	}{
		{"strictly increasing", [4]float64{1, 2, 3, 4}, 100},
		{"all equal", [4]float64{10, 10, 10, 10}, 75},
		{"strictly decreasing", [4]float64{15, 12, 8, 5}, 25},
		{"mixed direction", [4]float64{1, 3, 2, 4}, 50},
		{"partial tie up", [4]float64{1, 1, 2, 3}, 50},
		{"partial tie down", [4]float64{5, 5, 4, 3}, 50},
		{"v shape", [4]float64{4, 2, 2, 6}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(trendMetric(), model.Trend(tt.points)))
		})
	}
}

func TestTrendIgnoresLowerIsBetter(t *testing.T) {
	t.Parallel()

	// A declining ticket count is actually good, but the trend path scores
	// direction only. The documented asymmetry must be preserved.
	m := trendMetric()
	require.True(t, m.LowerIsBetter)
	assert.Equal(t, 25.0, Normalize(m, model.Trend([4]float64{15, 12, 8, 5})))

	m.LowerIsBetter = false
	assert.Equal(t, 25.0, Normalize(m, model.Trend([4]float64{15, 12, 8, 5})))
}

func TestTrendMetricWithScalarTakesScalarPath(t *testing.T) {
	t.Parallel()

	// Trending metric given a plain number falls through to band scaling.
	m := trendMetric() // band 0-24, lower is better
	assert.InDelta(t, (24.0-6.0)/24.0*100, Normalize(m, model.Scalar(6)), 1e-9)

	// And an absent value on a trending metric is invalid, not scalar 0.
	assert.Equal(t, 0.0, Normalize(m, model.MetricValue{}))
}

func TestTrendClassificationIsExhaustive(t *testing.T) {
	t.Parallel()

	// Every 4-tuple lands in exactly one of the four classes.
	vals := []float64{-1, 0, 1, 2}
	for _, a := range vals {
		for _, b := range vals {
			for _, c := range vals {
				for _, d := range vals {
					got := classifyTrend([4]float64{a, b, c, d})
					assert.Contains(t, []float64{100, 75, 50, 25}, got)
				}
			}
		}
	}
}

func TestNormalizeMonotonicity(t *testing.T) {
	t.Parallel()

	up := scalarMetric(10, 90, false)
	down := scalarMetric(10, 90, true)

	prevUp, prevDown := -1.0, 101.0
	for v := 0.0; v <= 100; v += 2.5 {
		su := Normalize(up, model.Scalar(v))
		sd := Normalize(down, model.Scalar(v))
		assert.GreaterOrEqual(t, su, prevUp, "higher-is-better must be non-decreasing at %v", v)
		assert.LessOrEqual(t, sd, prevDown, "lower-is-better must be non-increasing at %v", v)
		prevUp, prevDown = su, sd
	}

	assert.Equal(t, 0.0, Normalize(up, model.Scalar(10)))
	assert.Equal(t, 100.0, Normalize(up, model.Scalar(90)))
	assert.Equal(t, 100.0, Normalize(down, model.Scalar(10)))
	assert.Equal(t, 0.0, Normalize(down, model.Scalar(90)))
}

func TestComposite(t *testing.T) {
	t.Parallel()

	t.Run("no metrics", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 0, Composite(nil, nil))
	})

	t.Run("single metric full weight equals its normalized score", func(t *testing.T) {
		t.Parallel()
		m := scalarMetric(0, 100, false)
		values := map[string]model.MetricValue{"m1": model.Scalar(83)}
		assert.Equal(t, 83, Composite([]model.Metric{m}, values))
	})

	t.Run("two metrics weighted 30 and 70", func(t *testing.T) {
		t.Parallel()
		m1 := scalarMetric(0, 100, false)
		m1.ID, m1.Weight = "a", 30
		m2 := scalarMetric(0, 100, false)
		m2.ID, m2.Weight = "b", 70
		values := map[string]model.MetricValue{
			"a": model.Scalar(80),
			"b": model.Scalar(50),
		}
		// round(80*0.3 + 50*0.7) = round(24 + 35) = 59
		assert.Equal(t, 59, Composite([]model.Metric{m1, m2}, values))
	})

	t.Run("weights not summing to 100 are not renormalized", func(t *testing.T) {
		t.Parallel()
		m := scalarMetric(0, 100, false)
		m.Weight = 50
		values := map[string]model.MetricValue{"m1": model.Scalar(100)}
		// 100 * 50/100 = 50, not rescaled back up to 100.
		assert.Equal(t, 50, Composite([]model.Metric{m}, values))
	})

	t.Run("zero total weight", func(t *testing.T) {
		t.Parallel()
		m := scalarMetric(0, 100, false)
		m.Weight = 0
		values := map[string]model.MetricValue{"m1": model.Scalar(100)}
		assert.Equal(t, 0, Composite([]model.Metric{m}, values))
	})

	t.Run("missing value scores as zero input", func(t *testing.T) {
		t.Parallel()
		m := scalarMetric(0, 100, false)
		assert.Equal(t, 0, Composite([]model.Metric{m}, map[string]model.MetricValue{}))
	})
}

func TestResolve(t *testing.T) {
	t.Parallel()

	bands := []model.ScoreBand{
		{ID: "1", Name: "Green", MinScore: 90, MaxScore: 100, Action: "keep going"},
		{ID: "2", Name: "Yellow", MinScore: 70, MaxScore: 89, Action: "follow up"},
		{ID: "3", Name: "Red", MinScore: 0, MaxScore: 69, Action: "escalate"},
	}

	tests := []struct {
		score      int
		wantStatus string
		wantAction string
	}{
		{100, "Green", "keep going"},
		{90, "Green", "keep going"},
		{89, "Yellow", "follow up"},
		{70, "Yellow", "follow up"},
		{69, "Red", "escalate"},
		{59, "Red", "escalate"},
		{0, "Red", "escalate"},
	}

	for _, tt := range tests {
		status, action := Resolve(bands, tt.score)
		assert.Equal(t, tt.wantStatus, status, "score %d", tt.score)
		assert.Equal(t, tt.wantAction, action, "score %d", tt.score)
	}
}

func TestResolveFirstMatchWinsOnOverlap(t *testing.T) {
	t.Parallel()

	bands := []model.ScoreBand{
		{ID: "1", Name: "A", MinScore: 0, MaxScore: 100, Action: "a"},
		{ID: "2", Name: "B", MinScore: 50, MaxScore: 100, Action: "b"},
	}
	status, _ := Resolve(bands, 60)
	assert.Equal(t, "A", status)
}

func TestResolveNoMatch(t *testing.T) {
	t.Parallel()

	bands := []model.ScoreBand{
		{ID: "1", Name: "Green", MinScore: 90, MaxScore: 100, Action: "keep going"},
	}
	status, action := Resolve(bands, 42)
	assert.Equal(t, model.StatusUnknown, status)
	assert.Equal(t, model.ActionReview, action)

	status, action = Resolve(nil, 42)
	assert.Equal(t, model.StatusUnknown, status)
	assert.Equal(t, model.ActionReview, action)
}

func TestRecomputeRecord(t *testing.T) {
	t.Parallel()

	metrics := model.DefaultMetrics()
	bands := model.DefaultScoreBands()

	c := model.Customer{
		ID: "c1", Name: "Acme Corp", AccountID: "ACC001",
		MetricValues: map[string]model.MetricValue{
			"1": model.Trend([4]float64{15, 12, 8, 5}), // ticket trend, falling -> 25
			"2": model.Scalar(85),                      // adoption -> 85
			"3": model.Scalar(150000),                  // GMV -> 15
			"4": model.Scalar(8),                       // sentiment 1-10 -> 77.78
		},
		Score: 999, Status: "stale", Action: "stale",
	}

	got := RecomputeRecord(metrics, bands, c)

	// 25*0.30 + 85*0.20 + 15*0.25 + 77.78*0.25 = 7.5 + 17 + 3.75 + 19.44 = 47.69
	assert.Equal(t, 48, got.Score)
	assert.Equal(t, "Red", got.Status)
	assert.Equal(t, bands[2].Action, got.Action)

	// Input record untouched, raw values carried through.
	assert.Equal(t, 999, c.Score)
	assert.Equal(t, c.MetricValues["2"], got.MetricValues["2"])

	// Idempotent on unchanged inputs.
	again := RecomputeRecord(metrics, bands, got)
	assert.Equal(t, got.Score, again.Score)
	assert.Equal(t, got.Status, again.Status)
	assert.Equal(t, got.Action, again.Action)
}

func TestRecomputeAll(t *testing.T) {
	t.Parallel()

	metrics := []model.Metric{scalarMetric(0, 100, false)}
	bands := []model.ScoreBand{{Name: "All", MinScore: 0, MaxScore: 100, Action: "ok"}}

	customers := []model.Customer{
		{ID: "a", MetricValues: map[string]model.MetricValue{"m1": model.Scalar(10)}},
		{ID: "b", MetricValues: map[string]model.MetricValue{"m1": model.Scalar(90)}},
	}

	got := RecomputeAll(metrics, bands, customers)
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].Score)
	assert.Equal(t, 90, got[1].Score)
	assert.Equal(t, "All", got[0].Status)
}

func TestDefaultValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.Scalar(50), DefaultValue(scalarMetric(0, 100, false)))
	assert.Equal(t, model.Scalar(5), DefaultValue(scalarMetric(1, 10, false)))
	assert.Equal(t, model.Scalar(12), DefaultValue(scalarMetric(0, 24, true)))
}
