package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricValueDecodesNumberOrArray(t *testing.T) {
	t.Parallel()

	var v MetricValue
	require.NoError(t, json.Unmarshal([]byte(`42.5`), &v))
	assert.Equal(t, ValueScalar, v.Kind())
	assert.Equal(t, 42.5, v.ScalarValue())

	require.NoError(t, json.Unmarshal([]byte(`[15,12,8,5]`), &v))
	assert.Equal(t, ValueTrend, v.Kind())
	assert.Equal(t, [4]float64{15, 12, 8, 5}, v.TrendValues())
}

func TestMetricValueInvalidShapesDecodeAsAbsent(t *testing.T) {
	t.Parallel()

	// Malformed values never abort a load; they score 0 downstream.
	for _, raw := range []string{`"hello"`, `[1,2,3]`, `[1,2,3,4,5]`, `{"a":1}`, `null`, `true`} {
		var v MetricValue
		require.NoError(t, json.Unmarshal([]byte(raw), &v), "input %s", raw)
		assert.Equal(t, ValueAbsent, v.Kind(), "input %s", raw)
	}
}

func TestMetricValueRoundTripInsideCustomer(t *testing.T) {
	t.Parallel()

	c := Customer{
		ID: "1", Name: "Acme Corp",
		MetricValues: map[string]MetricValue{
			"1": Trend([4]float64{15, 12, 8, 5}),
			"2": Scalar(85),
		},
		CustomFields: map[string]string{"1": "Technology"},
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	// Wire format stays number-or-array for the persisted document.
	assert.Contains(t, string(data), `"1":[15,12,8,5]`)
	assert.Contains(t, string(data), `"2":85`)

	var got Customer
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, c.MetricValues, got.MetricValues)
	assert.Equal(t, c.CustomFields, got.CustomFields)
}

func TestStatusColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"Green", "green"},
		{"Very Healthy", "green"},
		{"Yellow", "yellow"},
		{"Caution Zone", "yellow"},
		{"Red", "red"},
		{"Critical", "red"},
		{"Grey", "gray"},
		{"Pending Review", "gray"},
		{"Blue Tier", "blue"},
		{"Premium", "purple"},
		{"Tier 1", "slate"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusColor(tt.name), tt.name)
	}
}

func TestMetricValidate(t *testing.T) {
	t.Parallel()

	valid := Metric{Name: "Adoption", Weight: 20, InputType: InputUpload, LowerBand: 0, UpperBand: 100}
	assert.NoError(t, valid.Validate())

	zeroWidth := valid
	zeroWidth.UpperBand = 0
	assert.Error(t, zeroWidth.Validate(), "zero-width band must be rejected at save time")

	trendingZeroWidth := zeroWidth
	trendingZeroWidth.UseTrending = true
	assert.NoError(t, trendingZeroWidth.Validate(), "trending metrics ignore band fields")

	negWeight := valid
	negWeight.Weight = -1
	assert.Error(t, negWeight.Validate())

	badInput := valid
	badInput.InputType = "carrier-pigeon"
	assert.Error(t, badInput.Validate())
}

func TestBandAndFieldValidate(t *testing.T) {
	t.Parallel()

	band := ScoreBand{Name: "Green", MinScore: 90, MaxScore: 100, Action: "keep going"}
	assert.NoError(t, band.Validate())

	band.MaxScore = 10
	assert.Error(t, band.Validate())

	field := CustomField{Name: "Industry", Type: FieldSelect, Options: []string{"Retail"}}
	assert.NoError(t, field.Validate())

	field.Options = nil
	assert.Error(t, field.Validate())
}

func TestDefaultCatalogWeightsSumTo100(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 100.0, TotalWeight(DefaultMetrics()))
}
