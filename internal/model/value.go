package model

import "encoding/json"

// TrendPoints is the fixed length of a trend sequence: four monthly
// readings, oldest first.
const TrendPoints = 4

// ValueKind discriminates the MetricValue variant.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueScalar
	ValueTrend
)

// MetricValue is the raw input for one metric on one customer: a single
// numeric reading, a TrendPoints-long chronological sequence, or absent.
// The zero value is absent. On the wire a scalar is a bare JSON number and
// a trend is a 4-element array, matching the persisted document format.
type MetricValue struct {
	kind   ValueKind
	scalar float64
	trend  [TrendPoints]float64
}

// Scalar wraps a single reading.
func Scalar(v float64) MetricValue {
	return MetricValue{kind: ValueScalar, scalar: v}
}

// Trend wraps a 4-point sequence, oldest first.
func Trend(points [TrendPoints]float64) MetricValue {
	return MetricValue{kind: ValueTrend, trend: points}
}

// Kind reports which variant the value holds.
func (v MetricValue) Kind() ValueKind { return v.kind }

// ScalarValue returns the reading; only meaningful when Kind is ValueScalar.
func (v MetricValue) ScalarValue() float64 { return v.scalar }

// TrendValues returns the sequence; only meaningful when Kind is ValueTrend.
func (v MetricValue) TrendValues() [TrendPoints]float64 { return v.trend }

// MarshalJSON writes a bare number, a 4-element array, or null.
func (v MetricValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueScalar:
		return json.Marshal(v.scalar)
	case ValueTrend:
		return json.Marshal(v.trend[:])
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a number or an array of exactly TrendPoints numbers.
// Any other shape decodes to the absent variant rather than an error: a
// malformed value scores 0, it never aborts a load.
func (v *MetricValue) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*v = Scalar(scalar)
		return nil
	}

	var seq []float64
	if err := json.Unmarshal(data, &seq); err == nil && len(seq) == TrendPoints {
		var points [TrendPoints]float64
		copy(points[:], seq)
		*v = Trend(points)
		return nil
	}

	*v = MetricValue{}
	return nil
}
