package model

// Customer is the per-entity container of raw metric inputs, custom field
// values, and the cached derived score fields.
//
// Score, Status, and Action are a cache: they are always recomputed from
// MetricValues and the current metric/band catalogs, never treated as an
// independent source of truth.
type Customer struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	AccountID string `json:"accountId" yaml:"account_id"`
	Month     string `json:"month" yaml:"month"`
	Year      string `json:"year" yaml:"year"`

	// MetricValues maps metric ID to the raw value for that metric.
	MetricValues map[string]MetricValue `json:"metricValues" yaml:"metric_values"`

	// CustomFields maps custom field ID to an opaque value.
	CustomFields map[string]string `json:"customFields" yaml:"custom_fields"`

	Score  int    `json:"score" yaml:"score"`
	Status string `json:"status" yaml:"status"`
	Action string `json:"action" yaml:"action"`
}

// Clone returns a deep copy so recomputation can stay pure.
func (c Customer) Clone() Customer {
	out := c
	out.MetricValues = make(map[string]MetricValue, len(c.MetricValues))
	for k, v := range c.MetricValues {
		out.MetricValues[k] = v
	}
	out.CustomFields = make(map[string]string, len(c.CustomFields))
	for k, v := range c.CustomFields {
		out.CustomFields[k] = v
	}
	return out
}
