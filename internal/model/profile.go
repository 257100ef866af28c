package model

import "time"

// FieldMapping links one CSV column to an application field. App fields use
// the column keys the table views use: "customer", "score", "status",
// "action", "metric_<id>", or "custom_<id>".
type FieldMapping struct {
	CSVColumn      string `json:"csvColumn" yaml:"csv_column"`
	AppField       string `json:"appField" yaml:"app_field"`
	Transformation string `json:"transformation,omitempty" yaml:"transformation,omitempty"`
	IsRequired     bool   `json:"isRequired" yaml:"is_required"`
}

// Number formats a profile can declare for its source's cells.
const (
	NumberFormatDecimal = "decimal" // 1,234.56
	NumberFormatComma   = "comma"   // 1.234,56
)

// ProfileSettings holds per-profile parsing options. SkipFirstRow drops one
// extra row after the header, for exports that carry a units row.
type ProfileSettings struct {
	NumberFormat string `json:"numberFormat" yaml:"number_format"`
	SkipFirstRow bool   `json:"skipFirstRow" yaml:"skip_first_row"`
	Delimiter    string `json:"delimiter" yaml:"delimiter"`
}

// DefaultProfileSettings are the options a new profile starts with.
func DefaultProfileSettings() ProfileSettings {
	return ProfileSettings{
		NumberFormat: NumberFormatDecimal,
		Delimiter:    ",",
	}
}

// MappingProfile is a saved, reusable column mapping for a CSV source
// (for example "Intercom" or "StoreHub" exports).
type MappingProfile struct {
	ID            string          `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	Description   string          `json:"description" yaml:"description"`
	Source        string          `json:"source" yaml:"source"`
	CreatedAt     time.Time       `json:"createdAt" yaml:"created_at"`
	LastUsed      time.Time       `json:"lastUsed,omitempty" yaml:"last_used,omitempty"`
	FieldMappings []FieldMapping  `json:"fieldMappings" yaml:"field_mappings"`
	Settings      ProfileSettings `json:"settings" yaml:"settings"`
}
