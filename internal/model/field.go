package model

import "github.com/rotisserie/eris"

// FieldType is the data type of a custom field.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
	FieldSelect FieldType = "select"
)

// CustomField is a metadata-only descriptor attached to customer records.
// Its values are carried as opaque strings and never enter scoring.
type CustomField struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required" yaml:"required"`
	Options  []string  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Validate checks a field definition before it is saved.
func (f CustomField) Validate() error {
	if f.Name == "" {
		return eris.New("field: name is required")
	}
	switch f.Type {
	case FieldText, FieldNumber, FieldDate, FieldSelect:
	default:
		return eris.Errorf("field %q: unknown type %q", f.Name, f.Type)
	}
	if f.Type == FieldSelect && len(f.Options) == 0 {
		return eris.Errorf("field %q: select fields need at least one option", f.Name)
	}
	return nil
}
