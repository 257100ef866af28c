package model

import "time"

// AppVersion is written into exported documents.
const AppVersion = "1.0.0"

// Settings is the document metadata block.
type Settings struct {
	AppName   string    `json:"appName" yaml:"app_name"`
	LastSaved time.Time `json:"lastSaved" yaml:"last_saved"`
	Version   string    `json:"version" yaml:"version"`
}

// AppData is the whole application-state document: the unit of export,
// import, and backup. Field names match the persisted JSON format of the
// browser edition so backups round-trip between the two.
type AppData struct {
	Metrics         []Metric         `json:"metrics" yaml:"metrics"`
	ScoreGroups     []ScoreBand      `json:"scoreGroups" yaml:"score_groups"`
	CustomFields    []CustomField    `json:"customFields" yaml:"custom_fields"`
	Merchants       []Customer       `json:"merchants" yaml:"merchants"`
	SelectedColumns []string         `json:"selectedColumns" yaml:"selected_columns"`
	DataSubmissions []Submission     `json:"dataSubmissions" yaml:"data_submissions"`
	MappingProfiles []MappingProfile `json:"mappingProfiles" yaml:"mapping_profiles"`
	Settings        Settings         `json:"settings" yaml:"settings"`
}

// DefaultColumns is the initial table column selection.
func DefaultColumns() []string {
	return []string{"customer", "score", "status", "action"}
}

// DefaultMetrics seeds a fresh installation.
func DefaultMetrics() []Metric {
	return []Metric{
		{ID: "1", Name: "Ticket", Weight: 30, InputType: InputUpload, LowerBand: 0, UpperBand: 24, LowerIsBetter: true, UseTrending: true},
		{ID: "2", Name: "Adoption", Weight: 20, InputType: InputUpload, LowerBand: 0, UpperBand: 100},
		{ID: "3", Name: "GMV", Weight: 25, InputType: InputUpload, LowerBand: 0, UpperBand: 1000000},
		{ID: "4", Name: "Sentiment", Weight: 25, InputType: InputManual, LowerBand: 1, UpperBand: 10},
	}
}

// DefaultScoreBands seeds a fresh installation.
func DefaultScoreBands() []ScoreBand {
	return []ScoreBand{
		{ID: "1", Name: "Green", MinScore: 90, MaxScore: 100, Action: "Excellent performance - continue current strategy", Color: "green"},
		{ID: "2", Name: "Yellow", MinScore: 70, MaxScore: 89, Action: "Good performance - monitor closely and follow-up within 7 days", Color: "yellow"},
		{ID: "3", Name: "Red", MinScore: 0, MaxScore: 69, Action: "Poor performance - urgent escalation and intervention within 24 hours", Color: "red"},
		{ID: "4", Name: "Grey", MinScore: 0, MaxScore: 0, Action: "Neutral status - awaiting data or assessment", Color: "gray"},
	}
}

// DefaultCustomFields seeds a fresh installation.
func DefaultCustomFields() []CustomField {
	return []CustomField{
		{ID: "1", Name: "Industry", Type: FieldSelect, Required: true, Options: []string{"Retail", "Healthcare", "Finance", "Technology"}},
		{ID: "2", Name: "Contract Value", Type: FieldNumber},
		{ID: "3", Name: "Start Date", Type: FieldDate, Required: true},
	}
}
