package model

import "time"

// SubmissionStatus tracks the lifecycle of a data drop.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionProcessed SubmissionStatus = "processed"
	SubmissionError     SubmissionStatus = "error"
)

// Submission records one data drop for a metric: either an uploaded file or
// a manual entry. Submissions are an audit log; they never enter scoring.
type Submission struct {
	ID          string           `json:"id" yaml:"id"`
	MetricID    string           `json:"metricId" yaml:"metric_id"`
	MetricName  string           `json:"metricName" yaml:"metric_name"`
	Month       string           `json:"month" yaml:"month"`
	Year        string           `json:"year" yaml:"year"`
	FileName    string           `json:"fileName" yaml:"file_name"`
	SubmittedAt time.Time        `json:"submittedAt" yaml:"submitted_at"`
	Status      SubmissionStatus `json:"status" yaml:"status"`
}
