package model

import "time"

// MetricType is one of the five quality gates.
type MetricType string

const (
	MetricCompleteness MetricType = "completeness"
	MetricAccuracy     MetricType = "accuracy"
	MetricConsistency  MetricType = "consistency"
	MetricTimeliness   MetricType = "timeliness"
	MetricUniqueness   MetricType = "uniqueness"
	MetricOverall      MetricType = "overall"
)

// QualityMetric is a timestamped sample of one metric against a record type
// or table.
type QualityMetric struct {
	Type       MetricType `json:"type"`
	TargetRef  string     `json:"target_ref"` // record type or table the sample was taken against
	Value      float64    `json:"value"`
	Threshold  float64    `json:"threshold"`
	Passed     bool       `json:"passed"`
	MeasuredAt time.Time  `json:"measured_at"`
}

// ProcessingEvent is an append-only log entry written at every stage
// transition.
type ProcessingEvent struct {
	ID           string   `json:"id"`
	EventType    string   `json:"event_type"`
	RecordID     string   `json:"record_id,omitempty"`
	SourceRef    string   `json:"source_ref,omitempty"`
	Success      bool     `json:"success"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Seconds      *float64 `json:"processing_time_seconds,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Clamp01 bounds a score to [0,1]. Every quality score in the system passes
// through this before persistence.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
