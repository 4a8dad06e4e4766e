package model

import "time"

// ProcessingStatus is the lifecycle state of a raw record. Transitions are
// monotonic: pending -> processing -> completed|failed -> archived.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
	StatusArchived   ProcessingStatus = "archived"
)

// RawRecord is the immutable lake copy of an ingested record. The payload is
// never mutated after creation; only Status advances.
type RawRecord struct {
	DataID     string           `json:"data_id"`
	SourceName string           `json:"source_name"`
	Payload    Record           `json:"payload"`
	Checksum   string           `json:"checksum"`
	Status     ProcessingStatus `json:"status"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ValidatedRecord is the one-to-one validation outcome for a canonical
// (post-merge) raw record.
type ValidatedRecord struct {
	DataID       string    `json:"data_id"`
	Payload      Record    `json:"payload"`
	QualityScore float64   `json:"quality_score"`
	IsValid      bool      `json:"is_valid"`
	Errors       []string  `json:"errors,omitempty"`
	Warnings     []string  `json:"warnings,omitempty"`
	RulesApplied []string  `json:"rules_applied,omitempty"`
	ValidatedAt  time.Time `json:"validated_at"`
}

// GeographicData is the geolocation outcome attached to an enriched record.
type GeographicData struct {
	County       string   `json:"county,omitempty"`
	Constituency string   `json:"constituency,omitempty"`
	Ward         string   `json:"ward,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Accuracy     string   `json:"accuracy,omitempty"` // "exact", "street", "locality", "approximate"
	Service      string   `json:"service,omitempty"`  // provider that resolved the coordinates
	Confidence   float64  `json:"confidence"`
}

// EnrichedRecord is the post-enhancement record, one-to-one with a
// ValidatedRecord that passed.
type EnrichedRecord struct {
	DataID              string         `json:"data_id"`
	Payload             Record         `json:"payload"`
	EnhancementsApplied []string       `json:"enhancements_applied,omitempty"`
	Geographic          GeographicData `json:"geographic"`
	FinalQualityScore   float64        `json:"final_quality_score"`
	EnrichedAt          time.Time      `json:"enriched_at"`
}

// MartRecord is the business-ready projection served downstream.
type MartRecord struct {
	DataID          string         `json:"data_id"`
	MartType        string         `json:"mart_type"`
	Payload         Record         `json:"payload"`
	IsServed        bool           `json:"is_served"`
	ServingMetadata map[string]any `json:"serving_metadata,omitempty"`
	BuiltAt         time.Time      `json:"built_at"`
}

// GeographicEnhancement is the audit row written for every enhancement
// attempt, success or failure.
type GeographicEnhancement struct {
	DataID      string    `json:"data_id"`
	Address     string    `json:"address,omitempty"`
	Success     bool      `json:"success"`
	Service     string    `json:"service,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Confidence  float64   `json:"confidence"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}
