package model

import "time"

// SourceType identifies which adapter a registered source uses.
type SourceType string

const (
	SourceCSV      SourceType = "csv"
	SourceJSON     SourceType = "json"
	SourceXLSX     SourceType = "xlsx"
	SourceAPI      SourceType = "api"
	SourceDatabase SourceType = "database"
	SourcePDF      SourceType = "pdf"
	SourceDOCX     SourceType = "docx"
	SourceText     SourceType = "text"
)

// DataSource is a registered source descriptor.
type DataSource struct {
	Name      string            `json:"name"`
	Type      SourceType        `json:"type"`
	Config    map[string]string `json:"config,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// BatchResult is the caller-visible outcome of one batch ingestion.
// Success holds exactly when RecordsFailed is zero.
type BatchResult struct {
	Success             bool     `json:"success"`
	SourceName          string   `json:"source_name"`
	RecordsProcessed    int      `json:"records_processed"`
	RecordsSuccessful   int      `json:"records_successful"`
	RecordsFailed       int      `json:"records_failed"`
	DuplicatesPrevented int      `json:"duplicates_prevented"`
	QualityScore        float64  `json:"quality_score"`
	Errors              []string `json:"errors,omitempty"`
	Warnings            []string `json:"warnings,omitempty"`
}
