// Package source implements the ingestion adapters. Each adapter reads
// one kind of source (CSV, JSON, XLSX, API, database, PDF, DOCX, plain
// text) and produces uniform records, skipping malformed rows rather
// than aborting the extraction.
package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/hudumadata/facility-cli/internal/model"
)

// Adapter is the capability set every source variant implements.
type Adapter interface {
	// Name returns the registered source name.
	Name() string

	// Connect is a reachability check with no side effects beyond
	// opening and closing a handle. It never returns an error; all
	// failures report false.
	Connect(ctx context.Context) bool

	// Extract reads up to limit records (0 means all). A malformed
	// record is skipped with a logged reason, never an abort.
	Extract(ctx context.Context, limit int) ([]model.Record, error)

	// Schema returns a descriptive mapping of the source used only
	// for diagnostics.
	Schema(ctx context.Context) (map[string]any, error)
}

// New builds the adapter for a registered source descriptor.
func New(src model.DataSource) (Adapter, error) {
	switch src.Type {
	case model.SourceCSV:
		return newCSVAdapter(src), nil
	case model.SourceJSON:
		return newJSONAdapter(src), nil
	case model.SourceXLSX:
		return newXLSXAdapter(src), nil
	case model.SourceAPI:
		return newAPIAdapter(src), nil
	case model.SourceDatabase:
		return newDatabaseAdapter(src), nil
	case model.SourcePDF:
		return newPDFAdapter(src), nil
	case model.SourceDOCX:
		return newDOCXAdapter(src), nil
	case model.SourceText:
		return newTextAdapter(src), nil
	default:
		return nil, eris.Errorf("source: unknown source type %q", src.Type)
	}
}

// configValue reads a config key with a fallback.
func configValue(src model.DataSource, key, fallback string) string {
	if v, ok := src.Config[key]; ok && v != "" {
		return v
	}
	return fallback
}
