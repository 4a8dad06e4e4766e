// Package store persists every stage of the ingestion pipeline: raw records,
// validation and enrichment outcomes, data marts, and the audit side tables.
package store

import (
	"context"
	"time"

	"github.com/hudumadata/facility-cli/internal/model"
)

// StageCounts holds row counts across the stage tables, used by the quality
// monitor's consistency gate. MartLinked counts mart rows whose data_id has a
// matching enriched row.
type StageCounts struct {
	Raw        int `json:"raw"`
	Validated  int `json:"validated"`
	Enriched   int `json:"enriched"`
	Mart       int `json:"mart"`
	MartLinked int `json:"mart_linked"`
}

// Store defines the persistence interface for the ingestion pipeline.
type Store interface {
	// Sources
	RegisterSource(ctx context.Context, src model.DataSource) error
	GetSource(ctx context.Context, name string) (*model.DataSource, error)
	ListSources(ctx context.Context) ([]model.DataSource, error)

	// Raw data lake records. InsertRaw is idempotent on data_id: when the id
	// already exists the stored row is returned and created is false.
	InsertRaw(ctx context.Context, rec model.RawRecord) (stored *model.RawRecord, created bool, err error)
	GetRaw(ctx context.Context, dataID string) (*model.RawRecord, error)
	FindRawByChecksum(ctx context.Context, checksum string) (*model.RawRecord, error)
	UpdateRawStatus(ctx context.Context, dataID string, status model.ProcessingStatus) error
	ArchiveCompleted(ctx context.Context, cutoff time.Time) (int, error)

	// Stage records
	InsertValidated(ctx context.Context, rec model.ValidatedRecord) error
	InsertEnriched(ctx context.Context, rec model.EnrichedRecord) error
	InsertMart(ctx context.Context, rec model.MartRecord) error

	// Audit side tables
	InsertSwarmRecords(ctx context.Context, recs []model.SwarmRecord) error
	InsertEnhancement(ctx context.Context, e model.GeographicEnhancement) error
	InsertMetric(ctx context.Context, m model.QualityMetric) error
	AppendEvent(ctx context.Context, ev model.ProcessingEvent) error

	// Read models (quality monitor, serve API)
	ListMart(ctx context.Context, limit int) ([]model.MartRecord, error)
	StageCounts(ctx context.Context) (*StageCounts, error)
	ListMetrics(ctx context.Context, limit int) ([]model.QualityMetric, error)
	ListEvents(ctx context.Context, limit int) ([]model.ProcessingEvent, error)

	// Gazetteer
	InsertAdminUnits(ctx context.Context, units []model.AdminUnit) (int, error)
	ListAdminUnits(ctx context.Context) ([]model.AdminUnit, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
