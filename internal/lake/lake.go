// Package lake implements the immutable raw data layer. Every record
// entering the pipeline is checksummed, assigned a data ID, and written
// both to the store and to a blob directory before any downstream
// processing touches it.
package lake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/config"
	"github.com/hudumadata/facility-cli/internal/model"
	"github.com/hudumadata/facility-cli/internal/store"
)

// Lake writes raw records into the immutable layer.
type Lake struct {
	store   store.Store
	dataDir string
	log     *zap.Logger
}

// New creates a Lake. The blob directory is created if missing.
func New(st store.Store, cfg config.LakeConfig) (*Lake, error) {
	if cfg.DataDir == "" {
		return nil, eris.New("lake: data dir not configured")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "lake: create data dir")
	}
	return &Lake{
		store:   st,
		dataDir: cfg.DataDir,
		log:     zap.L().With(zap.String("component", "lake")),
	}, nil
}

// Store persists a record into the raw layer. Returns the stored record
// and whether a new row was created. A record whose payload checksum
// already exists in the lake is not stored again; the existing row is
// returned instead so re-ingesting the same file is a no-op.
func (l *Lake) Store(ctx context.Context, sourceName string, rec model.Record, metadata map[string]any) (*model.RawRecord, bool, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, false, eris.Wrap(err, "lake: marshal payload")
	}
	checksum := Checksum(payload)

	existing, err := l.store.FindRawByChecksum(ctx, checksum)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		l.log.Debug("duplicate payload, skipping store",
			zap.String("data_id", existing.DataID),
			zap.String("checksum", checksum[:8]))
		return existing, false, nil
	}

	raw := model.RawRecord{
		DataID:     DataID(sourceName, checksum),
		SourceName: sourceName,
		Payload:    rec,
		Checksum:   checksum,
		Status:     model.StatusPending,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}

	// Blob first. A stray blob with no row is harmless and removed below;
	// a row with no blob would break downstream reads.
	if err := l.writeBlob(raw.DataID, payload); err != nil {
		return nil, false, err
	}
	stored, created, err := l.store.InsertRaw(ctx, raw)
	if err != nil {
		if rmErr := os.Remove(l.BlobPath(raw.DataID)); rmErr != nil && !os.IsNotExist(rmErr) {
			l.log.Warn("orphan blob cleanup failed",
				zap.String("data_id", raw.DataID), zap.Error(rmErr))
		}
		return nil, false, err
	}
	if created {
		l.log.Debug("stored raw record",
			zap.String("data_id", stored.DataID),
			zap.String("source", sourceName))
	}
	return stored, created, nil
}

// Get retrieves a raw record by its data ID.
func (l *Lake) Get(ctx context.Context, dataID string) (*model.RawRecord, error) {
	return l.store.GetRaw(ctx, dataID)
}

// SetStatus advances a raw record through the processing lifecycle.
func (l *Lake) SetStatus(ctx context.Context, dataID string, status model.ProcessingStatus) error {
	return l.store.UpdateRawStatus(ctx, dataID, status)
}

// Archive marks completed records older than the given number of days as
// archived and returns the count.
func (l *Lake) Archive(ctx context.Context, olderThanDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	n, err := l.store.ArchiveCompleted(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	l.log.Info("archived raw records", zap.Int("count", n), zap.Time("cutoff", cutoff))
	return n, nil
}

// BlobPath returns the filesystem path of a raw record's payload blob.
func (l *Lake) BlobPath(dataID string) string {
	return filepath.Join(l.dataDir, dataID+".json")
}

func (l *Lake) writeBlob(dataID string, payload []byte) error {
	path := l.BlobPath(dataID)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return eris.Wrapf(err, "lake: write blob %s", dataID)
	}
	return nil
}

// Checksum returns the hex SHA-256 of a payload. Map keys are sorted by
// the JSON encoder, so the same logical record always hashes the same.
func Checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// DataID builds a lake identifier of the form {source}_{timestamp}_{hash8}.
func DataID(sourceName, checksum string) string {
	return fmt.Sprintf("%s_%d_%s", sourceName, time.Now().Unix(), checksum[:8])
}
