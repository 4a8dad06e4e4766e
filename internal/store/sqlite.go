package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/hudumadata/facility-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sources (
	name       TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	config     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS raw_records (
	data_id     TEXT PRIMARY KEY,
	source_name TEXT NOT NULL,
	payload     TEXT NOT NULL,
	checksum    TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending',
	metadata    TEXT,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS validated_records (
	data_id       TEXT PRIMARY KEY REFERENCES raw_records(data_id),
	payload       TEXT NOT NULL,
	quality_score REAL NOT NULL,
	is_valid      INTEGER NOT NULL,
	errors        TEXT,
	warnings      TEXT,
	rules_applied TEXT,
	validated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS enriched_records (
	data_id             TEXT PRIMARY KEY REFERENCES validated_records(data_id),
	payload             TEXT NOT NULL,
	enhancements        TEXT,
	geographic          TEXT NOT NULL,
	final_quality_score REAL NOT NULL,
	enriched_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS mart_records (
	data_id          TEXT PRIMARY KEY REFERENCES enriched_records(data_id),
	mart_type        TEXT NOT NULL,
	payload          TEXT NOT NULL,
	is_served        INTEGER NOT NULL DEFAULT 0,
	serving_metadata TEXT,
	built_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS swarm_records (
	id          TEXT PRIMARY KEY,
	group_id    TEXT NOT NULL,
	data_id     TEXT NOT NULL,
	source_name TEXT,
	similarity  REAL NOT NULL,
	strategy    TEXT NOT NULL,
	action      TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS geo_enhancements (
	id           TEXT PRIMARY KEY,
	data_id      TEXT NOT NULL,
	address      TEXT,
	success      INTEGER NOT NULL,
	service      TEXT,
	latitude     REAL,
	longitude    REAL,
	confidence   REAL NOT NULL,
	error        TEXT,
	attempted_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS quality_metrics (
	id          TEXT PRIMARY KEY,
	metric_type TEXT NOT NULL,
	target_ref  TEXT NOT NULL,
	value       REAL NOT NULL,
	threshold   REAL NOT NULL,
	passed      INTEGER NOT NULL,
	measured_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS processing_events (
	id            TEXT PRIMARY KEY,
	event_type    TEXT NOT NULL,
	record_id     TEXT,
	source_ref    TEXT,
	success       INTEGER NOT NULL,
	error_message TEXT,
	seconds       REAL,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_units (
	id           TEXT PRIMARY KEY,
	county       TEXT NOT NULL,
	constituency TEXT NOT NULL,
	ward         TEXT NOT NULL,
	latitude     REAL,
	longitude    REAL,
	UNIQUE(county, constituency, ward)
);

CREATE INDEX IF NOT EXISTS idx_raw_checksum ON raw_records(checksum);
CREATE INDEX IF NOT EXISTS idx_raw_status ON raw_records(status);
CREATE INDEX IF NOT EXISTS idx_raw_source ON raw_records(source_name);
CREATE INDEX IF NOT EXISTS idx_swarm_group ON swarm_records(group_id);
CREATE INDEX IF NOT EXISTS idx_events_record ON processing_events(record_id);
CREATE INDEX IF NOT EXISTS idx_metrics_type ON quality_metrics(metric_type);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RegisterSource(ctx context.Context, src model.DataSource) error {
	configJSON, err := json.Marshal(src.Config)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal source config")
	}
	createdAt := src.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sources (name, type, config, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET type = excluded.type, config = excluded.config`,
		src.Name, string(src.Type), string(configJSON), createdAt,
	)
	return eris.Wrapf(err, "sqlite: register source %s", src.Name)
}

func (s *SQLiteStore) GetSource(ctx context.Context, name string) (*model.DataSource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, type, config, created_at FROM sources WHERE name = ?`, name)

	var src model.DataSource
	var configJSON sql.NullString
	err := row.Scan(&src.Name, &src.Type, &configJSON, &src.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get source %s", name)
	}
	if configJSON.Valid && configJSON.String != "" {
		if err := json.Unmarshal([]byte(configJSON.String), &src.Config); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal source config")
		}
	}
	return &src, nil
}

func (s *SQLiteStore) ListSources(ctx context.Context) ([]model.DataSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, config, created_at FROM sources ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sources")
	}
	defer rows.Close()

	var out []model.DataSource
	for rows.Next() {
		var src model.DataSource
		var configJSON sql.NullString
		if err := rows.Scan(&src.Name, &src.Type, &configJSON, &src.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source")
		}
		if configJSON.Valid && configJSON.String != "" {
			if err := json.Unmarshal([]byte(configJSON.String), &src.Config); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal source config")
			}
		}
		out = append(out, src)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list sources iterate")
}

func (s *SQLiteStore) InsertRaw(ctx context.Context, rec model.RawRecord) (*model.RawRecord, bool, error) {
	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: marshal raw payload")
	}
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: marshal raw metadata")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO raw_records (data_id, source_name, payload, checksum, status, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(data_id) DO NOTHING`,
		rec.DataID, rec.SourceName, string(payloadJSON), rec.Checksum,
		string(rec.Status), string(metaJSON), rec.CreatedAt,
	)
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: insert raw %s", rec.DataID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		existing, err := s.GetRaw(ctx, rec.DataID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return &rec, true, nil
}

func (s *SQLiteStore) GetRaw(ctx context.Context, dataID string) (*model.RawRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data_id, source_name, payload, checksum, status, metadata, created_at
		 FROM raw_records WHERE data_id = ?`, dataID)
	return scanRaw(row)
}

func (s *SQLiteStore) FindRawByChecksum(ctx context.Context, checksum string) (*model.RawRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data_id, source_name, payload, checksum, status, metadata, created_at
		 FROM raw_records WHERE checksum = ? ORDER BY created_at LIMIT 1`, checksum)
	return scanRaw(row)
}

func (s *SQLiteStore) UpdateRawStatus(ctx context.Context, dataID string, status model.ProcessingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE raw_records SET status = ? WHERE data_id = ?`,
		string(status), dataID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update raw status %s", dataID)
	}
	return checkRowsAffected(res, "raw record", dataID)
}

func (s *SQLiteStore) ArchiveCompleted(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE raw_records SET status = ? WHERE status = ? AND created_at < ?`,
		string(model.StatusArchived), string(model.StatusCompleted), cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: archive completed")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) InsertValidated(ctx context.Context, rec model.ValidatedRecord) error {
	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal validated payload")
	}
	errorsJSON, _ := json.Marshal(rec.Errors)
	warningsJSON, _ := json.Marshal(rec.Warnings)
	rulesJSON, _ := json.Marshal(rec.RulesApplied)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO validated_records (data_id, payload, quality_score, is_valid, errors, warnings, rules_applied, validated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(data_id) DO UPDATE SET
			payload = excluded.payload,
			quality_score = excluded.quality_score,
			is_valid = excluded.is_valid,
			errors = excluded.errors,
			warnings = excluded.warnings,
			rules_applied = excluded.rules_applied,
			validated_at = excluded.validated_at`,
		rec.DataID, string(payloadJSON), rec.QualityScore, rec.IsValid,
		string(errorsJSON), string(warningsJSON), string(rulesJSON), rec.ValidatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert validated %s", rec.DataID)
}

func (s *SQLiteStore) InsertEnriched(ctx context.Context, rec model.EnrichedRecord) error {
	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal enriched payload")
	}
	enhJSON, _ := json.Marshal(rec.EnhancementsApplied)
	geoJSON, err := json.Marshal(rec.Geographic)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal geographic data")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enriched_records (data_id, payload, enhancements, geographic, final_quality_score, enriched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(data_id) DO UPDATE SET
			payload = excluded.payload,
			enhancements = excluded.enhancements,
			geographic = excluded.geographic,
			final_quality_score = excluded.final_quality_score,
			enriched_at = excluded.enriched_at`,
		rec.DataID, string(payloadJSON), string(enhJSON), string(geoJSON),
		rec.FinalQualityScore, rec.EnrichedAt,
	)
	return eris.Wrapf(err, "sqlite: insert enriched %s", rec.DataID)
}

func (s *SQLiteStore) InsertMart(ctx context.Context, rec model.MartRecord) error {
	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal mart payload")
	}
	servingJSON, _ := json.Marshal(rec.ServingMetadata)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mart_records (data_id, mart_type, payload, is_served, serving_metadata, built_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(data_id) DO UPDATE SET
			mart_type = excluded.mart_type,
			payload = excluded.payload,
			is_served = excluded.is_served,
			serving_metadata = excluded.serving_metadata,
			built_at = excluded.built_at`,
		rec.DataID, rec.MartType, string(payloadJSON), rec.IsServed,
		string(servingJSON), rec.BuiltAt,
	)
	return eris.Wrapf(err, "sqlite: insert mart %s", rec.DataID)
}

func (s *SQLiteStore) InsertSwarmRecords(ctx context.Context, recs []model.SwarmRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin swarm tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range recs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO swarm_records (id, group_id, data_id, source_name, similarity, strategy, action, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), r.GroupID, r.DataID, r.SourceName,
			r.Similarity, string(r.Strategy), string(r.Action), r.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert swarm record %s", r.DataID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit swarm tx")
}

func (s *SQLiteStore) InsertEnhancement(ctx context.Context, e model.GeographicEnhancement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geo_enhancements (id, data_id, address, success, service, latitude, longitude, confidence, error, attempted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), e.DataID, e.Address, e.Success, e.Service,
		e.Latitude, e.Longitude, e.Confidence, e.Error, e.AttemptedAt,
	)
	return eris.Wrapf(err, "sqlite: insert enhancement %s", e.DataID)
}

func (s *SQLiteStore) InsertMetric(ctx context.Context, m model.QualityMetric) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quality_metrics (id, metric_type, target_ref, value, threshold, passed, measured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), string(m.Type), m.TargetRef, m.Value, m.Threshold, m.Passed, m.MeasuredAt,
	)
	return eris.Wrap(err, "sqlite: insert metric")
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, ev model.ProcessingEvent) error {
	id := ev.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processing_events (id, event_type, record_id, source_ref, success, error_message, seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ev.EventType, ev.RecordID, ev.SourceRef, ev.Success, ev.ErrorMessage, ev.Seconds, createdAt,
	)
	return eris.Wrap(err, "sqlite: append event")
}

func (s *SQLiteStore) ListMart(ctx context.Context, limit int) ([]model.MartRecord, error) {
	if limit <= 0 {
		limit = 10000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT data_id, mart_type, payload, is_served, serving_metadata, built_at
		 FROM mart_records ORDER BY built_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list mart")
	}
	defer rows.Close()

	var out []model.MartRecord
	for rows.Next() {
		var rec model.MartRecord
		var payloadJSON string
		var servingJSON sql.NullString
		if err := rows.Scan(&rec.DataID, &rec.MartType, &payloadJSON, &rec.IsServed, &servingJSON, &rec.BuiltAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan mart")
		}
		if err := json.Unmarshal([]byte(payloadJSON), &rec.Payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal mart payload")
		}
		if servingJSON.Valid && servingJSON.String != "" {
			if err := json.Unmarshal([]byte(servingJSON.String), &rec.ServingMetadata); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal serving metadata")
			}
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list mart iterate")
}

func (s *SQLiteStore) StageCounts(ctx context.Context) (*StageCounts, error) {
	var c StageCounts
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM raw_records),
			(SELECT COUNT(*) FROM validated_records),
			(SELECT COUNT(*) FROM enriched_records),
			(SELECT COUNT(*) FROM mart_records),
			(SELECT COUNT(*) FROM mart_records m
			 JOIN enriched_records e ON e.data_id = m.data_id)`)
	if err := row.Scan(&c.Raw, &c.Validated, &c.Enriched, &c.Mart, &c.MartLinked); err != nil {
		return nil, eris.Wrap(err, "sqlite: stage counts")
	}
	return &c, nil
}

func (s *SQLiteStore) ListMetrics(ctx context.Context, limit int) ([]model.QualityMetric, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT metric_type, target_ref, value, threshold, passed, measured_at
		 FROM quality_metrics ORDER BY measured_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list metrics")
	}
	defer rows.Close()

	var out []model.QualityMetric
	for rows.Next() {
		var m model.QualityMetric
		if err := rows.Scan(&m.Type, &m.TargetRef, &m.Value, &m.Threshold, &m.Passed, &m.MeasuredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metric")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list metrics iterate")
}

func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]model.ProcessingEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, record_id, source_ref, success, error_message, seconds, created_at
		 FROM processing_events ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list events")
	}
	defer rows.Close()

	var out []model.ProcessingEvent
	for rows.Next() {
		var ev model.ProcessingEvent
		var recordID, sourceRef, errMsg sql.NullString
		var seconds sql.NullFloat64
		if err := rows.Scan(&ev.ID, &ev.EventType, &recordID, &sourceRef, &ev.Success, &errMsg, &seconds, &ev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		ev.RecordID = recordID.String
		ev.SourceRef = sourceRef.String
		ev.ErrorMessage = errMsg.String
		if seconds.Valid {
			ev.Seconds = &seconds.Float64
		}
		out = append(out, ev)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list events iterate")
}

func (s *SQLiteStore) InsertAdminUnits(ctx context.Context, units []model.AdminUnit) (int, error) {
	if len(units) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin admin units tx")
	}
	defer tx.Rollback() //nolint:errcheck

	inserted := 0
	for _, u := range units {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO admin_units (id, county, constituency, ward, latitude, longitude)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(county, constituency, ward) DO NOTHING`,
			uuid.New().String(), u.County, u.Constituency, u.Ward, u.Latitude, u.Longitude,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert admin unit %s/%s", u.County, u.Ward)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, eris.Wrap(tx.Commit(), "sqlite: commit admin units tx")
}

func (s *SQLiteStore) ListAdminUnits(ctx context.Context) ([]model.AdminUnit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT county, constituency, ward, COALESCE(latitude, 0), COALESCE(longitude, 0)
		 FROM admin_units ORDER BY county, constituency, ward`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list admin units")
	}
	defer rows.Close()

	var out []model.AdminUnit
	for rows.Next() {
		var u model.AdminUnit
		if err := rows.Scan(&u.County, &u.Constituency, &u.Ward, &u.Latitude, &u.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan admin unit")
		}
		out = append(out, u)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list admin units iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRaw(row scannable) (*model.RawRecord, error) {
	var rec model.RawRecord
	var payloadJSON string
	var metaJSON sql.NullString

	err := row.Scan(&rec.DataID, &rec.SourceName, &payloadJSON, &rec.Checksum, &rec.Status, &metaJSON, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan raw record")
	}

	if err := json.Unmarshal([]byte(payloadJSON), &rec.Payload); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal raw payload")
	}
	if metaJSON.Valid && metaJSON.String != "" && metaJSON.String != "null" {
		if err := json.Unmarshal([]byte(metaJSON.String), &rec.Metadata); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal raw metadata")
		}
	}
	return &rec, nil
}
