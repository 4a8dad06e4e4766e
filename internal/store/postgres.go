package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/hudumadata/facility-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock
// implements it for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sources (
	name       TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	config     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS raw_records (
	data_id     TEXT PRIMARY KEY,
	source_name TEXT NOT NULL,
	payload     JSONB NOT NULL,
	checksum    TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending',
	metadata    JSONB,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS validated_records (
	data_id       TEXT PRIMARY KEY REFERENCES raw_records(data_id),
	payload       JSONB NOT NULL,
	quality_score DOUBLE PRECISION NOT NULL,
	is_valid      BOOLEAN NOT NULL,
	errors        JSONB,
	warnings      JSONB,
	rules_applied JSONB,
	validated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS enriched_records (
	data_id             TEXT PRIMARY KEY REFERENCES validated_records(data_id),
	payload             JSONB NOT NULL,
	enhancements        JSONB,
	geographic          JSONB NOT NULL,
	final_quality_score DOUBLE PRECISION NOT NULL,
	enriched_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS mart_records (
	data_id          TEXT PRIMARY KEY REFERENCES enriched_records(data_id),
	mart_type        TEXT NOT NULL,
	payload          JSONB NOT NULL,
	is_served        BOOLEAN NOT NULL DEFAULT false,
	serving_metadata JSONB,
	built_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS swarm_records (
	id          TEXT PRIMARY KEY,
	group_id    TEXT NOT NULL,
	data_id     TEXT NOT NULL,
	source_name TEXT,
	similarity  DOUBLE PRECISION NOT NULL,
	strategy    TEXT NOT NULL,
	action      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS geo_enhancements (
	id           TEXT PRIMARY KEY,
	data_id      TEXT NOT NULL,
	address      TEXT,
	success      BOOLEAN NOT NULL,
	service      TEXT,
	latitude     DOUBLE PRECISION,
	longitude    DOUBLE PRECISION,
	confidence   DOUBLE PRECISION NOT NULL,
	error        TEXT,
	attempted_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS quality_metrics (
	id          TEXT PRIMARY KEY,
	metric_type TEXT NOT NULL,
	target_ref  TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	threshold   DOUBLE PRECISION NOT NULL,
	passed      BOOLEAN NOT NULL,
	measured_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS processing_events (
	id            TEXT PRIMARY KEY,
	event_type    TEXT NOT NULL,
	record_id     TEXT,
	source_ref    TEXT,
	success       BOOLEAN NOT NULL,
	error_message TEXT,
	seconds       DOUBLE PRECISION,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_units (
	id           TEXT PRIMARY KEY,
	county       TEXT NOT NULL,
	constituency TEXT NOT NULL,
	ward         TEXT NOT NULL,
	latitude     DOUBLE PRECISION,
	longitude    DOUBLE PRECISION,
	UNIQUE(county, constituency, ward)
);

CREATE INDEX IF NOT EXISTS idx_raw_checksum ON raw_records(checksum);
CREATE INDEX IF NOT EXISTS idx_raw_status ON raw_records(status);
CREATE INDEX IF NOT EXISTS idx_raw_source ON raw_records(source_name);
CREATE INDEX IF NOT EXISTS idx_swarm_group ON swarm_records(group_id);
CREATE INDEX IF NOT EXISTS idx_events_record ON processing_events(record_id);
CREATE INDEX IF NOT EXISTS idx_metrics_type ON quality_metrics(metric_type);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) RegisterSource(ctx context.Context, src model.DataSource) error {
	configJSON, err := json.Marshal(src.Config)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal source config")
	}
	createdAt := src.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sources (name, type, config, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET type = EXCLUDED.type, config = EXCLUDED.config`,
		src.Name, string(src.Type), configJSON, createdAt,
	)
	return eris.Wrapf(err, "postgres: register source %s", src.Name)
}

func (s *PostgresStore) GetSource(ctx context.Context, name string) (*model.DataSource, error) {
	var src model.DataSource
	var configJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT name, type, config, created_at FROM sources WHERE name = $1`, name,
	).Scan(&src.Name, &src.Type, &configJSON, &src.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get source %s", name)
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &src.Config); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal source config")
		}
	}
	return &src, nil
}

func (s *PostgresStore) ListSources(ctx context.Context) ([]model.DataSource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, type, config, created_at FROM sources ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sources")
	}
	defer rows.Close()

	var out []model.DataSource
	for rows.Next() {
		var src model.DataSource
		var configJSON []byte
		if err := rows.Scan(&src.Name, &src.Type, &configJSON, &src.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan source")
		}
		if len(configJSON) > 0 {
			if err := json.Unmarshal(configJSON, &src.Config); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal source config")
			}
		}
		out = append(out, src)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list sources iterate")
}

func (s *PostgresStore) InsertRaw(ctx context.Context, rec model.RawRecord) (*model.RawRecord, bool, error) {
	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: marshal raw payload")
	}
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: marshal raw metadata")
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO raw_records (data_id, source_name, payload, checksum, status, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (data_id) DO NOTHING`,
		rec.DataID, rec.SourceName, payloadJSON, rec.Checksum,
		string(rec.Status), metaJSON, rec.CreatedAt,
	)
	if err != nil {
		return nil, false, eris.Wrapf(err, "postgres: insert raw %s", rec.DataID)
	}
	if tag.RowsAffected() == 0 {
		existing, err := s.GetRaw(ctx, rec.DataID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return &rec, true, nil
}

func (s *PostgresStore) GetRaw(ctx context.Context, dataID string) (*model.RawRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data_id, source_name, payload, checksum, status, metadata, created_at
		 FROM raw_records WHERE data_id = $1`, dataID)
	return scanRawPG(row)
}

func (s *PostgresStore) FindRawByChecksum(ctx context.Context, checksum string) (*model.RawRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data_id, source_name, payload, checksum, status, metadata, created_at
		 FROM raw_records WHERE checksum = $1 ORDER BY created_at LIMIT 1`, checksum)
	return scanRawPG(row)
}

func (s *PostgresStore) UpdateRawStatus(ctx context.Context, dataID string, status model.ProcessingStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE raw_records SET status = $1 WHERE data_id = $2`,
		string(status), dataID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update raw status %s", dataID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("raw record not found: %s", dataID)
	}
	return nil
}

func (s *PostgresStore) ArchiveCompleted(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE raw_records SET status = $1 WHERE status = $2 AND created_at < $3`,
		string(model.StatusArchived), string(model.StatusCompleted), cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: archive completed")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) InsertValidated(ctx context.Context, rec model.ValidatedRecord) error {
	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal validated payload")
	}
	errorsJSON, _ := json.Marshal(rec.Errors)
	warningsJSON, _ := json.Marshal(rec.Warnings)
	rulesJSON, _ := json.Marshal(rec.RulesApplied)

	_, err = s.pool.Exec(ctx,
		`INSERT INTO validated_records (data_id, payload, quality_score, is_valid, errors, warnings, rules_applied, validated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (data_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			quality_score = EXCLUDED.quality_score,
			is_valid = EXCLUDED.is_valid,
			errors = EXCLUDED.errors,
			warnings = EXCLUDED.warnings,
			rules_applied = EXCLUDED.rules_applied,
			validated_at = EXCLUDED.validated_at`,
		rec.DataID, payloadJSON, rec.QualityScore, rec.IsValid,
		errorsJSON, warningsJSON, rulesJSON, rec.ValidatedAt,
	)
	return eris.Wrapf(err, "postgres: insert validated %s", rec.DataID)
}

func (s *PostgresStore) InsertEnriched(ctx context.Context, rec model.EnrichedRecord) error {
	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal enriched payload")
	}
	enhJSON, _ := json.Marshal(rec.EnhancementsApplied)
	geoJSON, err := json.Marshal(rec.Geographic)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal geographic data")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO enriched_records (data_id, payload, enhancements, geographic, final_quality_score, enriched_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (data_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			enhancements = EXCLUDED.enhancements,
			geographic = EXCLUDED.geographic,
			final_quality_score = EXCLUDED.final_quality_score,
			enriched_at = EXCLUDED.enriched_at`,
		rec.DataID, payloadJSON, enhJSON, geoJSON, rec.FinalQualityScore, rec.EnrichedAt,
	)
	return eris.Wrapf(err, "postgres: insert enriched %s", rec.DataID)
}

func (s *PostgresStore) InsertMart(ctx context.Context, rec model.MartRecord) error {
	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal mart payload")
	}
	servingJSON, _ := json.Marshal(rec.ServingMetadata)

	_, err = s.pool.Exec(ctx,
		`INSERT INTO mart_records (data_id, mart_type, payload, is_served, serving_metadata, built_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (data_id) DO UPDATE SET
			mart_type = EXCLUDED.mart_type,
			payload = EXCLUDED.payload,
			is_served = EXCLUDED.is_served,
			serving_metadata = EXCLUDED.serving_metadata,
			built_at = EXCLUDED.built_at`,
		rec.DataID, rec.MartType, payloadJSON, rec.IsServed, servingJSON, rec.BuiltAt,
	)
	return eris.Wrapf(err, "postgres: insert mart %s", rec.DataID)
}

func (s *PostgresStore) InsertSwarmRecords(ctx context.Context, recs []model.SwarmRecord) error {
	for _, r := range recs {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO swarm_records (id, group_id, data_id, source_name, similarity, strategy, action, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New().String(), r.GroupID, r.DataID, r.SourceName,
			r.Similarity, string(r.Strategy), string(r.Action), r.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert swarm record %s", r.DataID)
		}
	}
	return nil
}

func (s *PostgresStore) InsertEnhancement(ctx context.Context, e model.GeographicEnhancement) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO geo_enhancements (id, data_id, address, success, service, latitude, longitude, confidence, error, attempted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.New().String(), e.DataID, e.Address, e.Success, e.Service,
		e.Latitude, e.Longitude, e.Confidence, e.Error, e.AttemptedAt,
	)
	return eris.Wrapf(err, "postgres: insert enhancement %s", e.DataID)
}

func (s *PostgresStore) InsertMetric(ctx context.Context, m model.QualityMetric) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quality_metrics (id, metric_type, target_ref, value, threshold, passed, measured_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), string(m.Type), m.TargetRef, m.Value, m.Threshold, m.Passed, m.MeasuredAt,
	)
	return eris.Wrap(err, "postgres: insert metric")
}

func (s *PostgresStore) AppendEvent(ctx context.Context, ev model.ProcessingEvent) error {
	id := ev.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processing_events (id, event_type, record_id, source_ref, success, error_message, seconds, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, ev.EventType, ev.RecordID, ev.SourceRef, ev.Success, ev.ErrorMessage, ev.Seconds, createdAt,
	)
	return eris.Wrap(err, "postgres: append event")
}

func (s *PostgresStore) ListMart(ctx context.Context, limit int) ([]model.MartRecord, error) {
	if limit <= 0 {
		limit = 10000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT data_id, mart_type, payload, is_served, serving_metadata, built_at
		 FROM mart_records ORDER BY built_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list mart")
	}
	defer rows.Close()

	var out []model.MartRecord
	for rows.Next() {
		var rec model.MartRecord
		var payloadJSON, servingJSON []byte
		if err := rows.Scan(&rec.DataID, &rec.MartType, &payloadJSON, &rec.IsServed, &servingJSON, &rec.BuiltAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan mart")
		}
		if err := json.Unmarshal(payloadJSON, &rec.Payload); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal mart payload")
		}
		if len(servingJSON) > 0 {
			if err := json.Unmarshal(servingJSON, &rec.ServingMetadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal serving metadata")
			}
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list mart iterate")
}

func (s *PostgresStore) StageCounts(ctx context.Context) (*StageCounts, error) {
	var c StageCounts
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM raw_records),
			(SELECT COUNT(*) FROM validated_records),
			(SELECT COUNT(*) FROM enriched_records),
			(SELECT COUNT(*) FROM mart_records),
			(SELECT COUNT(*) FROM mart_records m
			 JOIN enriched_records e ON e.data_id = m.data_id)`,
	).Scan(&c.Raw, &c.Validated, &c.Enriched, &c.Mart, &c.MartLinked)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stage counts")
	}
	return &c, nil
}

func (s *PostgresStore) ListMetrics(ctx context.Context, limit int) ([]model.QualityMetric, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT metric_type, target_ref, value, threshold, passed, measured_at
		 FROM quality_metrics ORDER BY measured_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list metrics")
	}
	defer rows.Close()

	var out []model.QualityMetric
	for rows.Next() {
		var m model.QualityMetric
		if err := rows.Scan(&m.Type, &m.TargetRef, &m.Value, &m.Threshold, &m.Passed, &m.MeasuredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metric")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list metrics iterate")
}

func (s *PostgresStore) ListEvents(ctx context.Context, limit int) ([]model.ProcessingEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_type, record_id, source_ref, success, error_message, seconds, created_at
		 FROM processing_events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var out []model.ProcessingEvent
	for rows.Next() {
		var ev model.ProcessingEvent
		var recordID, sourceRef, errMsg *string
		if err := rows.Scan(&ev.ID, &ev.EventType, &recordID, &sourceRef, &ev.Success, &errMsg, &ev.Seconds, &ev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		if recordID != nil {
			ev.RecordID = *recordID
		}
		if sourceRef != nil {
			ev.SourceRef = *sourceRef
		}
		if errMsg != nil {
			ev.ErrorMessage = *errMsg
		}
		out = append(out, ev)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list events iterate")
}

func (s *PostgresStore) InsertAdminUnits(ctx context.Context, units []model.AdminUnit) (int, error) {
	inserted := 0
	for _, u := range units {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO admin_units (id, county, constituency, ward, latitude, longitude)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (county, constituency, ward) DO NOTHING`,
			uuid.New().String(), u.County, u.Constituency, u.Ward, u.Latitude, u.Longitude,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: insert admin unit %s/%s", u.County, u.Ward)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *PostgresStore) ListAdminUnits(ctx context.Context) ([]model.AdminUnit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT county, constituency, ward, COALESCE(latitude, 0), COALESCE(longitude, 0)
		 FROM admin_units ORDER BY county, constituency, ward`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list admin units")
	}
	defer rows.Close()

	var out []model.AdminUnit
	for rows.Next() {
		var u model.AdminUnit
		if err := rows.Scan(&u.County, &u.Constituency, &u.Ward, &u.Latitude, &u.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan admin unit")
		}
		out = append(out, u)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list admin units iterate")
}

func scanRawPG(row pgx.Row) (*model.RawRecord, error) {
	var rec model.RawRecord
	var payloadJSON, metaJSON []byte

	err := row.Scan(&rec.DataID, &rec.SourceName, &payloadJSON, &rec.Checksum, &rec.Status, &metaJSON, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan raw record")
	}

	if err := json.Unmarshal(payloadJSON, &rec.Payload); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal raw payload")
	}
	if len(metaJSON) > 0 && string(metaJSON) != "null" {
		if err := json.Unmarshal(metaJSON, &rec.Metadata); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal raw metadata")
		}
	}
	return &rec, nil
}
