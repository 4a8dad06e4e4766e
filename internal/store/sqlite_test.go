package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumadata/facility-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRawRecord(dataID, checksum string) model.RawRecord {
	return model.RawRecord{
		DataID:     dataID,
		SourceName: "moh_registry",
		Payload: model.Record{
			Type: model.RecordTypeFacility,
			Name: "Kenyatta National Hospital",
			Location: model.Location{
				County:       "Nairobi",
				Constituency: "Dagoretti North",
			},
		},
		Checksum:  checksum,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// --- Sources ---

func TestSQLite_RegisterAndGetSource(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	src := model.DataSource{
		Name:   "moh_registry",
		Type:   model.SourceCSV,
		Config: map[string]string{"file_path": "/data/moh.csv", "delimiter": ","},
	}
	require.NoError(t, st.RegisterSource(ctx, src))

	got, err := st.GetSource(ctx, "moh_registry")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.SourceCSV, got.Type)
	assert.Equal(t, "/data/moh.csv", got.Config["file_path"])
}

func TestSQLite_GetSource_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetSource(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_RegisterSource_Upsert(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.RegisterSource(ctx, model.DataSource{Name: "s1", Type: model.SourceCSV}))
	require.NoError(t, st.RegisterSource(ctx, model.DataSource{Name: "s1", Type: model.SourceJSON}))

	srcs, err := st.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.Equal(t, model.SourceJSON, srcs[0].Type)
}

// --- Raw records ---

func TestSQLite_InsertRaw_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := testRawRecord("moh_registry_1700000000_abcd1234", "sum1")
	stored, created, err := st.InsertRaw(ctx, rec)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, rec.DataID, stored.DataID)

	got, err := st.GetRaw(ctx, rec.DataID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Kenyatta National Hospital", got.Payload.Name)
	assert.Equal(t, "Nairobi", got.Payload.Location.County)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestSQLite_InsertRaw_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := testRawRecord("dup_id", "sum1")
	_, created, err := st.InsertRaw(ctx, rec)
	require.NoError(t, err)
	assert.True(t, created)

	// Second insert with the same data_id must return the stored row, not duplicate.
	rec2 := rec
	rec2.Payload.Name = "Changed Name"
	stored, created, err := st.InsertRaw(ctx, rec2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Kenyatta National Hospital", stored.Payload.Name)
}

func TestSQLite_FindRawByChecksum(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, _, err := st.InsertRaw(ctx, testRawRecord("id1", "content-sum"))
	require.NoError(t, err)

	got, err := st.FindRawByChecksum(ctx, "content-sum")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "id1", got.DataID)

	missing, err := st.FindRawByChecksum(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_UpdateRawStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, _, err := st.InsertRaw(ctx, testRawRecord("id1", "s"))
	require.NoError(t, err)

	require.NoError(t, st.UpdateRawStatus(ctx, "id1", model.StatusCompleted))
	got, err := st.GetRaw(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	assert.Error(t, st.UpdateRawStatus(ctx, "ghost", model.StatusFailed))
}

func TestSQLite_ArchiveCompleted(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	old := testRawRecord("old_completed", "s1")
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -60)
	old.Status = model.StatusCompleted
	_, _, err := st.InsertRaw(ctx, old)
	require.NoError(t, err)

	oldPending := testRawRecord("old_pending", "s2")
	oldPending.CreatedAt = time.Now().UTC().AddDate(0, 0, -60)
	_, _, err = st.InsertRaw(ctx, oldPending)
	require.NoError(t, err)

	fresh := testRawRecord("fresh_completed", "s3")
	fresh.Status = model.StatusCompleted
	_, _, err = st.InsertRaw(ctx, fresh)
	require.NoError(t, err)

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	n, err := st.ArchiveCompleted(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := st.GetRaw(ctx, "old_completed")
	assert.Equal(t, model.StatusArchived, got.Status)
	got, _ = st.GetRaw(ctx, "old_pending")
	assert.Equal(t, model.StatusPending, got.Status)
	got, _ = st.GetRaw(ctx, "fresh_completed")
	assert.Equal(t, model.StatusCompleted, got.Status)
}

// --- Stage chain ---

func TestSQLite_StageChain_AndCounts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	raw := testRawRecord("chain_id", "s")
	_, _, err := st.InsertRaw(ctx, raw)
	require.NoError(t, err)

	require.NoError(t, st.InsertValidated(ctx, model.ValidatedRecord{
		DataID:       "chain_id",
		Payload:      raw.Payload,
		QualityScore: 0.8,
		IsValid:      true,
		RulesApplied: []string{"schema", "business_rules"},
		ValidatedAt:  now,
	}))
	require.NoError(t, st.InsertEnriched(ctx, model.EnrichedRecord{
		DataID:              "chain_id",
		Payload:             raw.Payload,
		EnhancementsApplied: []string{"geocoding"},
		Geographic:          model.GeographicData{County: "Nairobi", Confidence: 0.7},
		FinalQualityScore:   0.85,
		EnrichedAt:          now,
	}))
	require.NoError(t, st.InsertMart(ctx, model.MartRecord{
		DataID:   "chain_id",
		MartType: "facilities",
		Payload:  raw.Payload,
		IsServed: true,
		BuiltAt:  now,
	}))

	counts, err := st.StageCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Raw)
	assert.Equal(t, 1, counts.Validated)
	assert.Equal(t, 1, counts.Enriched)
	assert.Equal(t, 1, counts.Mart)
	assert.Equal(t, 1, counts.MartLinked)

	marts, err := st.ListMart(ctx, 10)
	require.NoError(t, err)
	require.Len(t, marts, 1)
	assert.Equal(t, "facilities", marts[0].MartType)
	assert.True(t, marts[0].IsServed)
}

// --- Side tables ---

func TestSQLite_SwarmRecordsAndEvents(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.InsertSwarmRecords(ctx, []model.SwarmRecord{
		{GroupID: "g1", DataID: "a", Similarity: 1.0, Strategy: model.MatchExact, Action: model.ActionKeptOriginal, CreatedAt: now},
		{GroupID: "g1", DataID: "b", Similarity: 0.92, Strategy: model.MatchFuzzyName, Action: model.ActionMerged, CreatedAt: now},
	}))

	secs := 0.42
	require.NoError(t, st.AppendEvent(ctx, model.ProcessingEvent{
		EventType: "raw_stored",
		RecordID:  "a",
		SourceRef: "moh_registry",
		Success:   true,
		Seconds:   &secs,
	}))

	events, err := st.ListEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "raw_stored", events[0].EventType)
	require.NotNil(t, events[0].Seconds)
	assert.InDelta(t, 0.42, *events[0].Seconds, 0.001)
}

func TestSQLite_MetricsRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.InsertMetric(ctx, model.QualityMetric{
		Type:       model.MetricCompleteness,
		TargetRef:  "facilities",
		Value:      0.93,
		Threshold:  0.90,
		Passed:     true,
		MeasuredAt: time.Now().UTC(),
	}))

	metrics, err := st.ListMetrics(ctx, 10)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, model.MetricCompleteness, metrics[0].Type)
	assert.InDelta(t, 0.93, metrics[0].Value, 0.001)
	assert.True(t, metrics[0].Passed)
}

func TestSQLite_AdminUnits(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	units := []model.AdminUnit{
		{County: "Nairobi", Constituency: "Westlands", Ward: "Parklands", Latitude: -1.26, Longitude: 36.81},
		{County: "Nairobi", Constituency: "Westlands", Ward: "Kangemi"},
	}
	n, err := st.InsertAdminUnits(ctx, units)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-insert is a no-op on the unique triple.
	n, err = st.InsertAdminUnits(ctx, units[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := st.ListAdminUnits(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
