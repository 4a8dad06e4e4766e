package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumadata/facility-cli/internal/model"
	"github.com/hudumadata/facility-cli/internal/store"
)

func newServeStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRouter_Health(t *testing.T) {
	srv := httptest.NewServer(newRouter(newServeStore(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_QualityMetrics(t *testing.T) {
	st := newServeStore(t)
	require.NoError(t, st.InsertMetric(context.Background(), model.QualityMetric{
		Type:       model.MetricCompleteness,
		TargetRef:  "mart_records",
		Value:      0.93,
		Threshold:  0.9,
		Passed:     true,
		MeasuredAt: time.Now().UTC(),
	}))

	srv := httptest.NewServer(newRouter(st))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/quality/metrics?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var metrics []model.QualityMetric
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&metrics))
	require.Len(t, metrics, 1)
	assert.Equal(t, model.MetricCompleteness, metrics[0].Type)
}

func TestRouter_Stats(t *testing.T) {
	srv := httptest.NewServer(newRouter(newServeStore(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var counts store.StageCounts
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&counts))
	assert.Zero(t, counts.Raw)
}

func TestRouter_MartRows(t *testing.T) {
	st := newServeStore(t)
	require.NoError(t, st.InsertMart(context.Background(), model.MartRecord{
		DataID:   "src_1_abc",
		MartType: "facilities",
		Payload:  model.Record{Type: model.RecordTypeFacility, Name: "Kitui County Hospital"},
		IsServed: true,
		BuiltAt:  time.Now().UTC(),
	}))

	srv := httptest.NewServer(newRouter(st))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/mart")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rows []model.MartRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "facilities", rows[0].MartType)
}

func TestQueryLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/mart?limit=25", nil)
	assert.Equal(t, 25, queryLimit(req))

	req = httptest.NewRequest(http.MethodGet, "/api/mart", nil)
	assert.Zero(t, queryLimit(req))

	req = httptest.NewRequest(http.MethodGet, "/api/mart?limit=junk", nil)
	assert.Zero(t, queryLimit(req))
}
