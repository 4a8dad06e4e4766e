package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumadata/facility-cli/internal/model"
)

func apiSource(baseURL string, extra map[string]string) model.DataSource {
	cfg := map[string]string{"baseUrl": baseURL, "endpoint": "/facilities"}
	for k, v := range extra {
		cfg[k] = v
	}
	return model.DataSource{Name: "registry_api", Type: model.SourceAPI, Config: cfg}
}

func TestAPIAdapter_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/facilities", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		assert.Equal(t, "47", r.URL.Query().Get("county_code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name": "API Clinic", "county": "Nairobi"}]`))
	}))
	t.Cleanup(srv.Close)

	a, err := New(apiSource(srv.URL, map[string]string{
		"headers": "Authorization=Bearer token123",
		"params":  "county_code=47",
	}))
	require.NoError(t, err)
	require.True(t, a.Connect(context.Background()))

	records, err := a.Extract(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "API Clinic", records[0].Name)
}

func TestAPIAdapter_RetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"name": "Recovered Clinic", "county": "Busia"}]`))
	}))
	t.Cleanup(srv.Close)

	a, err := New(apiSource(srv.URL, nil))
	require.NoError(t, err)

	records, err := a.Extract(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestAPIAdapter_PermanentErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	a, err := New(apiSource(srv.URL, nil))
	require.NoError(t, err)

	_, err = a.Extract(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAPIAdapter_ConnectFalseOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // connection refused

	a, err := New(apiSource(srv.URL, nil))
	require.NoError(t, err)
	assert.False(t, a.Connect(context.Background()))
}

func TestAPIAdapter_WrappedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"name": "Wrapped API Clinic", "county": "Narok"}]}`))
	}))
	t.Cleanup(srv.Close)

	// "data" is the default array key.
	a, err := New(apiSource(srv.URL, nil))
	require.NoError(t, err)

	records, err := a.Extract(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Wrapped API Clinic", records[0].Name)
}
