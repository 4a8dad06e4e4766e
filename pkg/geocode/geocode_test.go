package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func kenyaBounds() *geom.Bounds {
	// lon/lat order: X is longitude.
	return geom.NewBounds(geom.XY).Set(33.9, -4.7, 41.9, 5.5)
}

func nominatimServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Equal(t, "ke", r.URL.Query().Get("countrycodes"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNominatimSearch(t *testing.T) {
	srv := nominatimServer(t, `[{
		"lat": "-1.3013",
		"lon": "36.8073",
		"display_name": "Kenyatta National Hospital, Nairobi, Kenya",
		"class": "amenity",
		"type": "hospital",
		"importance": 0.6
	}]`)

	n := NewNominatim(srv.URL, "test-agent", 5*time.Second)
	res, err := n.Search(context.Background(), Query{Address: "Kenyatta National Hospital", County: "Nairobi"})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.InDelta(t, -1.3013, res.Latitude, 0.0001)
	assert.InDelta(t, 36.8073, res.Longitude, 0.0001)
	assert.Equal(t, "exact", res.Accuracy)
	assert.Equal(t, "nominatim", res.Source)
	assert.Greater(t, res.Confidence, 0.8)
}

func TestNominatimSearch_NoResults(t *testing.T) {
	srv := nominatimServer(t, `[]`)

	n := NewNominatim(srv.URL, "test-agent", 5*time.Second)
	res, err := n.Search(context.Background(), Query{Address: "nowhere at all"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestPhotonSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features": [{
			"geometry": {"coordinates": [36.8073, -1.3013]},
			"properties": {"name": "Kenyatta National Hospital", "type": "house", "city": "Nairobi"}
		}]}`))
	}))
	t.Cleanup(srv.Close)

	p := NewPhoton(srv.URL, 5*time.Second)
	res, err := p.Search(context.Background(), Query{Address: "Kenyatta National Hospital"})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.InDelta(t, -1.3013, res.Latitude, 0.0001)
	assert.Equal(t, "exact", res.Accuracy)
	assert.Equal(t, "photon", res.Source)
}

func TestClientFallsBackToSecondProvider(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(failing.Close)

	photon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features": [{
			"geometry": {"coordinates": [36.8, -1.29]},
			"properties": {"name": "Nairobi", "type": "city"}
		}]}`))
	}))
	t.Cleanup(photon.Close)

	c := NewClient(
		WithProviders(
			NewNominatim(failing.URL, "test-agent", time.Second),
			NewPhoton(photon.URL, time.Second),
		),
		WithRateLimit(1000),
		WithBounds(kenyaBounds()),
	)

	res, err := c.Geocode(context.Background(), Query{Address: "Nairobi"})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "photon", res.Source)
}

func TestClientRejectsOutOfBoundsResults(t *testing.T) {
	// Returns coordinates in Europe; must not be accepted for Kenya.
	srv := nominatimServer(t, `[{
		"lat": "48.8566", "lon": "2.3522",
		"display_name": "Paris", "class": "boundary", "type": "city", "importance": 0.9
	}]`)

	c := NewClient(
		WithProviders(NewNominatim(srv.URL, "test-agent", time.Second)),
		WithRateLimit(1000),
		WithBounds(kenyaBounds()),
	)

	res, err := c.Geocode(context.Background(), Query{Address: "Paris"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestClientCachesResults(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`[{
			"lat": "-1.29", "lon": "36.82",
			"display_name": "Nairobi", "class": "boundary", "type": "city", "importance": 0.8
		}]`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(
		WithProviders(NewNominatim(srv.URL, "test-agent", time.Second)),
		WithRateLimit(1000),
		WithBounds(kenyaBounds()),
		WithCache(time.Hour, 100),
	)

	q := Query{Address: "Nairobi CBD", County: "Nairobi"}
	_, err := c.Geocode(context.Background(), q)
	require.NoError(t, err)
	_, err = c.Geocode(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClientWithoutProvidersReturnsUnmatched(t *testing.T) {
	c := NewClient()
	res, err := c.Geocode(context.Background(), Query{Address: "anything"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestCacheExpiry(t *testing.T) {
	cache := newResultCache(10*time.Millisecond, 10)
	cache.put("k", &Result{Matched: true, Latitude: 1})

	got, ok := cache.get("k")
	require.True(t, ok)
	assert.Equal(t, 1.0, got.Latitude)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.get("k")
	assert.False(t, ok)
}

func TestCacheEviction(t *testing.T) {
	cache := newResultCache(time.Hour, 2)
	cache.put("a", &Result{})
	cache.put("b", &Result{})
	cache.put("c", &Result{})
	assert.LessOrEqual(t, len(cache.entries), 2)
}
