package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumadata/facility-cli/internal/config"
	"github.com/hudumadata/facility-cli/internal/model"
)

func TestNewAlert_Severity(t *testing.T) {
	cfg := testMonitoringConfig()

	warn := newAlert(model.MetricAccuracy, 0.85, cfg)
	assert.Equal(t, SeverityWarning, warn.Severity)

	crit := newAlert(model.MetricAccuracy, 0.60, cfg)
	assert.Equal(t, SeverityCritical, crit.Severity)
	assert.NotEmpty(t, crit.Recommendation)
}

func TestDispatch_PostsReportToWebhook(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var report Report
		require.NoError(t, json.NewDecoder(r.Body).Decode(&report))
		assert.Len(t, report.Alerts, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	err := a.Dispatch(context.Background(), &Report{
		Overall: 0.7,
		Status:  StatusCritical,
		Alerts: []Alert{
			newAlert(model.MetricCompleteness, 0.7, testMonitoringConfig()),
		},
		GeneratedAt: time.Now().UTC(),
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatch_NoAlertsSkipsWebhook(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	require.NoError(t, a.Dispatch(context.Background(), &Report{Status: StatusGood}))
	assert.Zero(t, calls.Load())
}

func TestDispatch_WebhookRejectionReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	err := a.Dispatch(context.Background(), &Report{
		Alerts: []Alert{newAlert(model.MetricTimeliness, 0.5, testMonitoringConfig())},
	})
	assert.Error(t, err)
}

func TestDispatch_NoWebhookConfigured(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	require.NoError(t, a.Dispatch(context.Background(), &Report{
		Alerts: []Alert{newAlert(model.MetricUniqueness, 0.5, testMonitoringConfig())},
	}))
}
