package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/config"
	"github.com/hudumadata/facility-cli/internal/model"
)

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is one under-threshold metric with a remediation hint.
type Alert struct {
	Metric         model.MetricType `json:"metric"`
	Severity       string           `json:"severity"`
	Value          float64          `json:"value"`
	Threshold      float64          `json:"threshold"`
	Recommendation string           `json:"recommendation"`
}

func newAlert(mt model.MetricType, value float64, cfg config.MonitoringConfig) Alert {
	severity := SeverityWarning
	if value < cfg.CriticalThreshold {
		severity = SeverityCritical
	}
	return Alert{
		Metric:         mt,
		Severity:       severity,
		Value:          value,
		Threshold:      cfg.WarningThreshold,
		Recommendation: recommendation(mt),
	}
}

func recommendation(mt model.MetricType) string {
	switch mt {
	case model.MetricCompleteness:
		return "re-ingest sources with richer field coverage or backfill required fields from source archives"
	case model.MetricAccuracy:
		return "review contact normalization rules; malformed emails or phone numbers are passing through cleaning"
	case model.MetricConsistency:
		return "reconcile mart rows against enriched records; orphaned rows indicate a partial batch failure"
	case model.MetricTimeliness:
		return "schedule a refresh for stale sources; records are aging past the trailing window"
	case model.MetricUniqueness:
		return "lower the fuzzy-match threshold or review swarm prevention logs for missed duplicate groups"
	default:
		return "inspect recent processing events for the failing stage"
	}
}

// Alerter delivers sweep alerts to the log and, when configured, a webhook.
type Alerter struct {
	webhookURL string
	client     *http.Client
	log        *zap.Logger
}

// NewAlerter builds an alerter. An empty webhook URL means log-only delivery.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        zap.L().With(zap.String("component", "alerter")),
	}
}

// Dispatch logs every alert and posts the report to the webhook when one is
// configured. A webhook failure is returned but the log delivery always
// happens first.
func (a *Alerter) Dispatch(ctx context.Context, report *Report) error {
	for _, alert := range report.Alerts {
		a.log.Warn("quality alert",
			zap.String("metric", string(alert.Metric)),
			zap.String("severity", alert.Severity),
			zap.Float64("value", alert.Value),
			zap.Float64("threshold", alert.Threshold),
			zap.String("recommendation", alert.Recommendation))
	}

	if a.webhookURL == "" || len(report.Alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "alerter: marshal report")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "alerter: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "alerter: post webhook")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return eris.Wrap(fmt.Errorf("status %d", resp.StatusCode), "alerter: webhook rejected")
	}
	return nil
}
