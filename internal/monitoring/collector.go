// Package monitoring runs the standalone quality sweep: five metrics
// computed directly against persisted data, banded into an overall status,
// with per-metric alerts for anything under threshold.
package monitoring

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/config"
	"github.com/hudumadata/facility-cli/internal/dedupe"
	"github.com/hudumadata/facility-cli/internal/model"
	"github.com/hudumadata/facility-cli/internal/store"
)

// Status bands for the overall score.
const (
	StatusExcellent = "excellent"
	StatusGood      = "good"
	StatusWarning   = "warning"
	StatusCritical  = "critical"
)

// Report is the outcome of one quality sweep.
type Report struct {
	Metrics     []model.QualityMetric `json:"metrics"`
	Overall     float64               `json:"overall"`
	Status      string                `json:"status"`
	Alerts      []Alert               `json:"alerts,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// Collector computes quality metrics over the persisted stage tables.
type Collector struct {
	st  store.Store
	cfg config.MonitoringConfig
	log *zap.Logger
}

// NewCollector builds a collector bound to one store.
func NewCollector(st store.Store, cfg config.MonitoringConfig) *Collector {
	return &Collector{
		st:  st,
		cfg: cfg,
		log: zap.L().With(zap.String("component", "monitoring")),
	}
}

var monitorEmailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RunQualityChecks computes the five metrics plus the overall score, raises
// alerts for anything under threshold, and persists the samples along with
// one summary event.
func (c *Collector) RunQualityChecks(ctx context.Context) (*Report, error) {
	rows, err := c.st.ListMart(ctx, 0)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list mart")
	}
	counts, err := c.st.StageCounts(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: stage counts")
	}

	now := time.Now().UTC()
	values := map[model.MetricType]float64{
		model.MetricCompleteness: completeness(rows),
		model.MetricAccuracy:     accuracy(rows),
		model.MetricConsistency:  consistency(counts),
		model.MetricTimeliness:   timeliness(rows, now, c.cfg.TimelinessDays),
		model.MetricUniqueness:   uniqueness(rows),
	}

	report := &Report{GeneratedAt: now}
	var sum float64
	for _, mt := range []model.MetricType{
		model.MetricCompleteness, model.MetricAccuracy, model.MetricConsistency,
		model.MetricTimeliness, model.MetricUniqueness,
	} {
		v := model.Clamp01(values[mt])
		sum += v
		report.Metrics = append(report.Metrics, model.QualityMetric{
			Type:       mt,
			TargetRef:  "mart_records",
			Value:      v,
			Threshold:  c.cfg.WarningThreshold,
			Passed:     v >= c.cfg.WarningThreshold,
			MeasuredAt: now,
		})
		if v < c.cfg.WarningThreshold {
			report.Alerts = append(report.Alerts, newAlert(mt, v, c.cfg))
		}
	}
	report.Overall = sum / 5
	report.Status = band(report.Overall, c.cfg)

	if err := c.persist(ctx, report); err != nil {
		return nil, err
	}

	c.log.Info("quality sweep complete",
		zap.Float64("overall", report.Overall),
		zap.String("status", report.Status),
		zap.Int("alerts", len(report.Alerts)))

	return report, nil
}

func (c *Collector) persist(ctx context.Context, report *Report) error {
	for _, m := range report.Metrics {
		if err := c.st.InsertMetric(ctx, m); err != nil {
			return eris.Wrap(err, "monitoring: persist metric")
		}
	}
	overall := model.QualityMetric{
		Type:       model.MetricOverall,
		TargetRef:  "mart_records",
		Value:      report.Overall,
		Threshold:  c.cfg.CriticalThreshold,
		Passed:     report.Overall >= c.cfg.CriticalThreshold,
		MeasuredAt: report.GeneratedAt,
	}
	if err := c.st.InsertMetric(ctx, overall); err != nil {
		return eris.Wrap(err, "monitoring: persist overall metric")
	}

	summary := make([]string, 0, len(report.Alerts))
	for _, a := range report.Alerts {
		summary = append(summary, string(a.Metric))
	}
	return eris.Wrap(c.st.AppendEvent(ctx, model.ProcessingEvent{
		EventType:    "quality_checks_completed",
		SourceRef:    report.Status,
		Success:      report.Status != StatusCritical,
		ErrorMessage: strings.Join(summary, ","),
	}), "monitoring: persist event")
}

// band maps an overall score to its status.
func band(overall float64, cfg config.MonitoringConfig) string {
	switch {
	case overall >= 0.95:
		return StatusExcellent
	case overall >= cfg.WarningThreshold:
		return StatusGood
	case overall >= cfg.CriticalThreshold:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// completeness is the required-field fill ratio over served records.
func completeness(rows []model.MartRecord) float64 {
	if len(rows) == 0 {
		return 1.0
	}
	var filled, total int
	for _, row := range rows {
		total += 2
		if strings.TrimSpace(row.Payload.Name) != "" {
			filled++
		}
		if strings.TrimSpace(row.Payload.Location.County) != "" {
			filled++
		}
	}
	return float64(filled) / float64(total)
}

// accuracy is the regex-conformance ratio over contact values. Records
// without contacts contribute nothing either way.
func accuracy(rows []model.MartRecord) float64 {
	var conforming, total int
	for _, row := range rows {
		for _, c := range row.Payload.Contacts {
			switch c.Type {
			case "email":
				total++
				if monitorEmailRe.MatchString(c.Value) {
					conforming++
				}
			case "phone":
				total++
				if phoneDigits(c.Value) >= 9 && phoneDigits(c.Value) <= 15 {
					conforming++
				}
			}
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(conforming) / float64(total)
}

// consistency is the referential-integrity ratio: mart rows whose data id
// resolves to an enriched row.
func consistency(counts *store.StageCounts) float64 {
	if counts.Mart == 0 {
		return 1.0
	}
	return float64(counts.MartLinked) / float64(counts.Mart)
}

// timeliness is the fraction of rows built within the trailing window.
func timeliness(rows []model.MartRecord, now time.Time, windowDays int) float64 {
	if len(rows) == 0 {
		return 1.0
	}
	cutoff := now.AddDate(0, 0, -windowDays)
	fresh := 0
	for _, row := range rows {
		if row.BuiltAt.After(cutoff) {
			fresh++
		}
	}
	return float64(fresh) / float64(len(rows))
}

// uniqueness is the distinct-normalized-name ratio.
func uniqueness(rows []model.MartRecord) float64 {
	if len(rows) == 0 {
		return 1.0
	}
	names := make(map[string]bool, len(rows))
	for _, row := range rows {
		names[dedupe.NormalizeName(row.Payload.Name)] = true
	}
	return float64(len(names)) / float64(len(rows))
}

func phoneDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
