package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/config"
)

// Checker runs the quality sweep on a fixed interval until its context is
// cancelled.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	interval  time.Duration
	log       *zap.Logger
}

// NewChecker wires the periodic sweep.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	interval := time.Duration(cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	return &Checker{
		collector: collector,
		alerter:   alerter,
		interval:  interval,
		log:       zap.L().With(zap.String("component", "checker")),
	}
}

// Run sweeps immediately, then on every tick. A failed sweep is logged and
// the loop keeps going; only context cancellation stops it.
func (c *Checker) Run(ctx context.Context) error {
	c.sweep(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Checker) sweep(ctx context.Context) {
	report, err := c.collector.RunQualityChecks(ctx)
	if err != nil {
		c.log.Error("quality sweep failed", zap.Error(err))
		return
	}
	if err := c.alerter.Dispatch(ctx, report); err != nil {
		c.log.Warn("alert dispatch failed", zap.Error(err))
	}
}
