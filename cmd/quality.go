package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/hudumadata/facility-cli/internal/monitoring"
)

var qualityReportLimit int

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Quality monitoring over persisted data",
}

var qualityRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one quality sweep and dispatch alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		collector := monitoring.NewCollector(st, cfg.Monitoring)
		report, err := collector.RunQualityChecks(ctx)
		if err != nil {
			return err
		}

		if err := monitoring.NewAlerter(cfg.Monitoring).Dispatch(ctx, report); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(report), "encode report")
	},
}

var qualityReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print recent quality metrics and processing events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		metrics, err := st.ListMetrics(ctx, qualityReportLimit)
		if err != nil {
			return eris.Wrap(err, "list metrics")
		}
		events, err := st.ListEvents(ctx, qualityReportLimit)
		if err != nil {
			return eris.Wrap(err, "list events")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(map[string]any{
			"metrics": metrics,
			"events":  events,
		}), "encode report")
	},
}

func init() {
	qualityReportCmd.Flags().IntVar(&qualityReportLimit, "limit", 50, "rows per section")
	qualityCmd.AddCommand(qualityRunCmd, qualityReportCmd)
	rootCmd.AddCommand(qualityCmd)
}
