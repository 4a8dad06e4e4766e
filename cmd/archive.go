package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/lake"
)

var archiveDays int

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive completed raw records older than a cutoff",
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

		lk, err := lake.New(st, cfg.Lake)
		if err != nil {
			return eris.Wrap(err, "init lake")
		}

		days := archiveDays
		if days == 0 {
			days = cfg.Lake.ArchiveAfterDays
		}

		n, err := lk.Archive(ctx, days)
		if err != nil {
			return err
		}

		zap.L().Info("archive complete",
			zap.Int("records", n), zap.Int("days_old", days))
		return nil
	},
}

func init() {
	archiveCmd.Flags().IntVar(&archiveDays, "days", 0, "minimum age in days (default from config)")
	rootCmd.AddCommand(archiveCmd)
}
