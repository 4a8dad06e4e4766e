package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/gazetteer"
)

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Gazetteer maintenance",
}

var geoLoadWardsCmd = &cobra.Command{
	Use:   "loadwards <shapefile>",
	Short: "Load ward boundaries from a shapefile into the gazetteer",
	Args:  cobra.ExactArgs(1),
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

		n, err := gazetteer.ImportWards(ctx, st, args[0])
		if err != nil {
			return err
		}

		zap.L().Info("wards loaded",
			zap.String("shapefile", args[0]), zap.Int("wards", n))
		return nil
	},
}

func init() {
	geoCmd.AddCommand(geoLoadWardsCmd)
	rootCmd.AddCommand(geoCmd)
}
