package main

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/model"
	"github.com/hudumadata/facility-cli/internal/source"
)

var (
	sourceType   string
	sourceConfig []string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage registered data sources",
}

var sourcesRegisterCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register a data source descriptor",
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

		configMap := make(map[string]string, len(sourceConfig))
		for _, kv := range sourceConfig {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return eris.Errorf("bad config entry %q, want key=value", kv)
			}
			configMap[k] = v
		}

		src := model.DataSource{
			Name:      args[0],
			Type:      model.SourceType(sourceType),
			Config:    configMap,
			CreatedAt: time.Now().UTC(),
		}

		// Reject descriptors no adapter can serve.
		if _, err := source.New(src); err != nil {
			return err
		}

		if err := st.RegisterSource(ctx, src); err != nil {
			return eris.Wrapf(err, "register source %q", src.Name)
		}

		zap.L().Info("source registered",
			zap.String("name", src.Name),
			zap.String("type", string(src.Type)))
		return nil
	},
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered data sources",
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

		sources, err := st.ListSources(ctx)
		if err != nil {
			return eris.Wrap(err, "list sources")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(sources), "encode sources")
	},
}

func init() {
	sourcesRegisterCmd.Flags().StringVar(&sourceType, "type", "csv", "source type (csv, json, xlsx, api, database, pdf, docx, text)")
	sourcesRegisterCmd.Flags().StringArrayVar(&sourceConfig, "config", nil, "adapter config as key=value (repeatable)")
	sourcesCmd.AddCommand(sourcesRegisterCmd, sourcesListCmd)
	rootCmd.AddCommand(sourcesCmd)
}
