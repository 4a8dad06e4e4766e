package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hudumadata/facility-cli/internal/model"
	"github.com/hudumadata/facility-cli/internal/source"
)

var (
	ingestLimit int
	ingestFile  string
	ingestType  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <source-name>...",
	Short: "Run the batch ingestion pipeline for one or more sources",
	Long:  "Runs registered sources by name, or a one-off file source with --file/--type. Each source is one batch; batches run on their own workers.",
	Args:  cobra.MinimumNArgs(1),
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

		var srcs []model.DataSource
		if ingestFile != "" {
			if len(args) != 1 {
				return eris.New("--file takes exactly one source name")
			}
			srcs = append(srcs, model.DataSource{
				Name:      args[0],
				Type:      model.SourceType(ingestType),
				Config:    map[string]string{"filePath": ingestFile},
				CreatedAt: time.Now().UTC(),
			})
		} else {
			for _, name := range args {
				src, err := st.GetSource(ctx, name)
				if err != nil {
					return eris.Wrapf(err, "load source %q", name)
				}
				if src == nil {
					return eris.Errorf("source %q is not registered", name)
				}
				srcs = append(srcs, *src)
			}
		}

		results := make([]model.BatchResult, len(srcs))
		errs := make([]error, len(srcs))

		// Each batch gets its own pipeline instance and worker.
		var g errgroup.Group
		g.SetLimit(4)
		for i, src := range srcs {
			g.Go(func() error {
				adapter, err := source.New(src)
				if err != nil {
					errs[i] = err
					return nil
				}
				p, err := initPipeline(ctx, st)
				if err != nil {
					errs[i] = err
					return nil
				}
				results[i], errs[i] = p.IngestFromSource(ctx, adapter, ingestLimit)
				return nil
			})
		}
		_ = g.Wait()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return eris.Wrap(err, "encode results")
		}

		for _, err := range errs {
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "maximum records to extract per source (0 = all)")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "ingest a one-off file without registering a source")
	ingestCmd.Flags().StringVar(&ingestType, "type", "csv", "source type for --file")
	rootCmd.AddCommand(ingestCmd)
}
