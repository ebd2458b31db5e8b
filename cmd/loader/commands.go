package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/dunning/backend/internal/storage"
	"github.com/OFFIS-RIT/dunning/backend/internal/util"
	"github.com/OFFIS-RIT/dunning/backend/pkg/loader"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store/pgx"

	"github.com/spf13/cobra"
)

var (
	debug  bool
	repair bool

	rootCmd = &cobra.Command{
		Use:           "loader",
		Short:         "Maintenance commands for the collections interaction graph",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogger()
		},
	}

	loadCmd = &cobra.Command{
		Use:   "load [path]",
		Short: "Reset the graph and ingest a dataset (local path or s3://bucket/key)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLoad,
	}

	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the source dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), loader.Schema())
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL backend migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL := util.GetEnv("DATABASE_URL")
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}
			return pgx.Migrate(databaseURL, storage.MigrationsPath())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	loadCmd.Flags().BoolVar(&repair, "repair", false, "attempt to repair a source document that fails to parse")

	rootCmd.AddCommand(loadCmd, schemaCmd, migrateCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	path := util.DataFile()
	if len(args) == 1 {
		path = args[0]
	}

	graph, err := storage.OpenGraphStore(ctx)
	if err != nil {
		return err
	}
	defer graph.Close(ctx)

	opts, err := storage.LoaderOptions(ctx, graph)
	if err != nil {
		return err
	}
	if repair {
		opts = append(opts, loader.WithJSONRepair(true))
	}

	stats, err := loader.New(graph, opts...).Load(ctx, path)
	if err != nil {
		logger.Error("Load failed", "path", path, "err", err)
		return err
	}
	return writeJSON(cmd.OutOrStdout(), stats)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
