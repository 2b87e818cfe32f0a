package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexventures/nexsearch/internal/catalog"
	"github.com/nexventures/nexsearch/internal/indexer"
)

func importCmd(flags *globalFlags) *cobra.Command {
	var prune bool
	cmd := &cobra.Command{
		Use:   "import <file or dir>...",
		Short: "Load JSON, YAML or XLSX product files into the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()
			if catalog.Driver(a.config.Catalog.Driver) == catalog.DriverMemory {
				a.logger.Warn("memory catalog does not persist; imported products are discarded on exit")
			}

			idx := indexer.NewIndexer(a.store, nil,
				indexer.WithLogger(a.logger),
				indexer.WithPrune(prune),
			)
			stats, err := idx.Sync(cmd.Context(), args...)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "delete catalog products missing from the imported files")
	return cmd
}
