package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexventures/nexsearch/internal/catalog"
)

func statusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the catalog driver and product count",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			count, err := a.store.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("catalog count failed: %w", err)
			}
			size, err := catalog.DiskUsage(&a.config.Catalog)
			if err != nil {
				return fmt.Errorf("catalog disk usage failed: %w", err)
			}
			out := cmd.OutOrStdout()
			config := a.configPath
			if config == "" {
				config = "(defaults)"
			}
			fmt.Fprintf(out, "Config:     %s\n", config)
			fmt.Fprintf(out, "Catalog:    %s\n", a.config.Catalog.Driver)
			fmt.Fprintf(out, "Products:   %d\n", count)
			fmt.Fprintf(out, "Disk usage: %s\n", formatBytes(size))
			fmt.Fprintf(out, "Seed files: %d\n", len(a.config.Catalog.SeedFiles))
			fmt.Fprintf(out, "Cache:      %s\n", a.config.Cache.Driver)
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
