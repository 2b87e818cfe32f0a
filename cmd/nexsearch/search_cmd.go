package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexventures/nexsearch/internal/cli"
	"github.com/nexventures/nexsearch/internal/models"
)

type searchFlags struct {
	skip      int
	limit     int
	sort      string
	category  string
	minPrice  float64
	maxPrice  float64
	minRating float64
	format    string
}

func (f *searchFlags) query(text string) *models.SearchQuery {
	return &models.SearchQuery{
		Query: text,
		Skip:  f.skip,
		Limit: f.limit,
		Sort:  models.SortOption(f.sort),
		Filters: models.Filters{
			CategoryID: f.category,
			MinPrice:   f.minPrice,
			MaxPrice:   f.maxPrice,
			MinRating:  f.minRating,
		},
	}
}

func searchCmd(flags *globalFlags) *cobra.Command {
	sf := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog",
		Long: `Search the catalog in-process and print the ranked products.

The query is all arguments joined by spaces, so quoting is optional.`,
		Example: `  nexsearch search office chair
  nexsearch search "samsng phone" --sort price_asc --max-price 700
  nexsearch search desk --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(sf.format)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := withDeadline(cmd.Context(), a.config.Search.Timeout)
			defer cancel()
			response, err := a.engine.Search(ctx, sf.query(buildSearchQuery(args)))
			if err != nil {
				return err
			}
			return cli.WriteSearchResponse(cmd.OutOrStdout(), response, format)
		},
	}
	cmd.Flags().IntVar(&sf.skip, "skip", 0, "number of results to skip")
	cmd.Flags().IntVar(&sf.limit, "limit", 0, "maximum results to show (default from config)")
	cmd.Flags().StringVar(&sf.sort, "sort", "relevance", "relevance, price_asc, price_desc, newest or rating")
	cmd.Flags().StringVar(&sf.category, "category", "", "only products in this category ID")
	cmd.Flags().Float64Var(&sf.minPrice, "min-price", 0, "minimum price")
	cmd.Flags().Float64Var(&sf.maxPrice, "max-price", 0, "maximum price")
	cmd.Flags().Float64Var(&sf.minRating, "min-rating", 0, "minimum rating")
	cmd.Flags().StringVar(&sf.format, "format", "text", "output format: text or json")
	return cmd
}

func analyzeCmd(flags *globalFlags) *cobra.Command {
	var (
		top    int
		format string
	)
	cmd := &cobra.Command{
		Use:   "analyze <query>",
		Short: "Show how a query is corrected, matched and scored",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cli.ParseOutputFormat(format)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := withDeadline(cmd.Context(), a.config.Search.Timeout)
			defer cancel()
			analysis, err := a.engine.Analyze(ctx, buildSearchQuery(args), top)
			if err != nil {
				return err
			}
			return cli.WriteAnalysis(cmd.OutOrStdout(), analysis, out)
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of scored products to show")
	cmd.Flags().StringVar(&format, "format", "json", "output format: text or json")
	return cmd
}

// buildSearchQuery joins args into one query.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// withDeadline bounds one CLI request the way the HTTP server's timeout
// middleware bounds a handler. A zero timeout leaves ctx unbounded.
func withDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
