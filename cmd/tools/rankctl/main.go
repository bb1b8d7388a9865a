// cmd/tools/rankctl/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ranking-workers/internal/app"
	"ranking-workers/internal/common/config"
	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/ranking"
	"ranking-workers/internal/service"
)

var (
	cfgFile  string
	logLevel string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rankctl",
		Short:         "Inspect and maintain the company ranking datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	root.AddCommand(rankingsCmd())
	root.AddCommand(reviewsCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(invalidateCmd())
	root.AddCommand(indexCmd())
	root.AddCommand(registryCmd())

	return root
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

// withApp connects the backends, runs fn and closes everything again.
func withApp(cmd *cobra.Command, opts app.BuildOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	zapLog := logger.New(logLevel, "console")
	defer zapLog.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	opts.ServiceName = "rankctl"
	a, err := app.Build(ctx, cfg, zapLog, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type filterFlags struct {
	search       string
	countries    []string
	models       []string
	accountTypes []string
	minReviews   int
	hasCashback  string
	sortBy       string
	direction    string
}

func (f *filterFlags) register(cmd *cobra.Command, defaultSort string) {
	cmd.Flags().StringVar(&f.search, "search", "", "name or slug substring")
	cmd.Flags().StringSliceVar(&f.countries, "country", nil, "country codes")
	cmd.Flags().StringSliceVar(&f.models, "evaluation-model", nil, "evaluation models")
	cmd.Flags().StringSliceVar(&f.accountTypes, "account-type", nil, "account types")
	cmd.Flags().IntVar(&f.minReviews, "min-reviews", -1, "minimum approved reviews")
	cmd.Flags().StringVar(&f.hasCashback, "has-cashback", "", "true or false")
	cmd.Flags().StringVar(&f.sortBy, "sort", defaultSort, "sort key")
	cmd.Flags().StringVar(&f.direction, "direction", "desc", "asc or desc")
}

func (f *filterFlags) filters() (ranking.Filters, error) {
	filters := ranking.Filters{
		Search:           f.search,
		Countries:        f.countries,
		EvaluationModels: f.models,
		AccountTypes:     f.accountTypes,
	}
	if f.minReviews >= 0 {
		n := f.minReviews
		filters.MinReviews = &n
	}
	switch f.hasCashback {
	case "":
	case "true", "false":
		b := f.hasCashback == "true"
		filters.HasCashback = &b
	default:
		return filters, fmt.Errorf("--has-cashback must be true or false")
	}
	return filters, nil
}

type rankingsOptions struct {
	flags    filterFlags
	noRecord bool
	limit    int
}

func (o *rankingsOptions) request() (service.RankingsRequest, error) {
	filters, err := o.flags.filters()
	if err != nil {
		return service.RankingsRequest{}, err
	}
	req := service.RankingsRequest{
		Filters: filters,
		Sort:    ranking.RankingsSort{SortBy: o.flags.sortBy, Direction: ranking.ParseSortDirection(o.flags.direction)},
	}
	if o.noRecord {
		record := false
		req.RecordHistory = &record
	}
	return req, nil
}

func rankingsCmd() *cobra.Command {
	return newRankingsCmd(&rankingsOptions{})
}

func newRankingsCmd(opts *rankingsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Compute the company rankings dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			return withApp(cmd, app.BuildOptions{SkipSearch: true, SkipAlerts: true}, func(ctx context.Context, a *app.App) error {
				result, err := a.Service.Rankings(ctx, req)
				if err != nil {
					return err
				}
				if opts.limit > 0 && len(result.Dataset.Companies) > opts.limit {
					result.Dataset.Companies = result.Dataset.Companies[:opts.limit]
				}
				return printJSON(cmd, result)
			})
		},
	}

	opts.flags.register(cmd, ranking.SortOverall)
	cmd.Flags().BoolVar(&opts.noRecord, "no-record", false, "do not write today's scores to history")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "print at most this many companies")
	return cmd
}

func (f *filterFlags) reviewsRequest() (service.ReviewsRequest, error) {
	filters, err := f.filters()
	if err != nil {
		return service.ReviewsRequest{}, err
	}
	return service.ReviewsRequest{
		Filters: filters,
		Sort:    ranking.ReviewsSort{SortBy: f.sortBy, Direction: ranking.ParseSortDirection(f.direction)},
	}, nil
}

func reviewsCmd() *cobra.Command {
	return newReviewsCmd(&filterFlags{})
}

func newReviewsCmd(flags *filterFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Compute the reviews ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.reviewsRequest()
			if err != nil {
				return err
			}
			return withApp(cmd, app.BuildOptions{SkipSearch: true, SkipAlerts: true}, func(ctx context.Context, a *app.App) error {
				result, err := a.Service.ReviewsRanking(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}

	flags.register(cmd, ranking.SortRating)
	return cmd
}

func historyCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history <company-id>",
		Short: "Show a company's daily overall score history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, app.BuildOptions{SkipSearch: true, SkipAlerts: true}, func(ctx context.Context, a *app.App) error {
				result, err := a.Service.CompanyHistory(ctx, args[0], days)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "window in days (default: ranking.history_days)")
	return cmd
}

func invalidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invalidate [tag...]",
		Short: "Drop cached datasets by tag (all ranking tags when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, app.BuildOptions{SkipSearch: true, SkipAlerts: true}, func(ctx context.Context, a *app.App) error {
				removed, err := a.Service.Invalidate(ctx, args...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entries\n", removed)
				return nil
			})
		},
	}
	return cmd
}

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Index the unfiltered rankings into Elasticsearch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, app.BuildOptions{SkipAlerts: true}, func(ctx context.Context, a *app.App) error {
				if a.Indexer == nil {
					return fmt.Errorf("elasticsearch is not configured")
				}
				result, err := a.Service.Rankings(ctx, service.RankingsRequest{})
				if err != nil {
					return err
				}
				if result.Degraded {
					return fmt.Errorf("database unavailable, nothing indexed")
				}
				indexed, err := a.Indexer.IndexRankings(ctx, result.Dataset)
				if indexed != nil {
					_ = printJSON(cmd, indexed)
				}
				return err
			})
		},
	}
}
