package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/pipeline"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Search JSearch and store new postings",
	Run: func(cmd *cobra.Command, _ []string) {
		fetch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringP("query", "q", "", "search query, e.g. \"data scientist\"")
	fetchCmd.Flags().StringP("location", "l", "", "city, state or country appended to the query")
	fetchCmd.Flags().Int("page", 1, "first page to request")
	fetchCmd.Flags().Int("pages", 1, "number of pages to request")
	fetchCmd.Flags().String("date-posted", "", "all, today, 3days, week or month")
	fetchCmd.Flags().Bool("remote", false, "remote jobs only")
	fetchCmd.Flags().StringSlice("employment-type", nil, "FULLTIME, CONTRACTOR, PARTTIME or INTERN")

	viper.BindPFlag("search.query", fetchCmd.Flags().Lookup("query"))
	viper.BindPFlag("search.location", fetchCmd.Flags().Lookup("location"))
	viper.BindPFlag("search.page", fetchCmd.Flags().Lookup("page"))
	viper.BindPFlag("search.num-pages", fetchCmd.Flags().Lookup("pages"))
	viper.BindPFlag("search.date-posted", fetchCmd.Flags().Lookup("date-posted"))
	viper.BindPFlag("search.remote-jobs-only", fetchCmd.Flags().Lookup("remote"))
	viper.BindPFlag("search.employment-types", fetchCmd.Flags().Lookup("employment-type"))
}

func fetch(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	if config.Search.Query == "" {
		logger.Fatal("search query is required", zap.String("hint", "pass --query or set search.query in the config"))
	}

	client, err := newJSearch(config.JSearch, logger)
	if err != nil {
		logger.Fatal("creating jsearch client", zap.Error(err),
			zap.String("hint", "set JSEARCH_API_KEY or jsearch.api-key-file in the configuration file"))
	}

	st, err := newStore(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening posting store", zap.Error(err), zap.String("driver", config.Store.Driver))
	}
	defer st.Close()

	logger.Info("starting the search", zap.String("query", config.Search.FullQuery()))

	report, err := pipeline.Fetch(ctx, logger, client, st, config.Search)
	if err != nil {
		logger.Fatal("fetch failed", zap.Error(err), zap.Int("created", report.Created))
	}

	if len(report.FailedPages) > 0 {
		logger.Warn("some pages could not be fetched", zap.Ints("pages", report.FailedPages))
	}
}
