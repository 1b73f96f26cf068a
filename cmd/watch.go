package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/pipeline"
	"github.com/spigell/job-matcher/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Fetch postings on a schedule until interrupted",
	Run: func(cmd *cobra.Command, _ []string) {
		watch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("schedule", "", "cron spec, e.g. \"@every 6h\" or \"0 */4 * * *\"")
	viper.BindPFlag("watch.schedule", watchCmd.Flags().Lookup("schedule"))
}

func watch(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	if config.Search.Query == "" {
		logger.Fatal("search query is required", zap.String("hint", "set search.query in the config"))
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

	s := scheduler.New(config.Watch.Schedule, func(ctx context.Context) error {
		_, err := pipeline.Fetch(ctx, logger, client, st, config.Search)
		return err
	}, logger)

	if err := s.Run(ctx); err != nil {
		logger.Fatal("starting scheduler", zap.Error(err), zap.String("hint", "check watch.schedule"))
	}
}
