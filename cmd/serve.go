package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/api"
	"github.com/spigell/job-matcher/internal/pipeline"
	"github.com/spigell/job-matcher/internal/resume"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rankings and posting statuses over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	deps, err := newMatcherDeps(ctx, config, logger)
	if err != nil {
		logger.Fatal("building matcher", zap.Error(err), zap.String("hint", "check the embedder and lexicon sections"))
	}
	defer deps.Close()

	st, err := newStore(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening posting store", zap.Error(err), zap.String("driver", config.Store.Driver))
	}
	defer st.Close()

	slot := &resume.Slot{}
	if config.Resume != "" {
		parsed, err := deps.parser.ParseFile(config.Resume)
		switch {
		case err != nil:
			logger.Warn("starting without a résumé", zap.Error(err), zap.String("hint", "upload one with PUT /api/v1/resume"))
		case parsed.IsEmpty():
			logger.Warn("starting without a résumé", zap.String("reason", "file has no text"))
		default:
			slot.Set(parsed)
		}
	}

	ranker := newRanker(st, deps, config, logger)
	if _, err := ranker.DescribeFilters(pipeline.Options{}); err != nil {
		logger.Fatal("invalid filter configuration", zap.Error(err), zap.String("hint", "check the filters section"))
	}

	server := api.New(api.Deps{
		Store:  st,
		Ranker: ranker,
		Parser: deps.parser,
		Resume: slot,
		Logger: logger,
	})

	if err := server.Run(ctx, config.Server.Addr); err != nil {
		logger.Fatal("serving", zap.Error(err), zap.String("addr", config.Server.Addr))
	}
}
