package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/posting"
	"github.com/spigell/job-matcher/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status ID [NEW_STATUS]",
	Short: "Show or update the status of a stored posting",
	Long: fmt.Sprintf("Show a stored posting, or move it to a new status. Known statuses: %v",
		posting.StatusNames()),
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		status(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func status(_ *cobra.Command, args []string) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync()

	st, err := newStore(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening posting store", zap.Error(err), zap.String("driver", config.Store.Driver))
	}
	defer st.Close()

	id := args[0]

	if len(args) == 2 {
		next, err := posting.ParseStatus(args[1])
		if err != nil {
			logger.Fatal("parsing status", zap.Error(err))
		}

		ok, err := st.SetStatus(ctx, id, next)
		if err != nil {
			logger.Fatal("updating status", zap.Error(err))
		}
		if !ok {
			logger.Fatal("posting not found", zap.String("posting_id", id))
		}
		logger.Info("status updated", zap.String("posting_id", id), zap.String("status", next.String()))
	}

	p, err := st.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		logger.Fatal("posting not found", zap.String("posting_id", id), zap.String("hint", "run fetch first"))
	}
	if err != nil {
		logger.Fatal("getting posting", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(p, "", "  ")
	fmt.Println(string(pretty))
}
