package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/pipeline"
	"github.com/spigell/job-matcher/internal/posting"
	"github.com/spigell/job-matcher/internal/store"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	PromptExit                = "Exit"
	PromptUpdateStatus        = "Update status of a posting"
	PromptReportByCompany     = "Report by company"
	PromptRowsToFile          = "Dump postings to file"
	PromptAppendToExcludeFile = "Append all postings to exclude file"
	PromptBack                = "back"

	titleWidth = 48
)

var errExit = errors.New("exit requested")

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank stored postings against the résumé",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("resume", "r", "", "résumé file (.pdf, .txt or .md)")
	rankCmd.Flags().StringSlice("status", nil, "only show postings in these statuses")
	rankCmd.Flags().Float64("min-score", 0, "only show postings with at least this final score")
	rankCmd.Flags().IntP("limit", "n", 0, "show at most this many postings")
	rankCmd.Flags().BoolP("auto-approve", "y", false, "print the table and exit without the interactive menu")
	rankCmd.Flags().StringP("exclude-file", "e", "", "special file with postings to exclude. Default is unset.")
	rankCmd.Flags().StringSlice("disable-filter", nil, "skip these filters (statuses, minimum_score, employers, red_flags, exclude_file)")

	viper.BindPFlag("resume", rankCmd.Flags().Lookup("resume"))
	viper.BindPFlag("filters.statuses", rankCmd.Flags().Lookup("status"))
	viper.BindPFlag("filters.minimum-score", rankCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("filters.exclude-file", rankCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("filters.disabled", rankCmd.Flags().Lookup("disable-filter"))
}

func rank(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync()

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

	parsed, err := deps.parser.ParseFile(config.Resume)
	if err != nil {
		logger.Fatal("reading résumé", zap.Error(err), zap.String("hint", "pass --resume or set resume in the config"))
	}
	if parsed.IsEmpty() {
		logger.Fatal("résumé has no text", zap.String("path", config.Resume))
	}
	logger.Info("résumé parsed", zap.Strings("skills", parsed.Skills), zap.Int("keywords", len(parsed.Keywords)))

	limit, _ := cmd.Flags().GetInt("limit")
	ranker := newRanker(st, deps, config, logger)
	opts := pipeline.Options{Limit: limit}

	filters, err := ranker.DescribeFilters(opts)
	if err != nil {
		logger.Fatal("invalid filter configuration", zap.Error(err), zap.String("hint", "check the filters section"))
	}
	for _, f := range filters {
		logger.Debug("filter", zap.String("name", f.Name), zap.Bool("enabled", f.Enabled), zap.Any("details", f.Details))
	}

	rows, err := ranker.Rank(ctx, parsed, opts)
	if err != nil {
		logger.Fatal("ranking failed", zap.Error(err))
	}

	if rows.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings left after filters"))
		return
	}

	printRows(os.Stdout, rows)

	if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); autoApprove {
		return
	}

	for {
		items := []string{PromptUpdateStatus, PromptReportByCompany, PromptRowsToFile}
		if config.Filters.ExcludeFile != "" {
			items = append(items, PromptAppendToExcludeFile)
		}
		items = append(items, PromptExit)

		prompt := promptui.Select{Label: "What next?", Items: items}
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of postings", zap.Int("count", rows.Len()))

		if err := handleAction(ctx, action, st, logger, config, &rows); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, st store.Store, logger *zap.Logger, config *Config, rows *matching.Rows) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptUpdateStatus:
		return updateStatus(ctx, st, logger, rows)
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(rows.Postings().ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("postings count", rows.Len()))
		return nil
	case PromptRowsToFile:
		filename, err := posting.DumpToTmpFile("postings_*.json", rows)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excludeFile := config.Filters.ExcludeFile
		excluded, err := posting.LoadExcluded(excludeFile)
		if err != nil {
			return err
		}

		excluded.Append(posting.ToExcluded(rows.Postings(), time.Now()))
		if err := excluded.ToFile(excludeFile); err != nil {
			return err
		}

		logger.Info("appended to exclude file", zap.String("filename", excludeFile))
		rows.Exclude(func(r matching.Row) string { return r.ID }, excluded.IDs())
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func updateStatus(ctx context.Context, st store.Store, logger *zap.Logger, rows *matching.Rows) error {
	items := make([]string, 0, rows.Len()+1)
	for _, r := range *rows {
		items = append(items, fmt.Sprintf("%s %.2f %s / %s", r.ID, r.FinalScore, r.Title, r.Company))
	}

	postingPrompt := promptui.Select{
		Label: "Choose a posting and press ENTER",
		Items: append(items, PromptBack),
		Size:  15,
	}
	_, selected, err := postingPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	id := strings.Split(selected, " ")[0]
	row := rows.FindByID(id)
	if row == nil {
		return fmt.Errorf("there is no such posting id %s", id)
	}

	statusPrompt := promptui.Select{
		Label: fmt.Sprintf("New status for %s (currently %s)", id, row.Status),
		Items: append(posting.StatusNames(), PromptBack),
	}
	_, choice, err := statusPrompt.Run()
	if err != nil {
		return err
	}
	if choice == PromptBack {
		return nil
	}

	next, err := posting.ParseStatus(choice)
	if err != nil {
		return err
	}
	if _, err := st.SetStatus(ctx, id, next); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	row.Status = next
	logger.Info("status updated", zap.String("posting_id", id), zap.String("status", next.String()))
	return nil
}

func printRows(w io.Writer, rows matching.Rows) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tKEYWORDS\tSEMANTIC\tSTATUS\tID\tTITLE\tCOMPANY\tMATCHED")
	for i, r := range rows {
		note := strings.Join(r.MatchedKeywords, ", ")
		if r.Error != "" {
			note = "degraded: " + r.Error
		}
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			i+1, r.FinalScore, r.KeywordScore, r.SemanticScore, r.Status, r.ID,
			utils.TruncateForLog(r.Title, titleWidth), r.Company, utils.TruncateForLog(note, titleWidth))
	}
	tw.Flush()
}
