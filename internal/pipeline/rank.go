package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/resume"
	"github.com/spigell/job-matcher/internal/store"
)

var ErrNoResume = errors.New("no résumé loaded")

// Ranker ranks every stored posting and runs the filter chain over the result.
type Ranker struct {
	Store   store.Store
	Matcher *matching.Matcher
	Filters filtering.Config
	// NewFilters builds a fresh chain per call since filters keep state between
	// Validate and Apply. Defaults to filtering.Default.
	NewFilters func() []filtering.Filter
	Logger     *zap.Logger
}

// Options narrow a single ranking call on top of the configured filters.
type Options struct {
	Statuses     []string
	MinimumScore *float64
	Limit        int
	// Disabled switches off filters by name in addition to the configured ones.
	Disabled []string
}

func (r *Ranker) Rank(ctx context.Context, res *resume.Parsed, opts Options) (matching.Rows, error) {
	if res == nil || res.IsEmpty() {
		return nil, ErrNoResume
	}

	postings, err := r.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.Matcher.Rank(ctx, res, postings)
	if err != nil {
		return nil, err
	}

	cfg, steps, err := r.chain(opts)
	if err != nil {
		return nil, err
	}

	rows, err = filtering.Run(ctx, &cfg, filtering.Deps{Logger: logger.WithFields(r.Logger)}, steps, rows)
	if err != nil {
		return nil, err
	}

	if opts.Limit > 0 && rows.Len() > opts.Limit {
		rows = rows[:opts.Limit]
	}
	return rows, nil
}

// DescribeFilters reports the filter chain a Rank call with opts would run.
func (r *Ranker) DescribeFilters(opts Options) ([]filtering.Status, error) {
	cfg, steps, err := r.chain(opts)
	if err != nil {
		return nil, err
	}
	if err := filtering.Validate(&cfg, steps); err != nil {
		return nil, err
	}
	return filtering.Describe(steps), nil
}

func (r *Ranker) chain(opts Options) (filtering.Config, []filtering.Filter, error) {
	cfg := r.Filters
	if len(opts.Statuses) > 0 {
		cfg.Statuses = opts.Statuses
	}
	if opts.MinimumScore != nil {
		cfg.MinimumScore = *opts.MinimumScore
	}

	newFilters := r.NewFilters
	if newFilters == nil {
		newFilters = filtering.Default
	}
	steps := newFilters()

	for _, name := range cfg.Disabled {
		if err := filtering.DisableByName(steps, name, "disabled in config"); err != nil {
			return cfg, nil, err
		}
	}
	for _, name := range opts.Disabled {
		if err := filtering.DisableByName(steps, name, "disabled by request"); err != nil {
			return cfg, nil, err
		}
	}

	return cfg, steps, nil
}
