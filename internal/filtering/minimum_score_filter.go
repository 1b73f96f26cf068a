package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/matching"
)

type minimumScoreFilter struct {
	toggle
	minimum float64
}

// NewMinimumScore creates a filter that drops rows scoring below the configured final score.
func NewMinimumScore() Filter {
	return &minimumScoreFilter{}
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Validate(cfg *Config) error {
	f.minimum = 0
	if cfg == nil {
		return nil
	}
	if cfg.MinimumScore < 0 || cfg.MinimumScore > 100 {
		return fmt.Errorf("minimum score must be within [0, 100], got %.2f", cfg.MinimumScore)
	}
	f.minimum = cfg.MinimumScore
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, deps Deps, rows matching.Rows) (matching.Rows, Step, error) {
	initial := rows.Len()
	if f.minimum == 0 {
		return rows, Step{Initial: initial, Left: initial}, nil
	}

	dropped := keep(&rows, func(r matching.Row) bool { return r.FinalScore >= f.minimum })
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding postings below minimum score",
			zap.Float64("minimum_score", f.minimum),
			zap.Int("postings_left", rows.Len()),
		)
	}

	return rows, Step{Initial: initial, Dropped: len(dropped), Left: rows.Len()}, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum_score": fmt.Sprintf("%.2f", f.minimum)},
	}
}
