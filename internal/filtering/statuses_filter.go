package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/posting"
)

type statusesFilter struct {
	toggle
	statuses map[posting.Status]bool
}

// NewStatuses creates a filter that keeps only rows in the configured statuses.
func NewStatuses() Filter {
	return &statusesFilter{}
}

func (f *statusesFilter) Name() string { return "statuses" }

func (f *statusesFilter) Validate(cfg *Config) error {
	f.statuses = nil
	if cfg == nil || len(cfg.Statuses) == 0 {
		return nil
	}

	f.statuses = make(map[posting.Status]bool, len(cfg.Statuses))
	for _, raw := range cfg.Statuses {
		status, err := posting.ParseStatus(raw)
		if err != nil {
			return err
		}
		f.statuses[status] = true
	}
	return nil
}

func (f *statusesFilter) Apply(_ context.Context, deps Deps, rows matching.Rows) (matching.Rows, Step, error) {
	initial := rows.Len()
	if len(f.statuses) == 0 {
		return rows, Step{Initial: initial, Left: initial}, nil
	}

	dropped := keep(&rows, func(r matching.Row) bool { return f.statuses[r.Status] })
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding postings by status",
			zap.Strings("excluded_postings", dropped),
			zap.Int("postings_left", rows.Len()),
		)
	}

	return rows, Step{Initial: initial, Dropped: len(dropped), Left: rows.Len()}, nil
}

func (f *statusesFilter) Status() Status {
	details := map[string]string{}
	if len(f.statuses) > 0 {
		names := make([]string, 0, len(f.statuses))
		for _, s := range posting.Statuses {
			if f.statuses[s] {
				names = append(names, string(s))
			}
		}
		details["statuses"] = strings.Join(names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
