package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/matching"
)

type redFlagsFilter struct {
	toggle
	phrases []string
}

// NewRedFlags creates a filter that drops postings whose title or description mention
// any configured phrase, e.g. "unpaid" or "security clearance".
func NewRedFlags() Filter {
	return &redFlagsFilter{}
}

func (f *redFlagsFilter) Name() string { return "red_flags" }

func (f *redFlagsFilter) Validate(cfg *Config) error {
	f.phrases = nil
	if cfg == nil {
		return nil
	}
	for _, p := range cfg.RedFlags {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			f.phrases = append(f.phrases, p)
		}
	}
	return nil
}

func (f *redFlagsFilter) Apply(_ context.Context, deps Deps, rows matching.Rows) (matching.Rows, Step, error) {
	initial := rows.Len()
	if len(f.phrases) == 0 {
		return rows, Step{Initial: initial, Left: initial}, nil
	}

	flagged := make(map[string]string)
	dropped := keep(&rows, func(r matching.Row) bool {
		text := strings.ToLower(r.Title + "\n" + r.Description)
		for _, p := range f.phrases {
			if strings.Contains(text, p) {
				flagged[r.ID] = p
				return false
			}
		}
		return true
	})

	if deps.Logger != nil {
		for _, id := range dropped {
			deps.Logger.Info("excluding posting with red flag",
				zap.String("posting_id", id),
				zap.String("phrase", flagged[id]),
			)
		}
	}

	return rows, Step{Initial: initial, Dropped: len(dropped), Left: rows.Len()}, nil
}

func (f *redFlagsFilter) Status() Status {
	details := map[string]string{}
	if len(f.phrases) > 0 {
		details["phrases"] = strings.Join(f.phrases, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
