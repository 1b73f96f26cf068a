package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/matching"
)

type employersFilter struct {
	toggle
	employers []string
}

// NewEmployers creates a filter that removes postings by employers configured in the config.
// Names are compared case-insensitively.
func NewEmployers() Filter {
	return &employersFilter{}
}

func (f *employersFilter) Name() string { return "employers" }

func (f *employersFilter) Validate(cfg *Config) error {
	f.employers = nil
	if cfg == nil {
		return nil
	}
	for _, e := range cfg.Employers {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			f.employers = append(f.employers, e)
		}
	}
	return nil
}

func (f *employersFilter) Apply(_ context.Context, deps Deps, rows matching.Rows) (matching.Rows, Step, error) {
	initial := rows.Len()
	if len(f.employers) == 0 {
		return rows, Step{Initial: initial, Left: initial}, nil
	}

	excluded := rows.Exclude(func(r matching.Row) string {
		return strings.ToLower(strings.TrimSpace(r.Company))
	}, f.employers)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding postings by employers",
			zap.Strings("excluded_employers", f.employers),
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", rows.Len()),
		)
	}

	return rows, Step{Initial: initial, Dropped: len(excluded), Left: rows.Len()}, nil
}

func (f *employersFilter) Status() Status {
	details := map[string]string{}
	if len(f.employers) > 0 {
		details["employers"] = strings.Join(f.employers, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
