package filtering

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/matching"
)

var ErrUnknownFilter = errors.New("unknown filter")

// Filter represents a single filtering step applied to ranked rows.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, rows matching.Rows) (matching.Rows, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	Statuses     []string `mapstructure:"statuses"`
	MinimumScore float64  `mapstructure:"minimum-score"`
	Employers    []string `mapstructure:"exclude-employers"`
	RedFlags     []string `mapstructure:"red-flags"`
	ExcludeFile  string   `mapstructure:"exclude-file"`
	// Disabled lists filter names switched off for every run.
	Disabled []string `mapstructure:"disabled"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// toggle carries the enabled state shared by every filter.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

// Default returns the filters in the order they run.
func Default() []Filter {
	return []Filter{
		NewStatuses(),
		NewMinimumScore(),
		NewEmployers(),
		NewRedFlags(),
		NewExcludeFile(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
// ErrUnknownFilter is returned when no filter carries that name.
func DisableByName(steps []Filter, name, reason string) error {
	found := false
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return nil
}

// Validate prepares every enabled filter without applying it, so that Describe
// reports the effective settings.
func Validate(cfg *Config, steps []Filter) error {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return nil
}

// Run executes the supplied filters sequentially and returns the rows left.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, rows matching.Rows) (matching.Rows, error) {
	if err := Validate(cfg, steps); err != nil {
		return nil, err
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		rows = next
	}

	return rows, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep retains rows matching pred and returns the IDs of the others.
func keep(rows *matching.Rows, pred func(matching.Row) bool) []string {
	kept := (*rows)[:0]
	var dropped []string
	for _, r := range *rows {
		if !pred(r) {
			dropped = append(dropped, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	*rows = kept
	return dropped
}
