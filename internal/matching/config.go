package matching

import (
	"errors"
	"runtime"
	"time"
)

const (
	DefaultKeywordWeight     = 0.5
	DefaultSemanticWeight    = 0.5
	DefaultSemanticThreshold = 0.75
	DefaultBatchSize         = 32
)

// Config holds the scoring weights and ranking pass settings.
type Config struct {
	KeywordWeight  float64 `mapstructure:"keyword-weight"`
	SemanticWeight float64 `mapstructure:"semantic-weight"`
	// SemanticThreshold is carried in configuration but not applied to scores.
	SemanticThreshold float64 `mapstructure:"semantic-threshold"`
	// IncludeSkills folds skill sets into the keyword overlap.
	IncludeSkills bool          `mapstructure:"include-skills"`
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch-size"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		KeywordWeight:     DefaultKeywordWeight,
		SemanticWeight:    DefaultSemanticWeight,
		SemanticThreshold: DefaultSemanticThreshold,
		Workers:           runtime.NumCPU(),
		BatchSize:         DefaultBatchSize,
	}
}

func (c Config) Validate() error {
	if c.KeywordWeight < 0 || c.SemanticWeight < 0 {
		return errors.New("weights must not be negative")
	}
	if c.KeywordWeight == 0 && c.SemanticWeight == 0 {
		return errors.New("at least one weight must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}
