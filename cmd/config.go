package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spigell/job-matcher/internal/embedding/sentence"
	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/jsearch"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/vocab"
)

type Config struct {
	Resume   string                `mapstructure:"resume"`
	Search   *jsearch.SearchParams `mapstructure:"search"`
	JSearch  JSearchConfig         `mapstructure:"jsearch"`
	Matching matching.Config       `mapstructure:"matching"`
	Lexicon  LexiconConfig         `mapstructure:"lexicon"`
	Embedder EmbedderConfig        `mapstructure:"embedder"`
	Store    StoreConfig           `mapstructure:"store"`
	Filters  filtering.Config      `mapstructure:"filters"`
	Watch    WatchConfig           `mapstructure:"watch"`
	Server   ServerConfig          `mapstructure:"server"`
}

type JSearchConfig struct {
	APIKey            string        `mapstructure:"api-key"`
	APIKeyFile        string        `mapstructure:"api-key-file"`
	URL               string        `mapstructure:"url"`
	Host              string        `mapstructure:"host"`
	MaxRetries        int           `mapstructure:"max-retries"`
	BaseDelay         time.Duration `mapstructure:"base-delay"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
}

type LexiconConfig struct {
	// ReplaceDefaults starts from an empty lexicon instead of the built-in one.
	ReplaceDefaults bool `mapstructure:"replace-defaults"`
	// File is a YAML lexicon merged over the base.
	File          string `mapstructure:"file"`
	vocab.Lexicon `mapstructure:",squash"`
	// Remove drops terms after all merges.
	Remove vocab.Lexicon `mapstructure:"remove"`
}

type EmbedderConfig struct {
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	ModelPath  string        `mapstructure:"model-path"`
	ModelsDir  string        `mapstructure:"models-dir"`
	Dimension  int           `mapstructure:"dimension"`
	APIKey     string        `mapstructure:"api-key"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	BaseURL    string        `mapstructure:"base-url"`
	BatchSize  int           `mapstructure:"batch-size"`
	MaxRetries int           `mapstructure:"max-retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Cache      CacheConfig   `mapstructure:"cache"`
}

type CacheConfig struct {
	RedisURL string        `mapstructure:"redis-url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

const (
	providerSentence = "sentence"
	providerHashing  = "hashing"
	providerCohere  = "cohere"
	providerOpenAI  = "openai"
	providerGemini  = "gemini"

	driverFile     = "file"
	driverMemory   = "memory"
	driverPostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	d := matching.DefaultConfig()

	v.SetDefault("resume", "resumes/resume.pdf")

	v.SetDefault("search.query", "")
	v.SetDefault("search.location", "")
	v.SetDefault("search.page", 1)
	v.SetDefault("search.num-pages", 1)
	v.SetDefault("search.date-posted", "")
	v.SetDefault("search.remote-jobs-only", false)
	v.SetDefault("search.employment-types", []string{})
	v.SetDefault("search.job-requirements", []string{})
	v.SetDefault("search.country", "")

	v.SetDefault("jsearch.api-key", "")
	v.SetDefault("jsearch.api-key-file", "")
	v.SetDefault("jsearch.url", "https://jsearch.p.rapidapi.com")
	v.SetDefault("jsearch.host", "jsearch.p.rapidapi.com")
	v.SetDefault("jsearch.max-retries", 3)
	v.SetDefault("jsearch.base-delay", "5s")
	v.SetDefault("jsearch.requests-per-second", 2.0)

	v.SetDefault("matching.keyword-weight", d.KeywordWeight)
	v.SetDefault("matching.semantic-weight", d.SemanticWeight)
	v.SetDefault("matching.semantic-threshold", d.SemanticThreshold)
	v.SetDefault("matching.include-skills", d.IncludeSkills)
	v.SetDefault("matching.workers", d.Workers)
	v.SetDefault("matching.batch-size", d.BatchSize)
	v.SetDefault("matching.timeout", "0s")

	v.SetDefault("lexicon.replace-defaults", false)
	v.SetDefault("lexicon.file", "")
	v.SetDefault("lexicon.skills", []string{})
	v.SetDefault("lexicon.keywords", []string{})
	v.SetDefault("lexicon.exclusions", []string{})
	v.SetDefault("lexicon.remove.skills", []string{})
	v.SetDefault("lexicon.remove.keywords", []string{})
	v.SetDefault("lexicon.remove.exclusions", []string{})

	v.SetDefault("embedder.provider", providerSentence)
	v.SetDefault("embedder.model", "")
	v.SetDefault("embedder.model-path", "")
	v.SetDefault("embedder.models-dir", sentence.DefaultModelsDir)
	v.SetDefault("embedder.dimension", 384)
	v.SetDefault("embedder.api-key", "")
	v.SetDefault("embedder.api-key-file", "")
	v.SetDefault("embedder.base-url", "")
	v.SetDefault("embedder.batch-size", 0)
	v.SetDefault("embedder.max-retries", 0)
	v.SetDefault("embedder.timeout", "0s")
	v.SetDefault("embedder.cache.redis-url", "")
	v.SetDefault("embedder.cache.ttl", "720h")

	v.SetDefault("store.driver", driverFile)
	v.SetDefault("store.path", "data/postings.json")
	v.SetDefault("store.dsn", "")

	v.SetDefault("filters.statuses", []string{})
	v.SetDefault("filters.minimum-score", 0.0)
	v.SetDefault("filters.exclude-employers", []string{})
	v.SetDefault("filters.red-flags", []string{})
	v.SetDefault("filters.exclude-file", "")
	v.SetDefault("filters.disabled", []string{})

	v.SetDefault("watch.schedule", "@every 6h")
	v.SetDefault("server.addr", ":8080")
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("empty configuration")
	}
	if config.Search == nil {
		config.Search = &jsearch.SearchParams{}
	}

	config.Embedder.Provider = strings.ToLower(strings.TrimSpace(config.Embedder.Provider))
	config.Store.Driver = strings.ToLower(strings.TrimSpace(config.Store.Driver))

	return config, config.Validate()
}

// Validate checks settings shared by every command.
func (c *Config) Validate() error {
	if err := c.Matching.Validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}

	switch c.Embedder.Provider {
	case providerSentence, providerHashing, providerCohere, providerOpenAI, providerGemini:
	default:
		return fmt.Errorf("embedder: unknown provider %q (expected one of %s)", c.Embedder.Provider,
			strings.Join([]string{providerSentence, providerHashing, providerCohere, providerOpenAI, providerGemini}, ", "))
	}

	switch c.Store.Driver {
	case driverMemory:
	case driverFile:
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New("store: path is required for the file driver")
		}
	case driverPostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return errors.New("store: dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store: unknown driver %q", c.Store.Driver)
	}

	if c.Filters.MinimumScore < 0 || c.Filters.MinimumScore > 100 {
		return fmt.Errorf("filters: minimum score must be within [0, 100], got %.2f", c.Filters.MinimumScore)
	}

	return nil
}
