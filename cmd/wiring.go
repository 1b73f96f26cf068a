package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/embedding"
	"github.com/spigell/job-matcher/internal/embedding/cohere"
	"github.com/spigell/job-matcher/internal/embedding/gemini"
	"github.com/spigell/job-matcher/internal/embedding/openai"
	"github.com/spigell/job-matcher/internal/embedding/sentence"
	"github.com/spigell/job-matcher/internal/jsearch"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/pipeline"
	"github.com/spigell/job-matcher/internal/resume"
	"github.com/spigell/job-matcher/internal/secrets"
	"github.com/spigell/job-matcher/internal/store"
	"github.com/spigell/job-matcher/internal/store/postgres"
	"github.com/spigell/job-matcher/internal/vocab"
)

// setup builds the logger and the validated configuration. Failures are fatal.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err), zap.String("hint", "check job-matcher.yaml and JOB_MATCHER_* variables"))
	}

	logger.Info("starting the job-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

func redacted(c *Config) Config {
	out := *c
	if out.JSearch.APIKey != "" {
		out.JSearch.APIKey = "***"
	}
	if out.Embedder.APIKey != "" {
		out.Embedder.APIKey = "***"
	}
	if out.Store.DSN != "" {
		out.Store.DSN = "***"
	}
	return out
}

// matcherDeps are the pieces shared by rank, serve and the API.
type matcherDeps struct {
	extractor *vocab.Extractor
	embedder  embedding.Embedder
	matcher   *matching.Matcher
	parser    *resume.Parser
	closers   []func() error
}

func (d *matcherDeps) Close() {
	for _, c := range d.closers {
		_ = c()
	}
}

func newMatcherDeps(ctx context.Context, config *Config, logger *zap.Logger) (*matcherDeps, error) {
	extractor, err := newExtractor(config.Lexicon)
	if err != nil {
		return nil, fmt.Errorf("building vocabulary extractor: %w", err)
	}

	deps := &matcherDeps{extractor: extractor}

	deps.embedder, err = newEmbedder(ctx, config.Embedder, logger, deps)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("building embedder: %w", err)
	}

	deps.matcher, err = matching.New(config.Matching, extractor, deps.embedder, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.parser = resume.NewParser(extractor, logger)
	return deps, nil
}

func newExtractor(cfg LexiconConfig) (*vocab.Extractor, error) {
	lex, err := buildLexicon(cfg)
	if err != nil {
		return nil, err
	}

	tagger, err := vocab.NewProseTagger()
	if err != nil {
		return nil, err
	}

	return vocab.New(lex, tagger)
}

// buildLexicon layers the lexicon file and inline terms over the base lexicon,
// then drops the removed terms.
func buildLexicon(cfg LexiconConfig) (vocab.Lexicon, error) {
	lex := vocab.DefaultLexicon()
	if cfg.ReplaceDefaults {
		lex = vocab.Lexicon{}
	}

	if path := strings.TrimSpace(cfg.File); path != "" {
		fromFile, err := vocab.LoadLexicon(path)
		if err != nil {
			return vocab.Lexicon{}, err
		}
		lex = lex.Merge(fromFile)
	}

	return lex.Merge(cfg.Lexicon).Without(cfg.Remove), nil
}

func newEmbedder(ctx context.Context, cfg EmbedderConfig, log *zap.Logger, deps *matcherDeps) (embedding.Embedder, error) {
	var (
		emb embedding.Embedder
		err error
	)

	switch cfg.Provider {
	case providerSentence, "":
		var local *sentence.Embedder
		if local, err = sentence.New(sentence.Config{
			Model:     cfg.Model,
			ModelPath: cfg.ModelPath,
			ModelsDir: cfg.ModelsDir,
			BatchSize: cfg.BatchSize,
		}, log); err == nil {
			deps.closers = append(deps.closers, local.Close)
			emb = local
		}
	case providerHashing:
		emb, err = embedding.NewHashing(cfg.Dimension)
	case providerCohere:
		var key string
		if key, err = embedderKey(cfg, "cohere api key", "COHERE_API_KEY"); err == nil {
			emb, err = cohere.New(cohere.Config{
				APIKey:    key,
				BaseURL:   cfg.BaseURL,
				Model:     cfg.Model,
				BatchSize: cfg.BatchSize,
				Timeout:   cfg.Timeout,
			}, log)
		}
	case providerOpenAI:
		var key string
		if key, err = embedderKey(cfg, "openai api key", "OPENAI_API_KEY"); err == nil {
			emb, err = openai.New(openai.Config{
				BaseURL:    cfg.BaseURL,
				APIKey:     key,
				Model:      cfg.Model,
				BatchSize:  cfg.BatchSize,
				MaxRetries: cfg.MaxRetries,
				Timeout:    cfg.Timeout,
			}, log)
		}
	case providerGemini:
		var key string
		if key, err = embedderKey(cfg, "gemini api key", "GEMINI_API_KEY"); err == nil {
			emb, err = gemini.New(ctx, key, cfg.Model, cfg.MaxRetries, log)
		}
	default:
		err = fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if url := strings.TrimSpace(cfg.Cache.RedisURL); url != "" {
		cache, err := embedding.NewRedisCache(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("connecting embedding cache: %w", err)
		}
		deps.closers = append(deps.closers, cache.Close)
		emb = embedding.NewCached(emb, cache, cfg.Cache.TTL, log)
	}

	log.Info("embedder ready", zap.String(logger.FieldProvider, emb.Name()))
	return emb, nil
}

func embedderKey(cfg EmbedderConfig, name, env string) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  name,
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   env,
	})
}

func newStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case driverMemory:
		return store.NewMemory(), nil
	case driverPostgres:
		return postgres.New(ctx, cfg.DSN)
	default:
		return store.OpenFile(cfg.Path)
	}
}

func newJSearch(cfg JSearchConfig, log *zap.Logger) (*jsearch.Client, error) {
	key, err := secrets.Load(secrets.Source{
		Name:  "jsearch api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "JSEARCH_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	client := jsearch.New(log, key)
	if cfg.URL != "" {
		client.APIURL = cfg.URL
	}
	if cfg.Host != "" {
		client.Host = cfg.Host
	}
	if cfg.MaxRetries > 0 {
		client.MaxRetries = cfg.MaxRetries
	}
	if cfg.BaseDelay > 0 {
		client.BaseDelay = cfg.BaseDelay
	}
	client.SetRate(cfg.RequestsPerSecond)

	return client, nil
}

func newRanker(st store.Store, deps *matcherDeps, config *Config, logger *zap.Logger) *pipeline.Ranker {
	return &pipeline.Ranker{
		Store:   st,
		Matcher: deps.matcher,
		Filters: config.Filters,
		Logger:  logger,
	}
}
