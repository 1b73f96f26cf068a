// Package sentence embeds texts locally with a pretrained sentence-transformer
// model (all-MiniLM-L6-v2 by default), without any remote API.
package sentence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/embedding"
	"github.com/spigell/job-matcher/internal/logger"
)

const (
	// DefaultModel is an ONNX export of sentence-transformers/all-MiniLM-L6-v2.
	DefaultModel     = "KnightsAnalytics/all-MiniLM-L6-v2"
	DefaultDimension = 384
	DefaultModelsDir = "models"

	defaultBatchSize = 32
)

type Config struct {
	// Model is the Hugging Face repository downloaded when ModelPath is empty.
	Model string
	// ModelPath points to an already downloaded model directory.
	ModelPath string
	// ModelsDir is where downloaded models are kept.
	ModelsDir string
	BatchSize int
}

// runFunc turns a batch of non-blank texts into one vector per text.
type runFunc func(texts []string) ([][]float32, error)

// Embedder is safe for concurrent use. Calls into the model are serialised.
type Embedder struct {
	model     string
	batchSize int
	logger    *zap.Logger

	mu    sync.Mutex
	run   runFunc
	close func() error
}

// New loads the model, downloading it first when it is not present locally.
func New(cfg Config, log *zap.Logger) (*Embedder, error) {
	cfg = cfg.withDefaults()
	log = logger.WithCommonFields(log, "sentence", cfg.Model)

	path := strings.TrimSpace(cfg.ModelPath)
	if path == "" {
		var err error
		if path, err = fetchModel(cfg.Model, cfg.ModelsDir, log); err != nil {
			return nil, err
		}
	}

	run, closeFn, err := loadModel(path)
	if err != nil {
		return nil, fmt.Errorf("loading sentence model %q: %w", path, err)
	}
	log.Info("sentence model loaded", zap.String("path", path))

	return newEmbedder(cfg, run, closeFn, log), nil
}

func (c Config) withDefaults() Config {
	if c.Model = strings.TrimSpace(c.Model); c.Model == "" {
		c.Model = DefaultModel
	}
	if c.ModelsDir = strings.TrimSpace(c.ModelsDir); c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	return c
}

func newEmbedder(cfg Config, run runFunc, closeFn func() error, log *zap.Logger) *Embedder {
	return &Embedder{
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		logger:    logger.WithFields(log),
		run:       run,
		close:     closeFn,
	}
}

func (e *Embedder) Name() string { return "sentence/" + e.model }

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	return embedding.EmbedNonBlank(ctx, texts, e.batchSize, e.embed)
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run == nil {
		return nil, errors.New("sentence model is closed")
	}

	e.logger.Debug("running sentence model", zap.Int("texts", len(texts)))
	raw, err := e.run(texts)
	if err != nil {
		return nil, fmt.Errorf("sentence model: %w", err)
	}

	out := make([]embedding.Vector, 0, len(raw))
	for _, v := range raw {
		out = append(out, embedding.Vector(v))
	}
	return out, nil
}

// Close releases the model session. Later EmbedBatch calls fail.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.run = nil
	if e.close == nil {
		return nil
	}
	closeFn := e.close
	e.close = nil
	return closeFn()
}
