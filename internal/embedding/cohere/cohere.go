// Package cohere embeds texts with the Cohere Embed API.
package cohere

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	coheresdk "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/embedding"
	"github.com/spigell/job-matcher/internal/logger"
)

const (
	defaultModel = "embed-english-v3.0"
	// Cohere accepts at most 96 texts per embed call.
	maxBatchSize = 96
)

type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint, e.g. for a proxy.
	BaseURL   string
	Model     string
	BatchSize int
	Timeout   time.Duration
}

type Embedder struct {
	client    *cohereclient.Client
	model     string
	batchSize int
	logger    *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Embedder, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("cohere api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	batch := cfg.BatchSize
	if batch <= 0 || batch > maxBatchSize {
		batch = maxBatchSize
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, cohereclient.WithBaseURL(base))
	}
	client := cohereclient.NewClient(opts...)

	return &Embedder{
		client:    client,
		model:     model,
		batchSize: batch,
		logger:    logger.WithCommonFields(log, "cohere", model),
	}, nil
}

func (e *Embedder) Name() string { return "cohere/" + e.model }

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	return embedding.EmbedNonBlank(ctx, texts, e.batchSize, e.embed)
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	e.logger.Debug("requesting embeddings", zap.Int("texts", len(texts)))

	resp, err := e.client.V2.Embed(ctx, &coheresdk.V2EmbedRequest{
		Texts:          texts,
		Model:          e.model,
		InputType:      coheresdk.EmbedInputTypeSearchDocument,
		EmbeddingTypes: []coheresdk.EmbeddingType{coheresdk.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embed: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, errors.New("cohere embed returned no float embeddings")
	}

	out := make([]embedding.Vector, 0, len(resp.Embeddings.Float))
	for _, values := range resp.Embeddings.Float {
		out = append(out, embedding.FromFloat64(values))
	}
	return out, nil
}
