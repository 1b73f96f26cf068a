// Package gemini embeds texts with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/job-matcher/internal/embedding"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	defaultModel      = "text-embedding-004"
	defaultMaxRetries = 3
	// The batch endpoint accepts at most 100 contents per request.
	maxBatchSize   = 100
	baseRetryDelay = time.Second
	maxRetryDelay  = 30 * time.Second
	taskType       = "SEMANTIC_SIMILARITY"
)

var wait = utils.WaitFor

// contentEmbedder is the part of genai.Models used here.
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type Embedder struct {
	models     contentEmbedder
	model      string
	maxRetries int
	logger     *zap.Logger
}

// New creates an Embedder configured for the Gemini API backend.
func New(ctx context.Context, apiKey, model string, maxRetries int, log *zap.Logger) (*Embedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newEmbedder(client.Models, model, maxRetries, log), nil
}

func newEmbedder(models contentEmbedder, model string, maxRetries int, log *zap.Logger) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Embedder{
		models:     models,
		model:      model,
		maxRetries: maxRetries,
		logger:     logger.WithCommonFields(log, "gemini", model),
	}
}

func (e *Embedder) Name() string { return "gemini/" + e.model }

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	return embedding.EmbedNonBlank(ctx, texts, maxBatchSize, e.embed)
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{
			Role:  string(genai.RoleUser),
			Parts: []*genai.Part{{Text: text}},
		})
	}

	cfg := &genai.EmbedContentConfig{TaskType: taskType}

	for attempt := 0; ; attempt++ {
		resp, err := e.models.EmbedContent(ctx, e.model, contents, cfg)
		if err == nil {
			return toVectors(resp)
		}

		if !isTemporary(err) || attempt+1 >= e.maxRetries {
			return nil, fmt.Errorf("gemini embed content: %w", err)
		}

		delay := utils.Backoff(baseRetryDelay, attempt, maxRetryDelay)
		e.logger.Warn("temporary gemini error, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
		)
		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func toVectors(resp *genai.EmbedContentResponse) ([]embedding.Vector, error) {
	if resp == nil {
		return nil, errors.New("gemini api returned empty response")
	}

	out := make([]embedding.Vector, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		if emb == nil {
			out = append(out, embedding.Vector{})
			continue
		}
		out = append(out, embedding.Vector(emb.Values))
	}
	return out, nil
}

func isTemporary(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}
