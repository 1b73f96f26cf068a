package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/genai"
)

type fakeModels struct {
	errs  []error
	calls int
	sizes []int
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.calls++
	f.sizes = append(f.sizes, len(contents))
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if cfg == nil || cfg.TaskType != taskType {
		return nil, errors.New("unexpected config")
	}

	resp := &genai.EmbedContentResponse{}
	for i := range contents {
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: []float32{float32(i + 1), 0}})
	}
	return resp, nil
}

func skipWait(t *testing.T) {
	t.Helper()
	original := wait
	wait = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { wait = original })
}

func TestEmbedderRetriesOnTemporaryError(t *testing.T) {
	skipWait(t)

	models := &fakeModels{errs: []error{genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}}}
	e := newEmbedder(models, "", 3, nil)

	vectors, err := e.EmbedBatch(context.Background(), []string{"python", "", "go"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls)
	}
	if models.sizes[1] != 2 {
		t.Fatalf("blank text must not be sent, got batch of %d", models.sizes[1])
	}
	if vectors[1] != nil || vectors[0][0] != 1 || vectors[2][0] != 2 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
	if e.Name() != "gemini/"+defaultModel {
		t.Fatalf("unexpected name %q", e.Name())
	}
}

func TestEmbedderDoesNotRetryPermanentError(t *testing.T) {
	skipWait(t)

	models := &fakeModels{errs: []error{genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}}}
	e := newEmbedder(models, "text-embedding-004", 3, nil)

	if _, err := e.EmbedBatch(context.Background(), []string{"python"}); err == nil {
		t.Fatalf("expected an error")
	}
	if models.calls != 1 {
		t.Fatalf("expected a single call, got %d", models.calls)
	}
}

func TestEmbedderGivesUpAfterMaxRetries(t *testing.T) {
	skipWait(t)

	tooMany := genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}
	models := &fakeModels{errs: []error{tooMany, tooMany, tooMany, tooMany}}
	e := newEmbedder(models, "", 3, nil)

	if _, err := e.EmbedBatch(context.Background(), []string{"python"}); err == nil {
		t.Fatalf("expected an error")
	}
	if models.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", models.calls)
	}
}
