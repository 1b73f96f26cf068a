package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func noWait(t *testing.T) *[]time.Duration {
	t.Helper()

	original := wait
	var delays []time.Duration
	wait = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { wait = original })

	return &delays
}

func TestEmbedBatchRetriesAndReorders(t *testing.T) {
	delays := noWait(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" || r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("unexpected request %s auth=%q", r.URL.Path, r.Header.Get("Authorization"))
		}

		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		case 2:
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Input) != 2 || req.Model != "test-model" {
			t.Errorf("unexpected request body: %+v", req)
		}

		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/", APIKey: "key", Model: "test-model"}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	vectors, err := c.EmbedBatch(context.Background(), []string{"first", "", "second"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(*delays) != 2 || (*delays)[0] != 2*time.Second || (*delays)[1] != 400*time.Millisecond {
		t.Fatalf("unexpected retry delays: %v", *delays)
	}

	if vectors[0][0] != 1 || vectors[2][1] != 1 {
		t.Fatalf("vectors not ordered by index: %v", vectors)
	}
	if vectors[1] != nil {
		t.Fatalf("expected nil vector for blank text")
	}
}

func TestEmbedBatchClientErrorIsNotRetried(t *testing.T) {
	noWait(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad model"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, APIKey: "key"}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := c.EmbedBatch(context.Background(), []string{"text"}); err == nil {
		t.Fatalf("expected an error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Fatalf("expected an error without api key")
	}
}
