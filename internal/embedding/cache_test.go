package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	fail    bool
}

func (c *mapCache) GetMany(_ context.Context, keys []string) ([][]byte, error) {
	if c.fail {
		return nil, errors.New("connection refused")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = c.entries[k]
	}
	return out, nil
}

func (c *mapCache) SetMany(_ context.Context, entries map[string][]byte, _ time.Duration) error {
	if c.fail {
		return errors.New("connection refused")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range entries {
		c.entries[k] = v
	}
	return nil
}

func TestCachedEmbedder(t *testing.T) {
	t.Parallel()

	inner := &countingEmbedder{}
	cache := &mapCache{entries: make(map[string][]byte)}
	cached := NewCached(inner, cache, time.Hour, nil)

	first, err := cached.EmbedBatch(context.Background(), []string{"go", "", "rust"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if first[1] != nil {
		t.Fatalf("expected nil for blank text")
	}
	if len(cache.entries) != 2 {
		t.Fatalf("expected 2 cached entries, got %d", len(cache.entries))
	}

	calls := inner.calls()
	second, err := cached.EmbedBatch(context.Background(), []string{"rust", "go"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls() != calls {
		t.Fatalf("expected cache hits to skip the provider")
	}
	if Similarity(second[0], first[2]) != 1 || Similarity(second[1], first[0]) != 1 {
		t.Fatalf("cached vectors differ from fresh ones")
	}
}

func TestCachedEmbedderSurvivesCacheFailure(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	inner := &countingEmbedder{}
	cached := NewCached(inner, &mapCache{fail: true}, time.Hour, zap.New(core))

	vectors, err := cached.EmbedBatch(context.Background(), []string{"go"})
	if err != nil {
		t.Fatalf("cache failure must not fail embedding: %v", err)
	}
	if vectors[0] == nil {
		t.Fatalf("expected a vector from the provider")
	}
	if observed.Len() != 2 {
		t.Fatalf("expected lookup and store warnings, got %d", observed.Len())
	}
}
