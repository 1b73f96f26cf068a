package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
)

const cacheKeyPrefix = "embedding"

// Cache stores encoded vectors by key.
type Cache interface {
	// GetMany returns one entry per key, nil for misses.
	GetMany(ctx context.Context, keys []string) ([][]byte, error)
	SetMany(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
}

// Cached wraps an Embedder with a read-through cache. Cache failures never fail an
// embedding call.
type Cached struct {
	inner  Embedder
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(inner Embedder, cache Cache, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger.WithFields(log, zap.String("cache_namespace", inner.Name())),
	}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, len(texts))

	keys := make([]string, 0, len(texts))
	positions := make([]int, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		keys = append(keys, c.key(text))
		positions = append(positions, i)
	}
	if len(keys) == 0 {
		return out, nil
	}

	cached, err := c.cache.GetMany(ctx, keys)
	if err != nil || len(cached) != len(keys) {
		c.logger.Warn("embedding cache lookup failed", zap.Error(err))
		cached = make([][]byte, len(keys))
	}

	var missTexts, missKeys []string
	var missPositions []int
	for j, raw := range cached {
		if v, ok := decodeVector(raw); ok {
			out[positions[j]] = v
			continue
		}
		missTexts = append(missTexts, texts[positions[j]])
		missKeys = append(missKeys, keys[j])
		missPositions = append(missPositions, positions[j])
	}

	c.logger.Debug("embedding cache lookup",
		zap.Int("hits", len(keys)-len(missTexts)),
		zap.Int("misses", len(missTexts)),
	)

	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrCountMismatch, len(missTexts), len(fresh))
	}

	entries := make(map[string][]byte, len(fresh))
	for j, v := range fresh {
		out[missPositions[j]] = v
		if v != nil {
			entries[missKeys[j]] = encodeVector(v)
		}
	}

	if err := c.cache.SetMany(ctx, entries, c.ttl); err != nil {
		c.logger.Warn("embedding cache store failed", zap.Error(err))
	}

	return out, nil
}

func (c *Cached) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + ":" + c.inner.Name() + ":" + hex.EncodeToString(sum[:])
}

func encodeVector(v Vector) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(raw []byte) (Vector, bool) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, false
	}
	v := make(Vector, len(raw)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return v, true
}
