// Package embedding maps text to dense vectors and compares them.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrCountMismatch is returned when a provider answers with a different number of
// vectors than texts sent.
var ErrCountMismatch = errors.New("embedding count mismatch")

// Vector is a dense embedding. A nil Vector means "no embedding", which is what blank
// input produces; it is distinct from a zero vector returned by a model.
type Vector []float32

// Embedder turns texts into vectors. Implementations are constructed once per process
// and must be safe for concurrent use.
type Embedder interface {
	// Name identifies the provider and model, e.g. "cohere/embed-english-v3.0".
	Name() string
	// EmbedBatch returns one vector per input text, nil for blank texts.
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)
}

// Embed embeds a single text. Blank text yields a nil Vector and no error.
func Embed(ctx context.Context, e Embedder, text string) (Vector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: sent 1, got %d", ErrCountMismatch, len(vectors))
	}

	return vectors[0], nil
}

// BatchFunc embeds texts that are known to be non-blank.
type BatchFunc func(ctx context.Context, texts []string) ([]Vector, error)

// EmbedNonBlank sends only the non-blank texts to fn, in chunks of at most size
// (unbounded when size <= 0), and scatters the results back to input positions.
func EmbedNonBlank(ctx context.Context, texts []string, size int, fn BatchFunc) ([]Vector, error) {
	out := make([]Vector, len(texts))

	index := make([]int, 0, len(texts))
	pending := make([]string, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		index = append(index, i)
		pending = append(pending, text)
	}

	if size <= 0 {
		size = len(pending)
	}

	for start := 0; start < len(pending); start += size {
		end := min(start+size, len(pending))

		vectors, err := fn(ctx, pending[start:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("%w: sent %d, got %d", ErrCountMismatch, end-start, len(vectors))
		}

		for j, v := range vectors {
			out[index[start+j]] = v
		}
	}

	return out, nil
}

// Similarity is the cosine similarity of a and b in [-1, 1]. It is 0 when either
// vector is missing, zero or the dimensions differ.
func Similarity(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}

	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, sim))
}

// FromFloat64 converts provider output to a Vector.
func FromFloat64(values []float64) Vector {
	v := make(Vector, len(values))
	for i, x := range values {
		v[i] = float32(x)
	}
	return v
}
