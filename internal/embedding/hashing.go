package embedding

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultDimension matches the output size of common small sentence encoders.
const DefaultDimension = 384

var hashingStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {}, "then": {}, "else": {},
	"for": {}, "to": {}, "of": {}, "in": {}, "on": {}, "at": {}, "by": {}, "with": {}, "as": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {}, "it": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "from": {}, "up": {}, "into": {}, "about": {},
	"than": {}, "so": {}, "such": {}, "can": {}, "will": {}, "just": {}, "should": {}, "we": {},
	"you": {}, "our": {}, "your": {}, "i": {}, "am": {}, "including": {},
}

// Hashing is an offline embedder. It projects word unigrams and bigrams into a fixed
// number of dimensions with signed feature hashing and L2-normalises the result.
type Hashing struct {
	dimension    int
	tokenPattern *regexp.Regexp
}

// NewHashing returns a hashing embedder; zero dimension selects DefaultDimension.
func NewHashing(dimension int) (*Hashing, error) {
	if dimension < 0 {
		return nil, errors.New("hashing embedder dimension must be positive")
	}
	if dimension == 0 {
		dimension = DefaultDimension
	}

	return &Hashing{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
	}, nil
}

func (h *Hashing) Name() string { return fmt.Sprintf("hashing/fnv-%d", h.dimension) }

func (h *Hashing) Dimension() int { return h.dimension }

func (h *Hashing) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	return EmbedNonBlank(ctx, texts, 0, func(ctx context.Context, batch []string) ([]Vector, error) {
		out := make([]Vector, len(batch))
		for i, text := range batch {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = h.embed(text)
		}
		return out, nil
	})
}

func (h *Hashing) embed(text string) Vector {
	tokens := h.tokenize(text)

	tf := make(map[string]int, len(tokens)*2)
	for i, tok := range tokens {
		tf[tok]++
		if i > 0 {
			tf[tokens[i-1]+" "+tok]++
		}
	}

	acc := make([]float64, h.dimension)
	for term, count := range tf {
		weight := 1 + math.Log(float64(count))
		if strings.Contains(term, " ") {
			weight *= 0.5
		}
		idx, sign := h.bucket(term)
		acc[idx] += sign * weight
	}

	var norm float64
	for _, x := range acc {
		norm += x * x
	}
	norm = math.Sqrt(norm)

	v := make(Vector, h.dimension)
	if norm == 0 {
		return v
	}
	for i, x := range acc {
		v[i] = float32(x / norm)
	}
	return v
}

func (h *Hashing) bucket(term string) (int, float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(term))
	sum := f.Sum64()

	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(h.dimension)), sign
}

func (h *Hashing) tokenize(text string) []string {
	raw := h.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := hashingStopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}
