// Package matching scores résumés against postings by blending keyword overlap with
// semantic similarity.
package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/embedding"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/posting"
	"github.com/spigell/job-matcher/internal/resume"
)

const maxMissingKeywords = 20

// KeywordExtractor extracts term sets from posting text.
type KeywordExtractor interface {
	Skills(text string) []string
	Keywords(text string) ([]string, error)
}

// Matcher is safe for concurrent use.
type Matcher struct {
	cfg       Config
	extractor KeywordExtractor
	embedder  embedding.Embedder
	logger    *zap.Logger
}

func New(cfg Config, extractor KeywordExtractor, embedder embedding.Embedder, log *zap.Logger) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("matching config: %w", err)
	}
	if extractor == nil {
		return nil, errors.New("keyword extractor is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	return &Matcher{
		cfg:       cfg,
		extractor: extractor,
		embedder:  embedder,
		logger:    logger.WithFields(log),
	}, nil
}

// Match scores one posting. It always returns a well-formed Result: empty input
// yields zeros and collaborator failures zero the affected component.
func (m *Matcher) Match(ctx context.Context, r *resume.Parsed, p *posting.Posting) Result {
	if r.IsEmpty() || p == nil || strings.TrimSpace(p.Description) == "" {
		return zeroResult()
	}

	vectors, err := m.embedder.EmbedBatch(ctx, []string{r.Text, p.Description})
	if err == nil && len(vectors) != 2 {
		err = fmt.Errorf("%w: sent 2, got %d", embedding.ErrCountMismatch, len(vectors))
	}

	var rv, pv embedding.Vector
	if err == nil {
		rv, pv = vectors[0], vectors[1]
	}

	return m.evaluate(r, p, rv, pv, err).Result()
}

// evaluate runs the scoring steps for a non-empty pair. embedErr, when set, zeroes
// the semantic component.
func (m *Matcher) evaluate(r *resume.Parsed, p *posting.Posting, resumeVec, postingVec embedding.Vector, embedErr error) Row {
	row := NewRow(p, zeroResult())
	if r.IsEmpty() || strings.TrimSpace(p.Description) == "" {
		return row
	}

	var problems []string

	postingSkills := m.extractor.Skills(p.Description + " " + p.Title)
	postingKeywords, err := m.extractor.Keywords(p.Description)
	if err != nil {
		problems = append(problems, "keywords: "+err.Error())
		postingKeywords = []string{}
	}

	resumeTerms := r.Keywords
	if m.cfg.IncludeSkills {
		resumeTerms = Union(r.Keywords, r.Skills)
		postingKeywords = Union(postingKeywords, postingSkills)
	}

	keywordScore := Jaccard(resumeTerms, postingKeywords)

	var semanticScore float64
	if embedErr != nil {
		problems = append(problems, "embedding: "+embedErr.Error())
	} else {
		raw := embedding.Similarity(resumeVec, postingVec)
		semanticScore = (raw + 1) / 2
	}

	row.FinalScore = round2((keywordScore*m.cfg.KeywordWeight + semanticScore*m.cfg.SemanticWeight) * 100)
	row.KeywordScore = round2(keywordScore * 100)
	row.SemanticScore = round2(semanticScore * 100)
	row.MatchedKeywords = Intersect(resumeTerms, postingKeywords)
	row.PostingSkills = postingSkills

	missing := Difference(postingKeywords, resumeTerms)
	if len(missing) > maxMissingKeywords {
		missing = missing[:maxMissingKeywords]
	}
	row.MissingKeywords = missing

	if len(problems) > 0 {
		row.Error = strings.Join(problems, "; ")
		m.logger.Warn("degraded score",
			zap.String(logger.FieldPostingID, p.ID),
			zap.String("reason", row.Error),
		)
	}

	return row
}
