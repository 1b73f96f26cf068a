package matching

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/spigell/job-matcher/internal/embedding"
	"github.com/spigell/job-matcher/internal/posting"
	"github.com/spigell/job-matcher/internal/resume"
	"github.com/spigell/job-matcher/internal/vocab"
)

const (
	mlResume  = "Experienced Python developer skilled in machine learning and data analysis"
	mlPosting = "Seeking Python developer for machine learning and AI projects"
	hrPosting = "Manage HR operations including recruitment and employee relations"
)

// stubEmbedder returns fixed vectors per text. Texts containing fail are rejected.
type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string]embedding.Vector
	fail    string
	batches []int
}

func (s *stubEmbedder) Name() string { return "stub/test" }

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	return embedding.EmbedNonBlank(ctx, texts, 0, func(_ context.Context, batch []string) ([]embedding.Vector, error) {
		s.mu.Lock()
		s.batches = append(s.batches, len(batch))
		s.mu.Unlock()

		out := make([]embedding.Vector, 0, len(batch))
		for _, text := range batch {
			if s.fail != "" && strings.Contains(text, s.fail) {
				return nil, errors.New("model overloaded")
			}
			v, ok := s.vectors[text]
			if !ok {
				v = embedding.Vector{0, 1}
			}
			out = append(out, v)
		}
		return out, nil
	})
}

func (s *stubEmbedder) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// withCosine returns a unit vector whose cosine with (1, 0) is c.
func withCosine(c float64) embedding.Vector {
	return embedding.Vector{float32(c), float32(math.Sqrt(1 - c*c))}
}

func newScenarioEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string]embedding.Vector{
		mlResume:  {1, 0},
		mlPosting: withCosine(0.9),
		hrPosting: withCosine(-0.7),
	}}
}

func newTestExtractor(t *testing.T) *vocab.Extractor {
	t.Helper()

	tagger := &vocab.FixedTagger{
		Default: "NN",
		Overrides: map[string]string{
			"experienced": "JJ",
			"skilled":     "VBN",
			"seeking":     "VBG",
			"manage":      "VB",
			"including":   "VBG",
			"projects":    "NNS",
			"operations":  "NNS",
			"relations":   "NNS",
		},
	}

	e, err := vocab.New(vocab.DefaultLexicon(), tagger)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	return e
}

func parseResume(t *testing.T, e *vocab.Extractor, text string) *resume.Parsed {
	t.Helper()

	parsed, err := resume.NewParser(e, nil).FromText(text)
	if err != nil {
		t.Fatalf("parse resume: %v", err)
	}
	return parsed
}

func newTestMatcher(t *testing.T, cfg Config, emb embedding.Embedder) (*Matcher, *vocab.Extractor) {
	t.Helper()

	e := newTestExtractor(t)
	m, err := New(cfg, e, emb, nil)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}
	return m, e
}

func near(a, b float64) bool { return math.Abs(a-b) <= 0.011 }

func TestMatchScenarios(t *testing.T) {
	t.Parallel()

	m, e := newTestMatcher(t, DefaultConfig(), newScenarioEmbedder())
	r := parseResume(t, e, mlResume)

	ml := m.Match(context.Background(), r, &posting.Posting{ID: "ml", Title: "ML Engineer", Description: mlPosting})
	if !near(ml.KeywordScore, 66.67) || !near(ml.SemanticScore, 95) || !near(ml.FinalScore, 80.83) {
		t.Fatalf("unexpected ml scores: %+v", ml)
	}
	if ml.FinalScore <= 70 {
		t.Fatalf("expected ml posting above 70, got %v", ml.FinalScore)
	}
	if want := []string{"developer", "learning", "machine", "python"}; !reflect.DeepEqual(ml.MatchedKeywords, want) {
		t.Fatalf("expected matched %v, got %v", want, ml.MatchedKeywords)
	}

	hr := m.Match(context.Background(), r, &posting.Posting{ID: "hr", Title: "HR Manager", Description: hrPosting})
	if hr.KeywordScore != 0 || len(hr.MatchedKeywords) != 0 {
		t.Fatalf("expected no keyword overlap, got %+v", hr)
	}
	if hr.FinalScore >= 20 || !near(hr.FinalScore, 7.5) {
		t.Fatalf("expected hr posting near 7.5, got %v", hr.FinalScore)
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	t.Parallel()

	emb := newScenarioEmbedder()
	m, e := newTestMatcher(t, DefaultConfig(), emb)
	r := parseResume(t, e, mlResume)

	tests := []struct {
		name    string
		resume  *resume.Parsed
		posting *posting.Posting
	}{
		{name: "empty description", resume: r, posting: &posting.Posting{ID: "1", Title: "Python"}},
		{name: "blank description", resume: r, posting: &posting.Posting{ID: "1", Description: "  \n"}},
		{name: "empty resume", resume: &resume.Parsed{}, posting: &posting.Posting{ID: "1", Description: mlPosting}},
		{name: "nil resume", resume: nil, posting: &posting.Posting{ID: "1", Description: mlPosting}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(context.Background(), tt.resume, tt.posting)
			if got.FinalScore != 0 || got.KeywordScore != 0 || got.SemanticScore != 0 || len(got.MatchedKeywords) != 0 {
				t.Fatalf("expected zero result, got %+v", got)
			}
			if got.MatchedKeywords == nil {
				t.Fatalf("expected an empty, non-nil matched set")
			}
		})
	}

	if emb.calls() != 0 {
		t.Fatalf("empty inputs must not be embedded")
	}
}

func TestMatchDegradesOnEmbeddingFailure(t *testing.T) {
	t.Parallel()

	emb := newScenarioEmbedder()
	emb.fail = "Seeking"
	m, e := newTestMatcher(t, DefaultConfig(), emb)

	got := m.Match(context.Background(), parseResume(t, e, mlResume), &posting.Posting{ID: "ml", Description: mlPosting})
	if got.SemanticScore != 0 {
		t.Fatalf("expected semantic score to be zeroed, got %v", got.SemanticScore)
	}
	if !near(got.KeywordScore, 66.67) || !near(got.FinalScore, 33.33) {
		t.Fatalf("expected keyword-only score, got %+v", got)
	}
}

func TestMatchIncludeSkills(t *testing.T) {
	t.Parallel()

	description := "Machine Learning engineer using TensorFlow"

	baseline, e := newTestMatcher(t, DefaultConfig(), newScenarioEmbedder())
	r := parseResume(t, e, "Data scientist with Machine Learning and TensorFlow")

	got := baseline.Match(context.Background(), r, &posting.Posting{ID: "1", Description: description})
	for _, kw := range got.MatchedKeywords {
		if kw == "machine learning" {
			t.Fatalf("skills must not be compared by default, got %v", got.MatchedKeywords)
		}
	}

	cfg := DefaultConfig()
	cfg.IncludeSkills = true
	folded, _ := newTestMatcher(t, cfg, newScenarioEmbedder())

	withSkills := folded.Match(context.Background(), r, &posting.Posting{ID: "1", Description: description})
	found := false
	for _, kw := range withSkills.MatchedKeywords {
		if kw == "machine learning" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected machine learning among matched terms, got %v", withSkills.MatchedKeywords)
	}
	if withSkills.KeywordScore < got.KeywordScore {
		t.Fatalf("folding shared skills must not lower the keyword score: %v < %v", withSkills.KeywordScore, got.KeywordScore)
	}
}

func TestFinalScoreBounds(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	r := parseResume(t, e, mlResume)

	for _, wk := range []float64{0, 0.1, 0.25, 0.5, 0.75, 1} {
		cfg := DefaultConfig()
		cfg.KeywordWeight, cfg.SemanticWeight = wk, 1-wk

		for _, cos := range []float64{-1, -0.3, 0, 0.6, 1} {
			emb := &stubEmbedder{vectors: map[string]embedding.Vector{mlResume: {1, 0}, mlPosting: withCosine(cos)}}
			m, err := New(cfg, e, emb, nil)
			if err != nil {
				t.Fatalf("new matcher: %v", err)
			}

			got := m.Match(context.Background(), r, &posting.Posting{ID: "1", Description: mlPosting})
			if got.FinalScore < 0 || got.FinalScore > 100 {
				t.Fatalf("final score out of bounds for wk=%v cos=%v: %v", wk, cos, got.FinalScore)
			}
			want := round2((2.0/3.0*wk + (cos+1)/2*(1-wk)) * 100)
			if !near(got.FinalScore, want) {
				t.Fatalf("wk=%v cos=%v: expected %v, got %v", wk, cos, want, got.FinalScore)
			}
		}
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	emb := newScenarioEmbedder()

	bad := []Config{
		{KeywordWeight: -1, SemanticWeight: 1, Workers: 1, BatchSize: 1},
		{Workers: 1, BatchSize: 1},
		{KeywordWeight: 1, Workers: 0, BatchSize: 1},
		{KeywordWeight: 1, Workers: 1, BatchSize: 0},
	}
	for _, cfg := range bad {
		if _, err := New(cfg, e, emb, nil); err == nil {
			t.Fatalf("expected config %+v to be rejected", cfg)
		}
	}

	if _, err := New(DefaultConfig(), nil, emb, nil); err == nil {
		t.Fatalf("expected missing extractor to be rejected")
	}
	if _, err := New(DefaultConfig(), e, nil, nil); err == nil {
		t.Fatalf("expected missing embedder to be rejected")
	}
}
