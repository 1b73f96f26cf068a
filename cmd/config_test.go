package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/posting"
)

const sampleConfig = `
resume: cv.md
search:
  query: mechanical engineer
  location: Austin, TX
  num-pages: 3
  employment-types: [FULLTIME]
jsearch:
  base-delay: 2s
matching:
  keyword-weight: 0.3
  semantic-weight: 0.7
lexicon:
  skills: [Rust]
embedder:
  provider: OpenAI
  cache:
    redis-url: redis://localhost:6379/0
store:
  driver: memory
filters:
  exclude-employers: [Initech]
  minimum-score: 40
`

func newTestViper(t *testing.T, content string) *viper.Viper {
	t.Helper()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(content)); err != nil {
		t.Fatalf("read config: %v", err)
	}
	return v
}

func TestDecodeConfig(t *testing.T) {
	t.Parallel()

	config, err := decodeConfig(newTestViper(t, sampleConfig))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if config.Search.FullQuery() != "mechanical engineer in Austin, TX" || config.Search.NumPages != 3 {
		t.Fatalf("unexpected search params %+v", config.Search)
	}
	if len(config.Search.EmploymentTypes) != 1 || config.Search.EmploymentTypes[0] != "FULLTIME" {
		t.Fatalf("employment types = %v", config.Search.EmploymentTypes)
	}
	if config.JSearch.BaseDelay != 2*time.Second || config.JSearch.MaxRetries != 3 {
		t.Fatalf("unexpected jsearch config %+v", config.JSearch)
	}
	if config.Matching.KeywordWeight != 0.3 || config.Matching.BatchSize != matching.DefaultBatchSize {
		t.Fatalf("unexpected matching config %+v", config.Matching)
	}
	if len(config.Lexicon.Skills) != 1 || config.Lexicon.Skills[0] != "Rust" {
		t.Fatalf("lexicon skills = %v", config.Lexicon.Skills)
	}
	if config.Embedder.Provider != providerOpenAI || config.Embedder.Cache.TTL != 720*time.Hour {
		t.Fatalf("unexpected embedder config %+v", config.Embedder)
	}
	if config.Filters.MinimumScore != 40 || config.Filters.Employers[0] != "Initech" {
		t.Fatalf("unexpected filters %+v", config.Filters)
	}
	if config.Watch.Schedule != "@every 6h" || config.Server.Addr != ":8080" {
		t.Fatalf("defaults not applied: %+v %+v", config.Watch, config.Server)
	}
}

func TestDecodeConfigDefaults(t *testing.T) {
	t.Parallel()

	config, err := decodeConfig(newTestViper(t, ""))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if config.Store.Driver != driverFile || config.Store.Path != "data/postings.json" {
		t.Fatalf("unexpected store defaults %+v", config.Store)
	}
	if config.Embedder.Provider != providerSentence || config.Embedder.ModelsDir != "models" || config.Embedder.Dimension != 384 {
		t.Fatalf("unexpected embedder defaults %+v", config.Embedder)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown provider", content: "embedder:\n  provider: word2vec\n", want: "unknown provider"},
		{name: "unknown driver", content: "store:\n  driver: sqlite\n", want: "unknown driver"},
		{name: "postgres without dsn", content: "store:\n  driver: postgres\n", want: "dsn is required"},
		{name: "zero weights", content: "matching:\n  keyword-weight: 0\n  semantic-weight: 0\n", want: "matching"},
		{name: "minimum score", content: "filters:\n  minimum-score: 101\n", want: "minimum score"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := decodeConfig(newTestViper(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestRedactedHidesSecrets(t *testing.T) {
	t.Parallel()

	config := &Config{
		JSearch:  JSearchConfig{APIKey: "rapid"},
		Embedder: EmbedderConfig{APIKey: "sk-123"},
		Store:    StoreConfig{DSN: "postgres://u:p@h/db"},
	}
	out := redacted(config)
	if out.JSearch.APIKey != "***" || out.Embedder.APIKey != "***" || out.Store.DSN != "***" {
		t.Fatalf("secrets leaked: %+v", out)
	}
	if config.JSearch.APIKey != "rapid" {
		t.Fatal("redacted must not modify the original")
	}
}

func TestPrintRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printRows(&buf, matching.Rows{
		{ID: "j1", Title: "ML Engineer", Company: "Acme", Status: posting.StatusNew, FinalScore: 80.83,
			KeywordScore: 66.67, SemanticScore: 95, MatchedKeywords: []string{"learning", "python"}},
		{ID: "j2", Title: "Analyst", Company: "Globex", Status: posting.StatusSeen, Error: "embedding unavailable"},
	})

	out := buf.String()
	for _, want := range []string{"SCORE", "80.83", "learning, python", "degraded: embedding unavailable"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBuildLexicon(t *testing.T) {
	t.Parallel()

	contains := func(list []string, term string) bool {
		for _, v := range list {
			if strings.EqualFold(v, term) {
				return true
			}
		}
		return false
	}

	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, skills, exclusions []string)
	}{
		{
			name:    "defaults with additions",
			content: "lexicon:\n  skills: [Rust]\n",
			check: func(t *testing.T, skills, exclusions []string) {
				if !contains(skills, "Rust") || !contains(skills, "Python") || !contains(exclusions, "team") {
					t.Fatalf("expected defaults plus Rust, got skills=%v", skills)
				}
			},
		},
		{
			name:    "remove default terms",
			content: "lexicon:\n  remove:\n    skills: [design, ASSEMBLY]\n    exclusions: [team]\n",
			check: func(t *testing.T, skills, exclusions []string) {
				if contains(skills, "Design") || contains(skills, "Assembly") || contains(exclusions, "team") {
					t.Fatalf("removed terms still present: skills=%v exclusions=%v", skills, exclusions)
				}
				if !contains(exclusions, "teams") || !contains(skills, "Python") {
					t.Fatalf("unrelated terms dropped")
				}
			},
		},
		{
			name:    "replace defaults",
			content: "lexicon:\n  replace-defaults: true\n  skills: [Go, Rust]\n",
			check: func(t *testing.T, skills, exclusions []string) {
				if len(skills) != 2 || len(exclusions) != 0 {
					t.Fatalf("expected only configured terms, got skills=%v exclusions=%v", skills, exclusions)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config, err := decodeConfig(newTestViper(t, tt.content))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			lex, err := buildLexicon(config.Lexicon)
			if err != nil {
				t.Fatalf("build lexicon: %v", err)
			}
			tt.check(t, lex.Skills, lex.Exclusions)
		})
	}
}
