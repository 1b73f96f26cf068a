package vocab

import (
	"errors"
	"reflect"
	"testing"
)

func TestSkillsWordBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		skills []string
		text   string
		expect []string
	}{
		{
			name:   "cad is not matched inside autocad",
			skills: []string{"CAD"},
			text:   "I use AutoCAD daily",
			expect: []string{},
		},
		{
			name:   "standalone cad next to autocad",
			skills: []string{"CAD"},
			text:   "I am proficient in AutoCAD and CAD modeling",
			expect: []string{"cad"},
		},
		{
			name:   "both when both are in the lexicon",
			skills: []string{"CAD", "AutoCAD"},
			text:   "I am proficient in AutoCAD and CAD modeling",
			expect: []string{"autocad", "cad"},
		},
		{
			name:   "symbols at the edges",
			skills: []string{"C++", "GD&T", "P&ID"},
			text:   "Expert in C++, GD&T and reading P&ID drawings.",
			expect: []string{"c++", "gd&t", "p&id"},
		},
		{
			name:   "multi word skills tolerate extra whitespace",
			skills: []string{"Fluid Mechanics"},
			text:   "Courses: FLUID\n  mechanics, optics",
			expect: []string{"fluid mechanics"},
		},
		{
			name:   "duplicates collapse",
			skills: []string{"Python", "python"},
			text:   "python python PYTHON",
			expect: []string{"python"},
		},
		{
			name:   "empty text",
			skills: []string{"Python"},
			text:   "   ",
			expect: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := New(Lexicon{Skills: tt.skills}, NewNounTagger())
			if err != nil {
				t.Fatalf("new extractor: %v", err)
			}

			got := e.Skills(tt.text)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	t.Parallel()

	tagger := &FixedTagger{
		Default: "NN",
		Overrides: map[string]string{
			"experienced": "JJ",
			"skilled":     "VBN",
			"seeking":     "VBG",
			"wrote":       "VBD",
			"simulations": "NNS",
			"engineers":   "NNS",
			"data":        "NNS",
		},
	}

	tests := []struct {
		name   string
		lex    Lexicon
		text   string
		expect []string
	}{
		{
			name:   "nouns only, short and stop words dropped",
			lex:    DefaultLexicon(),
			text:   "Experienced Python developer skilled in machine learning and data analysis",
			expect: []string{"analysis", "data", "developer", "learning", "machine", "python"},
		},
		{
			name:   "plural nouns are singularised",
			lex:    DefaultLexicon(),
			text:   "Engineers wrote simulations with data",
			expect: []string{"data", "engineer", "simulation"},
		},
		{
			name:   "exclusion terms and non alphabetic tokens",
			lex:    DefaultLexicon(),
			text:   "Project email January 2024 AI ML",
			expect: []string{},
		},
		{
			name:   "keyword lexicon restricts the output",
			lex:    Lexicon{Keywords: []string{"Simulation", "design"}},
			text:   "design of simulations for cats",
			expect: []string{"design", "simulation"},
		},
		{
			name:   "empty text",
			lex:    DefaultLexicon(),
			text:   "",
			expect: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := New(tt.lex, tagger)
			if err != nil {
				t.Fatalf("new extractor: %v", err)
			}

			got, err := e.Keywords(tt.text)
			if err != nil {
				t.Fatalf("keywords: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

type failingTagger struct{}

func (failingTagger) Tag(string) ([]Token, error) { return nil, errors.New("model unavailable") }

func TestExtractorErrors(t *testing.T) {
	t.Parallel()

	if _, err := New(DefaultLexicon(), nil); err == nil {
		t.Fatalf("expected an error without a tagger")
	}

	e, err := New(DefaultLexicon(), failingTagger{})
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	vocab, err := e.Extract("Python developer")
	if err == nil {
		t.Fatalf("expected tagging error to surface")
	}
	if len(vocab.Keywords) != 0 {
		t.Fatalf("expected no keywords on failure, got %v", vocab.Keywords)
	}
	if !reflect.DeepEqual(vocab.Skills, []string{"python"}) {
		t.Fatalf("skills do not depend on the tagger, got %v", vocab.Skills)
	}
}

func TestProseTagger(t *testing.T) {
	tagger, err := NewProseTagger()
	if err != nil {
		t.Fatalf("new prose tagger: %v", err)
	}

	e, err := New(DefaultLexicon(), tagger)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	got, err := e.Keywords(warmupSentence)
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}

	set := make(map[string]bool, len(got))
	for _, kw := range got {
		set[kw] = true
	}

	for _, want := range []string{"engineer", "documentation"} {
		if !set[want] {
			t.Fatalf("expected %q in %v", want, got)
		}
	}
	for _, unwanted := range []string{"the", "wrote", "for"} {
		if set[unwanted] {
			t.Fatalf("did not expect %q in %v", unwanted, got)
		}
	}
}

func TestLowerSentenceStarts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "first word", input: "Experienced Python developer", want: "experienced Python developer"},
		{name: "every sentence", input: "Led teams. Built tools! Why? Because.", want: "led teams. built tools! why? because."},
		{name: "résumé lines", input: "Summary\n  - Designed pumps\n2019 Shipped", want: "summary\n  - designed pumps\n2019 Shipped"},
		{name: "acronyms kept", input: "AWS and GCP. HR operations", want: "AWS and GCP. HR operations"},
		{name: "non ascii", input: "Économiste confirmé", want: "économiste confirmé"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := lowerSentenceStarts(tt.input); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestProseTaggerScenarioSentences(t *testing.T) {
	tagger, err := NewProseTagger()
	if err != nil {
		t.Fatalf("new prose tagger: %v", err)
	}
	e, err := New(DefaultLexicon(), tagger)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	tests := []struct {
		text    string
		want    []string
		notWant []string
	}{
		{
			text:    "Experienced Python developer skilled in machine learning and data analysis",
			want:    []string{"developer", "analysis"},
			notWant: []string{"experienced", "skilled"},
		},
		{
			text:    "Seeking Python developer for machine learning and AI projects",
			want:    []string{"developer"},
			notWant: []string{"seeking", "project", "projects"},
		},
		{
			text:    "Manage HR operations including recruitment and employee relations",
			want:    []string{"recruitment"},
			notWant: []string{"manage", "including", "developer"},
		},
	}

	for _, tt := range tests {
		got, err := e.Keywords(tt.text)
		if err != nil {
			t.Fatalf("keywords: %v", err)
		}
		set := make(map[string]bool, len(got))
		for _, kw := range got {
			set[kw] = true
		}
		for _, w := range tt.want {
			if !set[w] {
				t.Fatalf("expected %q in %v for %q", w, got, tt.text)
			}
		}
		for _, w := range tt.notWant {
			if set[w] {
				t.Fatalf("did not expect %q in %v for %q", w, got, tt.text)
			}
		}
	}
}
