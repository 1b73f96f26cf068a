// Package vocab extracts normalised skill and keyword sets from free text.
package vocab

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jinzhu/inflection"
)

const (
	wordBefore = `(?:^|[^\p{L}\p{N}_])`
	wordAfter  = `(?:$|[^\p{L}\p{N}_])`
)

// Words that look plural but are already in base form.
var invariantNouns = toSet([]string{
	"data", "media", "analytics", "physics", "mathematics", "economics", "logistics",
	"mechanics", "dynamics", "kinematics", "robotics", "thermodynamics", "mechatronics",
	"news", "series", "species", "ethics", "statistics", "graphics", "electronics",
})

// Vocabulary is the extracted term sets of a text. Both slices are sorted.
type Vocabulary struct {
	Skills   []string `json:"skills"`
	Keywords []string `json:"keywords"`
}

type skillPattern struct {
	name string
	re   *regexp.Regexp
}

// Extractor is safe for concurrent use once constructed.
type Extractor struct {
	skills     []skillPattern
	keywords   map[string]struct{}
	exclusions map[string]struct{}
	tagger     Tagger
}

// New compiles the lexicon. The tagger is required.
func New(lex Lexicon, tagger Tagger) (*Extractor, error) {
	if tagger == nil {
		return nil, errors.New("part-of-speech tagger is required")
	}

	e := &Extractor{
		keywords:   make(map[string]struct{}),
		exclusions: make(map[string]struct{}),
		tagger:     tagger,
	}

	seen := make(map[string]struct{})
	for _, skill := range lex.Skills {
		name := strings.ToLower(strings.TrimSpace(skill))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		re, err := skillRegexp(name)
		if err != nil {
			return nil, fmt.Errorf("compiling skill %q: %w", skill, err)
		}
		e.skills = append(e.skills, skillPattern{name: name, re: re})
	}

	for _, kw := range lex.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			e.keywords[kw] = struct{}{}
		}
	}

	for _, term := range lex.Exclusions {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			e.exclusions[term] = struct{}{}
		}
	}

	return e, nil
}

func skillRegexp(skill string) (*regexp.Regexp, error) {
	parts := strings.Fields(skill)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.Compile(`(?i)` + wordBefore + strings.Join(parts, `\s+`) + wordAfter)
}

// Skills returns the lexicon skills found in text as whole words, lowercased.
func (e *Extractor) Skills(text string) []string {
	found := []string{}
	if strings.TrimSpace(text) == "" {
		return found
	}

	for _, s := range e.skills {
		if s.re.MatchString(text) {
			found = append(found, s.name)
		}
	}
	sort.Strings(found)

	return found
}

// Keywords returns the normalised noun keywords of text.
func (e *Extractor) Keywords(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	tokens, err := e.tagger.Tag(text)
	if err != nil {
		return []string{}, fmt.Errorf("tagging text: %w", err)
	}

	set := make(map[string]struct{})
	for _, tok := range tokens {
		word := strings.ToLower(tok.Text)
		if !isAlpha(word) || utf8.RuneCountInString(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if !isNoun(tok.Tag) {
			continue
		}

		lemma := lemmatize(word, tok.Tag)
		if e.excluded(word) || e.excluded(lemma) {
			continue
		}
		if len(e.keywords) > 0 && !e.inLexicon(word) && !e.inLexicon(lemma) {
			continue
		}

		set[lemma] = struct{}{}
	}

	return sortedKeys(set), nil
}

// Extract returns both term sets of text.
func (e *Extractor) Extract(text string) (Vocabulary, error) {
	keywords, err := e.Keywords(text)
	return Vocabulary{Skills: e.Skills(text), Keywords: keywords}, err
}

func (e *Extractor) excluded(word string) bool {
	_, ok := e.exclusions[word]
	return ok
}

func (e *Extractor) inLexicon(word string) bool {
	_, ok := e.keywords[word]
	return ok
}

func lemmatize(word, tag string) string {
	if !isPlural(tag) {
		return word
	}
	if _, ok := invariantNouns[word]; ok {
		return word
	}
	if strings.HasSuffix(word, "ss") || strings.HasSuffix(word, "us") || strings.HasSuffix(word, "sis") {
		return word
	}
	if singular := inflection.Singular(word); singular != "" {
		return singular
	}
	return word
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
