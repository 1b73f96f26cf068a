package vocab

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

const warmupSentence = "The engineer wrote documentation for the simulation software."

// Token is a word with its Penn Treebank part-of-speech tag.
type Token struct {
	Text string
	Tag  string
}

// Tagger assigns part-of-speech tags to the words of a text.
type Tagger interface {
	Tag(text string) ([]Token, error)
}

// ProseTagger tags text with the averaged perceptron model shipped with prose.
type ProseTagger struct{}

// NewProseTagger loads the tagging model and checks it on a warm-up sentence.
func NewProseTagger() (*ProseTagger, error) {
	t := &ProseTagger{}

	tokens, err := t.Tag(warmupSentence)
	if err != nil {
		return nil, fmt.Errorf("loading part-of-speech model: %w", err)
	}
	if len(tokens) == 0 {
		return nil, errors.New("loading part-of-speech model: warm-up sentence produced no tokens")
	}

	return t, nil
}

// Tag lowercases sentence openers first: the model reads a capitalised first word
// as a proper noun.
func (t *ProseTagger) Tag(text string) ([]Token, error) {
	doc, err := prose.NewDocument(lowerSentenceStarts(text),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}

	raw := doc.Tokens()
	tokens := make([]Token, 0, len(raw))
	for _, tok := range raw {
		tokens = append(tokens, Token{Text: tok.Text, Tag: tok.Tag})
	}

	return tokens, nil
}

// FixedTagger splits text on non-letters and tags every word with Default unless
// Overrides (keyed by lowercase word) says otherwise. It is used when part-of-speech
// filtering is switched off.
type FixedTagger struct {
	Default   string
	Overrides map[string]string
}

// NewNounTagger returns a FixedTagger that treats every word as a common noun.
func NewNounTagger() *FixedTagger {
	return &FixedTagger{Default: "NN"}
}

func (t *FixedTagger) Tag(text string) ([]Token, error) {
	words := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	tokens := make([]Token, 0, len(words))
	for _, w := range words {
		tag := t.Default
		if override, ok := t.Overrides[strings.ToLower(w)]; ok {
			tag = override
		}
		tokens = append(tokens, Token{Text: w, Tag: tag})
	}
	return tokens, nil
}

// lowerSentenceStarts lowercases the first letter of every sentence and line
// unless the word looks like an acronym ("AWS", "HR").
func lowerSentenceStarts(text string) string {
	runes := []rune(text)
	start := true
	for i, r := range runes {
		switch {
		case r == '.' || r == '!' || r == '?' || r == '\n':
			start = true
		case unicode.IsLetter(r):
			if start && unicode.IsUpper(r) && (i+1 == len(runes) || !unicode.IsUpper(runes[i+1])) {
				runes[i] = unicode.ToLower(r)
			}
			start = false
		case unicode.IsDigit(r):
			start = false
		}
	}
	return string(runes)
}

func isNoun(tag string) bool {
	switch tag {
	case "NN", "NNS", "NNP", "NNPS":
		return true
	}
	return false
}

func isPlural(tag string) bool {
	return tag == "NNS" || tag == "NNPS"
}
