// Package resume reads résumé documents into text plus extracted vocabulary.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/vocab"
)

// ErrUnsupportedFormat is returned for documents that are neither text nor PDF.
var ErrUnsupportedFormat = errors.New("unsupported resume format")

type format int

const (
	formatUnknown format = iota
	formatText
	formatPDF
)

// Parsed is an immutable résumé: its text and the term sets extracted from it.
type Parsed struct {
	Name     string   `json:"name,omitempty"`
	Text     string   `json:"text"`
	Skills   []string `json:"skills"`
	Keywords []string `json:"keywords"`
}

func empty(name string) *Parsed {
	return &Parsed{Name: name, Skills: []string{}, Keywords: []string{}}
}

// IsEmpty reports whether the résumé carries no text to score.
func (p *Parsed) IsEmpty() bool {
	return p == nil || strings.TrimSpace(p.Text) == ""
}

// Extractor is the vocabulary extraction used by the parser.
type Extractor interface {
	Extract(text string) (vocab.Vocabulary, error)
}

type Parser struct {
	extractor Extractor
	logger    *zap.Logger
}

func NewParser(extractor Extractor, log *zap.Logger) *Parser {
	return &Parser{extractor: extractor, logger: logger.WithFields(log)}
}

// ParseFile reads and parses the résumé at path.
func (p *Parser) ParseFile(path string) (*Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return empty(filepath.Base(path)), fmt.Errorf("reading resume %q: %w", path, err)
	}
	return p.Parse(filepath.Base(path), data)
}

// Parse converts a document into a Parsed résumé. Unsupported or unreadable documents
// return an empty result together with the error.
func (p *Parser) Parse(name string, data []byte) (*Parsed, error) {
	text, err := ReadText(name, data)
	if err != nil {
		return empty(name), err
	}

	parsed, err := p.FromText(text)
	parsed.Name = name
	return parsed, err
}

// FromText extracts vocabulary from already-decoded text.
func (p *Parser) FromText(text string) (*Parsed, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return empty(""), nil
	}

	v, err := p.extractor.Extract(text)
	parsed := &Parsed{Text: text, Skills: v.Skills, Keywords: v.Keywords}
	if parsed.Skills == nil {
		parsed.Skills = []string{}
	}
	if parsed.Keywords == nil {
		parsed.Keywords = []string{}
	}
	if err != nil {
		return parsed, fmt.Errorf("extracting resume keywords: %w", err)
	}

	p.logger.Debug("parsed resume",
		zap.Int("characters", utf8.RuneCountInString(text)),
		zap.Strings("skills", parsed.Skills),
		zap.Int("keywords", len(parsed.Keywords)),
	)

	return parsed, nil
}

// ReadText decodes a plain text or PDF document.
func ReadText(name string, data []byte) (string, error) {
	switch detect(name, data) {
	case formatText:
		return strings.ToValidUTF8(string(data), ""), nil
	case formatPDF:
		return pdfText(data)
	default:
		return "", fmt.Errorf("%w: %q (supported: .txt, .md, .pdf)", ErrUnsupportedFormat, name)
	}
}

func detect(name string, data []byte) format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text", ".md":
		return formatText
	case ".pdf":
		return formatPDF
	case "":
		if bytes.HasPrefix(data, []byte("%PDF-")) {
			return formatPDF
		}
		if utf8.Valid(data) {
			return formatText
		}
	}
	return formatUnknown
}
