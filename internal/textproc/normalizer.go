package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/moviematch/internal/logger"
)

// asciiPunctuation matches Python's string.punctuation
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Normalizer canonicalizes free text into index tokens.
// A Normalizer is immutable and safe for concurrent use.
type Normalizer struct {
	lemmatizer Lemmatizer // nil disables lemmatization
}

// New creates a Normalizer. A nil lemmatizer disables lemmatization.
func New(lemmatizer Lemmatizer) *Normalizer {
	return &Normalizer{lemmatizer: lemmatizer}
}

// NewFromConfig creates a Normalizer for a morphology mode (lemma, stem, none)
func NewFromConfig(morphology string) (*Normalizer, error) {
	lem, err := NewLemmatizer(Morphology(strings.ToLower(morphology)))
	if err != nil {
		return nil, err
	}
	return New(lem), nil
}

// Lemmatizing reports whether lemmatization is enabled
func (n *Normalizer) Lemmatizing() bool {
	return n.lemmatizer != nil
}

// Normalize lowercases text, strips accents and punctuation, tokenizes it,
// removes stopwords and optionally lemmatizes the remaining tokens.
// Token order follows the input. The result is never nil.
func (n *Normalizer) Normalize(text string) []string {
	if text == "" {
		return []string{}
	}

	s := stripMarks(strings.ToLower(text))
	s = stripPunctuation(s)

	tokens := make([]string, 0, 16)
	for _, tok := range strings.FieldsFunc(s, isSeparator) {
		if IsStopword(tok) {
			continue
		}
		if n.lemmatizer != nil && utf8.RuneCountInString(tok) <= 1 {
			continue
		}
		tokens = append(tokens, tok)
	}

	if n.lemmatizer == nil || len(tokens) == 0 {
		return tokens
	}

	lemmas, err := n.lemmatizer.Lemmatize(tokens)
	if err != nil || len(lemmas) != len(tokens) {
		logger.Get().Debug("lemmatization failed, keeping surface forms",
			zap.Int("tokens", len(tokens)), zap.Error(err))
		return tokens
	}
	for i, l := range lemmas {
		if l == "" {
			lemmas[i] = tokens[i]
		}
	}
	return lemmas
}

// NormalizeJoined returns the normalized tokens joined by single spaces
func (n *Normalizer) NormalizeJoined(text string) string {
	return strings.Join(n.Normalize(text), " ")
}

// NormalizeValue normalizes v when it is a string and returns an empty
// sequence for any other value.
func (n *Normalizer) NormalizeValue(v any) []string {
	s, ok := v.(string)
	if !ok {
		return []string{}
	}
	return n.Normalize(s)
}

// stripMarks decomposes s (NFD) and drops nonspacing marks, so "café" becomes "cafe"
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// stripPunctuation removes ASCII punctuation without inserting separators
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, s)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
}
