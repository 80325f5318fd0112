package textproc

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball/english"
)

// Morphology selects how tokens are reduced to a base form
type Morphology string

const (
	MorphologyLemma Morphology = "lemma" // POS-aware dictionary lemmas
	MorphologyStem  Morphology = "stem"  // Snowball stems
	MorphologyNone  Morphology = "none"  // Surface forms
)

// PartOfSpeech is the coarse word class used to pick a lemma
type PartOfSpeech int

const (
	Noun PartOfSpeech = iota
	Verb
	Adjective
	Adverb
)

var (
	// ErrUnknownMorphology is returned for an unsupported morphology mode
	ErrUnknownMorphology = errors.New("unknown morphology")
	// ErrTagMismatch is returned when the tagger splits tokens differently
	ErrTagMismatch = errors.New("tagger token count mismatch")
)

// Lemmatizer maps a token sequence to base forms of the same length
type Lemmatizer interface {
	Lemmatize(tokens []string) ([]string, error)
}

// Tagger assigns a Penn Treebank tag to every token
type Tagger interface {
	Tag(tokens []string) ([]string, error)
}

// Dictionary returns the lemma of a word for a part of speech
type Dictionary interface {
	Lemma(word string, pos PartOfSpeech) string
}

// NewLemmatizer builds the lemmatizer for a morphology mode.
// MorphologyNone yields a nil Lemmatizer.
func NewLemmatizer(m Morphology) (Lemmatizer, error) {
	switch m {
	case MorphologyLemma, "":
		tagger, err := NewProseTagger()
		if err != nil {
			return nil, err
		}
		dict, err := NewGolemDictionary()
		if err != nil {
			return nil, err
		}
		return NewPOSLemmatizer(tagger, dict), nil
	case MorphologyStem:
		return SnowballStemmer{}, nil
	case MorphologyNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMorphology, m)
	}
}

// POSFromTag maps a Penn Treebank tag to a part of speech, defaulting to Noun
func POSFromTag(tag string) PartOfSpeech {
	switch {
	case strings.HasPrefix(tag, "J"):
		return Adjective
	case strings.HasPrefix(tag, "V"):
		return Verb
	case strings.HasPrefix(tag, "N"):
		return Noun
	case strings.HasPrefix(tag, "R"):
		return Adverb
	}
	return Noun
}

// POSLemmatizer tags tokens and looks each one up with its part of speech
type POSLemmatizer struct {
	tagger Tagger
	dict   Dictionary
}

// NewPOSLemmatizer combines a tagger and a dictionary
func NewPOSLemmatizer(tagger Tagger, dict Dictionary) *POSLemmatizer {
	return &POSLemmatizer{tagger: tagger, dict: dict}
}

func (p *POSLemmatizer) Lemmatize(tokens []string) ([]string, error) {
	tags, err := p.tagger.Tag(tokens)
	if err != nil {
		return nil, fmt.Errorf("tag tokens: %w", err)
	}
	if len(tags) != len(tokens) {
		return nil, fmt.Errorf("%w: got %d tags for %d tokens", ErrTagMismatch, len(tags), len(tokens))
	}

	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = p.dict.Lemma(tok, POSFromTag(tags[i]))
	}
	return out, nil
}

// ProseTagger tags tokens with the prose averaged perceptron model.
// The model is loaded once and shared by every call.
type ProseTagger struct {
	model *prose.Model
}

// NewProseTagger loads the default prose tagging model
func NewProseTagger() (*ProseTagger, error) {
	doc, err := prose.NewDocument("load model",
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("load tagger model: %w", err)
	}
	return &ProseTagger{model: doc.Model}, nil
}

func (p *ProseTagger) Tag(tokens []string) ([]string, error) {
	doc, err := prose.NewDocument(strings.Join(tokens, " "),
		prose.UsingModel(p.model),
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return nil, err
	}

	tagged := doc.Tokens()
	if len(tagged) != len(tokens) {
		return nil, fmt.Errorf("%w: got %d for %d", ErrTagMismatch, len(tagged), len(tokens))
	}
	tags := make([]string, len(tagged))
	for i, tok := range tagged {
		tags[i] = tok.Tag
	}
	return tags, nil
}

// lemmaLookup lists every dictionary lemma of a word; *golem.Lemmatizer
// satisfies it.
type lemmaLookup interface {
	Lemmas(word string) []string
}

// GolemDictionary looks lemmas up in the golem English dictionary. golem
// is not tagged by part of speech, so the part of speech chooses among
// the candidate lemmas: verbs take a base form that differs from the word
// ("saw" -> "see"), nouns and adjectives keep the word when it is itself
// a lemma ("saw" stays "saw"). Adverbs are returned unchanged.
type GolemDictionary struct {
	// golem sorts its candidate slices in place inside Lemmas
	mu     sync.Mutex
	lookup lemmaLookup
}

// NewGolemDictionary loads the English lemma dictionary
func NewGolemDictionary() (*GolemDictionary, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load lemma dictionary: %w", err)
	}
	return &GolemDictionary{lookup: l}, nil
}

func (g *GolemDictionary) Lemma(word string, pos PartOfSpeech) string {
	if pos == Adverb {
		return word
	}
	g.mu.Lock()
	candidates := slices.Clone(g.lookup.Lemmas(word))
	g.mu.Unlock()
	if len(candidates) == 0 {
		return word
	}
	if pos == Verb {
		for _, c := range candidates {
			if c != word {
				return c
			}
		}
		return word
	}
	if slices.Contains(candidates, word) {
		return word
	}
	return candidates[0]
}

// SnowballStemmer reduces tokens to Snowball English stems
type SnowballStemmer struct{}

func (SnowballStemmer) Lemmatize(tokens []string) ([]string, error) {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = english.Stem(tok, false)
	}
	return out, nil
}
