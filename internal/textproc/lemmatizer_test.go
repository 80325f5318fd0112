package textproc

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedTagger struct {
	tags []string
	err  error
}

func (f fixedTagger) Tag(tokens []string) ([]string, error) {
	return f.tags, f.err
}

// recordingDictionary returns word:pos so tests can check the POS mapping
type recordingDictionary struct{}

func (recordingDictionary) Lemma(word string, pos PartOfSpeech) string {
	return word + ":" + [...]string{"n", "v", "a", "r"}[pos]
}

func TestPOSFromTag(t *testing.T) {
	tests := []struct {
		tag  string
		want PartOfSpeech
	}{
		{"JJ", Adjective},
		{"JJS", Adjective},
		{"VBD", Verb},
		{"VBG", Verb},
		{"NN", Noun},
		{"NNPS", Noun},
		{"RB", Adverb},
		{"DT", Noun},
		{"", Noun},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, POSFromTag(tt.tag))
		})
	}
}

func TestPOSLemmatizer(t *testing.T) {
	t.Run("maps tags to parts of speech", func(t *testing.T) {
		l := NewPOSLemmatizer(fixedTagger{tags: []string{"JJ", "NNS", "VBG", "RB", "CD"}}, recordingDictionary{})
		got, err := l.Lemmatize([]string{"dark", "knights", "rising", "quickly", "2012"})
		require.NoError(t, err)
		assert.Equal(t, []string{"dark:a", "knights:n", "rising:v", "quickly:r", "2012:n"}, got)
	})

	t.Run("tagger error", func(t *testing.T) {
		l := NewPOSLemmatizer(fixedTagger{err: errors.New("boom")}, recordingDictionary{})
		_, err := l.Lemmatize([]string{"dark"})
		require.Error(t, err)
	})

	t.Run("tag count mismatch", func(t *testing.T) {
		l := NewPOSLemmatizer(fixedTagger{tags: []string{"NN"}}, recordingDictionary{})
		_, err := l.Lemmatize([]string{"dark", "knight"})
		require.ErrorIs(t, err, ErrTagMismatch)
	})
}

func TestSnowballStemmer(t *testing.T) {
	got, err := SnowballStemmer{}.Lemmatize([]string{"running", "dragons"})
	require.NoError(t, err)
	assert.Equal(t, []string{"run", "dragon"}, got)
}

func TestNewLemmatizer(t *testing.T) {
	l, err := NewLemmatizer(MorphologyNone)
	require.NoError(t, err)
	assert.Nil(t, l)

	l, err = NewLemmatizer(MorphologyStem)
	require.NoError(t, err)
	assert.IsType(t, SnowballStemmer{}, l)

	_, err = NewLemmatizer("porter2000")
	require.ErrorIs(t, err, ErrUnknownMorphology)
}

type mapLookup map[string][]string

func (m mapLookup) Lemmas(word string) []string { return m[word] }

func TestGolemDictionary_PartOfSpeech(t *testing.T) {
	dict := &GolemDictionary{lookup: mapLookup{
		"saw":      {"saw", "see"},
		"building": {"building", "build"},
		"dragons":  {"dragon"},
		"ran":      {"run"},
		"run":      {"run"},
		"quickly":  {"quickly"},
	}}

	tests := []struct {
		word string
		pos  PartOfSpeech
		want string
	}{
		{"saw", Verb, "see"},
		{"saw", Noun, "saw"},
		{"building", Verb, "build"},
		{"building", Noun, "building"},
		{"dragons", Noun, "dragon"},
		{"dragons", Verb, "dragon"},
		{"ran", Verb, "run"},
		{"ran", Adjective, "run"},
		{"run", Verb, "run"},
		{"quickly", Adverb, "quickly"},
		{"unknownword", Noun, "unknownword"},
		{"unknownword", Verb, "unknownword"},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, dict.Lemma(tt.word, tt.pos))
		})
	}
}

func TestNewFromConfig_Lemma(t *testing.T) {
	if testing.Short() {
		t.Skip("loads tagger and dictionary models")
	}

	n, err := NewFromConfig("lemma")
	require.NoError(t, err)
	require.True(t, n.Lemmatizing())

	got := n.Normalize("Dragons")
	assert.Equal(t, []string{"dragon"}, got)
}

func TestGolemDictionary_Concurrent(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the lemma dictionary")
	}
	dict, err := NewGolemDictionary()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, w := range []string{"saw", "dragons", "building", "left"} {
				_ = dict.Lemma(w, Verb)
				_ = dict.Lemma(w, Noun)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, "dragon", dict.Lemma("dragons", Noun))
}
