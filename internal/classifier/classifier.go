// Package classifier assigns a query type to free-text queries and maps each
// type to its fusion weight profile.
//
// Rules are evaluated in order and the first match wins:
//
//  1. a semantic-intent word (like, mood, story, scary, ...) -> semantic
//  2. a person phrase (directed by, starring, actor, ...) -> person
//  3. a known genre name -> genre
//  4. more than four words -> semantic
//  5. otherwise -> general
//
// Matching is case-insensitive substring matching.
package classifier

import (
	"strings"

	"github.com/dshills/moviematch/pkg/types"
)

// LongQueryWords is the word count above which an unmatched query is semantic
const LongQueryWords = 4

// SemanticIndicators signal a mood, theme or plot description
var SemanticIndicators = []string{
	"like", "similar", "about", "where", "when", "story", "plot",
	"feel", "mood", "vibe", "style", "theme", "emotional",
	"funny", "scary", "sad", "happy", "exciting", "boring", "interesting",
}

// PersonPhrases signal a director or cast lookup
var PersonPhrases = []string{
	"directed by", "starring", "actor", "actress", "director",
	"with", "featuring", "played by",
}

// KnownGenres is the closed genre vocabulary
var KnownGenres = []string{
	"action", "adventure", "animation", "comedy", "crime", "documentary",
	"drama", "family", "fantasy", "foreign", "history", "horror", "music",
	"mystery", "romance", "science fiction", "thriller", "war", "western",
}

// weightProfiles are the fusion weights per query type
var weightProfiles = map[types.QueryType]types.WeightProfile{
	types.QueryTypeSemantic: {TFIDF: 0.30, BM25: 0.20, Semantic: 0.50},
	types.QueryTypePerson:   {TFIDF: 0.50, BM25: 0.20, Semantic: 0.30},
	types.QueryTypeGenre:    {TFIDF: 0.30, BM25: 0.30, Semantic: 0.40},
	types.QueryTypeGeneral:  {TFIDF: 0.35, BM25: 0.25, Semantic: 0.40},
}

// Classify returns the query type of a raw query
func Classify(query string) types.QueryType {
	q := strings.ToLower(query)

	switch {
	case containsAny(q, SemanticIndicators):
		return types.QueryTypeSemantic
	case containsAny(q, PersonPhrases):
		return types.QueryTypePerson
	case containsAny(q, KnownGenres):
		return types.QueryTypeGenre
	case len(strings.Fields(query)) > LongQueryWords:
		return types.QueryTypeSemantic
	}
	return types.QueryTypeGeneral
}

// Weights returns the fusion weights for a query type.
// Unknown types get the general profile.
func Weights(qt types.QueryType) types.WeightProfile {
	if w, ok := weightProfiles[qt]; ok {
		return w
	}
	return weightProfiles[types.QueryTypeGeneral]
}

// QueryTypes lists every query type
func QueryTypes() []types.QueryType {
	return []types.QueryType{
		types.QueryTypeSemantic,
		types.QueryTypePerson,
		types.QueryTypeGenre,
		types.QueryTypeGeneral,
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
