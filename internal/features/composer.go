// Package features turns movie records into the text indexed by each signal.
//
// The lexical document repeats fields to bias term frequency toward the
// fields that identify a movie best, then normalizes the result. The
// semantic sentence is natural language for the embedding model and is
// left untouched.
package features

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/moviematch/internal/textproc"
	"github.com/dshills/moviematch/pkg/types"
)

// Field repetition weights for the lexical document
const (
	KeywordsWeight    = 6
	TitleWeight       = 3
	DirectorWeight    = 3
	CastWeight        = 2
	GenreWeight       = 2
	DescriptionWeight = 1
)

// semanticTemplate is the sentence embedded for every movie
const semanticTemplate = "%s. %s Genres: %s. Keywords: %s. Directed by %s. Starring %s."

// Composer builds lexical and semantic documents
type Composer struct {
	normalizer *textproc.Normalizer
}

// NewComposer creates a Composer that normalizes lexical documents with n
func NewComposer(n *textproc.Normalizer) *Composer {
	return &Composer{normalizer: n}
}

// Lexical returns the normalized, field-weighted document for m
func (c *Composer) Lexical(m *types.Movie) string {
	parts := []string{
		repeat(strings.Join(m.Keywords, " "), KeywordsWeight),
		repeat(m.Title, TitleWeight),
		repeat(m.Director, DirectorWeight),
		repeat(strings.Join(m.Cast, " "), CastWeight),
		repeat(strings.Join(m.Genres, " "), GenreWeight),
		repeat(m.Description, DescriptionWeight),
	}
	return c.normalizer.NormalizeJoined(strings.Join(parts, " "))
}

// Semantic returns the natural-language sentence embedded for m.
// Missing fields render as empty strings.
func Semantic(m *types.Movie) string {
	return fmt.Sprintf(semanticTemplate,
		m.Title,
		m.Description,
		strings.Join(m.Genres, ", "),
		strings.Join(m.Keywords, ", "),
		m.Director,
		strings.Join(m.Cast, ", "),
	)
}

// LexicalCorpus composes the lexical document of every movie, in row order.
// Documents are built concurrently by up to workers goroutines.
func (c *Composer) LexicalCorpus(ctx context.Context, movies []types.Movie, workers int) ([]string, error) {
	docs := make([]string, len(movies))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range movies {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			docs[i] = c.Lexical(&movies[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compose lexical corpus: %w", err)
	}
	return docs, nil
}

// SemanticCorpus composes the semantic sentence of every movie, in row order
func SemanticCorpus(movies []types.Movie) []string {
	texts := make([]string, len(movies))
	for i := range movies {
		texts[i] = Semantic(&movies[i])
	}
	return texts
}

// repeat returns s repeated k times separated by single spaces
func repeat(s string, k int) string {
	if s == "" || k <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < k; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	return b.String()
}
