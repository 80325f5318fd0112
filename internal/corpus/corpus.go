// Package corpus loads the movie table and answers catalog queries over it.
//
// A Corpus is an ordered, immutable slice of movies. The row index of a
// movie is the key every score vector uses, so the corpus is never reordered
// or mutated after New.
package corpus

import (
	"sort"

	"github.com/dshills/moviematch/pkg/types"
)

// Catalog limits
const (
	PopularLimit      = 200
	DefaultGenreLimit = 20
)

// Corpus is an immutable, row-addressable set of movies
type Corpus struct {
	movies       []types.Movie
	byPopularity []int // Row indices, most popular first
	genres       []string
}

// New builds a Corpus over movies. The slice must not be modified afterwards.
func New(movies []types.Movie) *Corpus {
	if movies == nil {
		movies = []types.Movie{}
	}

	order := make([]int, len(movies))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return movies[order[i]].Popularity > movies[order[j]].Popularity
	})

	set := make(map[string]struct{})
	for i := range movies {
		for _, g := range movies[i].Genres {
			set[g] = struct{}{}
		}
	}
	genres := make([]string, 0, len(set))
	for g := range set {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	return &Corpus{
		movies:       movies,
		byPopularity: order,
		genres:       genres,
	}
}

// Len returns the number of movies
func (c *Corpus) Len() int {
	return len(c.movies)
}

// Empty reports whether the corpus has no movies
func (c *Corpus) Empty() bool {
	return len(c.movies) == 0
}

// Movies returns the movies in row order. Callers must not modify them.
func (c *Corpus) Movies() []types.Movie {
	return c.movies
}

// Movie returns the movie at row
func (c *Corpus) Movie(row int) types.Movie {
	return c.movies[row]
}

// Popular returns up to limit movies by descending popularity.
// A non-positive limit means PopularLimit.
func (c *Corpus) Popular(limit int) []types.Movie {
	if limit <= 0 {
		limit = PopularLimit
	}
	return c.collect(limit, func(*types.Movie) bool { return true })
}

// Genres returns the sorted distinct genres of the corpus
func (c *Corpus) Genres() []string {
	out := make([]string, len(c.genres))
	copy(out, c.genres)
	return out
}

// ByGenre returns up to limit movies tagged with genre, by descending
// popularity. Genre matching is exact and case-sensitive. A non-positive
// limit means DefaultGenreLimit.
func (c *Corpus) ByGenre(genre string, limit int) []types.Movie {
	if limit <= 0 {
		limit = DefaultGenreLimit
	}
	return c.collect(limit, func(m *types.Movie) bool { return m.HasGenre(genre) })
}

func (c *Corpus) collect(limit int, keep func(*types.Movie) bool) []types.Movie {
	out := make([]types.Movie, 0, min(limit, len(c.movies)))
	for _, row := range c.byPopularity {
		if len(out) == limit {
			break
		}
		if keep(&c.movies[row]) {
			out = append(out, c.movies[row])
		}
	}
	return out
}
