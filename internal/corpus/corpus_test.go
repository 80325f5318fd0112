package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/moviematch/pkg/types"
)

const sampleCSV = `id,title,description,genre,image_url,director,cast,keywords,vote_average,vote_count,popularity
1,Dragon Quest,A hero rises.,['Fantasy'],http://img/1.jpg,Jane Doe,"['A', 'B', 'C', 'D', 'E', 'F']","['dragon', 'quest']",8.0,500.0,10.5
2,Love Story,,"['Romance', 'Drama']",,,[],[],5,5,1
3,Dragon Fire,Flames.,"['Fantasy', 'Action']",,John Roe,['X'],[broken,6,100,5
4,Bad Numbers,,['Drama'],,,[],[],eleven,-4,nan
1,Duplicate,,['Drama'],,,[],[],1,1,1
x,No Id,,[],,,[],[],1,1,1
5,,Untitled row,[],,,[],[],1,1,1
`

func loadSample(t *testing.T) (*Corpus, *LoadStats) {
	t.Helper()
	c, stats, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return c, stats
}

func TestLoad(t *testing.T) {
	c, stats := loadSample(t)

	require.Equal(t, 4, c.Len())
	assert.Equal(t, 7, stats.Rows)
	assert.Equal(t, 4, stats.Loaded)
	assert.Equal(t, 2, stats.SkippedRows)
	assert.Equal(t, 1, stats.DuplicateIDs)
	assert.Equal(t, 1, stats.MalformedLists)
	assert.Equal(t, 1, stats.BadNumbers, "pandas NaN is treated as missing, not bad")

	a := c.Movie(0)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, "Dragon Quest", a.Title)
	assert.Equal(t, []string{"Fantasy"}, a.Genres)
	assert.Equal(t, "http://img/1.jpg", a.ImageURL)
	assert.Len(t, a.Cast, types.MaxCast)
	assert.Equal(t, []string{"dragon", "quest"}, a.Keywords)
	assert.Equal(t, 8.0, a.VoteAverage)
	assert.Equal(t, int64(500), a.VoteCount)
	assert.Equal(t, 10.5, a.Popularity)
}

func TestLoad_Defaults(t *testing.T) {
	c, _ := loadSample(t)

	b := c.Movie(1)
	assert.Equal(t, "", b.Description)
	assert.Equal(t, "", b.Director)
	assert.NotNil(t, b.Cast)
	assert.NotNil(t, b.Keywords)

	fire := c.Movie(2)
	assert.NotNil(t, fire.Keywords)
	assert.Empty(t, fire.Keywords, "malformed list becomes empty")

	bad := c.Movie(3)
	assert.Equal(t, 0.0, bad.VoteAverage)
	assert.Equal(t, int64(0), bad.VoteCount)
	assert.Equal(t, 0.0, bad.Popularity)

	for _, m := range c.Movies() {
		assert.NoError(t, m.Validate())
	}
}

func TestLoad_ClampsRating(t *testing.T) {
	csv := "id,title,vote_average\n1,Loud,42\n2,Quiet,-3\n"
	c, _, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 10.0, c.Movie(0).VoteAverage)
	assert.Equal(t, 0.0, c.Movie(1).VoteAverage)
}

func TestLoad_ColumnOrderAndMissingOptional(t *testing.T) {
	csv := "title,ID\nAlien,7\n"
	c, _, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	m := c.Movie(0)
	assert.Equal(t, int64(7), m.ID)
	assert.Equal(t, []string{}, m.Genres)
}

func TestLoad_MissingRequiredColumn(t *testing.T) {
	_, _, err := Load(strings.NewReader("name,year\nAlien,1979\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoad_Empty(t *testing.T) {
	c, stats, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.Zero(t, stats.Rows)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	c, stats, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 4, stats.Loaded)

	_, _, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, types.ErrCorpusUnavailable)
}

func TestPopular(t *testing.T) {
	c, _ := loadSample(t)

	got := c.Popular(0)
	require.Len(t, got, 4)
	assert.Equal(t, []int64{1, 3, 2, 4}, movieIDs(got))

	assert.Equal(t, []int64{1, 3}, movieIDs(c.Popular(2)))
}

func TestPopular_StableTies(t *testing.T) {
	c := New([]types.Movie{
		{ID: 1, Popularity: 5},
		{ID: 2, Popularity: 9},
		{ID: 3, Popularity: 5},
	})
	assert.Equal(t, []int64{2, 1, 3}, movieIDs(c.Popular(10)))
}

func TestGenres(t *testing.T) {
	c, _ := loadSample(t)
	assert.Equal(t, []string{"Action", "Drama", "Fantasy", "Romance"}, c.Genres())

	// returned slice is a copy
	g := c.Genres()
	g[0] = "Changed"
	assert.Equal(t, "Action", c.Genres()[0])
}

func TestByGenre(t *testing.T) {
	c, _ := loadSample(t)

	assert.Equal(t, []int64{1, 3}, movieIDs(c.ByGenre("Fantasy", 0)))
	assert.Equal(t, []int64{1}, movieIDs(c.ByGenre("Fantasy", 1)))
	assert.Empty(t, c.ByGenre("fantasy", 10), "matching is case-sensitive")
	assert.Empty(t, c.ByGenre("Western", 10))
}

func TestEmptyCorpus(t *testing.T) {
	c := New(nil)
	assert.True(t, c.Empty())
	assert.NotNil(t, c.Popular(10))
	assert.Empty(t, c.Popular(10))
	assert.Empty(t, c.Genres())
	assert.Empty(t, c.ByGenre("Drama", 5))
}

func movieIDs(movies []types.Movie) []int64 {
	out := make([]int64, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}
