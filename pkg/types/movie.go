package types

// Movie is one row of the recommendation corpus.
//
// List fields are never nil once a Movie leaves the corpus loader; missing
// values are represented by empty slices and zero numbers.
type Movie struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genres      []string `json:"genre"`
	ImageURL    string   `json:"image_url,omitempty"`
	Director    string   `json:"director"`
	Cast        []string `json:"cast"`     // At most MaxCast entries
	Keywords    []string `json:"keywords"` // Top keywords followed by production companies
	Popularity  float64  `json:"popularity"`
	VoteAverage float64  `json:"vote_average"` // 0-10 scale
	VoteCount   int64    `json:"vote_count"`
}

// MaxCast is the number of billed cast members kept per movie
const MaxCast = 5

// HasGenre reports whether the movie is tagged with genre.
// Matching is exact and case-sensitive.
func (m *Movie) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// Validate checks the invariants the corpus loader guarantees
func (m *Movie) Validate() error {
	if m.Title == "" {
		return ErrMissingTitle
	}
	if m.Popularity < 0 {
		return ErrInvalidPopularity
	}
	if m.VoteAverage < 0 || m.VoteAverage > 10 {
		return ErrInvalidVoteAverage
	}
	if m.VoteCount < 0 {
		return ErrInvalidVoteCount
	}
	if m.Genres == nil || m.Cast == nil || m.Keywords == nil {
		return ErrNilListField
	}
	return nil
}
