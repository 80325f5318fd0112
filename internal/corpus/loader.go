package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/moviematch/internal/logger"
	"github.com/dshills/moviematch/pkg/types"
)

// CSV column names of the processed movie table
const (
	ColID          = "id"
	ColTitle       = "title"
	ColDescription = "description"
	ColGenre       = "genre"
	ColImageURL    = "image_url"
	ColDirector    = "director"
	ColCast        = "cast"
	ColKeywords    = "keywords"
	ColVoteAverage = "vote_average"
	ColVoteCount   = "vote_count"
	ColPopularity  = "popularity"
)

// ErrMissingColumn is returned when a required CSV column is absent
var ErrMissingColumn = errors.New("missing required column")

// LoadStats summarizes one corpus load
type LoadStats struct {
	Rows           int // Data rows read
	Loaded         int // Movies kept
	SkippedRows    int // Rows without a usable id or title
	DuplicateIDs   int // Rows dropped because the id was already seen
	MalformedLists int // List fields replaced by an empty list
	BadNumbers     int // Numeric fields replaced by 0
}

// LoadCSV reads the processed movie table at path
func LoadCSV(path string) (*Corpus, *LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", types.ErrCorpusUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	c, stats, err := Load(f)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	return c, stats, nil
}

// Load reads a movie table with a header row. Columns may appear in any
// order; only id and title are required. Defaults are applied once here:
// malformed lists become empty, bad numbers become 0 and ratings are
// clamped to [0,10].
func Load(r io.Reader) (*Corpus, *LoadStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return New(nil), &LoadStats{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{ColID, ColTitle} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	stats := &LoadStats{}
	seen := make(map[int64]struct{})
	var movies []types.Movie

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		row := rowReader{record: record, cols: cols, stats: stats}
		m, ok := row.movie()
		if !ok {
			stats.SkippedRows++
			continue
		}
		if _, dup := seen[m.ID]; dup {
			stats.DuplicateIDs++
			continue
		}
		seen[m.ID] = struct{}{}
		movies = append(movies, m)
	}
	stats.Loaded = len(movies)

	if stats.SkippedRows > 0 || stats.DuplicateIDs > 0 || stats.MalformedLists > 0 || stats.BadNumbers > 0 {
		logger.Get().Warn("corpus rows repaired or dropped",
			zap.Int("skipped_rows", stats.SkippedRows),
			zap.Int("duplicate_ids", stats.DuplicateIDs),
			zap.Int("malformed_lists", stats.MalformedLists),
			zap.Int("bad_numbers", stats.BadNumbers))
	}

	return New(movies), stats, nil
}

// rowReader extracts typed fields from one CSV record
type rowReader struct {
	record []string
	cols   map[string]int
	stats  *LoadStats
}

func (r rowReader) movie() (types.Movie, bool) {
	idText := r.text(ColID)
	idFloat, err := strconv.ParseFloat(idText, 64)
	if err != nil || math.IsNaN(idFloat) || math.IsInf(idFloat, 0) {
		return types.Movie{}, false
	}
	title := r.text(ColTitle)
	if title == "" {
		return types.Movie{}, false
	}

	cast := r.list(ColCast)
	if len(cast) > types.MaxCast {
		cast = cast[:types.MaxCast]
	}

	return types.Movie{
		ID:          int64(idFloat),
		Title:       title,
		Description: r.text(ColDescription),
		Genres:      r.list(ColGenre),
		ImageURL:    r.text(ColImageURL),
		Director:    r.text(ColDirector),
		Cast:        cast,
		Keywords:    r.list(ColKeywords),
		Popularity:  math.Max(r.number(ColPopularity), 0),
		VoteAverage: math.Min(math.Max(r.number(ColVoteAverage), 0), 10),
		VoteCount:   int64(math.Max(r.number(ColVoteCount), 0)),
	}, true
}

func (r rowReader) text(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	v := strings.TrimSpace(r.record[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

func (r rowReader) list(col string) []string {
	items, err := ParseList(r.text(col))
	if err != nil {
		r.stats.MalformedLists++
		return []string{}
	}
	return items
}

func (r rowReader) number(col string) float64 {
	v := r.text(col)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		r.stats.BadNumbers++
		return 0
	}
	return f
}
