package types

import "errors"

// Query errors
var (
	// ErrCorpusUnavailable is returned when the corpus failed to load or is empty
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	// ErrEmptyQuery is returned when the query is blank after trimming
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrSignalFailure wraps any scorer failure during a query
	ErrSignalFailure = errors.New("signal computation failed")
	// ErrUnknownAlgorithm is returned for an unrecognized algorithm selector
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// Domain errors for type validation
var (
	ErrMissingTitle       = errors.New("title is required")
	ErrInvalidPopularity  = errors.New("popularity must be >= 0")
	ErrInvalidVoteAverage = errors.New("vote average must be between 0 and 10")
	ErrInvalidVoteCount   = errors.New("vote count must be >= 0")
	ErrNilListField       = errors.New("list fields must not be nil")
	ErrInvalidRow         = errors.New("row must be >= 0")
	ErrInvalidSimilarity  = errors.New("similarity score must be between 0 and 1")
)
