// Package types provides shared type definitions for the moviematch engine.
//
// # Core Types
//
// Movie is one corpus row. The corpus is an ordered slice of movies and the
// row index is the key shared by every score vector:
//
//	movie := types.Movie{
//	    ID:          27205,
//	    Title:       "Inception",
//	    Genres:      []string{"Action", "Science Fiction"},
//	    Director:    "Christopher Nolan",
//	    Cast:        []string{"Leonardo DiCaprio"},
//	    Keywords:    []string{"dream", "subconscious"},
//	    Popularity:  29.1,
//	    VoteAverage: 8.1,
//	    VoteCount:   14075,
//	}
//
// ScoreVector holds one float per corpus row for one signal.
//
// RankedRecommendation is a Movie plus its similarity, final score and the
// weighted contribution of each re-ranking component.
//
// # Query Vocabulary
//
// QueryType is the classifier output, WeightProfile the fusion weights it
// selects, Signal one of the three relevance signals and Algorithm the
// caller's choice between a single signal or hybrid fusion:
//
//	alg, err := types.ParseAlgorithm("sbert") // AlgorithmSemantic
//	if sig, single := alg.Signal(); single {
//	    fmt.Println("single signal", sig)
//	}
//
// # Errors
//
// Query errors (ErrCorpusUnavailable, ErrEmptyQuery, ErrSignalFailure,
// ErrUnknownAlgorithm) are sentinels meant for errors.Is at the API and MCP
// boundaries.
package types
