// Package searcher ranks movies for free-text queries.
//
// A Searcher wraps the immutable indexes from package indexer and offers
// four algorithms:
//   - hybrid (default): TF-IDF, BM25 and semantic scores computed
//     concurrently, min-max normalized and fused with weights chosen by
//     the query classifier
//   - tfidf, bm25, semantic: one signal, normalized; the others are never
//     computed
//
// The top N rows by similarity (N defaults to 10, capped at 50) are
// re-ranked with popularity, rating and vote-count boosts.
//
// # Basic Usage
//
//	s := searcher.New(idx, emb, searcher.DefaultOptions())
//
//	resp, err := s.Recommend(ctx, searcher.RecommendRequest{
//	    Query:     "movies like Inception about dreams",
//	    Algorithm: "hybrid",
//	    Limit:     10,
//	})
//	for _, r := range resp.Recommendations {
//	    fmt.Printf("%s %.3f\n", r.Title, r.FinalScore)
//	}
//
// # Caching
//
// Responses are kept in an LRU keyed by trimmed query, algorithm and limit,
// with a TTL (one hour by default). Cached responses are copied on the way
// in and out, so callers may modify what they receive.
//
// # Errors
//
// Recommend returns types.ErrEmptyQuery, types.ErrUnknownAlgorithm,
// types.ErrCorpusUnavailable, or an error wrapping types.ErrSignalFailure.
// Context cancellation is returned as is.
package searcher
