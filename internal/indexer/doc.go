// Package indexer builds every search index for a movie corpus in one pass.
//
// Build composes the weighted lexical document and the semantic sentence of
// each movie, then fits TF-IDF, fits BM25 and loads or generates the
// embedding matrix concurrently:
//
//	idx, err := indexer.Build(ctx, c, indexer.Deps{
//	    Normalizer: norm,
//	    Embedder:   emb,
//	    Store:      store,
//	}, indexer.DefaultConfig())
//
// The returned Indexes never change afterwards; searcher.New wraps them for
// querying. Stage timings are kept in Indexes.Stats and exported as the
// moviematch_index_build_duration_seconds gauge.
package indexer
