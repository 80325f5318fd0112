// Package lexical implements the two term-based relevance signals.
//
// Both indexes are built once from the composed lexical documents (already
// normalized, space delimited) and are read-only afterwards, so Score is
// safe for concurrent use.
//
// TFIDFIndex scores a query by cosine similarity between L2-normalized
// TF-IDF vectors over unigrams and bigrams:
//
//	idx := lexical.NewTFIDF(docs, normalizer, lexical.DefaultTFIDFConfig())
//	scores, err := idx.Score(ctx, "space station thriller")
//
// BM25Index scores a query with Okapi BM25:
//
//	idx := lexical.NewBM25(docs, normalizer, lexical.DefaultBM25Config())
//	scores, err := idx.Score(ctx, "space station thriller")
//
// Queries are normalized as plain text; they are not field weighted like
// the documents. Both return one score per document in document order.
package lexical
