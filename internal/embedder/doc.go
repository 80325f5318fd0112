// Package embedder turns text into dense vectors for the semantic signal.
//
// Two kinds of provider implement the Embedder interface:
//
//   - HTTPProvider speaks the OpenAI-compatible /embeddings contract and
//     covers OpenAI, Jina, Ollama and any self-hosted sentence-transformer
//     gateway. Requests are batched, retried with exponential backoff on
//     429 and 5xx answers, and counted in the moviematch_embedding_requests
//     metric.
//   - LocalProvider hashes word, bigram and character-trigram features into
//     a fixed-size vector. It needs no network and is deterministic, which
//     makes it the default for development and tests.
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{Provider: "local", CacheSize: 1000})
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	vec, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "a heist in space",
//	})
//
// # Caching
//
// Single-text embeddings (queries) go through an LRU keyed by model and
// content. Batch results are not cached here; the semantic index persists
// them as a snapshot in storage.
package embedder
