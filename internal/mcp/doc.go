// Package mcp implements the Model Context Protocol (MCP) server for MovieMatch.
//
// The server exposes the recommender to AI assistants as five tools:
//   - recommend_movies: rank the catalog for a free-text request
//   - list_movies: most popular movies
//   - list_genres: distinct genres
//   - movies_by_genre: most popular movies of one genre
//   - get_status: catalog size, index readiness and embedding model
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs are written to stderr; stdout carries protocol messages only.
//
// # Basic Usage
//
//	moviematch mcp --config moviematch.yaml
//
// # Tool: recommend_movies
//
//	Request:
//	{
//	  "name": "recommend_movies",
//	  "arguments": {
//	    "query": "astronauts stranded in space",
//	    "algorithm": "hybrid",
//	    "top_n": 5
//	  }
//	}
//
//	Response:
//	{
//	  "movies": [
//	    {
//	      "id": 157336,
//	      "title": "Interstellar",
//	      "genre": ["Adventure", "Drama", "Science Fiction"],
//	      "similarity_score": 0.91,
//	      "final_score": 0.83,
//	      "score_breakdown": {"similarity": 0.546, ...}
//	    }
//	  ],
//	  "query_info": {"original_query": "...", "query_type": "semantic", "weights": {...}},
//	  "algorithm_used": "Hybrid (TF-IDF + BM25 + Semantic) - semantic"
//	}
//
// Algorithms: hybrid (default), tfidf, bm25, semantic. sbert is accepted as
// an alias for semantic.
//
// # Tool: list_movies
//
// Arguments: limit (1-200, default 20).
//
// # Tool: list_genres
//
// No arguments. Returns {"count": N, "genres": [...]} sorted alphabetically.
//
// # Tool: movies_by_genre
//
// Arguments: genre (required, exact match), limit (default 20).
//
// # Tool: get_status
//
// No arguments. Returns movies_loaded, per-signal readiness, the embedding
// provider, model, dimension and whether vectors came from the snapshot cache.
//
// # Error Codes
//
//	-32602  Invalid parameters
//	-32603  Internal error
//	-32001  No movies loaded
//	-32004  Empty query
package mcp
