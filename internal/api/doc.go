// Package api exposes the recommender over HTTP.
//
// Routes:
//
//	GET  /                        service info
//	GET  /health                  corpus and index readiness
//	GET  /movies                  most popular movies
//	GET  /genres                  distinct genres
//	GET  /movies/by-genre/{genre} movies with a genre, ?limit= (default 20)
//	POST /recommend               {query, algorithm, top_n}
//	GET  /metrics                 Prometheus metrics
//
// Errors are returned as {"detail": "..."}.
package api
