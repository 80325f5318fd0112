package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/moviematch/internal/corpus"
	"github.com/dshills/moviematch/internal/searcher"
)

// Default and maximum list sizes for the listing tools
const (
	DefaultListLimit = 20
	MaxListLimit     = corpus.PopularLimit
)

// recommendMoviesTool returns the tool definition for recommend_movies
func recommendMoviesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "recommend_movies",
		Description: "Recommend movies for a free-text request such as a plot, mood, genre, director or actor",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What to watch, e.g. 'space survival thriller' or 'films by Christopher Nolan'",
				},
				"algorithm": map[string]interface{}{
					"type":        "string",
					"description": "Scoring: hybrid (weighted TF-IDF + BM25 + semantic), tfidf, bm25 or semantic",
					"enum":        []string{"hybrid", "tfidf", "bm25", "semantic", "sbert"},
					"default":     "hybrid",
				},
				"top_n": map[string]interface{}{
					"type":        "integer",
					"description": "Number of movies to return",
					"default":     searcher.DefaultLimit,
					"minimum":     1,
					"maximum":     searcher.MaxLimit,
				},
			},
			Required: []string{"query"},
		},
	}
}

// listMoviesTool returns the tool definition for list_movies
func listMoviesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_movies",
		Description: "List the most popular movies in the catalog",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of movies to return",
					"default":     DefaultListLimit,
					"minimum":     1,
					"maximum":     MaxListLimit,
				},
			},
		},
	}
}

// listGenresTool returns the tool definition for list_genres
func listGenresTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_genres",
		Description: "List every genre present in the catalog",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// moviesByGenreTool returns the tool definition for movies_by_genre
func moviesByGenreTool() mcp.Tool {
	return mcp.Tool{
		Name:        "movies_by_genre",
		Description: "List the most popular movies of one genre (exact, case-sensitive name as returned by list_genres)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"genre": map[string]interface{}{
					"type":        "string",
					"description": "Genre name, e.g. 'Science Fiction'",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of movies to return",
					"default":     corpus.DefaultGenreLimit,
					"minimum":     1,
				},
			},
			Required: []string{"genre"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report catalog size, index readiness and the embedding model in use",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
