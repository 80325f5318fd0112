package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/moviematch/internal/logger"
	"github.com/dshills/moviematch/internal/searcher"
	"github.com/dshills/moviematch/pkg/types"
)

// ServerName is the MCP server name
const ServerName = "moviematch"

// Recommender is the query surface the MCP tools need
type Recommender interface {
	Recommend(ctx context.Context, req searcher.RecommendRequest) (*searcher.RecommendResponse, error)
	Popular() []types.Movie
	Genres() []string
	ByGenre(genre string, limit int) []types.Movie
	Status() searcher.Status
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp *server.MCPServer
	svc Recommender
}

// NewServer creates an MCP server exposing svc as tools
func NewServer(svc Recommender, version string) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		mcp: mcpServer,
		svc: svc,
	}
	s.mcp.AddTools(s.tools()...)
	return s
}

// Serve runs the MCP server on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(logger.Get()))
	logger.Get().Info("MCP server listening on stdio", zap.Int("tools", len(s.tools())))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// tools pairs every tool definition with its handler
func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: recommendMoviesTool(), Handler: s.handleRecommendMovies},
		{Tool: listMoviesTool(), Handler: s.handleListMovies},
		{Tool: listGenresTool(), Handler: s.handleListGenres},
		{Tool: moviesByGenreTool(), Handler: s.handleMoviesByGenre},
		{Tool: getStatusTool(), Handler: s.handleGetStatus},
	}
}
