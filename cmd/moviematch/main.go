package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/moviematch/internal/api"
	"github.com/dshills/moviematch/internal/config"
	"github.com/dshills/moviematch/internal/embedder"
	"github.com/dshills/moviematch/internal/logger"
	"github.com/dshills/moviematch/internal/mcp"
	"github.com/dshills/moviematch/internal/searcher"
	"github.com/dshills/moviematch/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "moviematch",
		Short: "MovieMatch - hybrid movie recommendations",
		Long: `MovieMatch recommends movies for free-text requests by fusing
TF-IDF, BM25 and embedding similarity, re-ranked by popularity,
rating and vote confidence.

Serve it over HTTP, expose it to AI assistants over MCP, or query
it once from the command line.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ./moviematch.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(opts),
		newMCPCmd(opts),
		newRecommendCmd(opts),
		newEmbedCmd(opts),
	)
	return rootCmd
}

// setup loads configuration and initializes logging on stderr
func setup(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "MovieMatch\n")
			fmt.Fprintf(out, "Version: %s\n", version)
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
			fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
			fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
			fmt.Fprintf(out, "Schema Version: %s\n", storage.CurrentSchemaVersion)
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signalContext()
			defer stop()

			a, err := bootstrap(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			server := api.NewServer(a.searcher, api.Options{
				Addr:            cfg.Addr(),
				CORSOrigins:     cfg.Server.CORSOrigins,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				Version:         version,
			})
			err = server.ListenAndServe(ctx)
			logger.Get().Info("server stopped")
			return err
		},
	}
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the recommender as MCP tools on stdio",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signalContext()
			defer stop()

			a, err := bootstrap(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			err = mcp.NewServer(a.searcher, version).Serve(ctx)
			if err != nil && ctx.Err() != nil {
				// Interrupted
				err = nil
			}
			logger.Get().Info("MCP server stopped")
			return err
		},
	}
}

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var (
		algorithm string
		topN      int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "recommend <query>",
		Short: "Print recommendations for one query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signalContext()
			defer stop()

			a, err := bootstrap(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			resp, err := a.searcher.Recommend(ctx, searcher.RecommendRequest{
				Query:     strings.Join(args, " "),
				Algorithm: algorithm,
				Limit:     topN,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			fmt.Fprintf(out, "%s | query type: %s | %s\n\n",
				resp.AlgorithmLabel, resp.QueryInfo.QueryType, resp.Duration.Round(time.Millisecond))
			for i, rec := range resp.Recommendations {
				fmt.Fprintf(out, "%2d. %-40s final %.3f  similarity %.3f  %s\n",
					i+1, rec.Title, rec.FinalScore, rec.SimilarityScore, strings.Join(rec.Genres, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "hybrid", "Scoring: hybrid, tfidf, bm25 or semantic")
	cmd.Flags().IntVarP(&topN, "top-n", "n", searcher.DefaultLimit, "Number of movies to return")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")
	return cmd
}

func newEmbedCmd(opts *rootOptions) *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "embed <text>",
		Short: "Embed a text with the configured provider and show snapshot history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signalContext()
			defer stop()

			emb, err := embedder.New(cfg.EmbedderConfig())
			if err != nil {
				return err
			}
			defer func() { _ = emb.Close() }()

			start := time.Now()
			e, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: strings.Join(args, " ")})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Provider: %s\n", e.Provider)
			fmt.Fprintf(out, "Model: %s\n", e.Model)
			fmt.Fprintf(out, "Dimension: %d\n", e.Dimension)
			fmt.Fprintf(out, "Latency: %s\n", time.Since(start).Round(time.Millisecond))
			fmt.Fprintf(out, "Head: %v\n", e.Vector[:min(8, len(e.Vector))])

			if cfg.Data.CachePath == "" || history <= 0 {
				return nil
			}
			store, err := storage.NewSQLiteStorage(cfg.Data.CachePath)
			if err != nil {
				logger.Get().Warn("embedding cache unavailable", zap.Error(err))
				return nil
			}
			defer func() { _ = store.Close() }()

			builds, err := store.RecentBuilds(ctx, history)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nRecent snapshot builds (%s):\n", cfg.Data.CachePath)
			if len(builds) == 0 {
				fmt.Fprintln(out, "  none")
			}
			for _, b := range builds {
				fmt.Fprintf(out, "  %s  %d items  %s/%s  %s\n",
					b.BuiltAt.Format(time.RFC3339), b.ItemCount, b.Provider, b.Model, b.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&history, "history", 5, "Snapshot builds to list (0 to skip)")
	return cmd
}
