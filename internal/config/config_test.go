package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/moviematch/internal/embedder"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moviematch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "data/processed_movies.csv", cfg.Data.CorpusPath)
	assert.Equal(t, "data/embeddings.db", cfg.Data.CachePath)
	assert.Empty(t, cfg.Embedding.Provider)
	assert.Equal(t, 32, cfg.Embedding.BatchSize)
	assert.Equal(t, "lemma", cfg.Text.Morphology)
	assert.Equal(t, 2, cfg.TFIDF.MinDF)
	assert.InDelta(t, 1.5, cfg.BM25.K1, 1e-9)
	assert.InDelta(t, 0.75, cfg.BM25.B, 1e-9)
	assert.Equal(t, time.Hour, cfg.Search.CacheTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  cors_origins: ["http://localhost:3000"]
data:
  corpus_path: /srv/movies.csv
  cache_path: ""
embedding:
  provider: openai
  model: text-embedding-3-small
  timeout: 5s
text:
  morphology: stem
search:
  cache_ttl: 10m
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/srv/movies.csv", cfg.Data.CorpusPath)
	assert.Empty(t, cfg.Data.CachePath)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 5*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, "stem", cfg.Text.Morphology)
	assert.Equal(t, 10*time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep defaults
	assert.Equal(t, 32, cfg.Embedding.BatchSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("MOVIEMATCH_SERVER_PORT", "7070")
	t.Setenv("MOVIEMATCH_EMBEDDING_API_KEY", "secret")
	t.Setenv("MOVIEMATCH_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Embedding.APIKey)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "bm25:\n  b: 2\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, false},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, false},
		{"no corpus", func(c *Config) { c.Data.CorpusPath = "" }, false},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "acme" }, false},
		{"custom gateway", func(c *Config) {
			c.Embedding.Provider = "acme"
			c.Embedding.BaseURL = "http://gateway/v1"
		}, true},
		{"provider case", func(c *Config) { c.Embedding.Provider = "Jina" }, true},
		{"local provider", func(c *Config) { c.Embedding.Provider = embedder.ProviderLocal }, true},
		{"zero batch", func(c *Config) { c.Embedding.BatchSize = 0 }, false},
		{"negative dimension", func(c *Config) { c.Embedding.Dimension = -1 }, false},
		{"bad morphology", func(c *Config) { c.Text.Morphology = "wordnet" }, false},
		{"no morphology", func(c *Config) { c.Text.Morphology = "none" }, true},
		{"min df zero", func(c *Config) { c.TFIDF.MinDF = 0 }, false},
		{"max df zero", func(c *Config) { c.TFIDF.MaxDF = 0 }, false},
		{"negative k1", func(c *Config) { c.BM25.K1 = -1 }, false},
		{"negative epsilon", func(c *Config) { c.BM25.Epsilon = -0.1 }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Server.Port = 0
	cfg.Log.Level = "loud"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "log.level")
}

func TestComponentConfigs(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Embedding.Provider = "jina"
	cfg.Embedding.Dimension = 768
	cfg.Embedding.Workers = 2
	cfg.Search.IndexWorkers = 3
	cfg.TFIDF.MinDF = 1
	cfg.BM25.K1 = 1.2
	cfg.Search.CacheSize = 5

	ec := cfg.EmbedderConfig()
	assert.Equal(t, "jina", ec.Provider)
	assert.Equal(t, 768, ec.Dimension)
	assert.Equal(t, 32, ec.BatchSize)

	ic := cfg.IndexerConfig()
	assert.Equal(t, 3, ic.Workers)
	assert.Equal(t, 1, ic.TFIDF.MinDF)
	assert.InDelta(t, 1.2, ic.BM25.K1, 1e-9)
	assert.Equal(t, 2, ic.Semantic.Workers)
	assert.Equal(t, 32, ic.Semantic.BatchSize)

	so := cfg.SearchOptions()
	assert.Equal(t, 5, so.CacheSize)
	assert.Equal(t, time.Hour, so.CacheTTL)
}
