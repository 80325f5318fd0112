// Package config loads moviematch settings from defaults, an optional YAML
// file and MOVIEMATCH_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/moviematch/internal/embedder"
	"github.com/dshills/moviematch/internal/indexer"
	"github.com/dshills/moviematch/internal/lexical"
	"github.com/dshills/moviematch/internal/searcher"
	"github.com/dshills/moviematch/internal/semantic"
	"github.com/dshills/moviematch/internal/textproc"
)

// EnvPrefix prefixes every environment override, e.g. MOVIEMATCH_SERVER_PORT
const EnvPrefix = "MOVIEMATCH"

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DataConfig struct {
	CorpusPath string `mapstructure:"corpus_path"`
	CachePath  string `mapstructure:"cache_path"` // embedding snapshot database; empty disables persistence
}

type EmbeddingConfig struct {
	Provider  string        `mapstructure:"provider"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	Dimension int           `mapstructure:"dimension"`
	BatchSize int           `mapstructure:"batch_size"`
	Workers   int           `mapstructure:"workers"`
	CacheSize int           `mapstructure:"cache_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type TextConfig struct {
	Morphology string `mapstructure:"morphology"`
}

type TFIDFConfig struct {
	MaxFeatures int     `mapstructure:"max_features"`
	MinDF       int     `mapstructure:"min_df"`
	MaxDF       float64 `mapstructure:"max_df"`
}

type BM25Config struct {
	K1      float64 `mapstructure:"k1"`
	B       float64 `mapstructure:"b"`
	Epsilon float64 `mapstructure:"epsilon"`
}

type SearchConfig struct {
	CacheSize    int           `mapstructure:"cache_size"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	IndexWorkers int           `mapstructure:"index_workers"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Config is the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Text      TextConfig      `mapstructure:"text"`
	TFIDF     TFIDFConfig     `mapstructure:"tfidf"`
	BM25      BM25Config      `mapstructure:"bm25"`
	Search    SearchConfig    `mapstructure:"search"`
	Log       LogConfig       `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("data.corpus_path", "data/processed_movies.csv")
	v.SetDefault("data.cache_path", "data/embeddings.db")

	v.SetDefault("embedding.provider", "") // detect from API keys in the environment
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimension", 0)
	v.SetDefault("embedding.batch_size", semantic.DefaultConfig().BatchSize)
	v.SetDefault("embedding.workers", semantic.DefaultConfig().Workers)
	v.SetDefault("embedding.cache_size", 10000)
	v.SetDefault("embedding.timeout", embedder.DefaultTimeout)

	v.SetDefault("text.morphology", string(textproc.MorphologyLemma))

	tfidf := lexical.DefaultTFIDFConfig()
	v.SetDefault("tfidf.max_features", tfidf.MaxFeatures)
	v.SetDefault("tfidf.min_df", tfidf.MinDF)
	v.SetDefault("tfidf.max_df", tfidf.MaxDF)

	bm25 := lexical.DefaultBM25Config()
	v.SetDefault("bm25.k1", bm25.K1)
	v.SetDefault("bm25.b", bm25.B)
	v.SetDefault("bm25.epsilon", bm25.Epsilon)

	search := searcher.DefaultOptions()
	v.SetDefault("search.cache_size", search.CacheSize)
	v.SetDefault("search.cache_ttl", search.CacheTTL)
	v.SetDefault("search.index_workers", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads configuration. With an empty path a moviematch.yaml in the
// working directory is used when present; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("moviematch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Server.Port > 0 && c.Server.Port < 65536, "server.port %d out of range", c.Server.Port)
	check(c.Data.CorpusPath != "", "data.corpus_path is required")

	switch strings.ToLower(c.Embedding.Provider) {
	case "", embedder.ProviderLocal, embedder.ProviderOpenAI, embedder.ProviderJina, embedder.ProviderOllama:
	default:
		check(c.Embedding.BaseURL != "", "embedding.provider %q needs embedding.base_url", c.Embedding.Provider)
	}
	check(c.Embedding.BatchSize > 0, "embedding.batch_size must be positive")
	check(c.Embedding.Dimension >= 0, "embedding.dimension must not be negative")

	switch textproc.Morphology(strings.ToLower(c.Text.Morphology)) {
	case textproc.MorphologyLemma, textproc.MorphologyStem, textproc.MorphologyNone:
	default:
		check(false, "text.morphology %q is not one of lemma, stem, none", c.Text.Morphology)
	}

	check(c.TFIDF.MinDF >= 1, "tfidf.min_df must be at least 1")
	check(c.TFIDF.MaxDF > 0, "tfidf.max_df must be positive")
	check(c.TFIDF.MaxFeatures >= 0, "tfidf.max_features must not be negative")

	check(c.BM25.K1 >= 0, "bm25.k1 must not be negative")
	check(c.BM25.B >= 0 && c.BM25.B <= 1, "bm25.b must be within [0,1]")
	check(c.BM25.Epsilon >= 0, "bm25.epsilon must not be negative")

	_, err := zapcore.ParseLevel(c.Log.Level)
	check(err == nil, "log.level %q is not a valid level", c.Log.Level)

	return errors.Join(errs...)
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// EmbedderConfig maps the embedding section onto embedder.Config
func (c *Config) EmbedderConfig() embedder.Config {
	return embedder.Config{
		Provider:  c.Embedding.Provider,
		BaseURL:   c.Embedding.BaseURL,
		APIKey:    c.Embedding.APIKey,
		Model:     c.Embedding.Model,
		Dimension: c.Embedding.Dimension,
		BatchSize: c.Embedding.BatchSize,
		CacheSize: c.Embedding.CacheSize,
		Timeout:   c.Embedding.Timeout,
	}
}

// IndexerConfig maps the index sections onto indexer.Config
func (c *Config) IndexerConfig() *indexer.Config {
	cfg := indexer.DefaultConfig()
	if c.Search.IndexWorkers > 0 {
		cfg.Workers = c.Search.IndexWorkers
	}
	cfg.TFIDF = lexical.TFIDFConfig{
		MaxFeatures: c.TFIDF.MaxFeatures,
		MinDF:       c.TFIDF.MinDF,
		MaxDF:       c.TFIDF.MaxDF,
	}
	cfg.BM25 = lexical.BM25Config{
		K1:      c.BM25.K1,
		B:       c.BM25.B,
		Epsilon: c.BM25.Epsilon,
	}
	cfg.Semantic = semantic.Config{
		BatchSize: c.Embedding.BatchSize,
		Workers:   c.Embedding.Workers,
	}
	return cfg
}

// SearchOptions maps the search section onto searcher.Options
func (c *Config) SearchOptions() searcher.Options {
	return searcher.Options{
		CacheSize: c.Search.CacheSize,
		CacheTTL:  c.Search.CacheTTL,
	}
}
