package embedder

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment variables consulted when no key is configured.
const (
	EnvProvider     = "MOVIEMATCH_EMBEDDING_PROVIDER"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvJinaAPIKey   = "JINA_API_KEY"
)

var lookupEnv = os.Getenv

// Config selects and tunes an embedding provider.
type Config struct {
	Provider  string // local, openai, jina, ollama
	BaseURL   string // overrides the provider preset
	APIKey    string
	Model     string
	Dimension int
	BatchSize int
	CacheSize int // 0 disables the query cache
	Timeout   time.Duration
}

// New creates an embedder with explicit configuration. An empty provider
// falls back to DetectProvider.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	if cfg.Provider == "" {
		cfg.Provider = DetectProvider()
	}
	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderLocal:
		return NewLocalProvider(cfg.Dimension, cache)
	case ProviderOpenAI, ProviderJina, ProviderOllama:
		cfg.Provider = provider
		return NewHTTPProvider(cfg, cache)
	default:
		if cfg.BaseURL != "" {
			return NewHTTPProvider(cfg, cache)
		}
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	if provider := lookupEnv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	if lookupEnv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if lookupEnv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	return ProviderLocal
}
