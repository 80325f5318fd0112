package embedder

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"

	"github.com/dshills/moviematch/internal/metrics"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderJina   = "jina"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"

	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOllamaModel = "all-minilm"
	DefaultLocalModel  = "hashed-ngrams-384"

	OpenAIDimension = 1536
	JinaDimension   = 1024
	OllamaDimension = 384
	LocalDimension  = 384

	DefaultBatchSize = 32
	MaxBatchSize     = 100
	DefaultTimeout   = 30 * time.Second

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// preset holds the defaults for an OpenAI-compatible embeddings endpoint.
type preset struct {
	baseURL   string
	model     string
	dimension int
	keyEnv    string
}

var presets = map[string]preset{
	ProviderOpenAI: {baseURL: "https://api.openai.com/v1", model: DefaultOpenAIModel, dimension: OpenAIDimension, keyEnv: EnvOpenAIAPIKey},
	ProviderJina:   {baseURL: "https://api.jina.ai/v1", model: DefaultJinaModel, dimension: JinaDimension, keyEnv: EnvJinaAPIKey},
	ProviderOllama: {baseURL: "http://localhost:11434/v1", model: DefaultOllamaModel, dimension: OllamaDimension},
}

// APIError is a non-2xx answer from an embeddings endpoint.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s embeddings failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the status code is worth another attempt.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// HTTPProvider talks to any service exposing the OpenAI /embeddings
// contract: OpenAI itself, Jina, Ollama, or a self-hosted sentence
// transformer behind a compatible gateway.
type HTTPProvider struct {
	name      string
	model     string
	dimension int
	batchSize int
	client    *resty.Client
	cache     *Cache
	retry     RetryConfig
}

// NewHTTPProvider builds a provider from cfg, filling gaps from the
// provider's preset. Hosted providers require an API key.
func NewHTTPProvider(cfg Config, cache *Cache) (*HTTPProvider, error) {
	name := strings.ToLower(cfg.Provider)
	p, known := presets[name]
	if !known && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}

	baseURL := firstNonEmpty(cfg.BaseURL, p.baseURL)
	model := firstNonEmpty(cfg.Model, p.model)
	if model == "" {
		return nil, fmt.Errorf("%w: no model configured for %s", ErrInvalidInput, name)
	}
	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = p.dimension
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: no dimension configured for %s", ErrInvalidInput, name)
	}

	apiKey := cfg.APIKey
	if apiKey == "" && p.keyEnv != "" {
		apiKey = lookupEnv(p.keyEnv)
	}
	if apiKey == "" && p.keyEnv != "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, p.keyEnv)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &HTTPProvider{
		name:      name,
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
		client:    client,
		cache:     cache,
		retry:     DefaultRetryConfig(),
	}, nil
}

func (h *HTTPProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	model := firstNonEmpty(req.Model, h.model)

	key := CacheKey(model, req.Text)
	if h.cache != nil {
		if emb, ok := h.cache.Get(key); ok {
			return emb, nil
		}
	}

	embeddings, err := h.embed(ctx, []string{req.Text}, model)
	if err != nil {
		return nil, err
	}
	emb := embeddings[0]
	emb.Hash = key

	if h.cache != nil {
		h.cache.Set(key, emb)
	}
	return emb, nil
}

// GenerateBatch embeds texts in provider-sized chunks. Batch results are
// not cached; the semantic snapshot store persists them instead.
func (h *HTTPProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}
	model := firstNonEmpty(req.Model, h.model)

	out := make([]*Embedding, 0, len(req.Texts))
	for start := 0; start < len(req.Texts); start += h.batchSize {
		end := min(start+h.batchSize, len(req.Texts))
		embeddings, err := h.embed(ctx, req.Texts[start:end], model)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		out = append(out, embeddings...)
	}

	return &BatchEmbeddingResponse{
		Embeddings: out,
		Provider:   h.name,
		Model:      model,
	}, nil
}

func (h *HTTPProvider) embed(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	embeddings, err := retryWithBackoff(ctx, h.retry, func() ([]*Embedding, error) {
		return h.callAPI(ctx, texts, model)
	})
	metrics.EmbeddingRequests.WithLabelValues(h.name, metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
	return embeddings, nil
}

func (h *HTTPProvider) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	var result embeddingResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Input: texts, Model: model}).
		SetResult(&result).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", h.name, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Provider: h.name, StatusCode: resp.StatusCode(), Body: resp.String()}
		if !apiErr.Retryable() {
			return nil, permanent(apiErr)
		}
		return nil, apiErr
	}

	if len(result.Data) != len(texts) {
		return nil, permanent(fmt.Errorf("%w: expected %d embeddings, got %d", ErrProviderFailed, len(texts), len(result.Data)))
	}
	sort.Slice(result.Data, func(i, j int) bool { return result.Data[i].Index < result.Data[j].Index })

	embeddings := make([]*Embedding, len(result.Data))
	for i, d := range result.Data {
		if len(d.Embedding) != h.dimension {
			return nil, permanent(fmt.Errorf("%w: %s returned %d, configured %d",
				ErrDimensionMismatch, h.name, len(d.Embedding), h.dimension))
		}
		embeddings[i] = &Embedding{
			Vector:    d.Embedding,
			Dimension: len(d.Embedding),
			Provider:  h.name,
			Model:     model,
		}
	}
	return embeddings, nil
}

func (h *HTTPProvider) Dimension() int {
	return h.dimension
}

func (h *HTTPProvider) Provider() string {
	return h.name
}

func (h *HTTPProvider) Model() string {
	return h.model
}

func (h *HTTPProvider) Close() error {
	h.client.GetClient().CloseIdleConnections()
	return nil
}

// CacheStats reports query cache hits and misses
func (h *HTTPProvider) CacheStats() (hits, misses int64) {
	return h.cache.Stats()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
