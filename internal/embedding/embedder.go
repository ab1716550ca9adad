package embedding

import (
	"fmt"
	"time"

	"topicseg/internal/config"
	"topicseg/internal/domain"
	"topicseg/internal/embedding/ollama"
	"topicseg/internal/embedding/openai"
	"topicseg/internal/embedding/tfidf"
	"topicseg/internal/ratelimit"
)

// Embedder converts texts into numeric vectors, one per text.
type Embedder = domain.Embedder

// New assembles the embedder selected by cfg. Remote providers are wrapped
// in an LRU cache when cfg.CacheSize is positive.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	var emb Embedder
	switch cfg.Type {
	case "tfidf", "":
		// Vectors depend on the whole call, so caching per text would be wrong.
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("%w: openai embedder config missing", domain.ErrInvalidConfig)
		}
		o := cfg.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:    o.BaseURL,
			APIKeyEnv:  o.APIKeyEnv,
			Model:      o.Model,
			Timeout:    time.Duration(o.TimeoutSecs) * time.Second,
			BatchSize:  o.BatchSize,
			MaxRetries: o.MaxRetries,
			Limiter: ratelimit.New(ratelimit.Config{
				RequestsPerMinute: o.RequestsPerMinute,
				RequestsPerDay:    o.RequestsPerDay,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = client
	case "ollama":
		var oc ollama.Config
		if cfg.Ollama != nil {
			oc = ollama.Config{ServerURL: cfg.Ollama.ServerURL, Model: cfg.Ollama.Model}
		}
		client, err := ollama.New(oc)
		if err != nil {
			return nil, fmt.Errorf("ollama embedder init failed: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("%w: unknown embedder: %s", domain.ErrInvalidConfig, cfg.Type)
	}
	if cfg.CacheSize > 0 {
		return NewCached(emb, cfg.CacheSize)
	}
	return emb, nil
}
