package ollama

import (
	"context"
	"errors"
	"fmt"

	lcollama "github.com/tmc/langchaingo/llms/ollama"
)

// EmbeddingClient is the subset of the langchaingo Ollama LLM used here.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, inputTexts []string) ([][]float32, error)
}

// Embedder produces embeddings from a local Ollama server.
type Embedder struct {
	client EmbeddingClient
	model  string
}

// Config configures the Ollama embedder.
type Config struct {
	ServerURL string
	Model     string
}

// New connects a langchaingo Ollama client.
func New(cfg Config) (*Embedder, error) {
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	llm, err := lcollama.New(lcollama.WithServerURL(cfg.ServerURL), lcollama.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return Wrap(llm, cfg.Model), nil
}

// Wrap builds an embedder around an existing client.
func Wrap(client EmbeddingClient, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "ollama" }

// Embed returns one embedding per text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	raw, err := e.client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama %s: %w", e.model, err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("ollama %s: expected %d embeddings, got %d", e.model, len(texts), len(raw))
	}
	out := make([][]float64, len(raw))
	for i, v := range raw {
		if len(v) == 0 {
			return nil, errors.New("ollama returned an empty embedding")
		}
		out[i] = make([]float64, len(v))
		for j, x := range v {
			out[i][j] = float64(x)
		}
	}
	return out, nil
}
