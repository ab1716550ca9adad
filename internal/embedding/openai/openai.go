package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"topicseg/internal/ratelimit"
)

// Client is an OpenAI-compatible embeddings client. It also understands the
// Ollama-native response shapes so it can talk to local servers.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	batchSize  int
	maxRetries int
	retryBase  time.Duration
	client     *http.Client
	limiter    *ratelimit.Limiter
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Timeout    time.Duration
	BatchSize  int
	MaxRetries int
	RetryBase  time.Duration
	// Limiter is optional and should be shared between clients of one backend.
	Limiter *ratelimit.Limiter
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
		client:     &http.Client{Timeout: t},
		limiter:    cfg.Limiter,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Embed returns one embedding per text, sending texts in batches.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		vecs, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

type reqBody struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float64, error) {
	data, err := json.Marshal(reqBody{Input: batch, Model: c.model})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/embeddings", c.baseURL)

	base := retry.NewExponential(c.retryBase)
	base = retry.WithCappedDuration(5*time.Second, base)
	base = retry.WithJitterPercent(10, base)
	base = retry.WithMaxRetries(uint64(c.maxRetries), base)

	// A Retry-After header replaces the next backoff delay.
	var retryAfter time.Duration
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := base.Next()
		if retryAfter > 0 {
			next, retryAfter = retryAfter, 0
		}
		return next, stop
	})

	var vectors [][]float64
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
			return retry.RetryableError(fmt.Errorf("openai embeddings failed: %s", resp.Status))
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("openai embeddings failed: %s", resp.Status)
		}
		if readErr != nil {
			return retry.RetryableError(readErr)
		}
		vecs, err := decode(payload, len(batch))
		if err != nil {
			return retry.RetryableError(err)
		}
		vectors = vecs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// decode accepts the OpenAI shape {"data":[{"index":i,"embedding":[...]}]}
// and the Ollama shapes {"embeddings":[[...]]} and {"embedding":[...]}.
func decode(payload []byte, want int) ([][]float64, error) {
	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
		Embeddings [][]float64 `json:"embeddings"`
		Embedding  []float64   `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	switch {
	case len(out.Data) > 0:
		if len(out.Data) != want {
			return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(out.Data))
		}
		vecs := make([][]float64, want)
		for i, d := range out.Data {
			idx := d.Index
			if idx < 0 || idx >= want || vecs[idx] != nil {
				idx = i
			}
			vecs[idx] = d.Embedding
		}
		return checkVectors(vecs)
	case len(out.Embeddings) > 0:
		if len(out.Embeddings) != want {
			return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(out.Embeddings))
		}
		return checkVectors(out.Embeddings)
	case len(out.Embedding) > 0 && want == 1:
		return [][]float64{out.Embedding}, nil
	}
	return nil, errors.New("no embedding returned")
}

func checkVectors(vecs [][]float64) ([][]float64, error) {
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("empty embedding at position %d", i)
		}
	}
	return vecs, nil
}
