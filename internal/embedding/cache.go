package embedding

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached memoizes per-text embeddings of a context-free embedder.
type Cached struct {
	inner Embedder
	cache *lru.Cache[string, []float64]
}

// NewCached wraps inner with an LRU cache holding up to size vectors.
func NewCached(inner Embedder, size int) (*Cached, error) {
	if size <= 0 {
		return nil, fmt.Errorf("embedder %q: cache size must be greater than zero", inner.Name())
	}
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: init cache: %w", inner.Name(), err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func (c *Cached) Name() string { return c.inner.Name() }

// Embed serves cached texts and forwards the unique misses in one call.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	results := make([][]float64, len(texts))
	missing := make(map[string][]int)
	var order []string
	for i, text := range texts {
		if v, ok := c.cache.Get(text); ok {
			results[i] = slices.Clone(v)
			continue
		}
		if _, seen := missing[text]; !seen {
			order = append(order, text)
		}
		missing[text] = append(missing[text], i)
	}
	if len(order) == 0 {
		return results, nil
	}
	vecs, err := c.inner.Embed(ctx, order)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(order) {
		return nil, fmt.Errorf("embedder %q: expected %d vectors, got %d", c.inner.Name(), len(order), len(vecs))
	}
	for i, text := range order {
		c.cache.Add(text, slices.Clone(vecs[i]))
		for _, idx := range missing[text] {
			results[idx] = slices.Clone(vecs[i])
		}
	}
	return results, nil
}

// Len returns the number of cached vectors.
func (c *Cached) Len() int { return c.cache.Len() }
