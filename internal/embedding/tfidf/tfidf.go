package tfidf

import (
	"context"
	"math"
	"sort"

	"topicseg/internal/textproc"
)

// Embedder is a local TF-IDF vectorizer. Each Embed call fits a fresh
// vocabulary on the texts it receives, so vectors are only comparable within
// one call and no state is shared between documents.
type Embedder struct {
	tokenizer *textproc.Tokenizer
}

// NewEmbedder creates a TF-IDF embedder using the default stopword list.
func NewEmbedder() *Embedder {
	return &Embedder{tokenizer: textproc.NewTokenizer(nil)}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Embed fits the vocabulary on texts and returns one L2-normalized vector per
// text. Texts without known tokens map to the zero vector.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}
	docs := make([][]string, len(texts))
	df := make(map[string]int)
	for i, text := range texts {
		docs[i] = e.tokenizer.Tokenize(text)
		seen := make(map[string]struct{}, len(docs[i]))
		for _, tok := range docs[i] {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Create stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(texts))
	for i, term := range terms {
		vocabulary[term] = i
		// Smoothed IDF
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	// At least one dimension so every vector has the same non-zero length.
	dim := max(len(terms), 1)

	vectors := make([][]float64, len(texts))
	for i, tokens := range docs {
		vectors[i] = vectorize(tokens, vocabulary, idf, dim)
	}
	return vectors, nil
}

func vectorize(tokens []string, vocabulary map[string]int, idf []float64, dim int) []float64 {
	vec := make([]float64, dim)
	if len(tokens) == 0 {
		return vec
	}
	tf := make(map[int]int)
	for _, tok := range tokens {
		tf[vocabulary[tok]]++
	}
	total := float64(len(tokens))
	for idx, count := range tf {
		vec[idx] = float64(count) / total * idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
