package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topicseg/internal/domain"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, 200, cfg.Chunker.TargetWords)
	assert.Equal(t, 10, cfg.Chunker.MinWords)
	assert.Equal(t, 5, cfg.Cluster.SmallSampleThreshold)
	assert.Equal(t, "General Topic", cfg.Naming.DefaultLabel)
	assert.InDelta(t, 0.4, cfg.Confidence.LengthWeight, 1e-9)
	assert.InDelta(t, 0.05, cfg.Confidence.SizeBonusStep, 1e-9)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseAppliesProviderDefaults(t *testing.T) {
	cfg, err := Parse([]byte("embedder:\n  type: openai\n  cache_size: 128\nchunker:\n  target_words: 120\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 32, cfg.Embedder.OpenAI.BatchSize)
	assert.Equal(t, 128, cfg.Embedder.CacheSize)
	assert.Equal(t, 120, cfg.Chunker.TargetWords)
	assert.Equal(t, 10, cfg.Chunker.MinWords)

	cfg, err = Parse([]byte("embedder:\n  type: ollama\n"))
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Ollama.Model)
}

func TestParseKeepsExplicitZeros(t *testing.T) {
	cfg, err := Parse([]byte(`
chunker:
  min_words: 0
embedder:
  type: openai
  openai:
    max_retries: 0
confidence:
  incomplete_score: 0
`))
	require.NoError(t, err)
	assert.Zero(t, cfg.Chunker.MinWords)
	assert.Equal(t, 200, cfg.Chunker.TargetWords)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Zero(t, cfg.Embedder.OpenAI.MaxRetries)
	assert.Equal(t, 32, cfg.Embedder.OpenAI.BatchSize)
	assert.Zero(t, cfg.Confidence.IncompleteScore)
	assert.InDelta(t, 0.4, cfg.Confidence.LengthWeight, 1e-9)
	assert.Nil(t, cfg.Embedder.Ollama)
}

func TestParseDropsUnselectedProviders(t *testing.T) {
	cfg, err := Parse([]byte("embedder:\n  type: tfidf\n  ollama:\n    model: other\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Embedder.OpenAI)
	assert.Nil(t, cfg.Embedder.Ollama)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown embedder", "embedder:\n  type: word2vec\n"},
		{"negative weight", "confidence:\n  length_weight: -0.1\n  completeness_weight: 0.3\n"},
		{"weights over one", "confidence:\n  length_weight: 0.6\n  completeness_weight: 0.3\n  richness_weight: 0.3\n"},
		{"label terms over top terms", "naming:\n  top_terms: 2\n  label_terms: 3\n"},
		{"target below min", "chunker:\n  target_words: 5\n  min_words: 10\n"},
		{"negative cache", "embedder:\n  cache_size: -1\n"},
		{"zero batch size", "embedder:\n  type: openai\n  openai:\n    batch_size: 0\n"},
		{"zero confidence target", "confidence:\n  target_words: 0\n"},
		{"zero chunk target", "chunker:\n  target_words: 0\n  min_words: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("chunker: [unclosed"))
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Naming.DefaultLabel = "Misc"
	require.NoError(t, Save(path, cfg))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
