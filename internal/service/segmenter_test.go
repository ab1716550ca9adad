package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topicseg/internal/chunker"
	"topicseg/internal/cluster"
	"topicseg/internal/config"
	"topicseg/internal/confidence"
	"topicseg/internal/domain"
	"topicseg/internal/naming"
	"topicseg/internal/textproc"
)

const threeTopics = `The ocean covers most of the planet and shapes weather patterns everywhere. Deep ocean trenches host strange creatures that never see any sunlight. Warm ocean currents carry heat from the tropics toward colder regions.

Every galaxy contains billions of stars bound together by gravity forces. Astronomers measure how fast each galaxy recedes using shifted light spectra. Our galaxy has a supermassive black hole sitting at its center.

Good bread needs flour, water, salt and a patient baker today. Sourdough bread rises slowly because wild yeast ferments the dough overnight. Fresh bread tastes best when the crust crackles under your fingers.`

// keywordEmbedder maps each text to its normalized counts of a fixed set of
// keywords.
type keywordEmbedder struct {
	keywords []string
	err      error

	mu    sync.Mutex
	calls int
}

func (e *keywordEmbedder) Name() string { return "keywords" }

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, len(e.keywords))
		for _, w := range strings.Fields(strings.ToLower(text)) {
			w = strings.Trim(w, ".,!?")
			for k, kw := range e.keywords {
				if w == kw {
					vec[k]++
				}
			}
		}
		var norm float64
		for _, x := range vec {
			norm += x * x
		}
		if norm > 0 {
			for k := range vec {
				vec[k] /= math.Sqrt(norm)
			}
		}
		out[i] = vec
	}
	return out, nil
}

func newTestSegmenter(emb domain.Embedder, targetWords int) *Segmenter {
	ch := chunker.NewSentenceChunker(chunker.Options{TargetWords: targetWords, MinWords: 10})
	return NewSegmenter(ch, emb,
		cluster.New(cluster.DefaultOptions(), nil),
		naming.NewFactory(naming.DefaultOptions(), nil),
		confidence.NewScorer(confidence.DefaultWeights()),
	)
}

func topicKeywords() *keywordEmbedder {
	return &keywordEmbedder{keywords: []string{"ocean", "galaxy", "bread"}}
}

func assertResultInvariants(t *testing.T, res domain.SegmentationResult) {
	t.Helper()
	require.NotNil(t, res.Topics)
	assert.GreaterOrEqual(t, res.TotalChunks, 1)
	assert.LessOrEqual(t, res.ChunkCount(), res.TotalChunks)
	twoDecimals := func(x float64) bool { return math.Abs(x*100-math.Round(x*100)) < 1e-9 }
	seen := make(map[int]bool)
	for _, topic := range res.Topics {
		assert.NotEmpty(t, topic.Name)
		assert.NotEmpty(t, topic.Chunks)
		assert.True(t, topic.Confidence >= 0 && topic.Confidence <= 1, "topic confidence %v", topic.Confidence)
		assert.True(t, twoDecimals(topic.Confidence), "topic confidence %v", topic.Confidence)
		for _, c := range topic.Chunks {
			assert.False(t, seen[c.ID], "chunk %d in two topics", c.ID)
			seen[c.ID] = true
			assert.GreaterOrEqual(t, textproc.WordCount(c.Text), 10)
			assert.True(t, c.Confidence >= 0 && c.Confidence <= 1, "chunk confidence %v", c.Confidence)
			assert.True(t, twoDecimals(c.Confidence), "chunk confidence %v", c.Confidence)
			assert.Less(t, c.ID, res.TotalChunks)
		}
	}
}

func TestSegmentSeparatesDistinctTopics(t *testing.T) {
	s := newTestSegmenter(topicKeywords(), 15)
	res, err := s.Segment(context.Background(), threeTopics)
	require.NoError(t, err)
	assertResultInvariants(t, res)

	assert.Equal(t, 9, res.TotalChunks)
	require.Len(t, res.Topics, 3)
	for i, want := range []string{"Ocean", "Galaxy", "Bread"} {
		topic := res.Topics[i]
		assert.Contains(t, topic.Name, want)
		require.Len(t, topic.Chunks, 3)
		for j, c := range topic.Chunks {
			assert.Equal(t, 3*i+j, c.ID)
			assert.Contains(t, strings.ToLower(c.Text), strings.ToLower(want))
		}
	}
}

func TestSegmentIsIdempotent(t *testing.T) {
	s := newTestSegmenter(topicKeywords(), 15)
	first, err := s.Segment(context.Background(), threeTopics)
	require.NoError(t, err)
	second, err := s.Segment(context.Background(), threeTopics)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSegmentFewChunksFormOneTopic(t *testing.T) {
	text := strings.Split(threeTopics, "\n\n")[0]
	s := newTestSegmenter(&keywordEmbedder{keywords: []string{"ocean", "trenches", "currents"}}, 15)
	res, err := s.Segment(context.Background(), text)
	require.NoError(t, err)
	assertResultInvariants(t, res)
	assert.Equal(t, 3, res.TotalChunks)
	require.Len(t, res.Topics, 1)
	assert.Len(t, res.Topics[0].Chunks, 3)
}

func TestSegmentEmptyInput(t *testing.T) {
	emb := topicKeywords()
	s := newTestSegmenter(emb, 200)
	res, err := s.Segment(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalChunks)
	assert.Empty(t, res.Topics)
	assert.Zero(t, emb.calls)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"topics":[],"total_chunks":1}`, string(data))
}

func TestSegmentShortInputHasNoTopics(t *testing.T) {
	s := newTestSegmenter(topicKeywords(), 200)
	res, err := s.Segment(context.Background(), "Hello there, world.")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalChunks)
	assert.Empty(t, res.Topics)
}

func TestSegmentEmbeddingFailureIsFatal(t *testing.T) {
	boom := errors.New("connection refused")
	s := newTestSegmenter(&keywordEmbedder{err: boom}, 15)
	_, err := s.Segment(context.Background(), threeTopics)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, boom)
}

type shortEmbedder struct{ keywordEmbedder }

func (e *shortEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vecs, err := e.keywordEmbedder.Embed(ctx, texts)
	return vecs[:len(vecs)-1], err
}

func TestSegmentRejectsMissingVectors(t *testing.T) {
	s := newTestSegmenter(&shortEmbedder{keywordEmbedder{keywords: []string{"ocean"}}}, 15)
	_, err := s.Segment(context.Background(), threeTopics)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSegmentCanceledContext(t *testing.T) {
	cfg := config.Default()
	s, err := NewFromConfig(cfg, nil, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Segment(ctx, threeTopics)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

type badClusterer struct{}

func (badClusterer) Cluster(vectors [][]float64) domain.Assignment {
	return domain.Assignment{Groups: []domain.Group{
		{Label: domain.ClusterLabel(0), Indices: []int{0, 1}},
		{Label: domain.ClusterLabel(1), Indices: []int{len(vectors) + 5}},
	}}
}

func TestSegmentIsolatesClusterFailures(t *testing.T) {
	ch := chunker.NewSentenceChunker(chunker.Options{TargetWords: 15, MinWords: 10})
	s := NewSegmenter(ch, topicKeywords(), badClusterer{},
		naming.NewFactory(naming.DefaultOptions(), nil),
		confidence.NewScorer(confidence.DefaultWeights()),
	)
	res, err := s.Segment(context.Background(), threeTopics)
	require.NoError(t, err)
	require.Len(t, res.Topics, 1)
	assert.Len(t, res.Topics[0].Chunks, 2)
}

type panickingNamer struct{}

func (panickingNamer) NewNamer([]string) domain.Namer { return panickingNamer{} }
func (panickingNamer) Name(chunks []string) string {
	if strings.Contains(chunks[0], "galaxy") {
		panic("vocabulary exploded")
	}
	return "Fine"
}

func TestSegmentNamingPanicUsesFallback(t *testing.T) {
	ch := chunker.NewSentenceChunker(chunker.Options{TargetWords: 15, MinWords: 10})
	s := NewSegmenter(ch, topicKeywords(), cluster.New(cluster.DefaultOptions(), nil),
		panickingNamer{},
		confidence.NewScorer(confidence.DefaultWeights()),
		WithFallbackName("Misc"),
	)
	res, err := s.Segment(context.Background(), threeTopics)
	require.NoError(t, err)
	require.Len(t, res.Topics, 3)
	assert.Equal(t, "Fine", res.Topics[0].Name)
	assert.Equal(t, "Misc", res.Topics[1].Name)
	assert.Equal(t, "Fine", res.Topics[2].Name)
	assert.Positive(t, res.Topics[1].Confidence)
}

var topicSentences = map[string][]string{
	"ocean": {
		"The ocean covers most of the planet and shapes weather.",
		"Deep ocean trenches host strange creatures that never see sunlight.",
		"Warm ocean currents carry heat from tropical waters toward poles.",
		"Ocean tides rise and fall twice daily along every coastline.",
		"Whales migrate across the open ocean following seasonal plankton blooms.",
	},
	"galaxy": {
		"Every galaxy contains billions of stars bound together by gravity.",
		"Astronomers measure how fast each galaxy recedes using shifted spectra.",
		"Our galaxy hides a supermassive black hole at its center.",
		"Spiral arms of the galaxy glow with young blue stars.",
		"Telescopes photograph distant galaxy clusters through clouds of cosmic dust.",
	},
	"bread": {
		"Good bread needs flour, water, salt and a patient baker.",
		"Sourdough bread rises slowly because wild yeast ferments the dough.",
		"Fresh bread tastes best when the crust crackles under fingers.",
		"Bakers knead bread dough until it turns smooth and elastic.",
		"Rye bread keeps longer than white loaves in cool pantries.",
	},
}

// longDocument has one paragraph of sixty ten-word sentences per topic, so
// every 200-word chunk stays within one paragraph.
func longDocument() string {
	var paragraphs []string
	for _, topic := range []string{"ocean", "galaxy", "bread"} {
		var sentences []string
		for range 12 {
			sentences = append(sentences, topicSentences[topic]...)
		}
		paragraphs = append(paragraphs, strings.Join(sentences, " "))
	}
	return strings.Join(paragraphs, "\n\n")
}

func TestSegmentWithLocalEmbedder(t *testing.T) {
	s, err := NewFromConfig(config.Default(), nil, nil)
	require.NoError(t, err)

	doc := longDocument()
	res, err := s.Segment(context.Background(), doc)
	require.NoError(t, err)
	assertResultInvariants(t, res)

	assert.Equal(t, 9, res.TotalChunks)
	require.Len(t, res.Topics, 3)
	found := make(map[string]bool)
	for _, topic := range res.Topics {
		var keyword string
		for kw := range topicSentences {
			if strings.Contains(strings.ToLower(topic.Name), kw) {
				keyword = kw
			}
		}
		require.NotEmpty(t, keyword, "label %q names no paragraph term", topic.Name)
		assert.False(t, found[keyword], "two topics named after %q", keyword)
		found[keyword] = true
		assert.Len(t, topic.Chunks, 3)
		for _, c := range topic.Chunks {
			assert.Contains(t, c.Text, keyword)
		}
	}

	again, err := s.Segment(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestSegmentManyKeepsOrder(t *testing.T) {
	s := newTestSegmenter(topicKeywords(), 15)
	docs := []string{threeTopics, "", "Hello there, world.", threeTopics}
	results, err := s.SegmentMany(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Len(t, results[0].Topics, 3)
	assert.Empty(t, results[1].Topics)
	assert.Empty(t, results[2].Topics)
	assert.Equal(t, results[0], results[3])
}

func TestSegmentManyReturnsFirstError(t *testing.T) {
	s := newTestSegmenter(&keywordEmbedder{err: errors.New("down")}, 15)
	_, err := s.SegmentMany(context.Background(), []string{"", threeTopics})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "document 1")
}
