package confidence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"topicseg/internal/domain"
)

func fiftyWords() string {
	words := make([]string, 0, 50)
	for range 2 {
		for i := 1; i <= 25; i++ {
			words = append(words, fmt.Sprintf("word%d", i))
		}
	}
	return strings.Join(words, " ") + "."
}

func TestScoreChunk(t *testing.T) {
	s := NewScorer(DefaultWeights())

	// length 1, complete, 26 unique tokens of 50
	assert.InDelta(t, 0.86, s.ScoreChunk(fiftyWords()), 1e-9)

	// 0.4*0.04 + 0.3*0.7 + 0.3*1
	assert.InDelta(t, 0.53, s.ScoreChunk("hello world"), 1e-9)
	assert.InDelta(t, 0.62, s.ScoreChunk("  Hello world!  "), 1e-9)
	assert.InDelta(t, 0.62, s.ScoreChunk("Really, world?"), 1e-9)
}

func TestScoreChunkEmpty(t *testing.T) {
	s := NewScorer(DefaultWeights())
	assert.Zero(t, s.ScoreChunk(""))
	assert.Zero(t, s.ScoreChunk(" \n\t "))
}

func TestScoreChunkRichnessIsCaseInsensitive(t *testing.T) {
	s := NewScorer(DefaultWeights())
	assert.Equal(t, s.ScoreChunk("go go go."), s.ScoreChunk("Go GO go."))
}

func TestScoreTopic(t *testing.T) {
	s := NewScorer(DefaultWeights())
	chunk := domain.Chunk{Confidence: 0.86}

	assert.InDelta(t, 0.91, s.ScoreTopic(domain.Topic{Chunks: []domain.Chunk{chunk}}), 1e-9)

	chunks := []domain.Chunk{{Confidence: 0.5}, {Confidence: 0.6}}
	assert.InDelta(t, 0.65, s.ScoreTopic(domain.Topic{Chunks: chunks}), 1e-9)
}

func TestScoreTopicBonusIsCapped(t *testing.T) {
	s := NewScorer(DefaultWeights())
	chunks := make([]domain.Chunk, 10)
	for i := range chunks {
		chunks[i].Confidence = 0.5
	}
	assert.InDelta(t, 0.7, s.ScoreTopic(domain.Topic{Chunks: chunks}), 1e-9)

	for i := range chunks {
		chunks[i].Confidence = 0.95
	}
	assert.Equal(t, 1.0, s.ScoreTopic(domain.Topic{Chunks: chunks}))
}

func TestScoreTopicEmpty(t *testing.T) {
	assert.Zero(t, NewScorer(DefaultWeights()).ScoreTopic(domain.Topic{}))
}

func TestCustomWeights(t *testing.T) {
	s := NewScorer(Weights{Length: 1, TargetWords: 4})
	assert.InDelta(t, 0.5, s.ScoreChunk("two words"), 1e-9)
}
