// Package confidence computes heuristic quality scores for chunks and topics.
// Scores are in [0, 1] and rounded to two decimals.
package confidence

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"topicseg/internal/domain"
)

// Weights are the tunable coefficients of the scores.
type Weights struct {
	Length          float64 // weight of the length factor
	Completeness    float64 // weight of the terminal punctuation factor
	Richness        float64 // weight of the unique word ratio
	TargetWords     int     // word count at which the length factor saturates
	IncompleteScore float64 // completeness of a chunk without terminal punctuation
	SizeBonusStep   float64 // topic bonus per chunk
	SizeBonusCap    float64 // maximum topic bonus
}

func DefaultWeights() Weights {
	return Weights{
		Length:          0.4,
		Completeness:    0.3,
		Richness:        0.3,
		TargetWords:     50,
		IncompleteScore: 0.7,
		SizeBonusStep:   0.05,
		SizeBonusCap:    0.2,
	}
}

// Scorer implements domain.Scorer with a weighted sum of length,
// completeness and vocabulary richness.
type Scorer struct {
	w Weights
}

var _ domain.Scorer = (*Scorer)(nil)

func NewScorer(w Weights) *Scorer {
	if w.TargetWords <= 0 {
		w.TargetWords = DefaultWeights().TargetWords
	}
	return &Scorer{w: w}
}

// ScoreChunk scores a chunk text. Empty text scores 0.
func (s *Scorer) ScoreChunk(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	length := math.Min(1, float64(len(words))/float64(s.w.TargetWords))

	completeness := s.w.IncompleteScore
	if trimmed := strings.TrimSpace(text); strings.ContainsAny(trimmed[len(trimmed)-1:], ".!?") {
		completeness = 1
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	richness := float64(len(unique)) / float64(len(words))

	score := s.w.Length*length + s.w.Completeness*completeness + s.w.Richness*richness
	return round2(clamp(score))
}

// ScoreTopic averages the chunk confidences of topic and adds a bonus that
// grows with the number of chunks. A topic without chunks scores 0.
func (s *Scorer) ScoreTopic(topic domain.Topic) float64 {
	if len(topic.Chunks) == 0 {
		return 0
	}
	scores := make([]float64, len(topic.Chunks))
	for i, c := range topic.Chunks {
		scores[i] = c.Confidence
	}
	bonus := math.Min(s.w.SizeBonusCap, s.w.SizeBonusStep*float64(len(scores)))
	return round2(clamp(stat.Mean(scores, nil) + bonus))
}

func clamp(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
