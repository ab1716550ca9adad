package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"topicseg/internal/domain"
	"topicseg/internal/logger"
	"topicseg/internal/metrics"
	"topicseg/internal/textproc"
)

// Segmenter runs chunking, embedding, clustering, naming and scoring for one
// document at a time. It is safe for concurrent use when its components are.
type Segmenter struct {
	chunker   domain.Chunker
	embedder  domain.Embedder
	clusterer domain.Clusterer
	namers    domain.NamerFactory
	scorer    domain.Scorer
	metrics   metrics.Recorder
	minWords  int
	workers   int

	fallbackName string
}

var _ domain.Segmenter = (*Segmenter)(nil)

type Option func(*Segmenter)

// WithMetrics sets the recorder notified after every document.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Segmenter) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithMinWords sets the word count below which chunks are left out of
// clustering. They still count towards TotalChunks.
func WithMinWords(n int) Option {
	return func(s *Segmenter) { s.minWords = n }
}

// WithFallbackName sets the label of a topic whose naming failed.
func WithFallbackName(name string) Option {
	return func(s *Segmenter) {
		if name != "" {
			s.fallbackName = name
		}
	}
}

// WithWorkers bounds the documents segmented in parallel by SegmentMany.
func WithWorkers(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewSegmenter(
	chunker domain.Chunker,
	embedder domain.Embedder,
	clusterer domain.Clusterer,
	namers domain.NamerFactory,
	scorer domain.Scorer,
	opts ...Option,
) *Segmenter {
	s := &Segmenter{
		chunker:   chunker,
		embedder:  embedder,
		clusterer: clusterer,
		namers:    namers,
		scorer:    scorer,
		metrics:   metrics.Nop(),
		minWords:  10,
		workers:   4,

		fallbackName: "General Topic",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment splits text into labeled topics. Only an embedding failure is
// returned as an error; degenerate input yields a sparse result.
func (s *Segmenter) Segment(ctx context.Context, text string) (domain.SegmentationResult, error) {
	start := time.Now()
	log := logger.FromContext(ctx).With("run_id", uuid.NewString())

	texts := s.chunker.Chunk(text)
	result := domain.SegmentationResult{Topics: []domain.Topic{}, TotalChunks: len(texts)}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, t := range texts {
		if textproc.WordCount(t) < s.minWords {
			continue
		}
		chunks = append(chunks, domain.Chunk{ID: i, Text: t, Confidence: s.scorer.ScoreChunk(t)})
	}
	log.Debug("chunked document", "chunks", len(texts), "meaningful", len(chunks))
	if len(chunks) == 0 {
		s.metrics.ObserveDocument(len(texts), len(texts), 0, time.Since(start))
		return result, nil
	}

	inputs := make([]string, len(chunks))
	for i, c := range chunks {
		inputs[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, inputs)
	if err == nil && len(vectors) != len(inputs) {
		err = fmt.Errorf("%w: expected %d vectors, got %d", domain.ErrDimensionMismatch, len(inputs), len(vectors))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.SegmentationResult{}, ctxErr
		}
		s.metrics.EmbeddingFailed(s.embedder.Name())
		log.Error("embedding failed", "embedder", s.embedder.Name(), "error", err)
		return domain.SegmentationResult{}, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingUnavailable, s.embedder.Name(), err)
	}

	assignment := s.clusterer.Cluster(vectors)
	namer := s.namers.NewNamer(inputs)
	for _, g := range assignment.Clusters() {
		if topic, ok := s.buildTopic(g, chunks, namer, log); ok {
			result.Topics = append(result.Topics, topic)
		}
	}

	left := len(texts) - result.ChunkCount()
	s.metrics.ObserveDocument(len(texts), left, len(result.Topics), time.Since(start))
	log.Info("segmented document",
		"chunks", len(texts),
		"topics", len(result.Topics),
		"noise", assignment.NoiseCount(),
		"elapsed", time.Since(start),
	)
	return result, nil
}

// buildTopic names and scores one cluster. A panic while naming or scoring
// is recovered and the topic keeps fallback values.
func (s *Segmenter) buildTopic(g domain.Group, chunks []domain.Chunk, namer domain.Namer, log logger.Logger) (domain.Topic, bool) {
	members := make([]domain.Chunk, 0, len(g.Indices))
	texts := make([]string, 0, len(g.Indices))
	for _, idx := range g.Indices {
		if idx < 0 || idx >= len(chunks) {
			log.Warn("cluster references unknown chunk", "cluster", g.Label.String(), "index", idx)
			continue
		}
		members = append(members, chunks[idx])
		texts = append(texts, chunks[idx].Text)
	}
	if len(members) == 0 {
		return domain.Topic{}, false
	}

	topic := domain.Topic{Name: s.fallbackName, Chunks: members}
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn("topic naming failed", "cluster", g.Label.String(), "error", r)
			}
		}()
		topic.Name = namer.Name(texts)
	}()
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn("topic scoring failed", "cluster", g.Label.String(), "error", r)
				topic.Confidence = 0
			}
		}()
		topic.Confidence = s.scorer.ScoreTopic(topic)
	}()
	return topic, true
}

// SegmentMany segments docs concurrently, at most Workers at a time. Results
// keep the order of docs. The first error cancels the remaining work.
func (s *Segmenter) SegmentMany(ctx context.Context, docs []string) ([]domain.SegmentationResult, error) {
	results := make([]domain.SegmentationResult, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, doc := range docs {
		g.Go(func() error {
			res, err := s.Segment(ctx, doc)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
