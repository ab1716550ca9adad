package service

import (
	"fmt"

	"topicseg/internal/chunker"
	"topicseg/internal/cluster"
	"topicseg/internal/config"
	"topicseg/internal/confidence"
	"topicseg/internal/embedding"
	"topicseg/internal/logger"
	"topicseg/internal/metrics"
	"topicseg/internal/naming"
)

// NewFromConfig wires a Segmenter from the application config.
func NewFromConfig(cfg *config.AppConfig, log logger.Logger, rec metrics.Recorder) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetDefault()
	}
	emb, err := embedding.New(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	ch := chunker.NewSentenceChunker(chunker.Options{
		TargetWords:        cfg.Chunker.TargetWords,
		MinWords:           cfg.Chunker.MinWords,
		SentencesPerWindow: cfg.Chunker.SentencesPerWindow,
		CharWindow:         cfg.Chunker.CharWindow,
	})
	cl := cluster.New(cluster.Options{
		SmallSampleThreshold:  cfg.Cluster.SmallSampleThreshold,
		MinClusterSizeDivisor: cfg.Cluster.MinClusterSizeDivisor,
	}, log)
	nf := naming.NewFactory(naming.Options{
		TopTerms:      cfg.Naming.TopTerms,
		LabelTerms:    cfg.Naming.LabelTerms,
		FallbackWords: cfg.Naming.FallbackWords,
		MaxFeatures:   cfg.Naming.MaxFeatures,
		DefaultLabel:  cfg.Naming.DefaultLabel,
	}, log)
	c := cfg.Confidence
	sc := confidence.NewScorer(confidence.Weights{
		Length:          c.LengthWeight,
		Completeness:    c.CompletenessWeight,
		Richness:        c.RichnessWeight,
		TargetWords:     c.TargetWords,
		IncompleteScore: c.IncompleteScore,
		SizeBonusStep:   c.SizeBonusStep,
		SizeBonusCap:    c.SizeBonusCap,
	})
	log.Debug("segmenter ready", "embedder", emb.Name(), "workers", cfg.Service.Workers)
	return NewSegmenter(ch, emb, cl, nf, sc,
		WithMetrics(rec),
		WithMinWords(ch.MinWords()),
		WithWorkers(cfg.Service.Workers),
		WithFallbackName(cfg.Naming.DefaultLabel),
	), nil
}
