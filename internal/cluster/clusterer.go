package cluster

import (
	"math"

	"topicseg/internal/domain"
	"topicseg/internal/logger"
)

// Options configures HDBSCAN parameter derivation.
type Options struct {
	SmallSampleThreshold  int // below this many vectors everything is one cluster
	MinClusterSizeDivisor int // min_cluster_size = max(2, n/divisor)
}

func DefaultOptions() Options {
	return Options{SmallSampleThreshold: 5, MinClusterSizeDivisor: 10}
}

// HDBSCAN clusters embedding vectors by density. It never fails: degenerate
// input is resolved into a single cluster or all noise.
type HDBSCAN struct {
	opts Options
	log  logger.Logger
}

var _ domain.Clusterer = (*HDBSCAN)(nil)

func New(opts Options, log logger.Logger) *HDBSCAN {
	def := DefaultOptions()
	if opts.SmallSampleThreshold <= 0 {
		opts.SmallSampleThreshold = def.SmallSampleThreshold
	}
	if opts.MinClusterSizeDivisor <= 0 {
		opts.MinClusterSizeDivisor = def.MinClusterSizeDivisor
	}
	if log == nil {
		log = logger.Nop()
	}
	return &HDBSCAN{opts: opts, log: log}
}

// Params returns min_cluster_size and min_samples for n vectors.
func (c *HDBSCAN) Params(n int) (minClusterSize, minSamples int) {
	minClusterSize = max(2, n/c.opts.MinClusterSizeDivisor)
	minSamples = max(1, minClusterSize/2)
	return minClusterSize, minSamples
}

// Cluster assigns every vector to a cluster or to noise.
func (c *HDBSCAN) Cluster(vectors [][]float64) (out domain.Assignment) {
	n := len(vectors)
	if n == 0 {
		return domain.Assignment{}
	}
	if n < c.opts.SmallSampleThreshold || n < 2 {
		c.log.Debug("small sample, single cluster", "vectors", n)
		return single(n)
	}
	if !wellFormed(vectors) {
		c.log.Warn("vectors have mismatched dimensions or non-finite values, all chunks are noise", "vectors", n)
		return allNoise(n)
	}
	if identical(vectors) {
		c.log.Debug("identical vectors, single cluster", "vectors", n)
		return single(n)
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("clustering failed, all chunks are noise", "error", r)
			out = allNoise(n)
		}
	}()

	mcs, ms := c.Params(n)
	labels := hdbscan(vectors, mcs, ms)
	out = domain.NewAssignment(labels)
	c.log.Debug("clustered vectors",
		"vectors", n,
		"min_cluster_size", mcs,
		"min_samples", ms,
		"clusters", len(out.Clusters()),
		"noise", out.NoiseCount(),
	)
	return out
}

func single(n int) domain.Assignment {
	labels := make([]domain.Label, n)
	for i := range labels {
		labels[i] = domain.ClusterLabel(0)
	}
	return domain.NewAssignment(labels)
}

func allNoise(n int) domain.Assignment {
	labels := make([]domain.Label, n)
	for i := range labels {
		labels[i] = domain.Noise()
	}
	return domain.NewAssignment(labels)
}

func wellFormed(vectors [][]float64) bool {
	dim := len(vectors[0])
	if dim == 0 {
		return false
	}
	for _, v := range vectors {
		if len(v) != dim {
			return false
		}
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}

func identical(vectors [][]float64) bool {
	first := vectors[0]
	for _, v := range vectors[1:] {
		for i := range v {
			if v[i] != first[i] {
				return false
			}
		}
	}
	return true
}
