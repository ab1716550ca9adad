// Package metrics records segmentation statistics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives one observation per segmented document.
type Recorder interface {
	ObserveDocument(chunks, noise, topics int, elapsed time.Duration)
	EmbeddingFailed(embedder string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveDocument(int, int, int, time.Duration) {}
func (nopRecorder) EmbeddingFailed(string)                       {}

// Nop returns a Recorder that discards everything.
func Nop() Recorder { return nopRecorder{} }

// Prometheus records metrics on its own registry.
type Prometheus struct {
	registry   *prometheus.Registry
	documents  prometheus.Counter
	chunks     prometheus.Counter
	noise      prometheus.Counter
	topics     prometheus.Counter
	embedFails *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewPrometheus registers the segmentation metrics on registry. A nil
// registry creates a fresh one.
func NewPrometheus(registry *prometheus.Registry) (*Prometheus, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	p := &Prometheus{
		registry: registry,
		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topicseg",
			Name:      "documents_total",
			Help:      "Documents segmented.",
		}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topicseg",
			Name:      "chunks_total",
			Help:      "Chunks produced by the chunker.",
		}),
		noise: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topicseg",
			Name:      "noise_chunks_total",
			Help:      "Chunks left out of every topic.",
		}),
		topics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topicseg",
			Name:      "topics_total",
			Help:      "Topics produced.",
		}),
		embedFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topicseg",
			Name:      "embedding_failures_total",
			Help:      "Failed embedding calls by embedder.",
		}, []string{"embedder"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "topicseg",
			Name:      "segmentation_duration_seconds",
			Help:      "Wall time of one segmentation call.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	for _, c := range []prometheus.Collector{p.documents, p.chunks, p.noise, p.topics, p.embedFails, p.duration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveDocument(chunks, noise, topics int, elapsed time.Duration) {
	p.documents.Inc()
	p.chunks.Add(float64(chunks))
	p.noise.Add(float64(noise))
	p.topics.Add(float64(topics))
	p.duration.Observe(elapsed.Seconds())
}

func (p *Prometheus) EmbeddingFailed(embedder string) {
	p.embedFails.WithLabelValues(embedder).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
