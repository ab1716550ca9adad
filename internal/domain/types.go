package domain

import "context"

// Chunk is a contiguous span of the input text treated as one unit for
// embedding and clustering. ID is the index into the chunker output.
type Chunk struct {
	ID         int     `json:"id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Topic is a labeled group of semantically related chunks.
type Topic struct {
	Name       string  `json:"topic_name"`
	Chunks     []Chunk `json:"chunks"`
	Confidence float64 `json:"confidence_score"`
}

// SegmentationResult is the output of a single segmentation call.
// TotalChunks counts every chunk the chunker produced, noise included.
type SegmentationResult struct {
	Topics      []Topic `json:"topics"`
	TotalChunks int     `json:"total_chunks"`
}

// ChunkCount returns the number of chunks owned by topics.
func (r SegmentationResult) ChunkCount() int {
	n := 0
	for _, t := range r.Topics {
		n += len(t.Chunks)
	}
	return n
}

// Chunker splits raw text into ordered chunk texts.
type Chunker interface {
	Chunk(text string) []string
}

// Embedder converts texts into fixed-dimension vectors, one per text and in
// the same order.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Clusterer groups vectors into labeled clusters.
type Clusterer interface {
	Cluster(vectors [][]float64) Assignment
}

// Namer derives a topic label from the texts of one cluster.
type Namer interface {
	Name(chunks []string) string
}

// NamerFactory builds a Namer fitted on the chunks of one document.
type NamerFactory interface {
	NewNamer(corpus []string) Namer
}

// Scorer computes chunk and topic confidence.
type Scorer interface {
	ScoreChunk(text string) float64
	ScoreTopic(topic Topic) float64
}

// Segmenter is the entry point consumed by surrounding services.
type Segmenter interface {
	Segment(ctx context.Context, text string) (SegmentationResult, error)
}
