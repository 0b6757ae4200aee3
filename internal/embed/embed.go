// Package embed talks to OpenAI-compatible embedding servers.
package embed

import (
	"context"
	"errors"
	"math"
)

// Embedding errors.
var (
	ErrNoEndpoint      = errors.New("embedding endpoint is not configured")
	ErrEmptyResponse   = errors.New("embedding server returned no vectors")
	ErrMissingVector   = errors.New("embedding server left an input without a vector")
	ErrRetriesExceeded = errors.New("embedding request retries exhausted")
)

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Noop is the embedder used when no endpoint is configured. Every call fails with ErrNoEndpoint.
type Noop struct{}

// Embed implements Embedder.
func (Noop) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrNoEndpoint
}

// EmbedBatch implements Embedder.
func (Noop) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, ErrNoEndpoint
}

// Model implements Embedder.
func (Noop) Model() string { return "" }

// CosineSimilarity computes the cosine similarity of two vectors.
// Vectors of different length or zero norm score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
