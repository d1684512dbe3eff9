// Package embed implements the batched embedding driver from spec.md
// §4.F: provider-agnostic batching, exponential-backoff retry,
// optional L2 normalization, stable output ordering, skip-already-
// embedded short-circuiting, and token/cost accounting. Grounded on the
// teacher's internal/embed package — its Embedder interface shape
// (internal/embed/types.go), its StaticEmbedder hash-based fallback
// (internal/embed/static.go), its exponential backoff (retry.go), and
// its LRU query cache (cached.go) — generalized from a single-query
// embedding client into a whole-project batch driver.
package embed

import (
	"context"
	"math"
)

// Provider generates vector embeddings for batches of text. This is the
// seam a real HTTP-backed embedding service (OpenAI, Ollama, a local
// model server) implements; StaticProvider is the deterministic,
// network-free implementation used in tests and as an offline default.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// L2Normalize scales v to unit length in place, mirroring the teacher's
// normalizeVector helper (internal/embed/types.go).
func L2Normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}
	magnitude := math.Sqrt(sumSquares)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / magnitude)
	}
	return out
}
