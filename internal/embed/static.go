package embed

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
)

// StaticDimension is the vector width produced by StaticProvider.
const StaticDimension = 256

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

// StaticProvider generates deterministic hash-based embeddings with no
// network access and no model download — the offline default, and the
// provider integration tests run against. Grounded directly on the
// teacher's StaticEmbedder (internal/embed/static.go), renamed from a
// network-outage fallback into the project's zero-dependency default
// provider.
type StaticProvider struct{}

// NewStaticProvider returns a ready-to-use StaticProvider.
func NewStaticProvider() *StaticProvider { return &StaticProvider{} }

func (p *StaticProvider) Dimension() int     { return StaticDimension }
func (p *StaticProvider) ModelName() string  { return "static-hash-256" }

// EmbedBatch computes one hash-bucketed vector per input text, in order.
func (p *StaticProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		out[i] = L2Normalize(vectorFor(t))
	}
	return out, nil
}

func vectorFor(text string) []float32 {
	vector := make([]float32, StaticDimension)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vector
	}
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(trimmed), -1) {
		idx := hashToIndex(tok, StaticDimension)
		vector[idx] += 1
	}
	return vector
}

func hashToIndex(s string, buckets int) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32()) % buckets
}
