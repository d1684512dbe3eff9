package retrieve

import (
	"math"
	"sort"

	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// semanticCandidate is one scored chunk from the semantic list.
type semanticCandidate struct {
	chunk workspace.Chunk
	score float64
}

// cosineSimilarity computes the cosine similarity of two equal-length
// vectors. Embeddings are normalized on write (§4.F), so this reduces
// to a dot product in the common case, but the full formula is kept so
// un-normalized query vectors (e.g. supplied by a caller) still score
// correctly.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// semanticSearch scores every record in records against queryVector,
// returning the top `limit` by descending cosine similarity with ties
// broken by ascending ChunkID (§4.I). byID resolves a record's chunk
// body; records whose chunk has been filtered out are skipped.
func semanticSearch(records []workspace.EmbeddingRecord, byID map[string]workspace.Chunk, queryVector []float32, limit int) []semanticCandidate {
	var out []semanticCandidate
	for _, r := range records {
		chunk, ok := byID[r.ChunkID]
		if !ok {
			continue
		}
		out = append(out, semanticCandidate{chunk: chunk, score: cosineSimilarity(queryVector, r.Vector)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].chunk.ChunkID < out[j].chunk.ChunkID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
