package retrieve

import (
	"math"
	"sort"
	"strings"

	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// keywordCandidate is one scored chunk from the keyword list, prior to
// any fusion with the semantic list.
type keywordCandidate struct {
	chunk workspace.Chunk
	score float64
}

// keywordSearch scores every chunk in chunks against terms per §4.I:
// for each chunk, sum case-insensitive substring matches of every term
// and normalize by the square root of the chunk's character length.
// Chunks with zero matches are dropped. Ties break by ChunkID so the
// ranking is stable across runs with identical content.
func keywordSearch(chunks []workspace.Chunk, terms []string, limit int) []keywordCandidate {
	if len(terms) == 0 {
		return nil
	}

	var out []keywordCandidate
	for _, c := range chunks {
		lower := strings.ToLower(c.Text)
		var matches int
		for _, term := range terms {
			matches += strings.Count(lower, term)
		}
		if matches == 0 {
			continue
		}
		score := float64(matches) / math.Sqrt(float64(len([]rune(c.Text))))
		out = append(out, keywordCandidate{chunk: c, score: score})
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
