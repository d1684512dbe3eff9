package retrieve

import "github.com/indexfoundry/indexfoundry/internal/workspace"

// expand performs §4.I's context expansion over hits, given every
// chunk in the project so neighbours can be resolved by doc_id/index
// or parent_id. The original hit order is preserved; each hit's
// expansion neighbours are appended immediately after it, and the
// total set (hits plus neighbours) is capped at MaxTotalChunks.
func expand(hits []Hit, all []workspace.Chunk, opts ExpandOptions) []Hit {
	if opts.Strategy == ExpandNone || opts.Strategy == "" {
		return hits
	}

	byDocIndex := make(map[string]map[int]workspace.Chunk)
	byID := make(map[string]workspace.Chunk)
	for _, c := range all {
		byID[c.ChunkID] = c
		m, ok := byDocIndex[c.DocID]
		if !ok {
			m = make(map[int]workspace.Chunk)
			byDocIndex[c.DocID] = m
		}
		m[c.ChunkIndex] = c
	}

	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		seen[h.Chunk.ChunkID] = true
	}

	limit := opts.MaxTotalChunks
	if limit <= 0 {
		limit = len(hits) * 4
	}

	out := make([]Hit, 0, len(hits))
	total := 0
	for _, h := range hits {
		if total >= limit {
			break
		}
		out = append(out, h)
		total++

		neighbours := neighboursFor(h.Chunk, opts, byDocIndex, byID)
		for _, n := range neighbours {
			if total >= limit {
				break
			}
			if seen[n.ChunkID] {
				continue
			}
			seen[n.ChunkID] = true
			out = append(out, Hit{Chunk: n, IsExpansion: true})
			total++
		}
	}
	return out
}

func neighboursFor(c workspace.Chunk, opts ExpandOptions, byDocIndex map[string]map[int]workspace.Chunk, byID map[string]workspace.Chunk) []workspace.Chunk {
	var out []workspace.Chunk
	if opts.Strategy == ExpandAdjacent || opts.Strategy == ExpandBoth {
		siblings := byDocIndex[c.DocID]
		before, after := opts.AdjacentBefore, opts.AdjacentAfter
		for i := c.ChunkIndex - before; i <= c.ChunkIndex+after; i++ {
			if i == c.ChunkIndex {
				continue
			}
			if n, ok := siblings[i]; ok {
				out = append(out, n)
			}
		}
	}
	if opts.Strategy == ExpandParent || opts.Strategy == ExpandBoth {
		if c.Hierarchy.ParentID != "" {
			if p, ok := byID[c.Hierarchy.ParentID]; ok {
				out = append(out, p)
			}
		}
	}
	return out
}
