package retrieve

import (
	"sort"

	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// fuseRRF implements §4.I's Reciprocal-Rank-Fusion: each candidate's
// score is α/(K+rank_semantic) + (1−α)/(K+rank_keyword), with a
// candidate absent from one list contributing nothing from that term.
// K is mandated to be exactly 60 by default but is taken as a parameter
// so a profile may override it.
func fuseRRF(semantic, keyword []scoredList, alpha float64, k int) []Hit {
	byID := make(map[string]*Hit)
	var order []string

	addList := func(cands []scoredList, rankFn func(i int) int, setRank func(h *Hit, rank int, score float64), score func(i int) float64) {
		for i, c := range cands {
			h, ok := byID[c.chunk.ChunkID]
			if !ok {
				h = &Hit{Chunk: c.chunk}
				byID[c.chunk.ChunkID] = h
				order = append(order, c.chunk.ChunkID)
			}
			setRank(h, rankFn(i), score(i))
		}
	}

	addList(semantic, func(i int) int { return i + 1 },
		func(h *Hit, rank int, score float64) { h.RankSemantic = rank; h.SemanticScore = score },
		func(i int) float64 { return semantic[i].score })
	addList(keyword, func(i int) int { return i + 1 },
		func(h *Hit, rank int, score float64) { h.RankKeyword = rank; h.KeywordScore = score },
		func(i int) float64 { return keyword[i].score })

	hits := make([]Hit, 0, len(order))
	for _, id := range order {
		h := byID[id]
		var score float64
		if h.RankSemantic > 0 {
			score += alpha / float64(k+h.RankSemantic)
		}
		if h.RankKeyword > 0 {
			score += (1 - alpha) / float64(k+h.RankKeyword)
		}
		h.Score = score
		hits = append(hits, *h)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ChunkID < hits[j].Chunk.ChunkID
	})
	return hits
}

// fuseWeightedSum implements §4.I's alternative fusion: a plain
// weighted sum of each list's raw score, with no per-list
// normalisation (the spec's documented caveat — a semantic cosine
// score and a keyword term-frequency score live on different scales).
func fuseWeightedSum(semantic, keyword []scoredList, alpha float64) []Hit {
	byID := make(map[string]*Hit)
	var order []string

	for i, c := range semantic {
		h := &Hit{Chunk: c.chunk, RankSemantic: i + 1, SemanticScore: c.score}
		byID[c.chunk.ChunkID] = h
		order = append(order, c.chunk.ChunkID)
	}
	for i, c := range keyword {
		if h, ok := byID[c.chunk.ChunkID]; ok {
			h.RankKeyword = i + 1
			h.KeywordScore = c.score
			continue
		}
		h := &Hit{Chunk: c.chunk, RankKeyword: i + 1, KeywordScore: c.score}
		byID[c.chunk.ChunkID] = h
		order = append(order, c.chunk.ChunkID)
	}

	hits := make([]Hit, 0, len(order))
	for _, id := range order {
		h := byID[id]
		h.Score = alpha*h.SemanticScore + (1-alpha)*h.KeywordScore
		hits = append(hits, *h)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ChunkID < hits[j].Chunk.ChunkID
	})
	return hits
}

// scoredList is the common shape semantic/keyword candidate lists are
// converted to before fusion.
type scoredList struct {
	chunk workspace.Chunk
	score float64
}

func toScoredList(semantic []semanticCandidate) []scoredList {
	out := make([]scoredList, len(semantic))
	for i, c := range semantic {
		out[i] = scoredList{chunk: c.chunk, score: c.score}
	}
	return out
}

func toScoredListKW(keyword []keywordCandidate) []scoredList {
	out := make([]scoredList, len(keyword))
	for i, c := range keyword {
		out[i] = scoredList{chunk: c.chunk, score: c.score}
	}
	return out
}
