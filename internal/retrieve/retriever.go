package retrieve

import (
	"context"
	"sort"

	"github.com/indexfoundry/indexfoundry/internal/embed"
	"github.com/indexfoundry/indexfoundry/internal/vectorstore"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// Retriever answers Search requests for a single project by loading
// its chunk and vector logs directly (§5: "Retriever instances are
// read-only with respect to chunk/vector logs"). Embedder is optional;
// when nil, semantic/hybrid requests without a supplied query vector
// fall back to keyword-only per §4.I's fallback rule.
type Retriever struct {
	Workspace *workspace.Workspace
	ProjectID string
	Vectors   *vectorstore.Store
	Embedder  embed.Provider
}

// New returns a Retriever for the given project.
func New(ws *workspace.Workspace, projectID string, vectors *vectorstore.Store, embedder embed.Provider) *Retriever {
	return &Retriever{Workspace: ws, ProjectID: projectID, Vectors: vectors, Embedder: embedder}
}

func normalizeOptions(opts Options) Options {
	if opts.TopK < 1 {
		opts.TopK = 10
	}
	if opts.TopK > 100 {
		opts.TopK = 100
	}
	if opts.Alpha == 0 {
		opts.Alpha = 0.7
	}
	if opts.RRFConstant == 0 {
		opts.RRFConstant = 60
	}
	if opts.FusionMethod == "" {
		opts.FusionMethod = FusionRRF
	}
	if opts.Mode == "" {
		opts.Mode = ModeHybrid
	}
	return opts
}

// Search runs one retrieval request (§4.I). queryVector may be nil, in
// which case the Retriever embeds query itself when an Embedder is
// configured, or falls back to keyword mode when it isn't.
func (r *Retriever) Search(ctx context.Context, query string, queryVector []float32, opts Options) (*Response, error) {
	opts = normalizeOptions(opts)
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}

	allChunks, err := r.Workspace.LoadChunks(r.ProjectID)
	if err != nil {
		return nil, err
	}
	filtered := make([]workspace.Chunk, 0, len(allChunks))
	for _, c := range allChunks {
		if opts.Filter.Matches(c) {
			filtered = append(filtered, c)
		}
	}
	byID := make(map[string]workspace.Chunk, len(filtered))
	for _, c := range filtered {
		byID[c.ChunkID] = c
	}

	mode := opts.Mode
	fellBack := false
	if (mode == ModeSemantic || mode == ModeHybrid) && queryVector == nil {
		if r.Embedder != nil {
			vecs, err := r.Embedder.EmbedBatch(ctx, []string{query})
			if err != nil {
				return nil, err
			}
			if len(vecs) > 0 {
				queryVector = vecs[0]
			}
		}
		if queryVector == nil {
			mode = ModeKeyword
			fellBack = true
		}
	}

	terms := tokenize(query)

	var records []workspace.EmbeddingRecord
	if mode == ModeSemantic || mode == ModeHybrid {
		records, err = r.Vectors.Load()
		if err != nil {
			return nil, err
		}
	}

	candidateLimit := opts.TopK
	if mode == ModeHybrid {
		candidateLimit = 3 * opts.TopK
	}

	var semanticCands []semanticCandidate
	var keywordCands []keywordCandidate
	if mode == ModeSemantic || mode == ModeHybrid {
		semanticCands = semanticSearch(records, byID, queryVector, candidateLimit)
	}
	if mode == ModeKeyword || mode == ModeHybrid {
		keywordCands = keywordSearch(filtered, terms, candidateLimit)
	}

	var hits []Hit
	switch mode {
	case ModeSemantic:
		for _, c := range semanticCands {
			hits = append(hits, Hit{Chunk: c.chunk, Score: c.score, SemanticScore: c.score, RankSemantic: len(hits) + 1})
		}
	case ModeKeyword:
		for _, c := range keywordCands {
			hits = append(hits, Hit{Chunk: c.chunk, Score: c.score, KeywordScore: c.score, RankKeyword: len(hits) + 1})
		}
	case ModeHybrid:
		sl := toScoredList(semanticCands)
		kl := toScoredListKW(keywordCands)
		if opts.FusionMethod == FusionWeightedSum {
			hits = fuseWeightedSum(sl, kl, opts.Alpha)
		} else {
			hits = fuseRRF(sl, kl, opts.Alpha, opts.RRFConstant)
		}
	}

	if len(hits) > opts.TopK {
		hits = hits[:opts.TopK]
	}

	applyAdjustments(hits, opts.Adjustments)
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ChunkID < hits[j].Chunk.ChunkID
	})

	hits = expand(hits, allChunks, opts.Expand)

	resp := &Response{Hits: hits, ModeUsed: mode}
	if opts.Explain {
		resp.Explain = &ExplainData{
			Query:              query,
			ModeUsed:           mode,
			SemanticCandidates: len(semanticCands),
			KeywordCandidates:  len(keywordCands),
			Alpha:              opts.Alpha,
			RRFConstant:        opts.RRFConstant,
			FusionMethod:       opts.FusionMethod,
			FellBackToKeyword:  fellBack,
			Terms:              terms,
		}
	}
	return resp, nil
}
