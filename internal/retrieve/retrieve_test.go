package retrieve

import (
	"context"
	"testing"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/embed"
	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/indexfoundry/indexfoundry/internal/vectorstore"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetriever(t *testing.T, embedder embed.Provider) (*Retriever, *workspace.Workspace, string) {
	t.Helper()
	ws, err := workspace.New(t.TempDir())
	require.NoError(t, err)
	cfg := *config.NewDefault()
	cfg.Embedding = config.EmbeddingModel{Provider: "static", ModelName: "static-hash-256", Dimension: embed.StaticDimension}
	project, err := ws.CreateProject("docs", cfg)
	require.NoError(t, err)

	store := vectorstore.New(ws, project.ID)
	return New(ws, project.ID, store, embedder), ws, project.ID
}

func mustEmbed(t *testing.T, p embed.Provider, text string) []float32 {
	t.Helper()
	vecs, err := p.EmbedBatch(context.Background(), []string{text})
	require.NoError(t, err)
	return vecs[0]
}

func seedChunk(t *testing.T, ws *workspace.Workspace, projectID string, p embed.Provider, store *vectorstore.Store, id, docID, sourceID, text string, index int) {
	t.Helper()
	c := workspace.Chunk{
		ChunkID:    id,
		DocID:      docID,
		SourceID:   sourceID,
		Text:       text,
		CharCount:  len(text),
		ChunkIndex: index,
	}
	require.NoError(t, ws.AppendChunks(projectID, []workspace.Chunk{c}))
	if store != nil {
		vec := mustEmbed(t, p, text)
		require.NoError(t, store.Upsert(vectorstore.CollectionInfo{Name: projectID, Model: "static-hash-256", Provider: "static", Dimension: embed.StaticDimension}, []workspace.EmbeddingRecord{
			{ChunkID: id, Vector: vec, Model: "static-hash-256", Provider: "static", Timestamp: time.Time{}},
		}))
	}
}

func TestTokenize_DropsShortTermsAndLowercases(t *testing.T) {
	terms := tokenize("The Go Programming Language is fun")
	assert.NotContains(t, terms, "is")
	assert.Contains(t, terms, "programming")
	assert.Contains(t, terms, "language")
}

func TestFilter_ValidateRejectsUnknownField(t *testing.T) {
	f := &Filter{Predicates: []Predicate{{Field: "nope", Op: OpEq, Value: "x"}}}
	err := f.Validate()
	require.Error(t, err)
	assert.Equal(t, ierrors.CodeInvalidFilter, ierrors.Code(err))
}

func TestFilter_MatchesEqAndIn(t *testing.T) {
	c := workspace.Chunk{SourceID: "src-1", Metadata: workspace.ChunkMetadata{Language: "go"}}
	f := &Filter{Predicates: []Predicate{{Field: "source_id", Op: OpEq, Value: "src-1"}}}
	assert.True(t, f.Matches(c))

	f2 := &Filter{Predicates: []Predicate{{Field: "language", Op: OpIn, Value: []string{"go", "rust"}}}}
	assert.True(t, f2.Matches(c))

	f3 := &Filter{Predicates: []Predicate{{Field: "language", Op: OpIn, Value: []string{"python"}}}}
	assert.False(t, f3.Matches(c))
}

func TestKeywordSearch_ScoresByMatchCountNormalizedByLength(t *testing.T) {
	chunks := []workspace.Chunk{
		{ChunkID: "a", Text: "golang golang golang"},
		{ChunkID: "b", Text: "golang is a language with golang tooling and a much longer body of surrounding text"},
	}
	cands := keywordSearch(chunks, []string{"golang"}, 10)
	require.Len(t, cands, 2)
	assert.Equal(t, "a", cands[0].chunk.ChunkID, "shorter text with equal-or-more density should rank first")
}

func TestSemanticSearch_TieBreaksByChunkID(t *testing.T) {
	records := []workspace.EmbeddingRecord{
		{ChunkID: "zzz", Vector: []float32{1, 0}},
		{ChunkID: "aaa", Vector: []float32{1, 0}},
	}
	byID := map[string]workspace.Chunk{
		"zzz": {ChunkID: "zzz"},
		"aaa": {ChunkID: "aaa"},
	}
	cands := semanticSearch(records, byID, []float32{1, 0}, 10)
	require.Len(t, cands, 2)
	assert.Equal(t, "aaa", cands[0].chunk.ChunkID)
}

func TestFuseRRF_AlphaOneEqualsSemanticOrder(t *testing.T) {
	sem := []scoredList{{chunk: workspace.Chunk{ChunkID: "a"}, score: 0.9}, {chunk: workspace.Chunk{ChunkID: "b"}, score: 0.5}}
	kw := []scoredList{{chunk: workspace.Chunk{ChunkID: "b"}, score: 10}, {chunk: workspace.Chunk{ChunkID: "a"}, score: 1}}

	hits := fuseRRF(sem, kw, 1.0, 60)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Chunk.ChunkID)
	assert.Equal(t, "b", hits[1].Chunk.ChunkID)
}

func TestFuseRRF_AlphaZeroEqualsKeywordOrder(t *testing.T) {
	sem := []scoredList{{chunk: workspace.Chunk{ChunkID: "a"}, score: 0.9}, {chunk: workspace.Chunk{ChunkID: "b"}, score: 0.5}}
	kw := []scoredList{{chunk: workspace.Chunk{ChunkID: "b"}, score: 10}, {chunk: workspace.Chunk{ChunkID: "a"}, score: 1}}

	hits := fuseRRF(sem, kw, 0.0, 60)
	require.Len(t, hits, 2)
	assert.Equal(t, "b", hits[0].Chunk.ChunkID)
	assert.Equal(t, "a", hits[1].Chunk.ChunkID)
}

func TestExpand_AdjacentIncludesNeighborsWithinWindow(t *testing.T) {
	all := []workspace.Chunk{
		{ChunkID: "c0", DocID: "d", ChunkIndex: 0},
		{ChunkID: "c1", DocID: "d", ChunkIndex: 1},
		{ChunkID: "c2", DocID: "d", ChunkIndex: 2},
	}
	hits := []Hit{{Chunk: all[1]}}
	out := expand(hits, all, ExpandOptions{Strategy: ExpandAdjacent, AdjacentBefore: 1, AdjacentAfter: 1, MaxTotalChunks: 10})
	require.Len(t, out, 3)
	assert.False(t, out[0].IsExpansion)
	assert.True(t, out[1].IsExpansion || out[2].IsExpansion)
}

func TestExpand_ParentFollowsHierarchy(t *testing.T) {
	all := []workspace.Chunk{
		{ChunkID: "parent", DocID: "d", ChunkIndex: 0},
		{ChunkID: "child", DocID: "d", ChunkIndex: 1, Hierarchy: workspace.Hierarchy{ParentID: "parent"}},
	}
	hits := []Hit{{Chunk: all[1]}}
	out := expand(hits, all, ExpandOptions{Strategy: ExpandParent, MaxTotalChunks: 10})
	require.Len(t, out, 2)
	assert.Equal(t, "parent", out[1].Chunk.ChunkID)
	assert.True(t, out[1].IsExpansion)
}

func TestSearch_KeywordModeFindsExactMatch(t *testing.T) {
	r, ws, projectID := newTestRetriever(t, nil)
	seedChunk(t, ws, projectID, nil, nil, "c1", "doc1", "src1", "the quick brown fox jumps over the lazy dog", 0)
	seedChunk(t, ws, projectID, nil, nil, "c2", "doc1", "src1", "completely unrelated text about cooking recipes", 1)

	resp, err := r.Search(context.Background(), "quick fox", nil, Options{Mode: ModeKeyword, TopK: 5})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Hits)
	assert.Equal(t, "c1", resp.Hits[0].Chunk.ChunkID)
}

func TestSearch_FallsBackToKeywordWithoutEmbedderOrVector(t *testing.T) {
	r, ws, projectID := newTestRetriever(t, nil)
	seedChunk(t, ws, projectID, nil, nil, "c1", "doc1", "src1", "vector search needs an embedder", 0)

	resp, err := r.Search(context.Background(), "embedder", nil, Options{Mode: ModeSemantic, TopK: 5, Explain: true})
	require.NoError(t, err)
	assert.Equal(t, ModeKeyword, resp.ModeUsed)
	require.NotNil(t, resp.Explain)
	assert.True(t, resp.Explain.FellBackToKeyword)
}

func TestSearch_HybridUsesConfiguredEmbedder(t *testing.T) {
	provider := embed.NewStaticProvider()
	r, ws, projectID := newTestRetriever(t, provider)
	store := vectorstore.New(ws, projectID)
	seedChunk(t, ws, projectID, provider, store, "c1", "doc1", "src1", "golang concurrency patterns with channels", 0)
	seedChunk(t, ws, projectID, provider, store, "c2", "doc1", "src1", "a completely different topic about gardening", 1)

	resp, err := r.Search(context.Background(), "golang concurrency patterns with channels", nil, Options{Mode: ModeHybrid, TopK: 5})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Hits)
	assert.Equal(t, "c1", resp.Hits[0].Chunk.ChunkID)
}

func TestFilter_ValidateNilFilterIsOK(t *testing.T) {
	var f *Filter
	assert.NoError(t, f.Validate())
}
