package embed

import (
	"context"
	"testing"

	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_DeterministicAndNormalized(t *testing.T) {
	p := NewStaticProvider()
	a, err := p.EmbedBatch(context.Background(), []string{"hello world"})
	require.NoError(t, err)
	b, err := p.EmbedBatch(context.Background(), []string{"hello world"})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var sumSquares float64
	for _, x := range a[0] {
		sumSquares += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSquares, 0.001)
}

func TestCachedProvider_SkipsRepeatedText(t *testing.T) {
	inner := &countingProvider{Provider: NewStaticProvider()}
	cached := NewCachedProvider(inner, 10)

	_, err := cached.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	_, err = cached.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls) // "a","b" once, then only "c"
}

type countingProvider struct {
	Provider
	calls int
}

func (c *countingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls += len(texts)
	return c.Provider.EmbedBatch(ctx, texts)
}

func TestDriver_EmbedChunks_SkipsAlreadyEmbeddedUnlessForced(t *testing.T) {
	d := NewDriver(NewStaticProvider())
	d.BatchSize = 2
	chunks := []workspace.Chunk{
		{ChunkID: "c1", Text: "first chunk", TokenCount: 2},
		{ChunkID: "c2", Text: "second chunk", TokenCount: 2},
	}
	already := map[string]struct{}{"c1": {}}

	records, _, err := d.EmbedChunks(context.Background(), config.EmbeddingModel{Provider: "static"}, chunks, already)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c2", records[0].ChunkID)
}

func TestDriver_EmbedChunks_ForcePassesThroughAll(t *testing.T) {
	d := NewDriver(NewStaticProvider())
	chunks := []workspace.Chunk{
		{ChunkID: "c1", Text: "first chunk", TokenCount: 2},
		{ChunkID: "c2", Text: "second chunk", TokenCount: 2},
	}
	d.Force = true
	records, metrics, err := d.EmbedChunks(context.Background(), config.EmbeddingModel{Provider: "static"}, chunks, map[string]struct{}{"c1": {}, "c2": {}})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 4, metrics.TokensUsed)
}

func TestDriver_EmbedChunks_PreservesOrderAcrossBatches(t *testing.T) {
	d := NewDriver(NewStaticProvider())
	d.BatchSize = 1
	chunks := []workspace.Chunk{
		{ChunkID: "c1", Text: "alpha"},
		{ChunkID: "c2", Text: "beta"},
		{ChunkID: "c3", Text: "gamma"},
	}
	records, _, err := d.EmbedChunks(context.Background(), config.EmbeddingModel{Provider: "static"}, chunks, nil)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{records[0].ChunkID, records[1].ChunkID, records[2].ChunkID})
}

func TestDriver_EmbedChunks_DimensionMismatchIsFatal(t *testing.T) {
	d := NewDriver(NewStaticProvider())
	chunks := []workspace.Chunk{{ChunkID: "c1", Text: "x"}}
	model := config.EmbeddingModel{Provider: "static", Dimension: 999}
	_, _, err := d.EmbedChunks(context.Background(), model, chunks, nil)
	require.Error(t, err)
	assert.Equal(t, ierrors.CodeDimensionMismatch, ierrors.Code(err))
}

func TestDriver_EmbedChunks_MissingAPIKey(t *testing.T) {
	d := NewDriver(NewStaticProvider())
	chunks := []workspace.Chunk{{ChunkID: "c1", Text: "x"}}
	model := config.EmbeddingModel{Provider: "openai", APIKeyEnv: "INDEXFOUNDRY_TEST_MISSING_KEY_VAR"}
	_, _, err := d.EmbedChunks(context.Background(), model, chunks, nil)
	require.Error(t, err)
	assert.Equal(t, ierrors.CodeMissingAPIKey, ierrors.Code(err))
}

func TestEstimateCost_UnknownModelReturnsFalse(t *testing.T) {
	_, ok := EstimateCost("unknown-model", 1000)
	assert.False(t, ok)
}

func TestEstimateCost_KnownModel(t *testing.T) {
	cost, ok := EstimateCost("text-embedding-3-small", 1_000_000)
	require.True(t, ok)
	assert.InDelta(t, 0.02, cost, 0.0001)
}
