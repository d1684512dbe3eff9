package chunk

import (
	"strings"
	"testing"

	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocID_Deterministic(t *testing.T) {
	a := DocID([]byte("hello world"))
	b := DocID([]byte("hello world"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, DocID([]byte("hello world!")))
}

func TestSplit_FixedChars_NonOverlappingWindows(t *testing.T) {
	cfg := config.ChunkConfig{Strategy: config.StrategyFixedChars, MaxChars: 10}
	text := strings.Repeat("a", 25)
	chunks, err := Split("doc1", "src1", text, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, chunks[0].CharCount)
	assert.Equal(t, 10, chunks[1].CharCount)
	assert.Equal(t, 5, chunks[2].CharCount)
	assert.Equal(t, 0, chunks[0].Position.ByteStart)
	assert.Equal(t, 10, chunks[1].Position.ByteStart)
	assert.Equal(t, 20, chunks[2].Position.ByteStart)
}

func TestSplit_ChunkIDIsContentAddressed(t *testing.T) {
	cfg := config.ChunkConfig{Strategy: config.StrategyFixedChars, MaxChars: 10}
	text := strings.Repeat("a", 25)
	first, err := Split("doc1", "src1", text, cfg)
	require.NoError(t, err)
	second, err := Split("doc1", "src1", text, cfg)
	require.NoError(t, err)
	for i := range first {
		assert.Equal(t, first[i].ChunkID, second[i].ChunkID)
	}

	third, err := Split("doc2", "src1", text, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ChunkID, third[0].ChunkID)
}

func TestSplit_EmptyTextYieldsNoChunks(t *testing.T) {
	cfg := config.DefaultChunkConfig()
	chunks, err := Split("doc1", "src1", "   \n  ", cfg)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_Recursive_RespectsMaxCharsAndOverlap(t *testing.T) {
	cfg := config.ChunkConfig{
		Strategy:     config.StrategyRecursive,
		MaxChars:     50,
		OverlapChars: 10,
		Separators:   []string{"\n\n", "\n", " "},
	}
	text := strings.Repeat("word ", 40)
	chunks, err := Split("doc1", "src1", text, cfg)
	require.NoError(t, err)
	require.True(t, len(chunks) > 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, c.CharCount, 50)
	}
}

func TestSplit_Paragraph_SplitsOnBlankLines(t *testing.T) {
	cfg := config.ChunkConfig{Strategy: config.StrategyParagraph, MaxChars: 1000, MinChars: 1}
	text := "first paragraph here.\n\nsecond paragraph here."
	chunks, err := Split("doc1", "src1", text, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "first paragraph")
	assert.Contains(t, chunks[1].Text, "second paragraph")
}

func TestSplit_Heading_MergesBelowMinAndSplitsAboveMax(t *testing.T) {
	cfg := config.ChunkConfig{Strategy: config.StrategyHeading, MaxChars: 30, MinChars: 20}
	text := "# Title\nshort\n\n# Next\n" + strings.Repeat("body ", 5)
	chunks, err := Split("doc1", "src1", text, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "short")
	assert.Contains(t, chunks[0].Text, "# Next")
	for _, c := range chunks {
		assert.LessOrEqual(t, c.CharCount, 30)
	}
}

func TestSplit_Hierarchical_FlatModeAssignsParentContextBreadcrumb(t *testing.T) {
	cfg := config.DefaultChunkConfig()
	cfg.Strategy = config.StrategyHierarchical
	text := "# Guide\n\nintro text\n\n## Setup\n\nsetup details here\n\n## Usage\n\nusage details here\n"
	chunks, err := Split("doc1", "src1", text, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Guide", chunks[0].Position.Heading)
	assert.Equal(t, "Setup", chunks[1].Position.Heading)
	assert.Equal(t, "Guide", chunks[1].Hierarchy.ParentContext)
	assert.Equal(t, "Usage", chunks[2].Position.Heading)
	for _, c := range chunks {
		assert.Empty(t, c.Hierarchy.ParentID)
	}
}

// TestSplit_Hierarchical_CreateParentChunksEmitsParentAndChildPairs
// covers spec scenario S1: 3 headings with create_parent_chunks=true
// must yield 3 parent chunks plus 3 child chunks, each child's
// Hierarchy.ParentID equal to its parent's ChunkID.
func TestSplit_Hierarchical_CreateParentChunksEmitsParentAndChildPairs(t *testing.T) {
	cfg := config.DefaultChunkConfig()
	cfg.Strategy = config.StrategyHierarchical
	cfg.MaxChars = 20
	cfg.CreateParentChunks = true
	text := "# A\n\naa\n\n## B\n\nbb\n\n## C\n\ncc"

	chunks, err := Split("doc1", "src1", text, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 6)

	var parents, children []workspace.Chunk
	for _, c := range chunks {
		if c.Hierarchy.ParentID == "" {
			parents = append(parents, c)
		} else {
			children = append(children, c)
		}
	}
	require.Len(t, parents, 3)
	require.Len(t, children, 3)

	levels := []int{1, 2, 2}
	for i, p := range parents {
		assert.Equal(t, levels[i], p.Hierarchy.HierarchyLevel)
	}

	parentByID := make(map[string]workspace.Chunk, len(parents))
	for _, p := range parents {
		parentByID[p.ChunkID] = p
	}
	for _, c := range children {
		parent, ok := parentByID[c.Hierarchy.ParentID]
		require.True(t, ok, "child %s references unknown parent %s", c.ChunkID, c.Hierarchy.ParentID)
		assert.Contains(t, parent.Text, c.Position.Heading)
	}

	var bChild workspace.Chunk
	for _, c := range children {
		if c.Position.Heading == "B" {
			bChild = c
		}
	}
	assert.Equal(t, "bb", strings.TrimSpace(bChild.Text))
}

func TestSplit_Hierarchical_NoHeadingsFallsBackToRecursive(t *testing.T) {
	cfg := config.DefaultChunkConfig()
	cfg.Strategy = config.StrategyHierarchical
	text := "plain text with no markdown headings at all, just prose."
	chunks, err := Split("doc1", "src1", text, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestSplit_Sentence_SplitsOnSentenceBoundaries(t *testing.T) {
	cfg := config.ChunkConfig{Strategy: config.StrategySentence, MaxChars: 1000, MinChars: 1}
	text := "First sentence. Second sentence! Third one?"
	chunks, err := Split("doc1", "src1", text, cfg)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(chunks), 1)
}
