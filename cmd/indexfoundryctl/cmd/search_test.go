package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

func seedCmdTestChunk(t *testing.T, text string) {
	t.Helper()
	ws, err := workspace.New(workspaceDir)
	require.NoError(t, err)
	require.NoError(t, ws.AppendChunks("docs", []workspace.Chunk{
		{ChunkID: "c1", DocID: "d1", SourceID: "src-1", Text: text, ChunkIndex: 0},
	}))
}

func TestSearchCmd_KeywordModeFindsSeededChunk(t *testing.T) {
	withTempWorkspace(t)
	createTestProject(t, "docs")
	seedCmdTestChunk(t, "deterministic vector index factory")

	search := newSearchCmd()
	buf := &bytes.Buffer{}
	search.SetOut(buf)
	search.SetArgs([]string{"docs", "--mode", "keyword", "vector", "index"})
	require.NoError(t, search.Execute())

	assert.Contains(t, buf.String(), "c1")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	withTempWorkspace(t)
	createTestProject(t, "docs")
	seedCmdTestChunk(t, "deterministic vector index factory")

	search := newSearchCmd()
	buf := &bytes.Buffer{}
	search.SetOut(buf)
	search.SetArgs([]string{"docs", "--mode", "keyword", "--format", "json", "vector"})
	require.NoError(t, search.Execute())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.NotEmpty(t, resp["Hits"])
}

func TestSearchCmd_NoResults(t *testing.T) {
	withTempWorkspace(t)
	createTestProject(t, "docs")
	seedCmdTestChunk(t, "deterministic vector index factory")

	search := newSearchCmd()
	buf := &bytes.Buffer{}
	search.SetOut(buf)
	search.SetArgs([]string{"docs", "--mode", "keyword", "zzznomatch"})
	require.NoError(t, search.Execute())

	assert.Contains(t, buf.String(), "no results")
}
