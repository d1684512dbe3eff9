package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

func createTestProject(t *testing.T, id string) {
	t.Helper()
	create := newProjectCreateCmd()
	create.SetOut(&bytes.Buffer{})
	create.SetArgs([]string{id})
	require.NoError(t, create.Execute())
}

func TestSourceAddCmd_DefaultsIDToURI(t *testing.T) {
	withTempWorkspace(t)
	createTestProject(t, "docs")

	add := newSourceAddCmd()
	buf := &bytes.Buffer{}
	add.SetOut(buf)
	add.SetArgs([]string{"docs", "https://example.com/a"})
	require.NoError(t, add.Execute())

	mgr, err := openManager()
	require.NoError(t, err)
	sources, err := mgr.ListSources("docs")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "https://example.com/a", sources[0].ID)
	assert.Equal(t, workspace.SourceURL, sources[0].Type)
}

func TestSourceListCmd_EmptyProject(t *testing.T) {
	withTempWorkspace(t)
	createTestProject(t, "docs")

	list := newSourceListCmd()
	buf := &bytes.Buffer{}
	list.SetOut(buf)
	list.SetArgs([]string{"docs"})
	require.NoError(t, list.Execute())

	assert.Contains(t, buf.String(), "no sources")
}

func TestSourceRemoveCmd_Cascade(t *testing.T) {
	withTempWorkspace(t)
	createTestProject(t, "docs")

	add := newSourceAddCmd()
	add.SetOut(&bytes.Buffer{})
	add.SetArgs([]string{"docs", "https://example.com/a", "--id", "src-1"})
	require.NoError(t, add.Execute())

	remove := newSourceRemoveCmd()
	buf := &bytes.Buffer{}
	remove.SetOut(buf)
	remove.SetArgs([]string{"docs", "src-1", "--cascade"})
	require.NoError(t, remove.Execute())

	mgr, err := openManager()
	require.NoError(t, err)
	sources, err := mgr.ListSources("docs")
	require.NoError(t, err)
	assert.Empty(t, sources)
}
