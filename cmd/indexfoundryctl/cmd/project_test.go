package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

func withTempWorkspace(t *testing.T) {
	t.Helper()
	old := workspaceDir
	workspaceDir = t.TempDir()
	t.Cleanup(func() { workspaceDir = old })
}

func TestProjectCreateCmd_CreatesProject(t *testing.T) {
	withTempWorkspace(t)

	cmd := newProjectCreateCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"docs"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "docs")

	ws, err := workspace.New(workspaceDir)
	require.NoError(t, err)
	_, err = ws.LoadProject("docs")
	require.NoError(t, err)
}

func TestProjectCreateCmd_RejectsInvalidSlug(t *testing.T) {
	withTempWorkspace(t)

	cmd := newProjectCreateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"Not A Slug!"})

	err := cmd.Execute()
	assert.Error(t, err)
}

func TestProjectListCmd_JSONListsCreatedProjects(t *testing.T) {
	withTempWorkspace(t)

	create := newProjectCreateCmd()
	create.SetOut(&bytes.Buffer{})
	create.SetArgs([]string{"docs"})
	require.NoError(t, create.Execute())

	list := newProjectListCmd()
	buf := &bytes.Buffer{}
	list.SetOut(buf)
	list.SetArgs([]string{"--json"})
	require.NoError(t, list.Execute())

	var ids []string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ids))
	assert.Equal(t, []string{"docs"}, ids)
}

func TestProjectListCmd_EmptyWorkspace(t *testing.T) {
	withTempWorkspace(t)

	list := newProjectListCmd()
	buf := &bytes.Buffer{}
	list.SetOut(buf)
	list.SetArgs([]string{})
	require.NoError(t, list.Execute())

	assert.Contains(t, buf.String(), "no projects")
}

func TestProjectGetCmd_ReturnsManifestJSON(t *testing.T) {
	withTempWorkspace(t)

	create := newProjectCreateCmd()
	create.SetOut(&bytes.Buffer{})
	create.SetArgs([]string{"docs"})
	require.NoError(t, create.Execute())

	get := newProjectGetCmd()
	buf := &bytes.Buffer{}
	get.SetOut(buf)
	get.SetArgs([]string{"docs"})
	require.NoError(t, get.Execute())

	var p workspace.Project
	require.NoError(t, json.Unmarshal(buf.Bytes(), &p))
	assert.Equal(t, "docs", p.ID)
}

func TestProjectDeleteCmd_RequiresConfirm(t *testing.T) {
	withTempWorkspace(t)

	create := newProjectCreateCmd()
	create.SetOut(&bytes.Buffer{})
	create.SetArgs([]string{"docs"})
	require.NoError(t, create.Execute())

	del := newProjectDeleteCmd()
	del.SetOut(&bytes.Buffer{})
	del.SetArgs([]string{"docs"})
	assert.Error(t, del.Execute())

	del2 := newProjectDeleteCmd()
	del2.SetOut(&bytes.Buffer{})
	del2.SetArgs([]string{"docs", "--confirm"})
	require.NoError(t, del2.Execute())
}
