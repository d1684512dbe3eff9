package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/indexfoundry/indexfoundry/internal/blobstore"
	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/embed"
	"github.com/indexfoundry/indexfoundry/internal/fetch"
	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(t *testing.T) (*Builder, *workspace.Workspace) {
	t.Helper()
	dir := t.TempDir()
	ws, err := workspace.New(dir)
	require.NoError(t, err)
	blobs := blobstore.New(filepath.Join(dir, "raw"), filepath.Join(dir, "raw_manifest.jsonl"))
	fetcher := fetch.New(blobs)
	return New(ws, blobs, fetcher, embed.NewStaticProvider()), ws
}

func newTestProject(t *testing.T, ws *workspace.Workspace, id string) *workspace.Project {
	t.Helper()
	cfg := *config.NewDefault()
	cfg.Embedding = config.EmbeddingModel{
		Provider:  "static",
		ModelName: "static-hash-256",
		Dimension: embed.StaticDimension,
	}
	project, err := ws.CreateProject(id, cfg)
	require.NoError(t, err)
	return project
}

func addFolderSource(t *testing.T, ws *workspace.Workspace, projectID, folder string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.txt"), []byte("hello world, this is a document about go programming."), 0o644))
	require.NoError(t, ws.AppendSource(projectID, workspace.SourceRecord{
		ID:     "src-folder",
		Type:   workspace.SourceFolder,
		URI:    folder,
		Status: workspace.StatusPending,
	}))
}

func TestRun_HappyPathWithFolderSource(t *testing.T) {
	b, ws := newTestBuilder(t)
	project := newTestProject(t, ws, "docs")
	addFolderSource(t, ws, project.ID, t.TempDir())

	result, err := b.Run(context.Background(), Request{ProjectID: project.ID})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Progress.TotalSources)
	assert.Equal(t, 1, result.Progress.ProcessedThisRun)
	assert.False(t, result.Progress.HasMore)
	assert.Greater(t, result.ChunksAdded, 0)
	assert.Equal(t, result.ChunksAdded, result.VectorsAdded)

	sources, err := ws.ListSources(project.ID)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, workspace.StatusCompleted, sources[0].Status)
}

func TestRun_DryRunDoesNotProcessSources(t *testing.T) {
	b, ws := newTestBuilder(t)
	project := newTestProject(t, ws, "docs")
	addFolderSource(t, ws, project.ID, t.TempDir())

	result, err := b.Run(context.Background(), Request{ProjectID: project.ID, DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Progress.ProcessedThisRun)
	assert.True(t, result.Progress.HasMore)

	sources, err := ws.ListSources(project.ID)
	require.NoError(t, err)
	assert.Equal(t, workspace.StatusPending, sources[0].Status)
}

func TestRun_ForceResetsCompletedSources(t *testing.T) {
	b, ws := newTestBuilder(t)
	project := newTestProject(t, ws, "docs")
	addFolderSource(t, ws, project.ID, t.TempDir())

	_, err := b.Run(context.Background(), Request{ProjectID: project.ID})
	require.NoError(t, err)

	result, err := b.Run(context.Background(), Request{ProjectID: project.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Progress.ProcessedThisRun, "without force, the completed source shouldn't be replanned")

	result, err = b.Run(context.Background(), Request{ProjectID: project.ID, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Progress.ProcessedThisRun, "force should reset completed sources back to pending")
}

func TestRun_OneSourceFailureDoesNotAbortBuild(t *testing.T) {
	b, ws := newTestBuilder(t)
	project := newTestProject(t, ws, "docs")
	addFolderSource(t, ws, project.ID, t.TempDir())
	require.NoError(t, ws.AppendSource(project.ID, workspace.SourceRecord{
		ID:     "src-bad",
		Type:   workspace.SourceFolder,
		URI:    filepath.Join(t.TempDir(), "does-not-exist"),
		Status: workspace.StatusPending,
	}))

	result, err := b.Run(context.Background(), Request{ProjectID: project.ID})
	require.NoError(t, err)
	assert.True(t, result.Success, "a single failed source is recoverable, not build-fatal")
	assert.NotEmpty(t, result.Errors)

	sources, err := ws.ListSources(project.ID)
	require.NoError(t, err)
	var gotCompleted, gotFailed bool
	for _, s := range sources {
		switch s.Status {
		case workspace.StatusCompleted:
			gotCompleted = true
		case workspace.StatusFailed:
			gotFailed = true
		}
	}
	assert.True(t, gotCompleted)
	assert.True(t, gotFailed)
}

func TestRun_DimensionMismatchAbortsBuild(t *testing.T) {
	b, ws := newTestBuilder(t)
	project := newTestProject(t, ws, "docs")
	addFolderSource(t, ws, project.ID, t.TempDir())

	_, err := b.Run(context.Background(), Request{ProjectID: project.ID})
	require.NoError(t, err)

	// Changing the declared dimension against an already-established
	// collection makes every subsequent upsert a fatal DimensionMismatch.
	_, err = ws.UpdateProject(project.ID, func(p *workspace.Project) error {
		p.Config.Embedding.Dimension = embed.StaticDimension + 1
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, ws.UpdateSourceStatus(project.ID, "src-folder", workspace.StatusPending, "", 0))

	result, err := b.Run(context.Background(), Request{ProjectID: project.ID})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
}

func TestRun_CheckpointSaveAndResume(t *testing.T) {
	b, ws := newTestBuilder(t)
	project := newTestProject(t, ws, "docs")
	addFolderSource(t, ws, project.ID, t.TempDir())
	addFolderSource2 := func(id string) {
		require.NoError(t, ws.AppendSource(project.ID, workspace.SourceRecord{
			ID:     id,
			Type:   workspace.SourceFolder,
			URI:    t.TempDir(),
			Status: workspace.StatusPending,
		}))
	}
	addFolderSource2("src-folder-2")

	result, err := b.Run(context.Background(), Request{ProjectID: project.ID})
	require.NoError(t, err)
	assert.True(t, result.Success)

	ckpt, err := ws.LoadLatestCheckpoint(project.ID)
	require.NoError(t, err)
	if ckpt != nil {
		resumed, err := b.Run(context.Background(), Request{
			ProjectID:            project.ID,
			ResumeFromCheckpoint: true,
			CheckpointID:         ckpt.CheckpointID,
		})
		require.NoError(t, err)
		assert.True(t, resumed.Success)
	}
}

// TestRun_RemainingReflectsProjectTotalNotCappedWorkingSet covers spec
// scenario S2: 5 pending sources with max_sources_per_build=2 must
// report remaining against the project's total pending count, not the
// capped per-invocation work set.
func TestRun_RemainingReflectsProjectTotalNotCappedWorkingSet(t *testing.T) {
	b, ws := newTestBuilder(t)
	project := newTestProject(t, ws, "docs")
	for i := 0; i < 5; i++ {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte(fmt.Sprintf("document number %d about go programming.", i)), 0o644))
		require.NoError(t, ws.AppendSource(project.ID, workspace.SourceRecord{
			ID:     fmt.Sprintf("src-%d", i),
			Type:   workspace.SourceFolder,
			URI:    dir,
			Status: workspace.StatusPending,
		}))
	}
	_, err := ws.UpdateProject(project.ID, func(p *workspace.Project) error {
		p.Config.Build.MaxSourcesPerBuild = 2
		return nil
	})
	require.NoError(t, err)

	result, err := b.Run(context.Background(), Request{ProjectID: project.ID})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Progress.ProcessedThisRun)
	assert.Equal(t, 3, result.Progress.Remaining)
	assert.True(t, result.Progress.HasMore)

	ckpt, err := ws.LoadLatestCheckpoint(project.ID)
	require.NoError(t, err)
	require.NotNil(t, ckpt)

	result2, err := b.Run(context.Background(), Request{
		ProjectID:            project.ID,
		ResumeFromCheckpoint: true,
		CheckpointID:         ckpt.CheckpointID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result2.Progress.ProcessedThisRun, "resumed run should report only its own completions")
	assert.Equal(t, 1, result2.Progress.Remaining)
	assert.True(t, result2.Progress.HasMore)

	result3, err := b.Run(context.Background(), Request{
		ProjectID:            project.ID,
		ResumeFromCheckpoint: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result3.Progress.ProcessedThisRun)
	assert.Equal(t, 0, result3.Progress.Remaining)
	assert.False(t, result3.Progress.HasMore)

	finalCkpt, err := ws.LoadLatestCheckpoint(project.ID)
	require.NoError(t, err)
	assert.Nil(t, finalCkpt, "checkpoint should be cleared once no sources remain")
}

func TestIsFatalCode_MatchesOnlyBuildAbortingCodes(t *testing.T) {
	assert.True(t, isFatalCode(ierrors.New(ierrors.CodeDimensionMismatch, "x", nil)))
	assert.True(t, isFatalCode(ierrors.New(ierrors.CodeMissingAPIKey, "x", nil)))
	assert.True(t, isFatalCode(ierrors.New(ierrors.CodeCheckpointWriteFailed, "x", nil)))
	assert.False(t, isFatalCode(ierrors.New(ierrors.CodeFetchFailed, "x", nil)))
}
