package workspace

import (
	"testing"

	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLatestCheckpoint_NoneYieldsNil(t *testing.T) {
	w := newTestWorkspace(t)
	_, err := w.CreateProject("docs", *config.NewDefault())
	require.NoError(t, err)

	ckpt, err := w.LoadLatestCheckpoint("docs")
	require.NoError(t, err)
	assert.Nil(t, ckpt)
}

func TestSaveCheckpoint_RoundTripsAndArchives(t *testing.T) {
	w := newTestWorkspace(t)
	_, err := w.CreateProject("docs", *config.NewDefault())
	require.NoError(t, err)

	ckpt := &Checkpoint{
		CompletedSourceIDs: []string{"src-1"},
		InProgress:         &InProgressSource{SourceID: "src-2"},
		Stats:              CheckpointStats{ChunksAdded: 5},
	}
	require.NoError(t, w.SaveCheckpoint("docs", ckpt))
	assert.NotEmpty(t, ckpt.CheckpointID)

	loaded, err := w.LoadLatestCheckpoint("docs")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []string{"src-1"}, loaded.CompletedSourceIDs)
	assert.Equal(t, "src-2", loaded.InProgress.SourceID)
	assert.Equal(t, 5, loaded.Stats.ChunksAdded)

	archive, err := w.ListCheckpointArchive("docs")
	require.NoError(t, err)
	assert.Len(t, archive, 1)
}

func TestClearCheckpoint_RemovesLatestButKeepsArchive(t *testing.T) {
	w := newTestWorkspace(t)
	_, err := w.CreateProject("docs", *config.NewDefault())
	require.NoError(t, err)

	require.NoError(t, w.SaveCheckpoint("docs", &Checkpoint{CompletedSourceIDs: []string{"src-1"}}))
	require.NoError(t, w.ClearCheckpoint("docs"))

	ckpt, err := w.LoadLatestCheckpoint("docs")
	require.NoError(t, err)
	assert.Nil(t, ckpt)

	archive, err := w.ListCheckpointArchive("docs")
	require.NoError(t, err)
	assert.Len(t, archive, 1)
}

func TestClearCheckpoint_IdempotentWhenMissing(t *testing.T) {
	w := newTestWorkspace(t)
	_, err := w.CreateProject("docs", *config.NewDefault())
	require.NoError(t, err)
	require.NoError(t, w.ClearCheckpoint("docs"))
}
