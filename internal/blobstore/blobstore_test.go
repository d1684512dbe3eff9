package blobstore

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "raw"), filepath.Join(dir, "raw", "raw_manifest.jsonl"))
}

func TestPut_WritesBlobAndManifestEntry(t *testing.T) {
	s := newTestStore(t)
	entry, err := s.Put([]byte("hello"), "text/plain", "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, int64(5), entry.SizeBytes)
	assert.True(t, strings.HasSuffix(entry.Path, ".txt"))

	got, err := s.Get(entry.Sha256, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestPut_IdempotentOnDuplicateContent(t *testing.T) {
	s := newTestStore(t)
	first, err := s.Put([]byte("same bytes"), "text/plain", "https://example.com/a")
	require.NoError(t, err)
	second, err := s.Put([]byte("same bytes"), "text/plain", "https://example.com/b")
	require.NoError(t, err)
	assert.Equal(t, first.Sha256, second.Sha256)
	assert.Equal(t, first.Path, second.Path)
}

func TestPut_RejectsOversizedBlob(t *testing.T) {
	s := newTestStore(t).WithMaxBytes(4)
	_, err := s.Put([]byte("too big"), "text/plain", "https://example.com/a")
	require.Error(t, err)
	assert.Equal(t, ierrors.CodeFileTooLarge, ierrors.Code(err))
}

func TestHas_ReflectsStoredBlob(t *testing.T) {
	s := newTestStore(t)
	entry, err := s.Put([]byte("data"), "application/pdf", "https://example.com/doc.pdf")
	require.NoError(t, err)
	assert.True(t, s.Has(entry.Sha256, "application/pdf"))
	assert.False(t, s.Has("deadbeef", "application/pdf"))
}

func TestExtensionFor_KnownAndUnknownTypes(t *testing.T) {
	assert.Equal(t, ".html", extensionFor("text/html; charset=utf-8"))
	assert.Equal(t, ".pdf", extensionFor("application/pdf"))
	assert.Equal(t, ".bin", extensionFor("application/octet-stream"))
}
