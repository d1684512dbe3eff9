// Package blobstore implements the content-address store from spec.md
// §4.A: a write-once, idempotent store of raw fetched bytes keyed by
// their SHA-256 digest, with a JSONL ledger recording provenance. The
// write-once-then-rename idiom is grounded on workspace.atomicWriteJSON;
// the ledger-of-appends idiom is grounded on the teacher's JSONL session
// log (internal/session/storage.go) generalized from session transcripts
// to raw fetched blobs.
package blobstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/ierrors"
)

// DefaultMaxBlobBytes caps a single fetched object, guarding against
// runaway downloads consuming the whole workspace disk (spec.md §4.A).
const DefaultMaxBlobBytes = 50 * 1024 * 1024

// extensionByContentType gives a stable, predictable file extension for
// the content types the fetcher is expected to see (§4.C sources).
var extensionByContentType = map[string]string{
	"text/html":             ".html",
	"text/plain":             ".txt",
	"text/markdown":          ".md",
	"application/xml":        ".xml",
	"text/xml":               ".xml",
	"application/pdf":        ".pdf",
	"application/json":       ".json",
}

// Entry is one line of raw_manifest.jsonl: the provenance record for a
// single content-addressed blob.
type Entry struct {
	Sha256      string    `json:"sha256"`
	Path        string    `json:"path"`
	ContentType string    `json:"content_type"`
	SourceURI   string    `json:"source_uri"`
	SizeBytes   int64     `json:"size_bytes"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Store is a content-address store rooted at a project's raw/ directory.
type Store struct {
	dir          string
	manifestPath string
	maxBytes     int64
}

// New returns a Store writing blobs under dir and appending provenance to
// manifestPath.
func New(dir, manifestPath string) *Store {
	return &Store{dir: dir, manifestPath: manifestPath, maxBytes: DefaultMaxBlobBytes}
}

// WithMaxBytes overrides the default size cap.
func (s *Store) WithMaxBytes(n int64) *Store {
	s.maxBytes = n
	return s
}

// extensionFor picks a stable extension for contentType, defaulting to
// ".bin" for anything unrecognized.
func extensionFor(contentType string) string {
	if base, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := extensionByContentType[base]; ok {
			return ext
		}
	}
	if ext, ok := extensionByContentType[contentType]; ok {
		return ext
	}
	return ".bin"
}

// Put writes raw content-addressed by its SHA-256 digest. If a blob with
// the same digest already exists, the write is skipped (§4.A idempotent
// write-once) and the existing entry's path is returned.
func (s *Store) Put(raw []byte, contentType, sourceURI string) (Entry, error) {
	if int64(len(raw)) > s.maxBytes {
		return Entry{}, ierrors.New(ierrors.CodeFileTooLarge,
			fmt.Sprintf("blob exceeds maximum size: %d > %d bytes", len(raw), s.maxBytes), nil).
			WithDetail("size_bytes", fmt.Sprintf("%d", len(raw)))
	}

	sum := sha256.Sum256(raw)
	digest := hex.EncodeToString(sum[:])
	relPath := digest + extensionFor(contentType)
	fullPath := filepath.Join(s.dir, relPath)

	if _, err := os.Stat(fullPath); err == nil {
		return Entry{Sha256: digest, Path: relPath, ContentType: contentType, SourceURI: sourceURI, SizeBytes: int64(len(raw))}, nil
	} else if !os.IsNotExist(err) {
		return Entry{}, fmt.Errorf("stat blob: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Entry{}, fmt.Errorf("create blob dir: %w", err)
	}
	tmpPath := fullPath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return Entry{}, fmt.Errorf("open temp blob: %w", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return Entry{}, fmt.Errorf("write temp blob: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return Entry{}, fmt.Errorf("fsync temp blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return Entry{}, fmt.Errorf("close temp blob: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return Entry{}, fmt.Errorf("rename temp blob: %w", err)
	}

	entry := Entry{
		Sha256:      digest,
		Path:        relPath,
		ContentType: contentType,
		SourceURI:   sourceURI,
		SizeBytes:   int64(len(raw)),
		FetchedAt:   time.Now(),
	}
	if err := s.appendManifest(entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Has reports whether a blob with the given digest is already stored,
// letting callers (the fetcher) skip redundant network requests.
func (s *Store) Has(digest, contentType string) bool {
	_, err := os.Stat(filepath.Join(s.dir, digest+extensionFor(contentType)))
	return err == nil
}

// Get reads back the raw bytes for a stored digest.
func (s *Store) Get(digest, contentType string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, digest+extensionFor(contentType)))
}

func (s *Store) appendManifest(entry Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.manifestPath), 0755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	f, err := os.OpenFile(s.manifestPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal manifest entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append manifest: %w", err)
	}
	return f.Sync()
}
