// Package fetch implements the fetcher pool from spec.md §4.C: URL,
// sitemap, folder, and PDF ingestion with domain gating, deterministic
// ordering, bounded concurrency, and idempotent writes through the
// content-address store. The http.Client-with-timeout shape is grounded
// on the retrieval-pack's internal/api.Client
// (jra3-linear-fuse/internal/api/client.go); the worker-pool fan-out is
// grounded on the teacher's internal/async.Indexer
// (Aman-CERP-amanmcp/internal/async/indexer.go).
package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/blobstore"
)

func sha256Hex(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// RawArtifact is the result of a single fetch operation (§4.C).
type RawArtifact struct {
	URI         string
	Sha256      string
	Path        string
	ContentType string
	SizeBytes   int64
	Skipped     bool
	FetchedAt   time.Time
}

// Options configures a fetcher instance (§4.C, §5 bounded ranges).
type Options struct {
	AllowDomains []string
	BlockDomains []string
	Timeout      time.Duration
	Headers      map[string]string
	Force        bool
	Concurrency  int // bounded 1..10, §4.C sitemap fan-out
}

// DefaultOptions returns sane defaults: no domain restriction, a 30s
// timeout (matching the pack's api.Client default), concurrency 3.
func DefaultOptions() Options {
	return Options{
		Timeout:     30 * time.Second,
		Concurrency: 3,
	}
}

// Fetcher performs network and filesystem fetches, writing every
// successfully retrieved artifact into a content-address store.
type Fetcher struct {
	blobs  *blobstore.Store
	client *http.Client
}

// New returns a Fetcher writing retrieved bytes into store.
func New(store *blobstore.Store) *Fetcher {
	return &Fetcher{
		blobs:  store,
		client: &http.Client{},
	}
}

// put writes raw to the content-address store and reports whether the
// write was skipped because an identical digest already exists and
// force=false (§4.C idempotence contract).
func (f *Fetcher) put(raw []byte, contentType, uri string, force bool) (RawArtifact, error) {
	sum := sha256Hex(raw)
	alreadyHave := f.blobs.Has(sum, contentType) && !force

	entry, err := f.blobs.Put(raw, contentType, uri)
	if err != nil {
		return RawArtifact{}, err
	}
	return RawArtifact{
		URI:         uri,
		Sha256:      entry.Sha256,
		Path:        entry.Path,
		ContentType: entry.ContentType,
		SizeBytes:   entry.SizeBytes,
		Skipped:     alreadyHave,
		FetchedAt:   entry.FetchedAt,
	}, nil
}

func clampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
