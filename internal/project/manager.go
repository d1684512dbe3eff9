// Package project implements the project manager (spec.md §4.K):
// create/list/get/delete projects, append/remove sources, and refresh
// the aggregate stats a build leaves behind. Grounded on the shape of
// the teacher's internal/session.Manager (a thin facade translating
// caller-friendly verbs onto a lower-level store), adapted from
// session directories to workspace.Workspace projects.
package project

import (
	"fmt"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// Manager is the caller-facing façade over a Workspace. It adds nothing
// to durability or locking (workspace.Workspace already owns that) —
// it exists so cmd/indexfoundryctl and internal/searchapi have one
// place to go for project lifecycle verbs instead of reaching into
// workspace directly.
type Manager struct {
	ws *workspace.Workspace
}

// NewManager wraps ws.
func NewManager(ws *workspace.Workspace) *Manager {
	return &Manager{ws: ws}
}

// Create validates id (§4.K "validate slug uniqueness and character
// class") and creates a new project with cfg.
func (m *Manager) Create(id string, cfg config.Config) (*workspace.Project, error) {
	return m.ws.CreateProject(id, cfg)
}

// Get loads a single project by id.
func (m *Manager) Get(id string) (*workspace.Project, error) {
	return m.ws.LoadProject(id)
}

// List returns every known project id, sorted is not guaranteed —
// callers that need a stable order should sort the result themselves.
func (m *Manager) List() ([]string, error) {
	return m.ws.ListProjects()
}

// Delete removes a project outright. confirm must be true or the call
// fails NotConfirmed, per §4.K's "enforce confirmation for destructive
// operations".
func (m *Manager) Delete(id string, confirm bool) error {
	return m.ws.DeleteProject(id, confirm)
}

// AddSource appends a new source to a project's ledger. id must be
// unique within the project (DuplicateSource otherwise); status
// defaults to pending if unset.
func (m *Manager) AddSource(projectID string, rec workspace.SourceRecord) error {
	if rec.Status == "" {
		rec.Status = workspace.StatusPending
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return m.ws.AppendSource(projectID, rec)
}

// RemoveSource removes a source from a project's ledger. When cascade
// is true, the source's chunks and vectors are also pruned from the
// project's logs (§4.K "append/remove sources").
func (m *Manager) RemoveSource(projectID, sourceID string, cascade bool) error {
	return m.ws.RemoveSource(projectID, sourceID, cascade)
}

// ListSources returns a project's source ledger.
func (m *Manager) ListSources(projectID string) ([]workspace.SourceRecord, error) {
	return m.ws.ListSources(projectID)
}

// Stats is the refreshed aggregate view of a project's on-disk state.
type Stats struct {
	SourcesCount   int
	ChunksCount    int
	VectorsCount   int
	CompletedCount int
	FailedCount    int
}

// RefreshStats recomputes a project's aggregate counters by scanning
// its source, chunk, and vector logs, and persists them onto the
// project manifest (§4.K "update aggregate stats post-build"). The
// build orchestrator appends to these logs directly and never updates
// Manifest itself, so this is the one place the rolled-up counts get
// written back.
func (m *Manager) RefreshStats(projectID string) (Stats, error) {
	sources, err := m.ws.ListSources(projectID)
	if err != nil {
		return Stats{}, fmt.Errorf("list sources: %w", err)
	}
	chunks, err := m.ws.LoadChunks(projectID)
	if err != nil {
		return Stats{}, fmt.Errorf("load chunks: %w", err)
	}
	vectors, err := m.ws.LoadEmbeddings(projectID)
	if err != nil {
		return Stats{}, fmt.Errorf("load embeddings: %w", err)
	}

	stats := Stats{
		SourcesCount: len(sources),
		ChunksCount:  len(chunks),
		VectorsCount: len(vectors),
	}
	for _, s := range sources {
		switch s.Status {
		case workspace.StatusCompleted:
			stats.CompletedCount++
		case workspace.StatusFailed:
			stats.FailedCount++
		}
	}

	_, err = m.ws.UpdateProject(projectID, func(p *workspace.Project) error {
		p.Manifest.SourcesCount = stats.SourcesCount
		p.Manifest.ChunksCount = stats.ChunksCount
		p.Manifest.VectorsCount = stats.VectorsCount
		p.Manifest.ErrorCount = stats.FailedCount
		if stats.FailedCount > 0 && stats.FailedCount < stats.SourcesCount {
			p.Manifest.Status = workspace.ManifestPartial
		} else if stats.FailedCount > 0 && stats.FailedCount == stats.SourcesCount {
			p.Manifest.Status = workspace.ManifestFailed
		} else {
			p.Manifest.Status = workspace.ManifestCompleted
		}
		p.Manifest.CompletedAt = time.Now()
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("persist manifest stats: %w", err)
	}
	return stats, nil
}

// ValidateSlug re-exposes workspace's id grammar so callers can check
// a candidate id before attempting Create (e.g. in a CLI flag parser).
func ValidateSlug(id string) error {
	if !workspace.ValidProjectID(id) {
		return ierrors.New(ierrors.CodeInvalidInput, "invalid project id: "+id, nil).
			WithSuggestion("project id must match ^[a-z0-9][a-z0-9-]*$ and be at most 64 chars")
	}
	return nil
}
