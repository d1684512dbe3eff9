package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/config"
	"github.com/indexfoundry/indexfoundry/internal/ierrors"
)

// Workspace is the explicit handle threaded through every operation,
// replacing the process-wide singleton the spec warns against in §9
// ("Process-wide state. Replace module-level singletons with an
// explicit Workspace handle..."). It owns the base directory; tests
// construct one pointing at a temporary directory.
type Workspace struct {
	baseDir string

	mu        sync.Mutex
	projectMu map[string]*sync.Mutex // per-project in-process mutex for UpdateProject
}

// New creates a Workspace rooted at baseDir, creating the projects/
// subdirectory if needed.
func New(baseDir string) (*Workspace, error) {
	projectsDir := filepath.Join(baseDir, "projects")
	if err := os.MkdirAll(projectsDir, 0755); err != nil {
		return nil, fmt.Errorf("create projects dir: %w", err)
	}
	return &Workspace{baseDir: baseDir, projectMu: make(map[string]*sync.Mutex)}, nil
}

func (w *Workspace) projectDir(id string) string {
	return filepath.Join(w.baseDir, "projects", id)
}

func (w *Workspace) projectJSONPath(id string) string     { return filepath.Join(w.projectDir(id), "project.json") }
func (w *Workspace) sourcesPath(id string) string          { return filepath.Join(w.projectDir(id), "sources.jsonl") }
func (w *Workspace) chunksPath(id string) string            { return filepath.Join(w.projectDir(id), "data", "chunks.jsonl") }
func (w *Workspace) vectorsPath(id string) string           { return filepath.Join(w.projectDir(id), "data", "vectors.jsonl") }
func (w *Workspace) checkpointLatestPath(id string) string  { return filepath.Join(w.projectDir(id), "data", "checkpoints", "latest.json") }
func (w *Workspace) checkpointArchiveDir(id string) string  { return filepath.Join(w.projectDir(id), "data", "checkpoints", "archive") }
func (w *Workspace) rawDir(id string) string                { return filepath.Join(w.projectDir(id), "raw") }
func (w *Workspace) rawManifestPath(id string) string        { return filepath.Join(w.rawDir(id), "raw_manifest.jsonl") }

// ProjectDir exposes the absolute directory for a project — used by the
// build orchestrator's per-project lock and the content-address store.
func (w *Workspace) ProjectDir(id string) string  { return w.projectDir(id) }
func (w *Workspace) RawDir(id string) string       { return w.rawDir(id) }
func (w *Workspace) RawManifestPath(id string) string { return w.rawManifestPath(id) }
func (w *Workspace) ChunksPath(id string) string   { return w.chunksPath(id) }
func (w *Workspace) VectorsPath(id string) string  { return w.vectorsPath(id) }

func (w *Workspace) lockFor(id string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.projectMu[id]
	if !ok {
		m = &sync.Mutex{}
		w.projectMu[id] = m
	}
	return m
}

// CreateProject creates a new project directory and persists its initial
// manifest. Fails with ProjectExists if the slug is already taken (§4.B).
func (w *Workspace) CreateProject(id string, cfg config.Config) (*Project, error) {
	if !ValidProjectID(id) {
		return nil, ierrors.New(ierrors.CodeInvalidInput, "invalid project id: "+id, nil).
			WithSuggestion("project id must match ^[a-z0-9][a-z0-9-]*$ and be at most 64 chars")
	}

	jsonPath := w.projectJSONPath(id)
	if _, err := os.Stat(jsonPath); err == nil {
		return nil, ierrors.New(ierrors.CodeProjectExists, "project already exists: "+id, nil)
	}

	now := time.Now()
	p := &Project{
		ID:        id,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
		Manifest: Manifest{
			ProjectID: id,
			CreatedAt: now,
			Status:    ManifestCompleted,
		},
	}

	if err := os.MkdirAll(filepath.Join(w.projectDir(id), "data", "checkpoints", "archive"), 0755); err != nil {
		return nil, fmt.Errorf("create data dirs: %w", err)
	}
	if err := os.MkdirAll(w.rawDir(id), 0755); err != nil {
		return nil, fmt.Errorf("create raw dir: %w", err)
	}
	if err := atomicWriteJSON(jsonPath, p); err != nil {
		return nil, fmt.Errorf("persist project: %w", err)
	}
	return p, nil
}

// LoadProject reads a project's manifest. Fails with ProjectNotFound.
func (w *Workspace) LoadProject(id string) (*Project, error) {
	var p Project
	if err := readJSON(w.projectJSONPath(id), &p); err != nil {
		if os.IsNotExist(err) {
			return nil, ierrors.New(ierrors.CodeProjectNotFound, "project not found: "+id, nil)
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	return &p, nil
}

// ListProjects returns every project id found under the workspace.
func (w *Workspace) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(w.baseDir, "projects"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// UpdateProject performs a read-modify-write of the project manifest
// under an exclusive per-project mutex, persisting atomically (§4.B).
func (w *Workspace) UpdateProject(id string, mutate func(*Project) error) (*Project, error) {
	lock := w.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	p, err := w.LoadProject(id)
	if err != nil {
		return nil, err
	}
	if err := mutate(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()
	if err := atomicWriteJSON(w.projectJSONPath(id), p); err != nil {
		return nil, fmt.Errorf("persist project: %w", err)
	}
	return p, nil
}

// DeleteProject removes a project's entire directory tree. Requires an
// explicit confirm flag per §4.K ("enforce confirmation for destructive
// operations"), failing NotConfirmed otherwise.
func (w *Workspace) DeleteProject(id string, confirm bool) error {
	if !confirm {
		return ierrors.New(ierrors.CodeNotConfirmed, "delete requires confirm=true", nil)
	}
	if _, err := w.LoadProject(id); err != nil {
		return err
	}
	return os.RemoveAll(w.projectDir(id))
}

// --- Source ledger ---

// AppendSource adds a new immutable-identity source record. Fails with
// DuplicateSource if a record with the same ID already exists.
func (w *Workspace) AppendSource(projectID string, rec SourceRecord) error {
	lock := w.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := w.listSourcesLocked(projectID)
	if err != nil {
		return err
	}
	for _, s := range existing {
		if s.ID == rec.ID {
			return ierrors.New(ierrors.CodeDuplicateSource, "source already exists: "+rec.ID, nil)
		}
	}
	return appendJSONL(w.sourcesPath(projectID), rec)
}

// ListSources returns every source record for a project, in ledger order.
func (w *Workspace) ListSources(projectID string) ([]SourceRecord, error) {
	lock := w.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()
	return w.listSourcesLocked(projectID)
}

func (w *Workspace) listSourcesLocked(projectID string) ([]SourceRecord, error) {
	var out []SourceRecord
	err := readJSONL(w.sourcesPath(projectID), func() any { return &SourceRecord{} }, func(item any) error {
		out = append(out, *item.(*SourceRecord))
		return nil
	})
	return out, err
}

// rewriteSources atomically replaces the entire source ledger. Used by
// UpdateSourceStatus and RemoveSource, since a ledger of mutable-status
// records can't be expressed as pure appends.
func (w *Workspace) rewriteSources(projectID string, records []SourceRecord) error {
	tmpPath := w.sourcesPath(projectID) + ".tmp"
	if err := os.MkdirAll(filepath.Dir(tmpPath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := writeJSONLine(f, r); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, w.sourcesPath(projectID))
}

// UpdateSourceStatus mutates a single source's status/error/count fields.
func (w *Workspace) UpdateSourceStatus(projectID, sourceID string, status SourceStatus, lastError string, processedChunks int) error {
	lock := w.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	records, err := w.listSourcesLocked(projectID)
	if err != nil {
		return err
	}
	found := false
	for i := range records {
		if records[i].ID == sourceID {
			records[i].Status = status
			records[i].LastError = lastError
			records[i].ProcessedChunks = processedChunks
			found = true
			break
		}
	}
	if !found {
		return ierrors.New(ierrors.CodeNoSource, "source not found: "+sourceID, nil)
	}
	return w.rewriteSources(projectID, records)
}

// RemoveSource deletes a source record. When cascade=true, chunk and
// vector logs are rewritten omitting the source's records (§4.B).
func (w *Workspace) RemoveSource(projectID, sourceID string, cascade bool) error {
	lock := w.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	records, err := w.listSourcesLocked(projectID)
	if err != nil {
		return err
	}
	out := records[:0]
	found := false
	for _, r := range records {
		if r.ID == sourceID {
			found = true
			continue
		}
		out = append(out, r)
	}
	if !found {
		return ierrors.New(ierrors.CodeNoSource, "source not found: "+sourceID, nil)
	}
	if err := w.rewriteSources(projectID, out); err != nil {
		return err
	}

	if cascade {
		if err := truncateJSONL(w.chunksPath(projectID), func() any { return &Chunk{} }, func(item any) bool {
			return item.(*Chunk).SourceID != sourceID
		}); err != nil {
			return fmt.Errorf("cascade chunks: %w", err)
		}
		keepChunkIDs := make(map[string]struct{})
		_ = readJSONL(w.chunksPath(projectID), func() any { return &Chunk{} }, func(item any) error {
			keepChunkIDs[item.(*Chunk).ChunkID] = struct{}{}
			return nil
		})
		if err := truncateJSONL(w.vectorsPath(projectID), func() any { return &EmbeddingRecord{} }, func(item any) bool {
			_, ok := keepChunkIDs[item.(*EmbeddingRecord).ChunkID]
			return ok
		}); err != nil {
			return fmt.Errorf("cascade vectors: %w", err)
		}
	}
	return nil
}

// AppendChunks appends newly produced chunks to the project's chunk log.
func (w *Workspace) AppendChunks(projectID string, chunks []Chunk) error {
	for _, c := range chunks {
		if err := appendJSONL(w.chunksPath(projectID), c); err != nil {
			return err
		}
	}
	return nil
}

// LoadChunks reads every chunk in the project's chunk log.
func (w *Workspace) LoadChunks(projectID string) ([]Chunk, error) {
	var out []Chunk
	err := readJSONL(w.chunksPath(projectID), func() any { return &Chunk{} }, func(item any) error {
		out = append(out, *item.(*Chunk))
		return nil
	})
	return out, err
}

// AppendEmbeddings appends newly produced embedding records to the
// project's vector log, in the order given (§5 ordering guarantees).
func (w *Workspace) AppendEmbeddings(projectID string, recs []EmbeddingRecord) error {
	for _, r := range recs {
		if err := appendJSONL(w.vectorsPath(projectID), r); err != nil {
			return err
		}
	}
	return nil
}

// LoadEmbeddings reads every embedding record in the project's vector log.
func (w *Workspace) LoadEmbeddings(projectID string) ([]EmbeddingRecord, error) {
	var out []EmbeddingRecord
	err := readJSONL(w.vectorsPath(projectID), func() any { return &EmbeddingRecord{} }, func(item any) error {
		out = append(out, *item.(*EmbeddingRecord))
		return nil
	})
	return out, err
}

// TruncateForRebuild clears chunk/vector log entries belonging to
// sourceIDs ahead of a force=true rebuild (§3 Ownership & lifecycle).
func (w *Workspace) TruncateForRebuild(projectID string, sourceIDs map[string]struct{}) error {
	if err := truncateJSONL(w.chunksPath(projectID), func() any { return &Chunk{} }, func(item any) bool {
		_, drop := sourceIDs[item.(*Chunk).SourceID]
		return !drop
	}); err != nil {
		return err
	}
	keepChunkIDs := make(map[string]struct{})
	_ = readJSONL(w.chunksPath(projectID), func() any { return &Chunk{} }, func(item any) error {
		keepChunkIDs[item.(*Chunk).ChunkID] = struct{}{}
		return nil
	})
	return truncateJSONL(w.vectorsPath(projectID), func() any { return &EmbeddingRecord{} }, func(item any) bool {
		_, ok := keepChunkIDs[item.(*EmbeddingRecord).ChunkID]
		return ok
	})
}
