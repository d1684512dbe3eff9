package vectorstore

import (
	"strconv"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// Store is the local vector-writer backend (§4.G): it appends embedding
// records to a project's data/vectors.jsonl through the workspace and
// keeps the vector_manifest.json sidecar in sync. The retriever loads
// this same JSONL directly rather than going through a query API, which
// is what makes this backend "local" as opposed to the remote
// collaborators named only in configuration.
type Store struct {
	ws           *workspace.Workspace
	projectID    string
	manifestPath string
}

// New returns a Store for the given project.
func New(ws *workspace.Workspace, projectID string) *Store {
	return &Store{ws: ws, projectID: projectID, manifestPath: manifestPath(ws, projectID)}
}

// CollectionInfo names the collection a batch of records belongs to;
// every Upsert call supplies this so the manifest can be created on
// first write and validated against on every subsequent one.
type CollectionInfo struct {
	Name      string
	Namespace string
	Model     string
	Provider  string
	Dimension int
}

// Upsert appends records to the project's vector log and updates the
// manifest's count/timestamps. A dimension mismatch against an existing
// manifest is a fatal CodeDimensionMismatch — mixing embedding models
// within a collection silently would make later cosine scoring
// meaningless.
func (s *Store) Upsert(info CollectionInfo, records []workspace.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	m, err := loadManifest(s.manifestPath)
	if err != nil {
		return err
	}

	if m.Count == 0 {
		m.CollectionName = info.Name
		m.Namespace = info.Namespace
		m.Model = info.Model
		m.Provider = info.Provider
		m.Dimension = info.Dimension
		m.CreatedAt = timeOrNow(m.CreatedAt)
	} else if m.Dimension != info.Dimension {
		return ierrors.New(ierrors.CodeDimensionMismatch,
			"vector store dimension does not match existing collection", nil).
			WithDetail("collection_dimension", strconv.Itoa(m.Dimension)).
			WithDetail("incoming_dimension", strconv.Itoa(info.Dimension))
	}

	if err := s.ws.AppendEmbeddings(s.projectID, records); err != nil {
		return err
	}

	m.Count += len(records)
	m.UpdatedAt = timeOrNow(time.Time{})
	return saveManifest(s.manifestPath, m)
}

// Load returns every embedding record in the project's vector log, in
// append order.
func (s *Store) Load() ([]workspace.EmbeddingRecord, error) {
	return s.ws.LoadEmbeddings(s.projectID)
}

// LoadManifest returns the collection's current sidecar manifest.
func (s *Store) LoadManifest() (Manifest, error) {
	return loadManifest(s.manifestPath)
}

func timeOrNow(t time.Time) time.Time {
	if !t.IsZero() {
		return t
	}
	return time.Now().UTC()
}
