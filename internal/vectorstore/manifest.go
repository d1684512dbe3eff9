// Package vectorstore appends embedding records to a project's vector
// log and maintains the sidecar manifest describing that collection
// (§4.G Vector writer). The "local" backend here is the one the
// retriever loads directly; named remote backends are configuration-only
// external collaborators and have no code path in this package.
package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

// Manifest is the vector_manifest.json sidecar (§4.G): collection
// identity, the model the vectors were produced with, and a declared
// metadata schema so callers can validate filter predicates before
// hitting the store.
type Manifest struct {
	CollectionName string            `json:"collection_name"`
	Namespace      string            `json:"namespace,omitempty"`
	Model          string            `json:"model"`
	Provider       string            `json:"provider"`
	Dimension      int               `json:"dimension"`
	MetadataSchema map[string]string `json:"metadata_schema,omitempty"`
	Count          int               `json:"count"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func manifestPath(ws *workspace.Workspace, projectID string) string {
	return filepath.Join(ws.ProjectDir(projectID), "data", "vector_manifest.json")
}

// loadManifest reads the sidecar, returning a zero-value Manifest if it
// doesn't exist yet (first build).
func loadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Manifest{}, nil
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("read vector manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse vector manifest: %w", err)
	}
	return m, nil
}

func saveManifest(path string, m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vector manifest: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}
