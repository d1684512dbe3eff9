package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ProjectLock is the per-project advisory build lease from spec.md §5:
// "At most one concurrent build per project; enforced by an advisory
// per-project file lock created in the project directory." Grounded on
// the teacher's embed.FileLock (gofrs/flock wrapper).
type ProjectLock struct {
	path string
	fl   *flock.Flock
}

// NewProjectLock returns a lock bound to <projectDir>/.build.lock.
func NewProjectLock(projectDir string) *ProjectLock {
	path := filepath.Join(projectDir, ".build.lock")
	return &ProjectLock{path: path, fl: flock.New(path)}
}

// TryLock attempts to acquire the lease without blocking. false means a
// build is already in progress — callers surface CodeBuildFailed with
// details.reason="locked" per §8 scenario S6.
func (l *ProjectLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("create lock dir: %w", err)
	}
	return l.fl.TryLock()
}

// Unlock releases the lease. Safe to call multiple times; every exit
// path of the orchestrator must reach this, including panics, per §9.
func (l *ProjectLock) Unlock() error {
	if !l.fl.Locked() {
		return nil
	}
	return l.fl.Unlock()
}
