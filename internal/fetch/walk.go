package fetch

import (
	"io/fs"
	"path/filepath"
)

// filepathWalk walks root depth-first, invoking visit(path, isDir) for
// every entry, using filepath.WalkDir on the real filesystem and stopping
// at the first walk or visit error.
func filepathWalk(root string, visit func(path string, isDir bool) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return visit(path, d.IsDir())
	})
}
