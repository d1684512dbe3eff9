package fetch

import (
	"context"
	"mime"
	"path/filepath"
	"sort"

	"github.com/indexfoundry/indexfoundry/internal/ierrors"
)

// FolderOptions configures a directory walk (§4.C).
type FolderOptions struct {
	Glob     string // matched against each file's base name, e.g. "*.md"; empty matches every file
	Exclude  []string
	MaxBytes int64
	Force    bool
}

// FetchFolder walks root, matching files against Glob and Exclude,
// sorts the surviving paths lexicographically for determinism, then
// reads and stores each one through the content-address store. Files
// over MaxBytes are skipped with a FileTooLarge error entry rather than
// aborting the whole walk.
func (f *Fetcher) FetchFolder(ctx context.Context, root string, opts FolderOptions) ([]RawArtifact, []error) {
	paths, err := listFiles(root, opts.Glob, opts.Exclude)
	if err != nil {
		return nil, []error{err}
	}
	sort.Strings(paths)

	var artifacts []RawArtifact
	var errs []error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			return artifacts, errs
		default:
		}

		data, err := readLocalFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
			errs = append(errs, ierrors.New(ierrors.CodeFileTooLarge, "file exceeds max size: "+p, nil).WithDetail("path", p))
			continue
		}

		contentType := mime.TypeByExtension(filepath.Ext(p))
		if contentType == "" {
			contentType = "text/plain"
		}
		a, err := f.put(data, contentType, p, opts.Force)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, errs
}

func listFiles(root, glob string, exclude []string) ([]string, error) {
	var out []string
	err := filepathWalk(root, func(path string, isDir bool) error {
		if isDir {
			return nil
		}
		if glob != "" {
			if ok, _ := filepath.Match(glob, filepath.Base(path)); !ok {
				return nil
			}
		}
		for _, ex := range exclude {
			if ok, _ := filepath.Match(ex, filepath.Base(path)); ok {
				return nil
			}
		}
		out = append(out, path)
		return nil
	})
	return out, err
}
