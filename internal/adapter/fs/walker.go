package fs

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker enumerates ingestible files under a root directory, filtered
// by doublestar include/exclude patterns on root-relative paths.
type Walker struct {
	includes []string
	excludes []string
}

// NewWalker creates a walker. Empty includes match everything.
func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{includes: includes, excludes: excludes}
}

// Walk returns the absolute paths of matching files under root.
// Excluded directories are skipped entirely.
func (w *Walker) Walk(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if rel != "." && w.matches(w.excludes, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if w.matches(w.includes, rel) && !w.matches(w.excludes, rel) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (w *Walker) matches(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}
