// Package catalog locates asset catalogs, their imagesets and the variant
// files inside them.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// CatalogExt is the directory suffix of an asset catalog.
	CatalogExt = ".xcassets"
	// ImageSetExt is the directory suffix of an asset-group container.
	ImageSetExt = ".imageset"
)

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Walker enumerates catalogs below a root, skipping excluded paths.
type Walker struct {
	root    string
	exclude []string

	// OnError is called for unreadable paths below the root. Those paths are
	// skipped; the walk carries on. Nil ignores them silently.
	OnError func(path string, err error)
}

// NewWalker returns a Walker for root. Exclude patterns use doublestar syntax
// and are matched against slash-separated paths relative to root.
func NewWalker(root string, exclude []string) (*Walker, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &Walker{root: filepath.Clean(root), exclude: exclude}, nil
}

// IsCatalog reports whether path names an asset catalog directory.
func IsCatalog(path string) bool {
	return strings.EqualFold(filepath.Ext(path), CatalogExt)
}

// IsImageSet reports whether path names an imageset directory.
func IsImageSet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ImageSetExt)
}

// Catalogs returns the catalogs to scan in lexical order. A root that is
// itself a catalog is returned alone. Catalogs nested inside another catalog
// are reached through the outer one's imagesets and are not listed twice.
func (w *Walker) Catalogs() ([]string, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", w.root, ErrNotDirectory)
	}
	if IsCatalog(w.root) {
		return []string{w.root}, nil
	}

	var catalogs []string
	err = w.walkDirs(w.root, func(path string) (bool, error) {
		if path != w.root && IsCatalog(path) {
			catalogs = append(catalogs, path)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return catalogs, nil
}

// ImageSets returns every imageset below catalog, at any depth, in lexical
// order.
func (w *Walker) ImageSets(catalog string) ([]string, error) {
	var sets []string
	err := w.walkDirs(catalog, func(path string) (bool, error) {
		if IsImageSet(path) {
			sets = append(sets, path)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}

// CatalogOf returns the innermost catalog directory containing imageset, or
// "" when no ancestor below the filesystem root is a catalog.
func CatalogOf(imageset string) string {
	for dir := filepath.Dir(filepath.Clean(imageset)); ; {
		if IsCatalog(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Files returns the immediate regular files of imageset, sorted by name.
// Symlinks to regular files are included; subdirectories are not traversed.
func (w *Walker) Files(imageset string) ([]string, error) {
	entries, err := os.ReadDir(imageset)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		path := filepath.Join(imageset, e.Name())
		if !isRegular(path, e) {
			continue
		}
		if w.Excluded(path) {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func isRegular(path string, e fs.DirEntry) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Excluded reports whether path matches one of the exclude patterns.
func (w *Walker) Excluded(path string) bool {
	if len(w.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range w.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// walkDirs visits directories below start (start included) in lexical
// order. visit returns false to prune the directory's children.
func (w *Walker) walkDirs(start string, visit func(path string) (bool, error)) error {
	return filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == start {
				return err
			}
			if w.OnError != nil {
				w.OnError(path, err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != start && w.Excluded(path) {
			return filepath.SkipDir
		}
		descend, err := visit(path)
		if err != nil {
			return err
		}
		if !descend {
			return filepath.SkipDir
		}
		return nil
	})
}
