package dupes

import (
	"context"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sw33tLie/xcdupes/pkg/catalog"
	"github.com/sw33tLie/xcdupes/pkg/fingerprint"
	"github.com/sw33tLie/xcdupes/pkg/naming"
)

// Options controls a collection pass.
type Options struct {
	// Concurrency is the number of files hashed in parallel. Defaults to
	// runtime.NumCPU() if <= 0.
	Concurrency int
	// Exclude holds doublestar patterns relative to the scan root.
	Exclude []string
	Log     Logger // optional; nil = no logging
}

// hashTask is one eligible file in discovery order.
type hashTask struct {
	path      string
	container string
	catalog   string
	manifest  catalog.Manifest
}

// Collect discovers every eligible asset file under root and indexes it by
// fingerprint. Files that cannot be read or decoded are logged and left
// out; only an unusable root or a cancelled ctx make it fail.
//
// Hashing runs concurrently, but the index is built afterwards in discovery
// order, so its ordering never depends on which file finished first.
func Collect(ctx context.Context, root string, opts Options) (*Index, Stats, error) {
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	var stats Stats

	w, err := catalog.NewWalker(root, opts.Exclude)
	if err != nil {
		return nil, stats, err
	}
	w.OnError = func(path string, err error) {
		log.Warnf("Skipping unreadable path %s: %v", path, err)
	}

	catalogs, err := w.Catalogs()
	if err != nil {
		return nil, stats, err
	}
	stats.Catalogs = len(catalogs)
	if len(catalogs) == 0 {
		log.Infof("No asset catalogs found under %s", root)
		return NewIndex(), stats, nil
	}

	tasks := discover(w, catalogs, &stats, log)
	log.Debugf("Hashing %d files with concurrency %d", len(tasks), concurrency)

	results := make([]fingerprint.Result, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range tasks {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fingerprint.Compute(tasks[i].path)
			if err != nil {
				log.Debugf("Excluding %s file %s: %v", fingerprint.KindOf(tasks[i].path), tasks[i].path, err)
				return nil
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	idx := NewIndex()
	for i, t := range tasks {
		r := results[i]
		if r.Digest == "" {
			stats.Skipped++
			continue
		}
		stats.Hashed++
		base := filepath.Base(t.path)
		idx.Add(Occurrence{
			Container:   t.container,
			Catalog:     t.catalog,
			Path:        t.path,
			Scale:       naming.DetectScale(base),
			Name:        naming.NormalizeFile(base),
			Fingerprint: r.Digest,
			Width:       r.Width,
			Height:      r.Height,
			Referenced:  t.manifest.References(base),
		})
	}
	return idx, stats, nil
}

// discover lists the eligible files of every imageset in every catalog.
func discover(w *catalog.Walker, catalogs []string, stats *Stats, log Logger) []hashTask {
	var tasks []hashTask
	for _, cat := range catalogs {
		sets, err := w.ImageSets(cat)
		if err != nil {
			log.Warnf("Could not list imagesets in %s: %v", cat, err)
			continue
		}
		stats.ImageSets += len(sets)

		for _, set := range sets {
			files, err := w.Files(set)
			if err != nil {
				log.Warnf("Could not list files in %s: %v", set, err)
				continue
			}
			manifest, err := catalog.ReadManifest(set)
			if err != nil {
				log.Debugf("Ignoring %s in %s: %v", catalog.ManifestName, set, err)
			}
			owner := catalog.CatalogOf(set)
			for _, f := range files {
				if fingerprint.KindOf(f) == fingerprint.Unsupported {
					continue
				}
				tasks = append(tasks, hashTask{path: f, container: set, catalog: owner, manifest: manifest})
			}
		}
	}
	return tasks
}
