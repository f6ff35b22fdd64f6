// Package resolver walks a project's transitive dependency graph and
// produces the deduplicated, transformed package set the recipe renderer
// consumes.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/zonbuild/zonbuild/pkg/fetch"
	"github.com/zonbuild/zonbuild/pkg/pkg"
	"github.com/zonbuild/zonbuild/pkg/service"
	"github.com/zonbuild/zonbuild/pkg/store"
	"github.com/zonbuild/zonbuild/pkg/zon"
)

// Resolver resolves the full dependency closure of one project. The store,
// package set and work queue are owned exclusively by a single Resolve call;
// there is no concurrent fetching, and a fatal condition aborts the whole
// run without partial output.
type Resolver struct {
	Store    store.Store
	Fetcher  fetch.Fetcher
	Services *service.Table
	Logger   *log.Logger
}

// Resolution is the outcome handed to the renderer: the sorted package set
// and the packages that remained git references after transformation and
// therefore need bundling for manual hosting.
type Resolution struct {
	Packages []*pkg.Package
	GitRefs  []*pkg.Package
}

// work is one queue entry: a directory and the manifest found in it.
type work struct {
	dir      string
	manifest *zon.Manifest
}

// Resolve walks the manifest graph breadth-first starting at root. Every
// remote dependency is fetched through the external tool, keyed by content
// hash into the package set, then surviving git references are rewritten to
// snapshot archives where the hosting service allows it.
func (r *Resolver) Resolve(ctx context.Context, root string, manifest *zon.Manifest) (*Resolution, error) {
	set := pkg.NewSet(r.Services.IsMirror, r.Logger)

	// Explicit FIFO queue rather than recursion: depth is bounded by
	// memory, not the call stack. Remote content cannot cycle (revisits
	// resolve to the same store path), but local path dependencies can
	// reference each other, so directories are walked at most once.
	visited := make(map[string]bool)
	queue := []work{{dir: root, manifest: manifest}}
	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]

		key := filepath.Clean(w.dir)
		if visited[key] {
			continue
		}
		visited[key] = true

		entries, err := r.expand(ctx, w, set)
		if err != nil {
			return nil, err
		}
		queue = append(queue, entries...)
	}

	// Rewrite pinned git references into immutable snapshot archives
	// where the hosting service has a known convention.
	packages := set.Packages()
	var gitRefs []*pkg.Package
	for _, p := range packages {
		if _, ok := p.Kind.(pkg.GitRef); !ok {
			continue
		}
		if !r.Services.ToArchive(p) {
			gitRefs = append(gitRefs, p)
		}
	}

	r.Logger.Info("resolved dependency closure", "packages", len(packages), "unconverted", len(gitRefs))
	return &Resolution{Packages: packages, GitRefs: gitRefs}, nil
}

// expand processes one queue entry: resolves each declared dependency,
// merges remote ones into the set, and returns the next queue entries.
func (r *Resolver) expand(ctx context.Context, w work, set *pkg.Set) ([]work, error) {
	if w.manifest.Dependencies == nil {
		return nil, nil
	}

	// Map iteration order is random; resolve in sorted name order so runs
	// are reproducible.
	names := make([]string, 0, len(w.manifest.Dependencies))
	for name := range w.manifest.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	var next []work
	for _, name := range names {
		dep := w.manifest.Dependencies[name]
		logger := r.Logger.With("dependency", name)

		if dep.Local() {
			dir := filepath.Join(w.dir, dep.Path)
			nested, err := r.loadNested(dir, logger)
			if err != nil {
				return nil, fmt.Errorf("local dependency %q: %w", name, err)
			}
			next = append(next, work{dir: dir, manifest: nested})
			continue
		}

		hash, err := r.Fetcher.Fetch(ctx, dep.URL, dep.Hash)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}

		dir, nested, err := r.openPackage(hash, logger)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}

		// The package's own declared name comes from its nested manifest;
		// without one it is pristine and stays unnamed.
		p, err := pkg.FromLocator(nested.Name, hash, dep.URL)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}
		r.Services.Canonicalize(p.Locator)
		set.Add(p)

		if dir != "" {
			next = append(next, work{dir: dir, manifest: nested})
		}
	}
	return next, nil
}

// openPackage locates the fetched content for hash and reads its nested
// manifest. A missing store entry (possible under the skip strategy) or a
// missing manifest file are normal leaf conditions; any other I/O error is
// fatal. dir is empty when the store has no content to recurse into.
func (r *Resolver) openPackage(hash string, logger *log.Logger) (dir string, m *zon.Manifest, err error) {
	dir, err = r.Store.PackageDir(hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Debug("package content not in store, treating as pristine leaf", "hash", hash)
			return "", &zon.Manifest{}, nil
		}
		return "", nil, err
	}

	m, err = r.loadNested(dir, logger)
	if err != nil {
		return "", nil, err
	}
	return dir, m, nil
}

// loadNested reads the manifest in dir, mapping "no manifest" to an empty
// leaf manifest.
func (r *Resolver) loadNested(dir string, logger *log.Logger) (*zon.Manifest, error) {
	m, err := zon.Load(dir)
	if err != nil {
		if zon.IsNotFound(err) {
			logger.Debug("no nested manifest, pristine leaf", "dir", dir)
			return &zon.Manifest{}, nil
		}
		return nil, err
	}
	return m, nil
}
