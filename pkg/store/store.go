package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPerm = 0o755

	// PackagesDir is the subdirectory content-addressed packages live in,
	// matching the Zig global cache layout the fetch tool populates.
	PackagesDir = "p"

	// DefaultDir is the store directory name under the user cache dir.
	DefaultDir = "zonbuild"
)

// ErrNotFound marks a hash with no content in the store. It is distinct
// from other I/O errors so callers can treat a missing package as a
// pristine leaf rather than a failure.
var ErrNotFound = errors.New("package not found in store")

// Store is the content-addressed package store. The external fetch tool
// populates it; the engine only reads from it.
type Store interface {
	// Root returns the store root, suitable for handing to external
	// tools (e.g. the fetch tool's global cache flag).
	Root() string
	// Path returns the absolute filesystem path for the given segments
	// joined under the store root. Does not create or verify the path.
	Path(segments ...string) string
	// Exists reports whether the path at the given segments exists.
	Exists(segments ...string) (bool, error)
	// EnsureDir creates the directory at segments, including parents.
	EnsureDir(segments ...string) error
	// PackageDir returns the content directory for the given hash.
	// Returns ErrNotFound when the store has no content for it.
	PackageDir(hash string) (string, error)
}

func New(root string) Store {
	return &store{root: root}
}

// Default opens the store at the user cache directory
// (e.g. ~/.cache/zonbuild on Linux).
func Default() (Store, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("determining user cache directory: %w", err)
	}
	return &store{root: filepath.Join(cache, DefaultDir)}, nil
}

type store struct {
	root string
}

var _ Store = &store{}

func (s *store) Root() string {
	return s.root
}

func (s *store) Path(segments ...string) string {
	return filepath.Join(append([]string{s.root}, segments...)...)
}

func (s *store) Exists(segments ...string) (bool, error) {
	_, err := os.Stat(s.Path(segments...))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *store) EnsureDir(segments ...string) error {
	return os.MkdirAll(s.Path(segments...), dirPerm)
}

func (s *store) PackageDir(hash string) (string, error) {
	dir := s.Path(PackagesDir, hash)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, hash)
		}
		return "", fmt.Errorf("opening package %s: %w", hash, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("package path %s is not a directory", dir)
	}
	return dir, nil
}
