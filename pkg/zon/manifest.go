package zon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the manifest filename at the root of every Zig project.
const FileName = "build.zig.zon"

// ErrNotFound is returned by Load when the directory has no manifest.
// Callers treat this as "pristine leaf", not as a failure.
var ErrNotFound = errors.New("no " + FileName + " manifest")

// IsNotFound reports whether err denotes a missing manifest file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Manifest is the parsed project metadata. The resolution engine never
// mutates it.
type Manifest struct {
	Name    string
	Version string

	// Dependencies maps dependency name to source. nil means the manifest
	// has no dependency section at all; an empty non-nil map means an
	// explicitly empty one. Both are leaves for the walker.
	Dependencies map[string]Dependency
}

// Dependency is one entry of the dependency section: either a local
// filesystem path, or a remote locator with a declared content hash.
type Dependency struct {
	Path string

	URL  string
	Hash string
}

// Local reports whether the dependency lives on the local filesystem.
func (d Dependency) Local() bool {
	return d.Path != ""
}

// Load reads and parses the manifest in dir. A missing manifest file
// returns ErrNotFound; any other read or parse failure is an error.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes manifest data.
func Parse(data []byte) (*Manifest, error) {
	root, err := parse(data)
	if err != nil {
		return nil, err
	}

	m := &Manifest{}

	if v, ok := root.fields["name"]; ok {
		m.Name, err = stringish(v)
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
	}
	if v, ok := root.fields["version"]; ok {
		m.Version, err = stringish(v)
		if err != nil {
			return nil, fmt.Errorf("version: %w", err)
		}
	}

	deps, ok := root.fields["dependencies"]
	if !ok {
		return m, nil
	}
	depsObj, ok := deps.(*object)
	if !ok {
		return nil, fmt.Errorf("dependencies is not a struct literal")
	}

	m.Dependencies = make(map[string]Dependency, len(depsObj.fields))
	for name, v := range depsObj.fields {
		dep, err := parseDependency(v)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}
		m.Dependencies[name] = dep
	}
	return m, nil
}

func parseDependency(v value) (Dependency, error) {
	obj, ok := v.(*object)
	if !ok {
		return Dependency{}, fmt.Errorf("not a struct literal")
	}

	var dep Dependency
	var err error
	if v, ok := obj.fields["path"]; ok {
		if dep.Path, err = stringish(v); err != nil {
			return Dependency{}, fmt.Errorf("path: %w", err)
		}
	}
	if v, ok := obj.fields["url"]; ok {
		if dep.URL, err = stringish(v); err != nil {
			return Dependency{}, fmt.Errorf("url: %w", err)
		}
	}
	if v, ok := obj.fields["hash"]; ok {
		if dep.Hash, err = stringish(v); err != nil {
			return Dependency{}, fmt.Errorf("hash: %w", err)
		}
	}

	switch {
	case dep.Path != "" && dep.URL != "":
		return Dependency{}, fmt.Errorf("declares both path and url")
	case dep.Path == "" && dep.URL == "":
		return Dependency{}, fmt.Errorf("declares neither path nor url")
	case dep.URL != "" && dep.Hash == "":
		return Dependency{}, fmt.Errorf("remote dependency has no hash")
	}
	return dep, nil
}

// stringish accepts the two spellings manifests use for names: a string
// literal or an enum literal (.name = .zig_foo).
func stringish(v value) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case enumLit:
		return string(s), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}
