package pkg

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Format is a recognized archive extension.
type Format string

const (
	FormatTar    Format = "tar"
	FormatTarGz  Format = "tar.gz"
	FormatTarBz2 Format = "tar.bz2"
	FormatTarXz  Format = "tar.xz"
	FormatTarZst Format = "tar.zst"
	FormatZip    Format = "zip"
)

// formats is checked in order; compound extensions must come before "tar"
// so that "foo.tar.gz" is not detected as a bare tarball.
var formats = []Format{FormatTarGz, FormatTarBz2, FormatTarXz, FormatTarZst, FormatZip, FormatTar}

// Kind is the resource kind of a package: either an Archive in a recognized
// format, or a GitRef pinned to an immutable commit. The two variants carry
// different payloads, so Kind is a closed interface rather than a pair of
// nullable fields.
type Kind interface {
	isKind()
}

// Archive means the locator points at a downloadable archive file.
type Archive struct {
	Format Format
}

// GitRef means the locator is a version-control reference addressed by an
// immutable commit identifier.
type GitRef struct {
	Commit string
}

func (Archive) isKind() {}
func (GitRef) isKind()  {}

// Package is the resolved record for one remote dependency.
//
// Hash is the content-addressing key: two packages with equal hash are
// assumed byte-identical regardless of where they were fetched from.
// Name is the name the dependency declares in its own manifest; an empty
// name means the package is pristine (it has no manifest of its own, so
// different consumers may call it different things).
type Package struct {
	Name    string
	Hash    string
	Kind    Kind
	Locator *url.URL
}

// FromLocator builds a Package from a manifest entry, detecting the resource
// kind from the locator scheme.
//
// git+https/git+http locators must carry the commit in the URL fragment;
// a missing fragment denotes mutable content and is rejected. https/http
// locators must end in a recognized archive extension.
func FromLocator(name, hash, locator string) (*Package, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("parsing locator %q: %w", locator, err)
	}

	p := &Package{Name: name, Hash: hash, Locator: u}

	switch u.Scheme {
	case "git+https", "git+http":
		if u.Fragment == "" {
			return nil, fmt.Errorf("git locator %q has no commit fragment: branch and tag references are mutable and cannot be pinned", locator)
		}
		p.Kind = GitRef{Commit: u.Fragment}
	case "https", "http":
		format, ok := DetectFormat(u.Path)
		if !ok {
			return nil, fmt.Errorf("locator %q has no recognized archive extension", locator)
		}
		p.Kind = Archive{Format: format}
	default:
		return nil, fmt.Errorf("unsupported scheme %q in locator %q", u.Scheme, locator)
	}

	return p, nil
}

// DetectFormat returns the archive format implied by the path's extension.
func DetectFormat(path string) (Format, bool) {
	for _, f := range formats {
		if strings.HasSuffix(path, "."+string(f)) {
			return f, true
		}
	}
	return "", false
}

// Pristine reports whether the package's declared name is unknown.
func (p *Package) Pristine() bool {
	return p.Name == ""
}

// DistName returns the filename the package's content should be distributed
// under: "<name>-<hash>.<ext>" for named packages, "<hash>.<ext>" for
// pristine ones. GitRef packages use the tar.gz extension their bundled
// form is packed with.
func (p *Package) DistName() string {
	ext := string(FormatTarGz)
	if a, ok := p.Kind.(Archive); ok {
		ext = string(a.Format)
	}
	if p.Pristine() {
		return p.Hash + "." + ext
	}
	return p.Name + "-" + p.Hash + "." + ext
}

// Sort orders packages for rendering: named packages first, lexicographically
// by name; pristine packages after them, lexicographically by hash.
func Sort(pkgs []*Package) {
	sort.Slice(pkgs, func(i, j int) bool {
		a, b := pkgs[i], pkgs[j]
		switch {
		case a.Pristine() != b.Pristine():
			return !a.Pristine()
		case a.Pristine():
			return a.Hash < b.Hash
		default:
			return a.Name < b.Name
		}
	})
}
