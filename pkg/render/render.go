// Package render turns a resolved package set into ebuild recipe text.
package render

import (
	_ "embed"
	"fmt"
	"io"
	"text/template"

	"github.com/zonbuild/zonbuild/pkg/pkg"
)

//go:embed ebuild.tmpl
var ebuildTemplate string

// Input is everything the recipe template needs. The package list must
// already be merged, transformed and sorted; the renderer does not reorder
// or filter it.
type Input struct {
	Name        string
	Version     string
	Description string
	Homepage    string
	License     string

	// Maintainer is the contact listed in the recipe header; empty means
	// no maintainer line is emitted.
	Maintainer string

	// SourceURI is the locator of the project's own source archive.
	SourceURI string

	// ManifestFile is the manifest the recipe was generated from,
	// mentioned in the header comment.
	ManifestFile string

	// Packages is the full sorted dependency set.
	Packages []*pkg.Package

	// BundleName is the distfile name of the secondary archive carrying
	// the unconverted git references; empty when none remain.
	BundleName string
}

// Archives returns the packages fetchable directly over HTTP, the only
// ones an ebuild SRC_URI can express. The remainder is carried by the
// bundle distfile.
func (in Input) Archives() []*pkg.Package {
	archives := make([]*pkg.Package, 0, len(in.Packages))
	for _, p := range in.Packages {
		if _, ok := p.Kind.(pkg.Archive); ok {
			archives = append(archives, p)
		}
	}
	return archives
}

// Ebuild renders the recipe for in to w.
func Ebuild(w io.Writer, in Input) error {
	tmpl, err := template.New("ebuild").Parse(ebuildTemplate)
	if err != nil {
		return fmt.Errorf("parsing ebuild template: %w", err)
	}
	if err := tmpl.Execute(w, in); err != nil {
		return fmt.Errorf("rendering ebuild: %w", err)
	}
	return nil
}

// FileName returns the recipe filename for a project.
func FileName(name, version string) string {
	return fmt.Sprintf("%s-%s.ebuild", name, version)
}

// BundleName returns the distfile name of the secondary archive.
func BundleName(name, version string) string {
	return fmt.Sprintf("%s-%s-bundle.tar.gz", name, version)
}
