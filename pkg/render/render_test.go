package render

import (
	"net/url"
	"strings"
	"testing"

	"github.com/zonbuild/zonbuild/pkg/pkg"
)

func archivePackage(t *testing.T, name, hash, locator string) *pkg.Package {
	t.Helper()
	u, err := url.Parse(locator)
	if err != nil {
		t.Fatal(err)
	}
	return &pkg.Package{Name: name, Hash: hash, Kind: pkg.Archive{Format: pkg.FormatTarGz}, Locator: u}
}

func gitRefPackage(t *testing.T, hash, locator string) *pkg.Package {
	t.Helper()
	u, err := url.Parse(locator)
	if err != nil {
		t.Fatal(err)
	}
	return &pkg.Package{Hash: hash, Kind: pkg.GitRef{Commit: "abc"}, Locator: u}
}

func TestEbuild(t *testing.T) {
	in := Input{
		Name:         "zig-foo",
		Version:      "0.3.1",
		Description:  "A demo tool",
		Homepage:     "https://github.com/owner/zig-foo",
		License:      "MIT",
		Maintainer:   "dev@example.org",
		SourceURI:    "https://github.com/owner/zig-foo/archive/v0.3.1.tar.gz",
		ManifestFile: "build.zig.zon",
		Packages: []*pkg.Package{
			archivePackage(t, "bar", "1220aa", "https://github.com/o/bar/archive/c1.tar.gz"),
			gitRefPackage(t, "1220bb", "git+https://git.example.com/o/baz#abc"),
		},
		BundleName: "zig-foo-0.3.1-bundle.tar.gz",
	}

	var b strings.Builder
	if err := Ebuild(&b, in); err != nil {
		t.Fatalf("Ebuild() error = %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"EAPI=8",
		`DESCRIPTION="A demo tool"`,
		`LICENSE="MIT"`,
		"# Maintainer: dev@example.org",
		"https://github.com/o/bar/archive/c1.tar.gz -> bar-1220aa.tar.gz",
		"zig-foo-0.3.1-bundle.tar.gz",
		"1220aa:bar-1220aa.tar.gz",
		"1220bb:1220bb.tar.gz",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered ebuild is missing %q\n%s", want, out)
		}
	}

	// A git locator is not expressible in SRC_URI; its content rides in
	// the bundle instead.
	if strings.Contains(out, "git+https://") {
		t.Errorf("rendered ebuild leaks a git locator into SRC_URI\n%s", out)
	}
}

func TestEbuildWithoutBundle(t *testing.T) {
	in := Input{
		Name:         "leaf",
		Version:      "1.0.0",
		License:      "BSD",
		SourceURI:    "https://example.com/leaf-1.0.0.tar.gz",
		ManifestFile: "build.zig.zon",
	}

	var b strings.Builder
	if err := Ebuild(&b, in); err != nil {
		t.Fatalf("Ebuild() error = %v", err)
	}
	if strings.Contains(b.String(), "bundle") {
		t.Errorf("recipe without residual git refs must not mention a bundle\n%s", b.String())
	}
	if strings.Contains(b.String(), "Maintainer") {
		t.Errorf("recipe without a maintainer must not emit a maintainer line\n%s", b.String())
	}
}

func TestFileNames(t *testing.T) {
	if got := FileName("zig-foo", "0.3.1"); got != "zig-foo-0.3.1.ebuild" {
		t.Errorf("FileName() = %q", got)
	}
	if got := BundleName("zig-foo", "0.3.1"); got != "zig-foo-0.3.1-bundle.tar.gz" {
		t.Errorf("BundleName() = %q", got)
	}
}
