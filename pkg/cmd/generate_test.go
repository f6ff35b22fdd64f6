package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zonbuild/zonbuild/pkg/zon"
)

func TestGenerateWritesOverlayLayout(t *testing.T) {
	project := t.TempDir()
	out := t.TempDir()

	manifest := `.{ .name = .leaf, .version = "1.2.0" }`
	if err := os.WriteFile(filepath.Join(project, zon.FileName), []byte(manifest), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	recipe := "[recipe]\ncategory = \"app-misc\"\nlicense = \"BSD\"\nmaintainer = \"dev@example.org\"\n"
	if err := os.WriteFile(filepath.Join(project, "zonbuild.toml"), []byte(recipe), 0o644); err != nil {
		t.Fatalf("writing recipe config: %v", err)
	}

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"generate", project, "--output", out, "--store", t.TempDir()})

	if err := root.Execute(); err != nil {
		t.Fatalf("generate failed: %v\nstderr: %s", err, stderr.String())
	}

	// The recipe lands at <output>/<category>/<name>/<name>-<version>.ebuild.
	path := filepath.Join(out, "app-misc", "leaf", "leaf-1.2.0.ebuild")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading generated recipe: %v", err)
	}

	for _, want := range []string{
		"# Maintainer: dev@example.org",
		`LICENSE="BSD"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("generated recipe is missing %q\n%s", want, data)
		}
	}
	if !strings.Contains(stdout.String(), path) {
		t.Errorf("output %q does not mention the recipe path %q", stdout.String(), path)
	}
}

func TestGenerateRequiresManifest(t *testing.T) {
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"generate", t.TempDir(), "--output", t.TempDir(), "--store", t.TempDir()})

	if err := root.Execute(); err == nil {
		t.Fatal("generate succeeded in a directory without a manifest")
	}
}
