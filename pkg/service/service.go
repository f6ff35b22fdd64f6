// Package service knows the hosting services dependencies are fetched from:
// how to normalize their locators and how to turn a pinned git commit into
// an immutable snapshot archive URL.
package service

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"sigs.k8s.io/yaml"

	"github.com/zonbuild/zonbuild/pkg/pkg"
)

// Service describes one known hosting service.
type Service struct {
	// Name identifies the service in logs and service files.
	Name string `json:"name"`

	// Canonical is the preferred host name for the service.
	Canonical string `json:"canonical"`

	// Aliases are additional host names that map to Canonical.
	Aliases []string `json:"aliases,omitempty"`

	// Archive is the snapshot URL template, with {owner}, {repo} and
	// {commit} placeholders. Empty means the service has no snapshot
	// convention and git references stay git references.
	Archive string `json:"archive,omitempty"`

	// Mirror marks a mirror-only service: it is preferred when merging
	// duplicate packages but hosts no git repositories of its own.
	Mirror bool `json:"mirror,omitempty"`
}

// Builtin returns the services zonbuild ships with: the common forges with
// a tarball snapshot convention, plus the Mach package mirror.
func Builtin() []Service {
	return []Service{
		{
			Name:      "github",
			Canonical: "github.com",
			Aliases:   []string{"www.github.com"},
			Archive:   "https://github.com/{owner}/{repo}/archive/{commit}.tar.gz",
		},
		{
			Name:      "codeberg",
			Canonical: "codeberg.org",
			Aliases:   []string{"www.codeberg.org"},
			Archive:   "https://codeberg.org/{owner}/{repo}/archive/{commit}.tar.gz",
		},
		{
			Name:      "gitlab",
			Canonical: "gitlab.com",
			Aliases:   []string{"www.gitlab.com"},
			Archive:   "https://gitlab.com/{owner}/{repo}/-/archive/{commit}/{repo}-{commit}.tar.gz",
		},
		{
			Name:      "mach",
			Canonical: "pkg.machengine.org",
			Mirror:    true,
		},
	}
}

// LoadFile reads additional service definitions from a YAML file, typically
// self-hosted forge instances the builtin table cannot know about.
func LoadFile(path string) ([]Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading services file %s: %w", path, err)
	}
	var services []Service
	if err := yaml.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("parsing services file %s: %w", path, err)
	}
	for _, s := range services {
		if s.Canonical == "" {
			return nil, fmt.Errorf("service %q in %s has no canonical host", s.Name, path)
		}
	}
	return services, nil
}

// Table resolves host names to services.
type Table struct {
	byHost map[string]*Service
	logger *log.Logger
}

// NewTable builds a lookup table over the given services. Both the canonical
// host and all aliases are recognized. Later services win on host conflicts.
func NewTable(services []Service, logger *log.Logger) *Table {
	t := &Table{
		byHost: make(map[string]*Service),
		logger: logger,
	}
	for i := range services {
		s := &services[i]
		t.byHost[strings.ToLower(s.Canonical)] = s
		for _, alias := range s.Aliases {
			t.byHost[strings.ToLower(alias)] = s
		}
	}
	return t
}

// Lookup returns the service for host, if known.
func (t *Table) Lookup(host string) (*Service, bool) {
	s, ok := t.byHost[strings.ToLower(host)]
	return s, ok
}

// IsMirror reports whether host belongs to a mirror-only service.
func (t *Table) IsMirror(host string) bool {
	s, ok := t.Lookup(host)
	return ok && s.Mirror
}

// Canonicalize rewrites u in place to the service's preferred form: https
// (or git+https) scheme and the canonical host name. Unknown hosts are left
// unmodified with a warning. Canonicalizing an already-canonical locator is
// a no-op.
func (t *Table) Canonicalize(u *url.URL) {
	s, ok := t.Lookup(u.Host)
	if !ok {
		t.logger.Warn("unknown hosting service, leaving locator unmodified", "host", u.Host)
		return
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "https"
	case "git+http":
		u.Scheme = "git+https"
	}
	u.Host = s.Canonical
}

// ToArchive rewrites a GitRef package in place to an immutable snapshot
// archive when the hosting service has a snapshot convention. Returns true
// when the package was converted. Unknown hosts and mirror-only services
// are an expected outcome, not an error: the package stays a GitRef and a
// warning is logged.
func (t *Table) ToArchive(p *pkg.Package) bool {
	ref, ok := p.Kind.(pkg.GitRef)
	if !ok {
		return false
	}

	s, known := t.Lookup(p.Locator.Host)
	if !known {
		t.logger.Warn("unknown hosting service, keeping git reference", "host", p.Locator.Host, "hash", p.Hash)
		return false
	}
	if s.Archive == "" {
		t.logger.Warn("service has no snapshot convention, keeping git reference", "service", s.Name, "hash", p.Hash)
		return false
	}

	owner, repo := splitRepoPath(p.Locator.Path)
	target := strings.NewReplacer(
		"{owner}", owner,
		"{repo}", repo,
		"{commit}", ref.Commit,
	).Replace(s.Archive)

	u, err := url.Parse(target)
	if err != nil {
		// Templates are static data; a bad one is a configuration bug.
		t.logger.Warn("snapshot template produced an invalid locator, keeping git reference", "service", s.Name, "locator", target)
		return false
	}

	p.Locator = u
	p.Kind = pkg.Archive{Format: pkg.FormatTarGz}
	return true
}

// splitRepoPath splits a repository path into owner and repository name,
// stripping the leading slash and a trailing ".git" suffix. Nested group
// paths (GitLab subgroups) keep the grouping in the owner part.
func splitRepoPath(path string) (owner, repo string) {
	trimmed := strings.TrimPrefix(path, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[:i], trimmed[i+1:]
	}
	return "", trimmed
}
