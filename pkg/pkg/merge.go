package pkg

import (
	"sort"

	"github.com/charmbracelet/log"
)

// Merge decides which of two packages sharing a content hash survives.
// isMirror reports whether a host belongs to the designated mirror service,
// which is assumed more stable than the original forge.
//
// Decision order:
//  1. Identical locators: keep existing (warn when the declared names differ).
//  2. Exactly one locator on the mirror service: keep that one.
//  3. Archive beats GitRef: archives are smaller and need no conversion.
//  4. Otherwise keep incoming and warn. This fallback is order-sensitive;
//     callers that need a different policy should resolve the tie themselves.
//
// Calling Merge with packages of different hashes is a programming error.
func Merge(existing, incoming *Package, isMirror func(host string) bool, logger *log.Logger) *Package {
	if existing.Hash != incoming.Hash {
		panic("pkg: merge of packages with different hashes")
	}

	if existing.Locator.String() == incoming.Locator.String() {
		if existing.Name != incoming.Name {
			logger.Warn("same content declared under different names",
				"hash", existing.Hash, "kept", existing.Name, "dropped", incoming.Name)
		}
		return existing
	}

	exMirror := isMirror(existing.Locator.Host)
	inMirror := isMirror(incoming.Locator.Host)
	if exMirror != inMirror {
		if exMirror {
			return existing
		}
		return incoming
	}

	_, exArchive := existing.Kind.(Archive)
	_, inArchive := incoming.Kind.(Archive)
	if exArchive != inArchive {
		if exArchive {
			return existing
		}
		return incoming
	}

	logger.Warn("ambiguous duplicate, keeping the most recently discovered locator",
		"hash", existing.Hash, "kept", incoming.Locator, "dropped", existing.Locator)
	return incoming
}

// Set is the hash-keyed collection of packages built up during traversal.
// At most one package survives per hash.
type Set struct {
	byHash   map[string]*Package
	isMirror func(host string) bool
	logger   *log.Logger
}

// NewSet creates an empty Set using the given mirror predicate for merges.
func NewSet(isMirror func(host string) bool, logger *log.Logger) *Set {
	return &Set{
		byHash:   make(map[string]*Package),
		isMirror: isMirror,
		logger:   logger,
	}
}

// Add inserts p, merging with any existing package of the same hash.
func (s *Set) Add(p *Package) {
	if existing, ok := s.byHash[p.Hash]; ok {
		s.byHash[p.Hash] = Merge(existing, p, s.isMirror, s.logger)
		return
	}
	s.byHash[p.Hash] = p
}

// Packages returns the surviving packages in render order (see Sort).
func (s *Set) Packages() []*Package {
	pkgs := make([]*Package, 0, len(s.byHash))
	for _, p := range s.byHash {
		pkgs = append(pkgs, p)
	}
	Sort(pkgs)
	return pkgs
}

// Hashes returns the surviving hashes in lexicographic order.
func (s *Set) Hashes() []string {
	hashes := make([]string, 0, len(s.byHash))
	for h := range s.byHash {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes
}

// Len returns the number of surviving packages.
func (s *Set) Len() int {
	return len(s.byHash)
}
