package pkg

import (
	"io"
	"net/url"
	"testing"

	"github.com/charmbracelet/log"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing %q: %v", raw, err)
	}
	return u
}

func mirrorHost(host string) bool {
	return host == "pkg.machengine.org"
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestMerge(t *testing.T) {
	tests := map[string]struct {
		existing *Package
		incoming *Package
		// wantExisting selects which input must survive. Checked in both
		// discovery orders: cases 1-3 are commutative in outcome.
		wantExisting bool
	}{
		"identical locators keep existing": {
			existing: &Package{
				Name: "foo", Hash: "h",
				Kind:    Archive{Format: FormatTarGz},
				Locator: mustURL(t, "https://github.com/a/b.tar.gz"),
			},
			incoming: &Package{
				Name: "foo-renamed", Hash: "h",
				Kind:    Archive{Format: FormatTarGz},
				Locator: mustURL(t, "https://github.com/a/b.tar.gz"),
			},
			wantExisting: true,
		},
		"mirror host wins": {
			existing: &Package{
				Name: "foo", Hash: "h",
				Kind:    Archive{Format: FormatTarGz},
				Locator: mustURL(t, "https://github.com/a/b.tar.gz"),
			},
			incoming: &Package{
				Name: "foo", Hash: "h",
				Kind:    Archive{Format: FormatTarGz},
				Locator: mustURL(t, "https://pkg.machengine.org/b.tar.gz"),
			},
			wantExisting: false,
		},
		"archive beats git ref": {
			existing: &Package{
				Name: "foo", Hash: "h",
				Kind:    GitRef{Commit: "abc"},
				Locator: mustURL(t, "git+https://example.org/a/b#abc"),
			},
			incoming: &Package{
				Name: "foo", Hash: "h",
				Kind:    Archive{Format: FormatTarGz},
				Locator: mustURL(t, "https://example.com/b.tar.gz"),
			},
			wantExisting: false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := Merge(tc.existing, tc.incoming, mirrorHost, quietLogger())
			want := tc.incoming
			if tc.wantExisting {
				want = tc.existing
			}
			if got != want {
				t.Errorf("Merge kept %v, want %v", got.Locator, want.Locator)
			}

			// The surviving content must not depend on discovery order.
			reversed := Merge(tc.incoming, tc.existing, mirrorHost, quietLogger())
			if reversed.Locator.String() != want.Locator.String() {
				t.Errorf("Merge is not commutative: reversed kept %v, want %v", reversed.Locator, want.Locator)
			}
		})
	}
}

// Case 4 is explicitly order-sensitive: when no rule decides, the most
// recently discovered record survives.
func TestMergeAmbiguousKeepsIncoming(t *testing.T) {
	a := &Package{
		Name: "foo", Hash: "h",
		Kind:    Archive{Format: FormatTarGz},
		Locator: mustURL(t, "https://example.com/one.tar.gz"),
	}
	b := &Package{
		Name: "foo", Hash: "h",
		Kind:    Archive{Format: FormatTarGz},
		Locator: mustURL(t, "https://example.org/two.tar.gz"),
	}

	if got := Merge(a, b, mirrorHost, quietLogger()); got != b {
		t.Errorf("Merge(a, b) kept %v, want incoming %v", got.Locator, b.Locator)
	}
	if got := Merge(b, a, mirrorHost, quietLogger()); got != a {
		t.Errorf("Merge(b, a) kept %v, want incoming %v", got.Locator, a.Locator)
	}
}

func TestMergePanicsOnHashMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Merge did not panic on differing hashes")
		}
	}()
	a := &Package{Hash: "h1", Locator: mustURL(t, "https://a/x.tar.gz")}
	b := &Package{Hash: "h2", Locator: mustURL(t, "https://a/x.tar.gz")}
	Merge(a, b, mirrorHost, quietLogger())
}

func TestSetDeduplicatesByHash(t *testing.T) {
	s := NewSet(mirrorHost, quietLogger())

	s.Add(&Package{Name: "foo", Hash: "h1", Kind: Archive{Format: FormatTarGz}, Locator: mustURL(t, "https://a/x.tar.gz")})
	s.Add(&Package{Name: "foo", Hash: "h1", Kind: Archive{Format: FormatTarGz}, Locator: mustURL(t, "https://a/x.tar.gz")})
	s.Add(&Package{Name: "bar", Hash: "h2", Kind: Archive{Format: FormatTarGz}, Locator: mustURL(t, "https://a/y.tar.gz")})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	seen := make(map[string]bool)
	for _, p := range s.Packages() {
		if seen[p.Hash] {
			t.Fatalf("duplicate hash %q in package set", p.Hash)
		}
		seen[p.Hash] = true
	}
}
