// Package fetch wraps the external tool that downloads dependencies into
// the content-addressed store and reports their realized hashes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/zonbuild/zonbuild/pkg/store"
)

// Strategy selects how remote dependencies are resolved.
type Strategy string

const (
	// StrategySkip runs no fetch at all and trusts the hash declared in
	// the manifest. Nested manifests of skipped dependencies cannot be
	// inspected unless the store already has their content.
	StrategySkip Strategy = "skip"
	// StrategyPlain fetches and trusts the hash the tool reports.
	StrategyPlain Strategy = "plain"
	// StrategyVerify fetches and fails when the realized hash differs
	// from the declared one.
	StrategyVerify Strategy = "verify"
)

// ParseStrategy validates a strategy name from flags or config.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySkip, StrategyPlain, StrategyVerify:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown fetch strategy %q (want skip, plain or verify)", s)
}

// Fetcher resolves one remote dependency to its realized content hash,
// populating the store as a side effect. declared is the hash the consuming
// manifest pins; whether it is checked depends on the strategy.
type Fetcher interface {
	Fetch(ctx context.Context, locator, declared string) (string, error)
}

// ZigFetcher shells out to `zig fetch` with the store root as the global
// cache directory. Fetches run synchronously, one at a time; timeouts and
// retries are the tool's concern, not ours.
type ZigFetcher struct {
	Store    store.Store
	Strategy Strategy
	Logger   *log.Logger

	// Zig is the executable to invoke. Empty means "zig" from PATH.
	Zig string
}

var _ Fetcher = &ZigFetcher{}

func (f *ZigFetcher) Fetch(ctx context.Context, locator, declared string) (string, error) {
	if f.Strategy == StrategySkip {
		f.Logger.Debug("skipping fetch, trusting declared hash", "locator", locator, "hash", declared)
		return declared, nil
	}

	zig := f.Zig
	if zig == "" {
		zig = "zig"
	}

	if err := f.Store.EnsureDir(store.PackagesDir); err != nil {
		return "", fmt.Errorf("preparing store: %w", err)
	}

	f.Logger.Debug("fetching", "locator", locator)
	cmd := exec.CommandContext(ctx, zig, "fetch", "--global-cache-dir", f.Store.Root(), locator)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("zig fetch %s: %w", locator, execError(err))
	}

	hash := strings.TrimSpace(string(out))
	if hash == "" {
		return "", fmt.Errorf("zig fetch %s: tool reported no hash", locator)
	}

	if f.Strategy == StrategyVerify && declared != "" && hash != declared {
		return "", fmt.Errorf("hash mismatch for %s: manifest declares %s, fetch realized %s", locator, declared, hash)
	}

	// The tool must have populated the store under the hash it reported;
	// a hash with no content would silently degrade every consumer into a
	// pristine leaf.
	ok, err := f.Store.Exists(store.PackagesDir, hash)
	if err != nil {
		return "", fmt.Errorf("checking store for %s: %w", hash, err)
	}
	if !ok {
		return "", fmt.Errorf("zig fetch %s: reported hash %s but the store has no content for it", locator, hash)
	}
	return hash, nil
}

// execError surfaces the external tool's stderr verbatim, which is the
// diagnostic the user needs to see.
func execError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return err
}
