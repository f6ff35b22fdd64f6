// Package bundle packs the packages whose git references could not be
// rewritten to archives into one compressed tar for manual hosting.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/zonbuild/zonbuild/pkg/pkg"
	"github.com/zonbuild/zonbuild/pkg/store"
)

// epoch is the fixed modification time stamped on every entry so that
// packing the same content always produces the same bytes.
var epoch = time.Unix(0, 0).UTC()

// Packer bundles package store directories.
type Packer struct {
	Store  store.Store
	Logger *log.Logger
}

// Pack writes a gzip-compressed tar stream to w containing one inner
// tar.gz per package, named by the package's distribution filename. The
// caller decides which packages need bundling; passing none produces an
// empty (but valid) archive.
func (p *Packer) Pack(w io.Writer, pkgs []*pkg.Package) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	for _, pk := range pkgs {
		dir, err := p.Store.PackageDir(pk.Hash)
		if err != nil {
			return fmt.Errorf("bundling %s: %w", pk.Hash, err)
		}

		var inner bytes.Buffer
		if err := packDir(&inner, dir, pk.Hash); err != nil {
			return fmt.Errorf("bundling %s: %w", pk.Hash, err)
		}

		p.Logger.Debug("bundled package", "hash", pk.Hash, "bytes", inner.Len())
		hdr := &tar.Header{
			Name:    pk.DistName(),
			Mode:    0o644,
			Size:    int64(inner.Len()),
			ModTime: epoch,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("bundling %s: %w", pk.Hash, err)
		}
		if _, err := io.Copy(tw, &inner); err != nil {
			return fmt.Errorf("bundling %s: %w", pk.Hash, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finishing bundle: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finishing bundle: %w", err)
	}
	return nil
}

// packDir writes a tar.gz of the directory tree rooted at dir, with every
// entry placed under a single top-level directory named prefix, matching
// the layout of forge snapshot tarballs. WalkDir visits entries in lexical
// order, and all metadata that varies between checkouts (times, owners,
// exact modes) is normalized, so output depends only on the file contents.
func packDir(w io.Writer, dir, prefix string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	if err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     prefix + "/",
		Mode:     0o755,
		ModTime:  epoch,
	}); err != nil {
		return err
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = prefix + "/" + filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     rel + "/",
				Mode:     0o755,
				ModTime:  epoch,
			})
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeSymlink,
				Name:     rel,
				Linkname: target,
				Mode:     0o777,
				ModTime:  epoch,
			})
		default:
			info, err := d.Info()
			if err != nil {
				return err
			}
			mode := int64(0o644)
			if info.Mode()&0o100 != 0 {
				mode = 0o755
			}
			if err := tw.WriteHeader(&tar.Header{
				Name:    rel,
				Mode:    mode,
				Size:    info.Size(),
				ModTime: epoch,
			}); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(tw, f)
			return err
		}
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}
