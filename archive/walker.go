// Package archive walks stylesheets packed into zip theme bundles.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/encoding"
)

// WalkFunc is the type of the function called for each stylesheet in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk, name is the entry path decoded to UTF-8. If an error is returned,
// processing stops.
type WalkFunc func(archive, name string, file *zip.File) error

// Options narrows down what Walk visits.
type Options struct {
	// Extensions lists accepted file extensions (with leading dot), compared
	// case insensitively. Empty means every file.
	Extensions []string
	// CodePage is used to decode entry names not flagged as UTF-8.
	CodePage encoding.Encoding
}

// Walk walks all files in the archive located under prefix and having one
// of the requested extensions, calling walkFn for each item. Directories and
// resource fork entries are skipped. Entries with path traversal components
// ("..") or absolute paths fail the walk to prevent Zip Slip attacks.
func Walk(archive, prefix string, opts Options, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if !isSafePath(f.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
		if f.FileInfo().IsDir() || isResourceFork(f.Name) {
			continue
		}
		name, err := EntryName(f, opts.CodePage)
		if err != nil {
			return fmt.Errorf("zip entry %q: %w", f.Name, err)
		}
		if !strings.HasPrefix(name, prefix) || !hasExtension(name, opts.Extensions) {
			continue
		}
		if err := walkFn(archive, name, f); err != nil {
			return err
		}
	}
	return nil
}

// EntryName returns name of the archive entry. Since zip "standard" does not
// define file name encoding, names not flagged as UTF-8 are decoded with cp
// when one is supplied.
func EntryName(f *zip.File, cp encoding.Encoding) (string, error) {
	if cp == nil || !f.NonUTF8 {
		return f.Name, nil
	}
	return cp.NewDecoder().String(f.Name)
}

// ReadEntry returns full content of the archive entry.
func ReadEntry(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func hasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := path.Ext(name)
	return slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

// isResourceFork reports entries macOS archivers add next to real files.
func isResourceFork(name string) bool {
	return strings.HasPrefix(name, "__MACOSX/") || strings.HasPrefix(path.Base(name), "._")
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
