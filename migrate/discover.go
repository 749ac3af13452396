package migrate

import (
	"archive/zip"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"thememig/archive"
	"thememig/state"
)

// stylesheet is a single discovered source. "src" is the path relative to the
// source root (directory or archive) and always includes file name, "origin"
// is what we show in logs. Read errors are kept to be reported along with
// classification results.
type stylesheet struct {
	theme  string
	src    string
	origin string
	data   []byte
	err    error
}

type discovery struct {
	exts  []string
	theme string
	log   *zap.Logger
	found []stylesheet
}

func (d *discovery) add(container, rel, origin string, data []byte, err error) {
	theme := d.theme
	if len(theme) == 0 {
		theme = themeOf(rel, container)
	}
	d.found = append(d.found, stylesheet{theme: theme, src: rel, origin: origin, data: data, err: err})
}

// themeOf returns first path component below the container, or container
// name for stylesheets located at its root.
func themeOf(rel, container string) string {
	rel = filepath.ToSlash(rel)
	if i := strings.IndexByte(rel, '/'); i > 0 {
		return rel[:i]
	}
	return container
}

func (d *discovery) accepts(name string) bool {
	ext := filepath.Ext(name)
	return slices.ContainsFunc(d.exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

// discover finds all stylesheets in src, which may be a stylesheet, a
// directory, a zip bundle or a path inside zip bundle. Walking up the path
// finds the longest existing prefix, the rest is treated as path in archive.
func discover(ctx context.Context, src string, d *discovery) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return discoverDir(ctx, head, d)
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			pathIn := filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := discoverArchive(ctx, head, pathIn, "", d); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			return nil
		}

		if len(tail) == 0 && d.accepts(head) {
			data, err := os.ReadFile(head)
			d.add(filepath.Base(filepath.Dir(head)), filepath.Base(head), head, data, err)
			return nil
		}
		return fmt.Errorf("input was not recognized as stylesheet or theme bundle (%s)", head)
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

// discoverDir walks directory tree finding stylesheets and theme bundles.
func discoverDir(ctx context.Context, dir string, d *discovery) error {
	return filepath.WalkDir(dir, func(path string, de fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			d.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !de.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		if d.accepts(path) {
			data, err := os.ReadFile(path)
			d.add(filepath.Base(dir), rel, path, data, err)
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			d.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !isArchive {
			d.log.Debug("Skipping file, not recognized as stylesheet or archive", zap.String("file", path))
			return nil
		}
		if err := discoverArchive(ctx, path, "", filepath.Dir(rel), d); err != nil {
			d.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// discoverArchive collects stylesheets inside archive located under "pathIn".
// "pathOut" is the archive location relative to the source root.
func discoverArchive(ctx context.Context, path, pathIn, pathOut string, d *discovery) error {
	cp := state.EnvFromContext(ctx).CodePage
	bundle := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return archive.Walk(path, pathIn, archive.Options{Extensions: d.exts, CodePage: cp}, func(arc, name string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := archive.ReadEntry(f)
		d.add(bundle, filepath.FromSlash(name), arc+":"+name, data, err)
		// keep archive location in output layout, theme comes from the archive itself
		last := &d.found[len(d.found)-1]
		last.src = filepath.Join(pathOut, last.src)
		return nil
	})
}

type themeSheets struct {
	theme  string
	sheets []stylesheet
}

func compareNatural(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}

// groupByTheme returns themes and their stylesheets in natural order so
// results do not depend on file system or archive ordering.
func groupByTheme(sheets []stylesheet) []themeSheets {
	idx := make(map[string]int)
	var out []themeSheets
	for _, s := range sheets {
		i, ok := idx[s.theme]
		if !ok {
			i = len(out)
			idx[s.theme] = i
			out = append(out, themeSheets{theme: s.theme})
		}
		out[i].sheets = append(out[i].sheets, s)
	}
	slices.SortFunc(out, func(a, b themeSheets) int { return compareNatural(a.theme, b.theme) })
	for _, t := range out {
		slices.SortFunc(t.sheets, func(a, b stylesheet) int { return compareNatural(a.src, b.src) })
	}
	return out
}
