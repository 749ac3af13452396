package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

type zipEntry struct {
	name    string
	content string
	nonUTF8 bool
}

func makeZip(t *testing.T, entries ...zipEntry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "bundle.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, NonUTF8: e.nonUTF8})
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finish zip: %v", err)
	}
	return zipPath
}

func collect(t *testing.T, zipPath, prefix string, opts Options) []string {
	t.Helper()
	var visited []string
	err := Walk(zipPath, prefix, opts, func(archive, name string, file *zip.File) error {
		if archive != zipPath {
			t.Errorf("archive = %s, want %s", archive, zipPath)
		}
		visited = append(visited, name)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return visited
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t,
		zipEntry{name: "acme/site.css", content: ".header {}"},
		zipEntry{name: "acme/theme.SCSS", content: "$a: 1;"},
		zipEntry{name: "acme/logo.png", content: "png"},
		zipEntry{name: "zenith/site.css", content: ".footer {}"},
		zipEntry{name: "__MACOSX/acme/._site.css", content: "fork"},
		zipEntry{name: "acme/._hidden.css", content: "fork"},
		zipEntry{name: "readme.txt", content: "text"},
	)
	styles := Options{Extensions: []string{".css", ".scss"}}

	tests := []struct {
		name   string
		prefix string
		opts   Options
		want   []string
	}{
		{"all stylesheets", "", styles, []string{"acme/site.css", "acme/theme.SCSS", "zenith/site.css"}},
		{"theme prefix", "acme/", styles, []string{"acme/site.css", "acme/theme.SCSS"}},
		{"css only", "", Options{Extensions: []string{".css"}}, []string{"acme/site.css", "zenith/site.css"}},
		{"no filter", "", Options{}, []string{"acme/site.css", "acme/theme.SCSS", "acme/logo.png", "zenith/site.css", "readme.txt"}},
		{"no matching prefix", "nonexistent/", styles, nil},
		{"prefix is case sensitive", "ACME/", styles, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, zipPath, tt.prefix, tt.opts)
			if !slices.Equal(got, tt.want) {
				t.Errorf("visited %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalk_Errors(t *testing.T) {
	zipPath := makeZip(t,
		zipEntry{name: "a/one.css"},
		zipEntry{name: "a/two.css"},
		zipEntry{name: "a/three.css"},
	)

	t.Run("walkFn error stops walk", func(t *testing.T) {
		stopErr := errors.New("stop walking")
		visited := 0
		err := Walk(zipPath, "", Options{}, func(archive, name string, file *zip.File) error {
			visited++
			if visited == 2 {
				return stopErr
			}
			return nil
		})
		if err != stopErr {
			t.Errorf("Walk() error = %v, want %v", err, stopErr)
		}
		if visited != 2 {
			t.Errorf("visited %d files, want 2 (early termination)", visited)
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		if err := Walk("/nonexistent/file.zip", "", Options{}, nil); err == nil {
			t.Error("Expected error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		invalidZip := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(invalidZip, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}
		if err := Walk(invalidZip, "", Options{}, nil); err == nil {
			t.Error("Expected error for invalid zip file")
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		evil := makeZip(t, zipEntry{name: "../escape.css"})
		err := Walk(evil, "", Options{}, func(archive, name string, file *zip.File) error {
			t.Errorf("unsafe entry %s visited", name)
			return nil
		})
		if err == nil {
			t.Error("Expected error for unsafe entry")
		}
	})
}

func TestWalk_CodePage(t *testing.T) {
	encoded, err := charmap.CodePage866.NewEncoder().String("тема/site.css")
	if err != nil {
		t.Fatal(err)
	}
	zipPath := makeZip(t, zipEntry{name: encoded, content: ".nav {}", nonUTF8: true})

	t.Run("forced code page", func(t *testing.T) {
		got := collect(t, zipPath, "тема/", Options{CodePage: charmap.CodePage866})
		if !slices.Equal(got, []string{"тема/site.css"}) {
			t.Errorf("visited %q", got)
		}
	})

	t.Run("raw names", func(t *testing.T) {
		got := collect(t, zipPath, "", Options{})
		if !slices.Equal(got, []string{encoded}) {
			t.Errorf("visited %q", got)
		}
	})
}

func TestReadEntry(t *testing.T) {
	zipPath := makeZip(t, zipEntry{name: "acme/site.css", content: ".header { color: red; }"})

	err := Walk(zipPath, "", Options{}, func(archive, name string, file *zip.File) error {
		data, err := ReadEntry(file)
		if err != nil {
			return err
		}
		if string(data) != ".header { color: red; }" {
			t.Errorf("content = %q", data)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"acme/site.css", true},
		{"acme/..hidden.css", true},
		{"/etc/site.css", false},
		{`\site.css`, false},
		{"acme/../../site.css", false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
