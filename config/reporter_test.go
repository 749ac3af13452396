package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open report: %v", err)
	}
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}

	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	src := filepath.Join(dir, "site.css")
	if err := os.WriteFile(src, []byte(".header { a: b; }"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.StoreCopy("original/theme-10/site.css", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	// copy is taken at the time of the call
	if err := os.WriteFile(src, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}

	r.StoreData("filtered/theme-2/site.css", []byte(".content {}"))
	r.StoreData("filtered/theme-2/site.css", []byte(".content { again }"))
	if err := r.StoreYAML("result/theme-2.yaml", map[string]int{"excluded_count": 3}); err != nil {
		t.Fatalf("StoreYAML() error = %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, conf.Destination)
	if got := files["original/theme-10/site.css"]; got != ".header { a: b; }" {
		t.Errorf("original copy = %q", got)
	}
	if got := files["filtered/theme-2/site.css"]; got != ".content {}" {
		t.Errorf("filtered = %q", got)
	}
	if got := files["result/theme-2.yaml"]; !strings.Contains(got, "excluded_count: 3") {
		t.Errorf("result = %q", got)
	}

	versioned := 0
	for name := range files {
		if strings.HasPrefix(name, "filtered/theme-2/site.css-") {
			versioned++
		}
	}
	if versioned != 1 {
		t.Errorf("expected one versioned entry, got %d", versioned)
	}

	manifest := files["MANIFEST"]
	if i, j := strings.Index(manifest, "filtered/theme-2"), strings.Index(manifest, "original/theme-10"); i < 0 || j < 0 || i > j {
		t.Errorf("unexpected manifest order:\n%s", manifest)
	}
}

func TestReportClose_RemovesCopies(t *testing.T) {
	dir := t.TempDir()
	r, err := (&ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	stored := filepath.Join(dir, "stored")
	if err := os.MkdirAll(filepath.Join(stored, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stored, "sub", "a.css"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.StoreCopy("dir", stored); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	copies := make([]string, 0, 1)
	for _, e := range r.entries {
		copies = append(copies, e.tempDir)
	}
	r.Store("kept", filepath.Join(stored, "sub", "a.css"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	for _, c := range copies {
		if _, err := os.Stat(c); !os.IsNotExist(err) {
			t.Errorf("temporary copy %s was not removed", c)
		}
	}
	// stored originals are never touched
	if _, err := os.Stat(filepath.Join(stored, "sub", "a.css")); err != nil {
		t.Errorf("stored file was removed: %v", err)
	}
	if files := readArchive(t, filepath.Join(dir, "report.zip")); files["dir/sub/a.css"] != "a" || files["kept"] != "a" {
		t.Errorf("unexpected archive content: %v", files)
	}
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	// all methods are safe on nil report
	r.Store("a", "b")
	r.StoreData("a", nil)
	if err := r.StoreYAML("a", 1); err != nil {
		t.Error(err)
	}
	if r.Name() != "" {
		t.Error("nil report has name")
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
