package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestReport(t *testing.T) *Report {
	t.Helper()
	conf := ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return r
}

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport_Archive(t *testing.T) {
	r := newTestReport(t)

	src := filepath.Join(t.TempDir(), "source.md")
	if err := os.WriteFile(src, []byte("++text++"), 0644); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "out.html"), []byte("<p/>"), 0644); err != nil {
		t.Fatal(err)
	}

	r.Store("result", src)
	r.Store("workdir", dir)
	r.StoreData("rules.yaml", []byte("rules: []"))
	if err := r.StoreCopy("source", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	r.Store("absent", filepath.Join(dir, "missing"))

	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got := readArchive(t, name)
	if got["result"] != "++text++" || got["source"] != "++text++" {
		t.Errorf("file entries = %q, %q", got["result"], got["source"])
	}
	if got["rules.yaml"] != "rules: []" {
		t.Errorf("data entry = %q", got["rules.yaml"])
	}
	if got["workdir/sub/out.html"] != "<p/>" {
		t.Errorf("directory entry missing, have %v", len(got))
	}
	if _, ok := got["absent"]; ok {
		t.Error("absent file stored in archive")
	}
	manifest := got["MANIFEST"]
	for _, k := range []string{"result", "workdir", "rules.yaml", "source", "absent"} {
		if !strings.Contains(manifest, "\t"+k+"\t") {
			t.Errorf("MANIFEST has no %q entry:\n%s", k, manifest)
		}
	}
}

func TestReport_CloseRemovesCopies(t *testing.T) {
	r := newTestReport(t)

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "debug.txt"), []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.StoreCopy("dir", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	if len(r.scratch) != 1 {
		t.Fatalf("scratch = %v", r.scratch)
	}
	copied := r.scratch[0]

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(copied); !os.IsNotExist(err) {
		t.Errorf("temporary copy %s still exists", copied)
	}
	// original is never touched
	if _, err := os.Stat(filepath.Join(src, "debug.txt")); err != nil {
		t.Errorf("stored source removed: %v", err)
	}
}

func TestReport_Versioning(t *testing.T) {
	r := newTestReport(t)
	r.StoreData("stats", []byte("1"))
	r.StoreData("stats", []byte("2"))
	if len(r.entries) != 2 {
		t.Errorf("entries = %d, want 2", len(r.entries))
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestReport_StoreOverwritePanics(t *testing.T) {
	r := newTestReport(t)
	defer r.Close()

	r.Store("file", "a")
	r.Store("file", "a")
	defer func() {
		if recover() == nil {
			t.Error("expected panic when overwriting entry with different path")
		}
	}()
	r.Store("file", "b")
}

func TestReport_Concurrent(t *testing.T) {
	r := newTestReport(t)

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			r.StoreData("doc", []byte("data"))
		})
	}
	wg.Wait()

	if len(r.entries) == 0 {
		t.Error("no entries stored")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", nil)
	if err := r.StoreCopy("a", "b"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name() = %q", r.Name())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReport_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"with" + string(os.PathSeparator) + "sep", "withsep"},
		{"tab\there", "tabhere"},
		{"", "_bad_file_name_"},
	}
	for _, tt := range tests {
		if got := CleanFileName(tt.in); got != tt.want {
			t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
