package process

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"exsyn/config"
	"exsyn/document"
	"exsyn/state"
)

const insertion = `<ins class="extended-syntax extended-syntax-insert" style="color:var(--interactive-success)">ins</ins>`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	if err := env.PrepareSyntax(); err != nil {
		t.Fatalf("prepare syntax: %v", err)
	}
	return ctx, env
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func createZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer out.Close()
	w := zip.NewWriter(out)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s in zip: %v", name, err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("write %s in zip: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("finalize zip: %v", err)
	}
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected output %s: %v", path, err)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("unexpected output %s", path)
	}
}

func TestProcess_NonExistentPath(t *testing.T) {
	ctx, env := setupTestEnv(t)

	err := process(ctx, "/nonexistent/path/note.md", t.TempDir(), env.Log)
	if err == nil || !strings.Contains(err.Error(), "input source was not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, env := setupTestEnv(t)
	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	dir := t.TempDir()
	if err := process(cancelCtx, dir, dir, env.Log); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "note.md")
	writeFile(t, src, "# Note\n\nText ++ins++, x^2^ and `++code++`\n")

	if err := process(ctx, src, dstDir, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	out := readFile(t, filepath.Join(dstDir, "note.html"))
	for _, want := range []string{
		"<!DOCTYPE html>",
		insertion,
		`x<sup class="extended-syntax extended-syntax-superscript">2</sup>`,
		"<code>++code++</code>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}

func TestProcess_SingleFileWithTail(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "note.md")
	writeFile(t, src, "text\n")

	if err := process(ctx, filepath.Join(src, "inner"), t.TempDir(), env.Log); err == nil {
		t.Error("expected error for path below regular file")
	}
}

func TestProcess_NotDocument(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "image.png")
	writeFile(t, src, "\x89PNG")

	err := process(ctx, src, t.TempDir(), env.Log)
	if err == nil || !strings.Contains(err.Error(), "not recognized as document") {
		t.Errorf("expected not recognized error, got %v", err)
	}
}

func TestProcess_Directory(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "top.html"), "<html><body><p>a ~b~ c</p></body></html>")
	writeFile(t, filepath.Join(srcDir, "sub", "deep.md"), "++ins++\n")
	writeFile(t, filepath.Join(srcDir, "sub", "skip.txt"), "++ins++")

	t.Run("keep structure", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		dstDir := t.TempDir()
		if err := process(ctx, srcDir, dstDir, env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		top := readFile(t, filepath.Join(dstDir, "top.html"))
		if !strings.Contains(top, `a <sub class="extended-syntax extended-syntax-subscript">b</sub> c`) {
			t.Errorf("unexpected output:\n%s", top)
		}
		if deep := readFile(t, filepath.Join(dstDir, "sub", "deep.html")); !strings.Contains(deep, insertion) {
			t.Errorf("unexpected output:\n%s", deep)
		}
		assertMissing(t, filepath.Join(dstDir, "sub", "skip.html"))
	})

	t.Run("no dirs", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		env.NoDirs = true
		dstDir := t.TempDir()
		if err := process(ctx, srcDir, dstDir, env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertExists(t, filepath.Join(dstDir, "top.html"))
		assertExists(t, filepath.Join(dstDir, "deep.html"))
	})

	t.Run("with tail", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		if err := process(ctx, filepath.Join(srcDir, "missing", "x.md"), t.TempDir(), env.Log); err == nil {
			t.Error("expected error for missing path below directory")
		}
	})

	t.Run("empty", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		if err := process(ctx, t.TempDir(), t.TempDir(), env.Log); err != nil {
			t.Errorf("process() error = %v", err)
		}
	})
}

func TestProcess_Archive(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "notes.zip")
	createZip(t, zipPath, map[string]string{
		"docs/one.md":    "||secret||\n",
		"docs/page.html": "<?xml version=\"1.0\"?><html xmlns=\"http://www.w3.org/1999/xhtml\"><body><p>a&nbsp;++ins++</p></body></html>",
		"other/two.md":   "two\n",
		"other/data.bin": "binary",
	})

	t.Run("whole archive", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		dstDir := t.TempDir()
		if err := process(ctx, zipPath, dstDir, env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		one := readFile(t, filepath.Join(dstDir, "docs", "one.html"))
		if !strings.Contains(one, `<span class="extended-syntax extended-syntax-spoiler">secret</span>`) {
			t.Errorf("unexpected output:\n%s", one)
		}
		// declared as XML, so parsed with XML parser and entities resolved
		page := readFile(t, filepath.Join(dstDir, "docs", "page.html"))
		if !strings.Contains(page, "a\u00a0"+insertion) {
			t.Errorf("unexpected output:\n%s", page)
		}
		assertExists(t, filepath.Join(dstDir, "other", "two.html"))
		assertMissing(t, filepath.Join(dstDir, "other", "data.html"))
	})

	t.Run("path inside archive", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		dstDir := t.TempDir()
		if err := process(ctx, filepath.Join(zipPath, "other"), dstDir, env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertExists(t, filepath.Join(dstDir, "other", "two.html"))
		assertMissing(t, filepath.Join(dstDir, "docs", "one.html"))
	})

	t.Run("archive in directory", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		srcDir, dstDir := t.TempDir(), t.TempDir()
		data, err := os.ReadFile(zipPath)
		if err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(srcDir, "nested", "notes.zip"), string(data))
		if err := process(ctx, srcDir, dstDir, env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertExists(t, filepath.Join(dstDir, "nested", "docs", "one.html"))
	})
}

func TestProcessDocument(t *testing.T) {
	src := "Text ++ins++\n"

	t.Run("xhtml output", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		env.OutputFormat = config.OutputFmtXhtml
		dstDir := t.TempDir()
		if err := processDocument(ctx, strings.NewReader(src), "a/note.md", document.KindMarkdown, dstDir, env.Log); err != nil {
			t.Fatalf("processDocument() error = %v", err)
		}
		out := readFile(t, filepath.Join(dstDir, "a", "note.xhtml"))
		if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) || !strings.Contains(out, insertion) {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		dstDir := t.TempDir()
		existing := filepath.Join(dstDir, "note.html")
		writeFile(t, existing, "old")

		err := processDocument(ctx, strings.NewReader(src), "note.md", document.KindMarkdown, dstDir, env.Log)
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("expected already exists error, got %v", err)
		}
		if readFile(t, existing) != "old" {
			t.Fatal("existing file modified")
		}

		env.Overwrite = true
		if err := processDocument(ctx, strings.NewReader(src), "note.md", document.KindMarkdown, dstDir, env.Log); err != nil {
			t.Fatalf("processDocument() error = %v", err)
		}
		if !strings.Contains(readFile(t, existing), insertion) {
			t.Error("existing file was not replaced")
		}
	})

	t.Run("embedded stylesheet", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		env.Cfg.Document.Stylesheet.Embed = true
		if err := prepareStylesheet(env); err != nil {
			t.Fatalf("prepareStylesheet() error = %v", err)
		}
		dstDir := t.TempDir()
		if err := processDocument(ctx, strings.NewReader(src), "note.md", document.KindMarkdown, dstDir, env.Log); err != nil {
			t.Fatalf("processDocument() error = %v", err)
		}
		out := readFile(t, filepath.Join(dstDir, "note.html"))
		if !strings.Contains(out, `<style type="text/css">`) || !strings.Contains(out, "ins.extended-syntax.extended-syntax-insert {") {
			t.Errorf("stylesheet not embedded:\n%s", out)
		}
	})

	t.Run("broken source", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		err := processDocument(ctx, strings.NewReader("<p>unclosed"), "bad.xhtml", document.KindXHTML, t.TempDir(), env.Log)
		if err == nil || !strings.Contains(err.Error(), "unable to load source") {
			t.Errorf("expected load error, got %v", err)
		}
	})

	t.Run("panic", func(t *testing.T) {
		ctx, env := setupTestEnv(t)
		env.Engine = nil
		err := processDocument(ctx, strings.NewReader(src), "note.md", document.KindMarkdown, t.TempDir(), env.Log)
		if err == nil || !strings.Contains(err.Error(), "processing panic") {
			t.Errorf("expected panic error, got %v", err)
		}
	})
}

func TestProcessDocument_Report(t *testing.T) {
	ctx, env := setupTestEnv(t)
	conf := config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	rpt, err := conf.Prepare()
	if err != nil {
		t.Fatalf("prepare report: %v", err)
	}
	env.Rpt = rpt

	if err := processDocument(ctx, strings.NewReader("++ins++\n"), "note.md", document.KindMarkdown, t.TempDir(), env.Log); err != nil {
		t.Fatalf("processDocument() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("close report: %v", err)
	}

	r, err := zip.OpenReader(conf.Destination)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer r.Close()

	found := map[string]bool{}
	for _, f := range r.File {
		for _, prefix := range []string{"source-", "document-", "result-"} {
			if strings.HasPrefix(f.Name, prefix) {
				found[prefix] = true
			}
		}
	}
	for _, prefix := range []string{"source-", "document-", "result-"} {
		if !found[prefix] {
			t.Errorf("report has no %s entry", prefix)
		}
	}
}

func TestPrepareStylesheet(t *testing.T) {
	_, env := setupTestEnv(t)

	if err := prepareStylesheet(env); err != nil || env.Stylesheet != nil {
		t.Errorf("stylesheet prepared when not requested: %v", err)
	}

	env.Cfg.Document.Stylesheet.Embed = true
	custom := filepath.Join(t.TempDir(), "custom.css")
	writeFile(t, custom, "ins { color: green; }")
	env.Cfg.Document.Stylesheet.Path = custom
	if err := prepareStylesheet(env); err != nil || string(env.Stylesheet) != "ins { color: green; }" {
		t.Errorf("custom stylesheet not used: %q, %v", env.Stylesheet, err)
	}

	env.Cfg.Document.Stylesheet.Path = filepath.Join(t.TempDir(), "missing.css")
	if err := prepareStylesheet(env); err == nil {
		t.Error("expected error for missing stylesheet")
	}
}
