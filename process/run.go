// Package process drives batch substitution: it walks files, directories and
// zip archives, runs every recognized document through the syntax engine
// and writes results.
package process

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"exsyn/archive"
	"exsyn/config"
	"exsyn/document"
	"exsyn/state"
	"exsyn/styles"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("process")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.OutputFormat, err = config.ParseOutputFmt(cmd.String("to"))
	if err != nil {
		log.Warn("Unknown output format requested, switching to html", zap.Error(err))
		env.OutputFormat = config.OutputFmtHtml
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	if err := prepareStylesheet(env); err != nil {
		return err
	}

	log.Info("Processing starting",
		zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", env.OutputFormat))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// prepareStylesheet selects CSS embedded into processed documents: user
// provided file or stylesheet generated from current rules.
func prepareStylesheet(env *state.LocalEnv) error {
	env.Stylesheet = nil
	conf := env.Cfg.Document.Stylesheet
	if !conf.Embed {
		return nil
	}
	if len(conf.Path) > 0 {
		data, err := os.ReadFile(conf.Path)
		if err != nil {
			return fmt.Errorf("unable to read stylesheet from %q: %w", conf.Path, err)
		}
		env.Stylesheet = data
		return nil
	}
	env.Stylesheet = styles.Stylesheet(env.Rules.Snapshot())
	return nil
}

// process determines what source is (directory, archive, path inside
// archive or single document) and handles it accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
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
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			return nil
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			inner := filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := processArchive(ctx, head, inner, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			return nil
		}

		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		kind, err := documentFileKind(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if kind == document.KindUnknown {
			return fmt.Errorf("input was not recognized as document (%s)", head)
		}
		// single document failure is logged, not returned, same as for
		// documents in directories and archives
		if err := processFile(ctx, head, filepath.Base(head), kind, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
		}
		return nil
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

// processDir walks directory tree finding documents and archives.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		kind, err := documentFileKind(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if kind == document.KindUnknown {
			log.Debug("Skipping file, not recognized as document or archive", zap.String("file", path))
			return nil
		}

		count++
		if err := processFile(ctx, path, rel, kind, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// processArchive handles documents inside archive under "pathIn", "pathOut"
// is prepended to their names when building output path.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path), zap.String("path", pathIn))
		}
	}()

	cp := state.EnvFromContext(ctx).CodePage
	return archive.Walk(ctx, path, pathIn, cp, func(arc string, f *zip.File, name string) error {
		if cp != nil && f.NonUTF8 {
			if _, err := archive.DecodeName(f, cp); err != nil {
				n, _ := ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", f.Name), zap.Error(err))
			}
		}

		kind, err := documentKindInArchive(f, name)
		if err != nil {
			log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("file", name), zap.Error(err))
			return nil
		}
		if kind == document.KindUnknown {
			log.Debug("Skipping file, not recognized as document", zap.String("archive", arc), zap.String("file", name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", name), zap.Error(err))
			return nil
		}
		defer r.Close()

		if err := processDocument(ctx, r, filepath.Join(pathOut, filepath.FromSlash(name)), kind, dst, log); err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", name), zap.Error(err))
		}
		return nil
	})
}

func processFile(ctx context.Context, path, src string, kind document.Kind, dst string, log *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return processDocument(ctx, f, src, kind, dst, log)
}

// processDocument handles single document. "src" is source path relative to
// what was requested on the command line (base name for a single file),
// "dst" is destination directory.
func processDocument(ctx context.Context, r io.Reader, src string, kind document.Kind, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string
	refID := newRefID()
	log = log.With(zap.String("ref_id", refID))

	log.Info("Document processing starting", zap.String("from", src), zap.Stringer("kind", kind))
	defer func(start time.Time) {
		// one broken document should not stop the whole batch
		if r := recover(); r != nil {
			log.Error("Document processing ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("processing panic: %v", r)
		} else if rerr == nil {
			log.Info("Document processing completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read source (%s): %w", src, err)
	}
	env.Rpt.StoreData(fmt.Sprintf("source-%s%s", refID, filepath.Ext(src)), data)

	doc, err := document.Load(ctx, bytes.NewReader(data), kind, log.Named("document"))
	if err != nil {
		return fmt.Errorf("unable to load source (%s): %w", src, err)
	}

	stats := env.Engine.ApplyAll(doc.Blocks(), env.Rules.Snapshot())
	log.Debug("Syntax applied",
		zap.Int("blocks", stats.Blocks), zap.Int("containers", stats.Containers),
		zap.Int("wrapped", stats.Total()), zap.Any("rules", stats.Wrapped), zap.Int("skipped", len(stats.Skipped)))

	if len(env.Stylesheet) > 0 {
		doc.EmbedStylesheet(env.Stylesheet)
	}
	env.Rpt.StoreData(fmt.Sprintf("document-%s.txt", refID), []byte(doc.String()))

	values := buildValues(config.OutputNameTemplateFieldName, doc, src, refID, env.OutputFormat, stats.WrappedLabels())
	outputName = buildOutputPath(values, src, dst, env)

	if err := prepareOutput(outputName, env.Overwrite, log); err != nil {
		return err
	}
	if err := writeDocument(doc, outputName, env.OutputFormat); err != nil {
		return err
	}

	// Store processing result for debugging
	env.Rpt.Store(fmt.Sprintf("result-%s%s", refID, filepath.Ext(outputName)), outputName)
	return nil
}

func newRefID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// prepareOutput makes sure output file could be written.
func prepareOutput(outputName string, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(outputName); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		return os.Remove(outputName)
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

func writeDocument(doc *document.Document, outputName string, format config.OutputFmt) (err error) {
	f, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("unable to close output: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if format.XML() {
		err = doc.WriteXHTML(w)
	} else {
		err = doc.WriteHTML(w)
	}
	if err != nil {
		return err
	}
	return w.Flush()
}
