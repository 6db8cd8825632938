package process

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"exsyn/config"
	"exsyn/state"
)

// buildOutputPath returns output file name for processed document. Name is
// either source name with new extension or result of user template, which
// may introduce subdirectories. Source directory structure is kept unless
// NoDirs is requested. Every path segment is cleaned and optionally
// transliterated.
func buildOutputPath(values Values, src, dst string, env *state.LocalEnv) string {
	outDir := dst
	if !env.NoDirs {
		outDir = filepath.Join(dst, filepath.Dir(src))
	}
	ext := env.OutputFormat.Ext()

	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if tmpl := env.Cfg.Document.OutputNameTemplate; len(tmpl) > 0 {
		expanded, err := expandTemplate(config.OutputNameTemplateFieldName, tmpl, values)
		if err != nil {
			env.Log.Warn("Unable to prepare output filename, using default", zap.Error(err))
		} else if segments := splitPath(filepath.FromSlash(expanded)); len(segments) > 0 {
			parts := make([]string, 0, len(segments)+1)
			parts = append(parts, outDir)
			for _, s := range segments[:len(segments)-1] {
				parts = append(parts, cleanPathSegment(s, env))
			}
			parts = append(parts, cleanPathSegment(segments[len(segments)-1], env)+ext)
			return filepath.Join(parts...)
		}
	}
	return filepath.Join(outDir, cleanPathSegment(name, env)+ext)
}

// splitPath breaks relative path into non-empty segments, "." and ".." are
// dropped so template cannot escape destination.
func splitPath(path string) []string {
	var segments []string
	for s := range strings.SplitSeq(path, string(filepath.Separator)) {
		if s = strings.TrimSpace(s); len(s) == 0 || s == "." || s == ".." {
			continue
		}
		segments = append(segments, s)
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
