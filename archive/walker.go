// Package archive visits documents stored inside zip archives.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/encoding"
)

// WalkFunc is called for every regular file in the archive visited by Walk.
// The name argument is entry name decoded for display and output paths, raw
// name is available in file header. Returning an error stops the walk.
type WalkFunc func(archive string, file *zip.File, name string) error

// Walk visits regular files in archive which names start with prefix. Entry
// names not flagged as UTF-8 are decoded using cp when provided. Archives
// with absolute or escaping entry names are rejected as a whole.
func Walk(ctx context.Context, archive, prefix string, cp encoding.Encoding, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !isSafePath(f.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		name, _ := DecodeName(f, cp)
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := walkFn(archive, f, name); err != nil {
			return err
		}
	}
	return nil
}

// DecodeName returns entry name converted from cp. Raw name is returned
// together with decoding error.
func DecodeName(f *zip.File, cp encoding.Encoding) (string, error) {
	if cp == nil || !f.NonUTF8 {
		return f.Name, nil
	}
	n, err := cp.NewDecoder().String(f.Name)
	if err != nil {
		return f.Name, fmt.Errorf("unable to decode entry name %q: %w", f.Name, err)
	}
	return n, nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
