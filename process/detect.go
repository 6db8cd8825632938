package process

import (
	"archive/zip"
	"bytes"
	"io"
	"os"

	"github.com/h2non/filetype"

	"exsyn/document"
)

// filetype needs no more than this to recognize anything it knows about.
const headerSize = 262

var xhtmlType = filetype.NewType("xhtml", "application/xhtml+xml")

func init() {
	// Documents which declare themselves XML are read with XML parser even
	// if extension says html
	filetype.AddMatcher(xhtmlType, func(buf []byte) bool {
		buf = bytes.TrimPrefix(buf, []byte{0xEF, 0xBB, 0xBF})
		buf = bytes.TrimLeft(buf, " \t\r\n")
		if !bytes.HasPrefix(buf, []byte("<?xml")) {
			return false
		}
		return bytes.Contains(bytes.ToLower(buf), []byte("<html")) ||
			bytes.Contains(buf, []byte("http://www.w3.org/1999/xhtml"))
	})
}

func readHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header, err := readHeader(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(header, "zip"), nil
}

// refineKind checks content for documents which extension could be
// misleading.
func refineKind(kind document.Kind, header []byte) document.Kind {
	if kind == document.KindHTML && filetype.Is(header, xhtmlType.Extension) {
		return document.KindXHTML
	}
	return kind
}

// documentFileKind returns kind of the document stored in path, or
// KindUnknown when it is not something we could process.
func documentFileKind(path string) (document.Kind, error) {
	kind := document.KindFromPath(path)
	if kind == document.KindUnknown {
		return kind, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return document.KindUnknown, err
	}
	defer f.Close()

	header, err := readHeader(f)
	if err != nil {
		return document.KindUnknown, err
	}
	return refineKind(kind, header), nil
}

// documentKindInArchive is documentFileKind for archive entries.
func documentKindInArchive(f *zip.File, name string) (document.Kind, error) {
	kind := document.KindFromPath(name)
	if kind == document.KindUnknown {
		return kind, nil
	}

	r, err := f.Open()
	if err != nil {
		return document.KindUnknown, err
	}
	defer r.Close()

	header, err := readHeader(r)
	if err != nil {
		return document.KindUnknown, err
	}
	return refineKind(kind, header), nil
}
