package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind of source document.
type Kind int

const (
	KindUnknown Kind = iota
	KindMarkdown
	KindHTML
	KindXHTML
)

var kindNames = map[Kind]string{
	KindUnknown:  "unknown",
	KindMarkdown: "markdown",
	KindHTML:     "html",
	KindXHTML:    "xhtml",
}

var kindExtensions = map[string]Kind{
	".md":       KindMarkdown,
	".markdown": KindMarkdown,
	".mdown":    KindMarkdown,
	".html":     KindHTML,
	".htm":      KindHTML,
	".xhtml":    KindXHTML,
	".xht":      KindXHTML,
	".xml":      KindXHTML,
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindFromPath detects document kind by file name extension.
func KindFromPath(name string) Kind {
	if k, ok := kindExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return k
	}
	return KindUnknown
}
