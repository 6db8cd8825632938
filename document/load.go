package document

import (
	"bytes"
	"context"
	"fmt"
	stdhtml "html"
	"io"

	"github.com/beevik/etree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Load reads source document of requested kind and turns it into element
// tree. Markdown is rendered to HTML first, so every kind ends up with the
// same html/head/body shape.
func Load(ctx context.Context, r io.Reader, kind Kind, log *zap.Logger) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		d   *Document
		err error
	)
	switch kind {
	case KindMarkdown:
		d, err = loadMarkdown(r)
	case KindHTML:
		d, err = loadHTML(r)
	case KindXHTML:
		d, err = loadXHTML(r)
	default:
		return nil, fmt.Errorf("unsupported document kind: %s", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load %s document: %w", kind, err)
	}
	d.Kind = kind

	log.Debug("Document loaded", zap.Stringer("kind", kind), zap.Int("blocks", len(d.Blocks())))
	return d, nil
}

// markdown renders CommonMark with GFM tables, task lists, autolinks and TeX
// math. Strikethrough is left out: it claims single "~" which is subscript
// delimiter. Raw HTML is not passed through.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.TaskList, extension.Linkify, &mathExtension{}),
	goldmark.WithRendererOptions(gmhtml.WithXHTML()),
)

func loadMarkdown(r io.Reader) (*Document, error) {
	// drop BOM, honor UTF-16 when marked
	src, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title></title></head><body>`)
	if err := markdown.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("unable to render markdown: %w", err)
	}
	buf.WriteString(`</body></html>`)

	// rendered html is always utf-8
	return parseHTML(&buf)
}

func loadHTML(r io.Reader) (*Document, error) {
	// encoding from BOM or meta element, defaults to windows-1252 per HTML5
	cr, err := charset.NewReader(r, "text/html")
	if err != nil {
		return nil, err
	}
	return parseHTML(cr)
}

func parseHTML(r io.Reader) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if t := fromHTML(c); t != nil {
			doc.AddChild(t)
		}
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("no root element")
	}
	return &Document{doc: doc}, nil
}

func loadXHTML(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	// Respect HTML named character references, hand made XHTML often does
	// not declare them
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Entity:        htmlEntities,
		Permissive:    true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("no root element")
	}
	return &Document{doc: doc}, nil
}

var htmlEntities = prepareHTMLNamedEntities()

// prepareHTMLNamedEntities resolves commonly used HTML named character
// references. XML predefined ones are handled by parser itself.
func prepareHTMLNamedEntities() map[string]string {
	names := []string{
		"nbsp", "ensp", "emsp", "thinsp", "zwnj", "zwj", "lrm", "rlm", "shy",
		"ndash", "mdash", "hellip", "bull", "middot", "prime", "Prime",
		"lsquo", "rsquo", "sbquo", "ldquo", "rdquo", "bdquo", "laquo", "raquo", "lsaquo", "rsaquo",
		"copy", "reg", "trade", "deg", "plusmn", "times", "divide", "micro", "para", "sect",
		"cent", "pound", "euro", "yen", "curren",
		"iexcl", "iquest", "ordf", "ordm", "sup1", "sup2", "sup3", "frac14", "frac12", "frac34",
		"larr", "rarr", "uarr", "darr", "harr", "lArr", "rArr", "hArr",
		"minus", "le", "ge", "ne", "asymp", "infin", "sum", "prod", "radic", "part", "int",
		"alpha", "beta", "gamma", "delta", "epsilon", "lambda", "mu", "pi", "sigma", "omega",
		"Alpha", "Beta", "Gamma", "Delta", "Lambda", "Pi", "Sigma", "Omega",
		"dagger", "Dagger", "permil", "loz", "spades", "clubs", "hearts", "diams",
	}
	entities := make(map[string]string, len(names))
	for _, name := range names {
		if v := stdhtml.UnescapeString("&" + name + ";"); v != "&"+name+";" {
			entities[name] = v
		}
	}
	return entities
}
