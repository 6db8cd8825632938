// Package document loads rendered documents (Markdown, HTML, XHTML) into
// element trees, splits them into blocks for syntax processing and writes
// them back.
package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

const xhtmlNamespace = "http://www.w3.org/1999/xhtml"

// Document is loaded source document.
type Document struct {
	Kind Kind
	doc  *etree.Document
}

// Root returns top level element, normally html.
func (d *Document) Root() *etree.Element {
	return d.doc.Root()
}

// Body returns body element or root when document has no body.
func (d *Document) Body() *etree.Element {
	root := d.Root()
	if root == nil {
		return nil
	}
	if body := findLocal(root, "body"); body != nil {
		return body
	}
	return root
}

// Blocks returns top-level elements of the body, one per rendered block.
func (d *Document) Blocks() []*etree.Element {
	body := d.Body()
	if body == nil {
		return nil
	}
	return body.ChildElements()
}

// Title returns document title: title element text or text of the first
// level one heading.
func (d *Document) Title() string {
	root := d.Root()
	if root == nil {
		return ""
	}
	if head := findLocal(root, "head"); head != nil {
		if t := findLocal(head, "title"); t != nil {
			if s := strings.TrimSpace(textOf(t)); len(s) > 0 {
				return s
			}
		}
	}
	if h1 := findDeep(d.Body(), "h1"); h1 != nil {
		return strings.Join(strings.Fields(textOf(h1)), " ")
	}
	return ""
}

// EmbedStylesheet adds style element with provided CSS at the end of the
// document head, head is created when absent.
func (d *Document) EmbedStylesheet(css []byte) {
	root := d.Root()
	if root == nil || len(css) == 0 {
		return
	}
	head := findLocal(root, "head")
	if head == nil {
		head = etree.NewElement("head")
		root.InsertChildAt(0, head)
	}
	style := head.CreateElement("style")
	style.CreateAttr("type", "text/css")
	style.SetText(string(css))
}

// WriteXHTML serializes document as XHTML.
func (d *Document) WriteXHTML(w io.Writer) error {
	if d.Root() == nil {
		return fmt.Errorf("document has no root element")
	}
	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	out.CreateDirective("DOCTYPE html")

	root := d.Root().Copy()
	if strings.EqualFold(root.Tag, "html") && root.SelectAttr("xmlns") == nil && len(root.Space) == 0 {
		root.CreateAttr("xmlns", xhtmlNamespace)
	}
	out.SetRoot(root)
	out.WriteSettings = etree.WriteSettings{
		CanonicalEndTags: true,
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write xhtml: %w", err)
	}
	return nil
}

// WriteHTML serializes document as HTML5.
func (d *Document) WriteHTML(w io.Writer) error {
	if d.Root() == nil {
		return fmt.Errorf("document has no root element")
	}
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(toHTML(d.Root()))
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("unable to write html: %w", err)
	}
	return nil
}

func findLocal(parent *etree.Element, tag string) *etree.Element {
	for _, c := range parent.ChildElements() {
		if strings.EqualFold(c.Tag, tag) {
			return c
		}
	}
	return nil
}

func findDeep(parent *etree.Element, tag string) *etree.Element {
	if parent == nil {
		return nil
	}
	for _, c := range parent.ChildElements() {
		if strings.EqualFold(c.Tag, tag) {
			return c
		}
		if f := findDeep(c, tag); f != nil {
			return f
		}
	}
	return nil
}

// textOf concatenates all character data under the element.
func textOf(el *etree.Element) string {
	var b strings.Builder
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, t := range e.Child {
			switch v := t.(type) {
			case *etree.CharData:
				b.WriteString(v.Data)
			case *etree.Element:
				walk(v)
			}
		}
	}
	walk(el)
	return b.String()
}
