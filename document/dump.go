package document

import (
	"strings"

	"github.com/beevik/etree"

	"exsyn/utils/debug"
)

// String returns a readable tree of the document body followed by tag and
// class usage. It exists solely for manual inspection during debugging.
func (d *Document) String() string {
	if d == nil || d.Root() == nil {
		return "<nil Document>"
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "Document kind[%s] title[%q] blocks[%d]", d.Kind, d.Title(), len(d.Blocks()))

	tags, classes := make(map[string]int), make(map[string]int)
	var walk func(depth int, el *etree.Element)
	walk = func(depth int, el *etree.Element) {
		attrs := make(map[string]string, len(el.Attr))
		for _, a := range el.Attr {
			attrs[a.FullKey()] = a.Value
		}
		tw.Node(depth, el.FullTag(), attrs)

		tags[strings.ToLower(el.Tag)]++
		for c := range strings.FieldsSeq(el.SelectAttrValue("class", "")) {
			classes[c]++
		}

		for _, t := range el.Child {
			switch v := t.(type) {
			case *etree.Element:
				walk(depth+1, v)
			case *etree.CharData:
				if s := strings.TrimSpace(v.Data); len(s) > 0 {
					tw.TextBlock(depth+1, "text", v.Data)
				}
			case *etree.Comment:
				tw.TextBlock(depth+1, "comment", v.Data)
			}
		}
	}
	walk(1, d.Body())

	tw.Counts(0, "Tags", tags)
	tw.Counts(0, "Classes", classes)
	return tw.String()
}
