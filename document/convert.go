package document

import (
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fromHTML copies parsed HTML node tree into etree element. Doctype is
// dropped, it is recreated on output.
func fromHTML(n *html.Node) etree.Token {
	switch n.Type {
	case html.ElementNode:
		el := etree.NewElement(n.Data)
		for _, a := range n.Attr {
			key := a.Key
			if len(a.Namespace) > 0 {
				key = a.Namespace + ":" + a.Key
			}
			el.CreateAttr(key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := fromHTML(c); t != nil {
				el.AddChild(t)
			}
		}
		return el
	case html.TextNode:
		return etree.NewText(n.Data)
	case html.CommentNode:
		return etree.NewComment(n.Data)
	}
	return nil
}

// toHTML is reverse of fromHTML used for HTML serialization.
func toHTML(t etree.Token) *html.Node {
	switch v := t.(type) {
	case *etree.Element:
		tag := strings.ToLower(v.Tag)
		n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
		for _, a := range v.Attr {
			if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
				continue
			}
			n.Attr = append(n.Attr, html.Attribute{Namespace: a.Space, Key: a.Key, Val: a.Value})
		}
		for _, c := range v.Child {
			if cn := toHTML(c); cn != nil {
				n.AppendChild(cn)
			}
		}
		return n
	case *etree.CharData:
		return &html.Node{Type: html.TextNode, Data: v.Data}
	case *etree.Comment:
		return &html.Node{Type: html.CommentNode, Data: v.Data}
	}
	return nil
}
