package syntax

import (
	"strings"

	"github.com/beevik/etree"

	"exsyn/rules"
)

// segment maps child token to the byte range it occupies in container view.
type segment struct {
	start, end int
	tok        etree.Token
	text       string
	cdata      bool
	isText     bool
}

// buildView flattens child tokens into the string matcher runs on. Character
// data contributes its text, anything else contributes single placeholder
// rune, so markup is never visible to the matcher and child elements behave
// as opaque words.
func buildView(children []etree.Token) (string, []segment) {
	var b strings.Builder
	segs := make([]segment, 0, len(children))
	for _, t := range children {
		s := segment{start: b.Len(), tok: t}
		if cd, ok := t.(*etree.CharData); ok {
			s.isText, s.text, s.cdata = true, cd.Data, cd.IsCData()
			b.WriteString(cd.Data)
		} else {
			b.WriteRune(rules.Placeholder)
		}
		s.end = b.Len()
		segs = append(segs, s)
	}
	return b.String(), segs
}

// cut returns tokens covering [from, to) of the view. Text is split, other
// tokens are never split since delimiters cannot contain placeholder.
func cut(segs []segment, from, to int) []etree.Token {
	var out []etree.Token
	for _, s := range segs {
		if s.end <= from || s.start >= to {
			continue
		}
		if !s.isText {
			out = append(out, s.tok)
			continue
		}
		lo, hi := max(from, s.start)-s.start, min(to, s.end)-s.start
		if lo == hi {
			continue
		}
		if s.cdata {
			out = append(out, etree.NewCData(s.text[lo:hi]))
		} else {
			out = append(out, etree.NewText(s.text[lo:hi]))
		}
	}
	return out
}

// walker applies single rule matcher to a subtree.
type walker struct {
	m       *Matcher
	tag     string
	classes string
	style   string
	wrapped int
}

func newWalker(m *Matcher) *walker {
	r := m.Rule()
	return &walker{
		m:       m,
		tag:     strings.ToLower(strings.TrimSpace(r.Tag)),
		classes: strings.Join(r.ClassList(), " "),
		style:   r.Style,
	}
}

// walk processes children before the element itself, so element view always
// reflects already processed descendants.
func (w *walker) walk(el *etree.Element) {
	if !Eligible(el) {
		return
	}
	for _, child := range el.ChildElements() {
		w.walk(child)
	}

	view, segs := buildView(el.Child)
	spans := w.m.Find(view)
	if len(spans) == 0 {
		return
	}
	detachChildren(el)
	for _, t := range w.splice(view, segs, spans) {
		el.AddChild(t)
	}
	w.wrapped += len(spans)
}

// splice returns replacement sequence for detached children: text before
// every match, wrapper element with the text between delimiters, text after
// the last match.
func (w *walker) splice(view string, segs []segment, spans []Span) []etree.Token {
	seq := make([]etree.Token, 0, len(segs)+2*len(spans)+1)
	pos := 0
	for _, sp := range spans {
		seq = append(seq, cut(segs, pos, sp.Start)...)
		wrapper := w.wrapper()
		for _, t := range cut(segs, sp.Start+w.m.opening, sp.End-w.m.closing) {
			wrapper.AddChild(t)
		}
		seq = append(seq, wrapper)
		pos = sp.End
	}
	return append(seq, cut(segs, pos, len(view))...)
}

func (w *walker) wrapper() *etree.Element {
	el := etree.NewElement(w.tag)
	el.CreateAttr("class", w.classes)
	if len(w.style) > 0 {
		el.CreateAttr("style", w.style)
	}
	return el
}

func detachChildren(el *etree.Element) {
	for len(el.Child) > 0 {
		el.RemoveChildAt(len(el.Child) - 1)
	}
}
