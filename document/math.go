package document

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMath is the kind of inline math node.
var KindMath = ast.NewNodeKind("Math")

const mathPriority = 500

// Math is $inline$ or $$display$$ TeX kept as is. It is rendered into
// span.math, so inline syntax is never applied inside.
type Math struct {
	ast.BaseInline
	Display bool
	Value   text.Segment
}

func (n *Math) Kind() ast.NodeKind {
	return KindMath
}

func (n *Math) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Value": string(n.Value.Value(source))}, nil)
}

type mathParser struct{}

func (p *mathParser) Trigger() []byte {
	return []byte{'$'}
}

// Parse recognizes math on a single line. Inline content must not start or
// end with a space and closing "$" must not be followed by a digit, so
// "$5 and $6" stays text.
func (p *mathParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, segment := block.PeekLine()

	n := 1
	if len(line) > 1 && line[1] == '$' {
		n = 2
	}
	if len(line) <= 2*n {
		return nil
	}
	if n == 1 && isSpace(line[1]) {
		return nil
	}

	for i := n; i+n <= len(line); i++ {
		if line[i] == '\\' {
			i++
			continue
		}
		if line[i] != '$' {
			continue
		}
		if n == 2 && (i+1 >= len(line) || line[i+1] != '$') {
			continue
		}
		if i == n {
			// empty
			return nil
		}
		if n == 1 {
			if isSpace(line[i-1]) || (i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9') {
				continue
			}
		}
		block.Advance(i + n)
		return &Math{
			Display: n == 2,
			Value:   text.NewSegment(segment.Start+n, segment.Start+i),
		}
	}
	return nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

type mathRenderer struct{}

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMath, r.render)
}

func (r *mathRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	m := n.(*Math)
	class := "math math-inline"
	if m.Display {
		class = "math math-display"
	}
	_, _ = w.WriteString(`<span class="` + class + `">`)
	_, _ = w.Write(util.EscapeHTML(m.Value.Value(source)))
	_, _ = w.WriteString(`</span>`)
	return ast.WalkSkipChildren, nil
}

type mathExtension struct{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(util.Prioritized(&mathParser{}, mathPriority)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&mathRenderer{}, mathPriority)),
	)
}
