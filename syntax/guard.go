package syntax

import (
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// MathClass marks inline math containers produced by the renderer.
const MathClass = "math"

// content of these elements is never touched
var verbatimTags = []string{"pre", "code", "math", "script", "style", "textarea"}

// Eligible reports whether element content may be inspected for
// substitutions. Verbatim containers and math spans are excluded together
// with all their descendants.
func Eligible(el *etree.Element) bool {
	if el == nil {
		return false
	}
	tag := strings.ToLower(el.Tag)
	if slices.Contains(verbatimTags, tag) {
		return false
	}
	if tag == "span" && HasClass(el, MathClass) {
		return false
	}
	return true
}

// HasClass checks element class attribute.
func HasClass(el *etree.Element, class string) bool {
	return slices.Contains(strings.Fields(el.SelectAttrValue("class", "")), class)
}
