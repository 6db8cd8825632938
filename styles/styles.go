// Package styles checks inline style text carried by rules and produces
// companion stylesheet for rule wrappers.
package styles

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/multierr"

	"exsyn/rules"
)

// ErrMalformed is returned when inline style cannot be parsed as declaration
// list.
var ErrMalformed = errors.New("malformed inline style")

// Declaration is single property: value pair of inline style.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important;"
	}
	return d.Property + ": " + d.Value + ";"
}

// Parse splits inline style into declarations. Problems do not stop parsing,
// everything recognized is returned together with combined error.
func Parse(style string) (decls []Declaration, err error) {
	p := css.NewParser(parse.NewInput(strings.NewReader(style)), true)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if !p.HasParseError() {
				// end of input
				return decls, err
			}
			err = multierr.Append(err, fmt.Errorf("%w: %v", ErrMalformed, p.Err()))
		case css.DeclarationGrammar:
			d, ok := declaration(string(data), p.Values())
			if !ok {
				err = multierr.Append(err, fmt.Errorf("%w: property %q has no value", ErrMalformed, string(data)))
				continue
			}
			decls = append(decls, d)
		case css.CustomPropertyGrammar:
			var value string
			if vals := p.Values(); len(vals) > 0 {
				value = strings.TrimSpace(string(vals[0].Data))
			}
			decls = append(decls, Declaration{Property: string(data), Value: value})
		case css.AtRuleGrammar, css.BeginAtRuleGrammar:
			err = multierr.Append(err, fmt.Errorf("%w: at-rule %q is not allowed", ErrMalformed, string(data)))
		}
	}
}

func declaration(name string, values []css.Token) (Declaration, bool) {
	d := Declaration{Property: name}
	// trailing "!important" comes as delimiter followed by identifier
	if n := len(values); n >= 2 && values[n-2].TokenType == css.DelimToken && string(values[n-2].Data) == "!" &&
		strings.EqualFold(string(values[n-1].Data), "important") {
		d.Important = true
		values = values[:n-2]
	}
	var b strings.Builder
	for _, v := range values {
		b.Write(v.Data)
	}
	d.Value = strings.TrimSpace(b.String())
	return d, len(d.Value) > 0
}

// Validate reports whether inline style is a clean declaration list. Empty
// style is valid.
func Validate(style string) error {
	if len(strings.TrimSpace(style)) == 0 {
		return nil
	}
	_, err := Parse(style)
	return err
}

// Normalize rewrites style as "prop: value;" declarations separated by space.
func Normalize(style string) (string, error) {
	decls, err := Parse(style)
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, " "), err
}

// Stylesheet produces CSS with one class rule per enabled rule which can be
// applied and has style. Selector combines scope class with the first rule
// specific class, so stylesheet rules never leak outside of wrappers.
func Stylesheet(set rules.Set) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("/* generated for inline syntax rules */\n")
	for _, r := range set {
		if !r.Enabled || len(strings.TrimSpace(r.Style)) == 0 || r.Validate() != nil {
			continue
		}
		decls, err := Parse(r.Style)
		if err != nil || len(decls) == 0 {
			continue
		}
		classes := r.ClassList()
		selector := "." + rules.ScopeClass
		if len(classes) > 1 {
			selector += "." + classes[1]
		}
		fmt.Fprintf(buf, "\n/* %s */\n%s%s {\n", r.Label, strings.ToLower(r.Tag), selector)
		for _, d := range decls {
			fmt.Fprintf(buf, "  %s\n", d)
		}
		buf.WriteString("}\n")
	}
	return buf.Bytes()
}
