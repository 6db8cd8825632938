package syntax

import (
	"fmt"
	"regexp"

	"exsyn/rules"
)

// Character classes used to build matchers. Line and paragraph separators
// are not horizontal space, so no match can ever cross a line break.
const (
	nonSpace   = `[^\s\p{Z}]`
	horizontal = `[\t\v\f \p{Zs}]`
)

// Span is a single match: byte offsets in the matched text, full matched text
// and text between delimiters.
type Span struct {
	Start int
	End   int
	Full  string
	Inner string
}

// Matcher finds delimited spans for a single rule.
type Matcher struct {
	rule    rules.Rule
	re      *regexp.Regexp
	opening int
	closing int
}

// Compile builds matcher for the rule. Delimiters are always treated
// literally. Match is the shortest run "opening word (space word)* closing"
// which does not contain line breaks and is never empty.
func Compile(rule rules.Rule) (*Matcher, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	expr := regexp.QuoteMeta(rule.Opening) +
		nonSpace + `+?(?:` + horizontal + `+` + nonSpace + `+?)*` +
		regexp.QuoteMeta(rule.Closing)
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rules.ErrMalformedDelimiter, err)
	}
	return &Matcher{
		rule:    rule,
		re:      re,
		opening: len(rule.Opening),
		closing: len(rule.Closing),
	}, nil
}

// Rule returns rule matcher was built for.
func (m *Matcher) Rule() rules.Rule {
	return m.rule
}

// Find returns all non-overlapping matches left to right.
func (m *Matcher) Find(text string) []Span {
	locs := m.re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		spans = append(spans, Span{
			Start: loc[0],
			End:   loc[1],
			Full:  text[loc[0]:loc[1]],
			Inner: text[loc[0]+m.opening : loc[1]-m.closing],
		})
	}
	return spans
}
