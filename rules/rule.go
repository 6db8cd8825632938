// Package rules defines inline syntax rules, their validation and ordering.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/multierr"
)

// ScopeClass is always the first class of every wrapper element.
const ScopeClass = "extended-syntax"

// Placeholder stands for a non-text child when container content is matched,
// delimiters may not contain it.
const Placeholder = '\uFFFC'

var (
	// ErrRejected is returned when rule target tag is outside of the permitted
	// envelope.
	ErrRejected = errors.New("configuration rejected")
	// ErrMalformedDelimiter is returned when rule delimiter cannot form usable
	// pattern.
	ErrMalformedDelimiter = errors.New("malformed delimiter")
)

// Rule describes single inline syntax: text between Opening and Closing
// delimiters is wrapped into Tag element with Classes and Style.
type Rule struct {
	Label       string `yaml:"label" validate:"required"`
	Description string `yaml:"description,omitempty"`
	Enabled     bool   `yaml:"enabled"`
	Opening     string `yaml:"opening"`
	Closing     string `yaml:"closing"`
	Tag         string `yaml:"tag"`
	Style       string `yaml:"style,omitempty"`
	Classes     string `yaml:"classes,omitempty"`
}

// Validate checks rule before it could be applied. Target tag must belong to
// the permitted set and must not be denied, delimiters must be usable. All
// found problems are reported.
func (r *Rule) Validate() (err error) {
	if _, e := ParseTag(r.Tag); e != nil {
		err = multierr.Append(err, e)
	}
	for _, d := range []struct{ name, value string }{
		{"opening", r.Opening},
		{"closing", r.Closing},
	} {
		switch {
		case len(d.value) == 0:
			err = multierr.Append(err, fmt.Errorf("%w: empty %s delimiter", ErrMalformedDelimiter, d.name))
		case strings.TrimSpace(d.value) != d.value:
			err = multierr.Append(err, fmt.Errorf("%w: %s delimiter %q has surrounding whitespace", ErrMalformedDelimiter, d.name, d.value))
		case strings.ContainsRune(d.value, Placeholder):
			err = multierr.Append(err, fmt.Errorf("%w: %s delimiter %q contains reserved character", ErrMalformedDelimiter, d.name, d.value))
		}
	}
	return err
}

// ClassList returns classes for the wrapper element: scope class first, then
// configured classes. Rules without classes get one derived from the label.
func (r *Rule) ClassList() []string {
	classes := []string{ScopeClass}
	configured := strings.Fields(r.Classes)
	if len(configured) == 0 {
		if s := slug.Make(r.Label); len(s) > 0 {
			configured = []string{ScopeClass + "-" + s}
		}
	}
	for _, c := range configured {
		if c != ScopeClass {
			classes = append(classes, c)
		}
	}
	return classes
}

func (r Rule) String() string {
	return fmt.Sprintf("%s [%s...%s] -> <%s>", r.Label, r.Opening, r.Closing, strings.ToLower(r.Tag))
}
