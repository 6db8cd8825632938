package config

import (
	"errors"
	"fmt"
	"strings"
)

// OutputFmt is requested output type.
type OutputFmt int

const (
	OutputFmtHtml OutputFmt = iota
	OutputFmtXhtml
)

var ErrInvalidOutputFmt = errors.New("not a valid OutputFmt")

var outputFmtNames = []string{"html", "xhtml"}

// OutputFmtNames returns a list of possible string values of OutputFmt.
func OutputFmtNames() []string {
	return append([]string(nil), outputFmtNames...)
}

func (o OutputFmt) String() string {
	if o < 0 || int(o) >= len(outputFmtNames) {
		return fmt.Sprintf("OutputFmt(%d)", o)
	}
	return outputFmtNames[o]
}

// ParseOutputFmt attempts to convert a string to a OutputFmt.
func ParseOutputFmt(name string) (OutputFmt, error) {
	for i, n := range outputFmtNames {
		if strings.EqualFold(n, name) {
			return OutputFmt(i), nil
		}
	}
	return OutputFmt(0), fmt.Errorf("%s is %w", name, ErrInvalidOutputFmt)
}

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtHtml:
		return ".html"
	case OutputFmtXhtml:
		return ".xhtml"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// XML reports whether output must be well formed XML.
func (o OutputFmt) XML() bool {
	return o == OutputFmtXhtml
}
