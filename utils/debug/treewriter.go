// Package debug has helpers producing human readable dumps for debug reports.
package debug

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
)

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	w      *strings.Builder
	indent string
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w:      &strings.Builder{},
		indent: "  ",
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) pad(depth int) {
	for range depth {
		tw.w.WriteString(tw.indent)
	}
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes quoted value, empty value is left as is.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.pad(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Node writes element like line: name followed by key="value" pairs in
// natural key order.
func (tw *TreeWriter) Node(depth int, name string, attrs map[string]string) {
	tw.pad(depth)
	tw.w.WriteString(name)
	for _, k := range naturalKeys(attrs) {
		fmt.Fprintf(tw.w, " %s=%s", k, strconv.Quote(attrs[k]))
	}
	tw.w.WriteByte('\n')
}

// Counts writes label with total followed by one line per key in natural
// order.
func (tw *TreeWriter) Counts(depth int, label string, counts map[string]int) {
	total := 0
	for _, v := range counts {
		total += v
	}
	tw.Line(depth, "%s: %d", label, total)
	for _, k := range naturalKeys(counts) {
		tw.Line(depth+1, "%s: %d", k, counts[k])
	}
}

func naturalKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Sort(natural.StringSlice(keys))
	return keys
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
