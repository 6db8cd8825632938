package rules

import (
	"cmp"
	"slices"
)

// Set is ordered rule sequence. Engine receives it as read-only snapshot.
type Set []Rule

// Sequence returns copy of the rules ordered by opening delimiter descending,
// so "^^" is always tried before "^". Disabled rules are kept, equal
// delimiters retain input order.
func Sequence(in []Rule) Set {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b Rule) int {
		return cmp.Compare(b.Opening, a.Opening)
	})
	return out
}

// Enabled returns only enabled rules preserving order.
func (s Set) Enabled() Set {
	out := make(Set, 0, len(s))
	for _, r := range s {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Labels is mostly useful for logging.
func (s Set) Labels() []string {
	labels := make([]string, 0, len(s))
	for _, r := range s {
		labels = append(labels, r.Label)
	}
	return labels
}
