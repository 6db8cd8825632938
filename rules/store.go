package rules

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrNotFound is returned when rule with requested label does not exist.
var ErrNotFound = errors.New("rule not found")

// Store owns rule list and hands out sequenced snapshots. Ordering is computed
// once per load or edit, not per use.
type Store struct {
	mu      sync.RWMutex
	version string
	rules   []Rule
	ordered Set
}

// NewStore creates store with a copy of provided rules.
func NewStore(version string, rules []Rule) *Store {
	s := &Store{version: version, rules: slices.Clone(rules)}
	s.ordered = Sequence(s.rules)
	return s
}

// Version returns version of the rule list.
func (s *Store) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns sequenced copy of the current rules.
func (s *Store) Snapshot() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ordered)
}

// Rules returns rules in their configured (not sequenced) order.
func (s *Store) Rules() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rules)
}

// Get returns rule by label.
func (s *Store) Get(label string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(label); i >= 0 {
		return s.rules[i], nil
	}
	return Rule{}, fmt.Errorf("%w: %q", ErrNotFound, label)
}

// Put replaces rule with the same label or appends new one.
func (s *Store) Put(r Rule) error {
	if len(r.Label) == 0 {
		return errors.New("rule label is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(r.Label); i >= 0 {
		s.rules[i] = r
	} else {
		s.rules = append(s.rules, r)
	}
	s.ordered = Sequence(s.rules)
	return nil
}

// Remove deletes rule by label.
func (s *Store) Remove(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(label)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, label)
	}
	s.rules = slices.Delete(s.rules, i, i+1)
	s.ordered = Sequence(s.rules)
	return nil
}

func (s *Store) index(label string) int {
	return slices.IndexFunc(s.rules, func(r Rule) bool { return r.Label == label })
}
