// Package syntax replaces custom inline delimiter syntax in rendered document
// trees with styled wrapper elements.
package syntax

import (
	"maps"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"exsyn/rules"
)

// DefaultContainers lists tags whose content is searched for custom syntax.
var DefaultContainers = []string{"p", "h1", "h2", "h3", "h4", "h5", "h6", "ol", "ul", "table", "span", "div"}

// SkippedRule records rule which was not applied during the pass and why.
type SkippedRule struct {
	Label string
	Err   error
}

// Stats describes results of applying rules to one or more blocks.
type Stats struct {
	Blocks            int
	Containers        int
	Wrapped           map[string]int
	Skipped           []SkippedRule
	NoEligibleContent bool
}

// Total returns number of wrapper elements created.
func (s Stats) Total() (n int) {
	for _, v := range s.Wrapped {
		n += v
	}
	return n
}

func (s *Stats) merge(o Stats) {
	if s.Wrapped == nil {
		s.Wrapped = make(map[string]int)
	}
	s.Blocks += o.Blocks
	s.Containers += o.Containers
	for k, v := range o.Wrapped {
		s.Wrapped[k] += v
	}
	s.NoEligibleContent = s.NoEligibleContent && o.NoEligibleContent
}

// Engine applies rule sets to rendered blocks. It keeps no state between
// invocations.
type Engine struct {
	containers []string
	log        *zap.Logger
}

// New creates engine searching for syntax inside containers (DefaultContainers
// when empty).
func New(containers []string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if len(containers) == 0 {
		containers = DefaultContainers
	}
	e := &Engine{log: log.Named("engine")}
	for _, c := range containers {
		if c = strings.ToLower(strings.TrimSpace(c)); len(c) > 0 && !slices.Contains(e.containers, c) {
			e.containers = append(e.containers, c)
		}
	}
	return e
}

// Pass holds matchers compiled for a single rule set snapshot.
type Pass struct {
	engine   *Engine
	matchers []*Matcher
	skipped  []SkippedRule
}

// Prepare compiles enabled rules in sequence order. Rules which cannot be
// applied are reported and left out, the rest of the set is still usable.
func (e *Engine) Prepare(set rules.Set) *Pass {
	p := &Pass{engine: e}
	for _, r := range set {
		if !r.Enabled {
			continue
		}
		m, err := Compile(r)
		if err != nil {
			e.log.Warn("Rule skipped", zap.String("rule", r.Label), zap.Error(err))
			p.skipped = append(p.skipped, SkippedRule{Label: r.Label, Err: err})
			continue
		}
		p.matchers = append(p.matchers, m)
	}
	return p
}

// Skipped returns rules excluded from the pass.
func (p *Pass) Skipped() []SkippedRule {
	return slices.Clone(p.skipped)
}

// Apply substitutes custom syntax inside the block in place. Rules are
// applied strictly one after another, every rule sees wrappers produced by
// previous ones.
func (p *Pass) Apply(block *etree.Element) Stats {
	stats := Stats{Blocks: 1, Wrapped: make(map[string]int), Skipped: p.Skipped()}

	containers := p.engine.collect(block)
	if len(containers) == 0 {
		stats.NoEligibleContent = true
		return stats
	}
	stats.Containers = len(containers)

	for _, m := range p.matchers {
		w := newWalker(m)
		for _, c := range containers {
			w.walk(c)
		}
		if w.wrapped > 0 {
			stats.Wrapped[m.Rule().Label] += w.wrapped
		}
	}

	if stats.Total() > 0 {
		p.engine.log.Debug("Block processed",
			zap.String("block", block.Tag), zap.Int("containers", stats.Containers), zap.Int("wrapped", stats.Total()))
	}
	return stats
}

// ApplyAll applies pass to every block accumulating results.
func (p *Pass) ApplyAll(blocks []*etree.Element) Stats {
	stats := Stats{Wrapped: make(map[string]int), Skipped: p.Skipped(), NoEligibleContent: true}
	for _, b := range blocks {
		stats.merge(p.Apply(b))
	}
	return stats
}

// Apply is a shortcut to prepare a pass and apply it to a single block.
func (e *Engine) Apply(block *etree.Element, set rules.Set) Stats {
	return e.Prepare(set).Apply(block)
}

// ApplyAll prepares a pass once and applies it to every block.
func (e *Engine) ApplyAll(blocks []*etree.Element, set rules.Set) Stats {
	return e.Prepare(set).ApplyAll(blocks)
}

// Containers returns tag names engine searches in.
func (e *Engine) Containers() []string {
	return slices.Clone(e.containers)
}

// collect finds top-most eligible containers in the block, block itself
// included. Verbatim subtrees are not searched.
func (e *Engine) collect(block *etree.Element) []*etree.Element {
	var found []*etree.Element
	var visit func(el *etree.Element)
	visit = func(el *etree.Element) {
		if !Eligible(el) {
			return
		}
		if slices.Contains(e.containers, strings.ToLower(el.Tag)) {
			found = append(found, el)
			return
		}
		for _, child := range el.ChildElements() {
			visit(child)
		}
	}
	if block != nil {
		visit(block)
	}
	return found
}

// WrappedLabels returns labels of rules which produced wrappers, sorted.
func (s Stats) WrappedLabels() []string {
	return slices.Sorted(maps.Keys(s.Wrapped))
}
