package dedupe

import (
	"log/slog"

	"typelift/internal/metamodel"
)

// AncestorSource enumerates every transitive supertype of a node.
type AncestorSource interface {
	Ancestors(n *metamodel.TypeNode) []*metamodel.TypeNode
}

// Removal is one feature dropped from Type because Ancestor already
// declares an equal one.
type Removal struct {
	Type     string `json:"type"`
	Feature  string `json:"feature"`
	Ancestor string `json:"ancestor"`
}

type Stats struct {
	Checked  int       `json:"checked"`
	Skipped  int       `json:"skipped"`
	Removals []Removal `json:"removals,omitempty"`
}

func (s Stats) Removed() int {
	return len(s.Removals)
}

// Deduplicator strips directly declared features that are already visible
// through inheritance, whatever put them there.
type Deduplicator struct {
	ancestors AncestorSource
	eq        metamodel.Predicate
	logger    *slog.Logger
}

func New(ancestors AncestorSource, eq metamodel.Predicate, logger *slog.Logger) *Deduplicator {
	if eq == nil {
		eq = metamodel.Structural
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{
		ancestors: ancestors,
		eq:        eq,
		logger:    logger.With("component", "dedupe"),
	}
}

func (d *Deduplicator) DedupeAll(nodes []*metamodel.TypeNode) Stats {
	var stats Stats
	for _, n := range nodes {
		if n.Sealed() {
			stats.Skipped++
			continue
		}
		stats.Checked++
		stats.Removals = append(stats.Removals, d.dedupe(n)...)
	}
	return stats
}

func (d *Deduplicator) dedupe(n *metamodel.TypeNode) []Removal {
	ancestors := d.ancestors.Ancestors(n)
	if len(ancestors) == 0 || len(n.Features()) == 0 {
		return nil
	}

	var inherited []*metamodel.Feature
	owner := make(map[*metamodel.Feature]string)
	for _, a := range ancestors {
		for _, f := range a.Features() {
			inherited = append(inherited, f)
			owner[f] = a.Name
		}
	}

	var removals []Removal
	for _, f := range n.RemoveFeatures(inherited, d.eq) {
		r := Removal{Type: n.Name, Feature: f.Key(), Ancestor: d.ownerOf(f, inherited, owner)}
		removals = append(removals, r)
		d.logger.Debug("removed inherited duplicate", "type", r.Type, "feature", r.Feature, "ancestor", r.Ancestor)
	}
	return removals
}

// ownerOf names the nearest ancestor declaring a feature equal to f.
func (d *Deduplicator) ownerOf(f *metamodel.Feature, inherited []*metamodel.Feature, owner map[*metamodel.Feature]string) string {
	for _, candidate := range inherited {
		if metamodel.Contains(d.eq, []*metamodel.Feature{candidate}, f) {
			return owner[candidate]
		}
	}
	return ""
}
