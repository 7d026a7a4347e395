package lifter

import (
	"log/slog"

	"typelift/internal/hierarchy"
	"typelift/internal/metamodel"

	"github.com/hashicorp/go-set/v3"
)

// CompatibleTyper answers the least type compatible with all given nodes.
type CompatibleTyper interface {
	CompatibleTypeOf(nodes []*metamodel.TypeNode) *metamodel.TypeNode
}

// Lift records one successful lift into a supertype.
type Lift struct {
	Into     string   `json:"into"`
	From     []string `json:"from"`
	Features []string `json:"features"`
}

type Stats struct {
	Visited         int    `json:"visited"`
	Added           int    `json:"added"`
	Removed         int    `json:"removed"`
	Conflicts       int    `json:"conflicts"` // lifted next to a same-named feature
	BlockedBySealed int    `json:"blocked_by_sealed"`
	Lifts           []Lift `json:"lifts,omitempty"`
}

// Lifter moves features shared by all direct subtypes of a type up into
// that type, deepest types first.
type Lifter struct {
	index  *hierarchy.Index
	compat CompatibleTyper
	eq     metamodel.Predicate
	logger *slog.Logger

	visited *set.Set[*metamodel.TypeNode]
	stats   Stats
}

type Option func(*Lifter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Lifter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(index *hierarchy.Index, compat CompatibleTyper, eq metamodel.Predicate, opts ...Option) *Lifter {
	if eq == nil {
		eq = metamodel.Structural
	}
	l := &Lifter{
		index:   index,
		compat:  compat,
		eq:      eq,
		logger:  slog.Default(),
		visited: set.New[*metamodel.TypeNode](0),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "lifter")
	return l
}

// LiftFromRoots lifts starting from every root of the index.
func (l *Lifter) LiftFromRoots() Stats {
	return l.LiftAll(l.index.Roots())
}

// LiftAll starts a fresh traversal: the visited set and stats are reset, so
// two calls are two independent full passes.
func (l *Lifter) LiftAll(roots []*metamodel.TypeNode) Stats {
	l.visited = set.New[*metamodel.TypeNode](0)
	l.stats = Stats{}
	for _, r := range roots {
		l.LiftInto(r)
	}
	return l.Stats()
}

func (l *Lifter) Stats() Stats {
	return l.stats
}

// LiftInto processes super once per traversal. Its subtypes are processed
// first so that lifts further down are already reflected in them.
func (l *Lifter) LiftInto(super *metamodel.TypeNode) {
	// multiple inheritance reaches a type more than once
	if !l.visited.Insert(super) {
		return
	}
	l.stats.Visited++

	subs := l.index.SubtypesOf(super)
	if len(subs) == 0 {
		return
	}

	for _, sub := range subs {
		l.LiftInto(sub)
	}

	if super.Sealed() {
		return
	}

	if l.compat.CompatibleTypeOf(subs) != super {
		return
	}

	// Lifting removes from every subtype; a sealed one would keep its copy.
	for _, sub := range subs {
		if sub.Sealed() {
			l.stats.BlockedBySealed++
			l.logger.Debug("lift blocked by sealed subtype", "into", super.Name, "subtype", sub.Name)
			return
		}
	}

	common := l.commonDirectFeatures(subs)
	lifted := l.joinFeaturesInto(common, super)
	if len(lifted) == 0 {
		return
	}

	for _, sub := range subs {
		l.stats.Removed += len(sub.RemoveFeatures(lifted, l.eq))
	}

	lift := Lift{Into: super.Name}
	for _, sub := range subs {
		lift.From = append(lift.From, sub.Name)
	}
	for _, f := range lifted {
		lift.Features = append(lift.Features, f.Key())
	}
	l.stats.Lifts = append(l.stats.Lifts, lift)
	l.logger.Debug("lifted features", "into", super.Name, "from", lift.From, "features", lift.Features)
}

// commonDirectFeatures intersects the declared (not inherited) features of
// all subs.
func (l *Lifter) commonDirectFeatures(subs []*metamodel.TypeNode) []*metamodel.Feature {
	if len(subs) == 0 {
		return nil
	}
	result := append([]*metamodel.Feature(nil), subs[0].Features()...)
	for _, sub := range subs[1:] {
		result = l.commonFeatures(sub, result)
	}
	return result
}

func (l *Lifter) commonFeatures(n *metamodel.TypeNode, features []*metamodel.Feature) []*metamodel.Feature {
	var result []*metamodel.Feature
	for _, f := range features {
		if metamodel.Contains(l.eq, n.Features(), f) {
			result = append(result, f)
		}
	}
	return result
}

// joinFeaturesInto adds the missing common features to super and returns
// every feature that now counts as lifted. Only a semantically equal
// feature on super counts as present; a same-named one of another shape
// does not, so the common feature is added next to it.
func (l *Lifter) joinFeaturesInto(common []*metamodel.Feature, super *metamodel.TypeNode) []*metamodel.Feature {
	var lifted []*metamodel.Feature
	for _, f := range common {
		res := l.eq.Find(super.Features(), f)
		if res == metamodel.DifferentFeatureWithSameNameExists {
			l.stats.Conflicts++
			l.logger.Debug("lifting next to a same-named feature", "into", super.Name, "feature", f.Key())
		}
		if res != metamodel.FeatureExists {
			super.AddFeature(f.Clone(), l.eq)
			l.stats.Added++
		}
		lifted = append(lifted, f)
	}
	return lifted
}
