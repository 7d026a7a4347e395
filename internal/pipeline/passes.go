package pipeline

import (
	"log/slog"

	"typelift/internal/dedupe"
	"typelift/internal/hierarchy"
	"typelift/internal/lifter"
	"typelift/internal/metamodel"
)

// CheckPass rejects cyclic hierarchies before anything is traversed.
type CheckPass struct{}

func NewCheckPass() *CheckPass {
	return &CheckPass{}
}

func (p *CheckPass) Name() string {
	return "check"
}

func (p *CheckPass) Apply(reg *metamodel.Registry) (PassStats, error) {
	return PassStats{}, hierarchy.CheckAcyclic(reg)
}

type LiftPass struct {
	eq     metamodel.Predicate
	logger *slog.Logger
}

func NewLiftPass(eq metamodel.Predicate, logger *slog.Logger) *LiftPass {
	return &LiftPass{eq: eq, logger: logger}
}

func (p *LiftPass) Name() string {
	return "lift"
}

func (p *LiftPass) Apply(reg *metamodel.Registry) (PassStats, error) {
	idx := hierarchy.Build(reg)
	stats := lifter.New(idx, reg, p.eq, lifter.WithLogger(p.logger)).LiftFromRoots()
	return PassStats{Added: stats.Added, Removed: stats.Removed, Details: stats}, nil
}

type DedupePass struct {
	eq     metamodel.Predicate
	logger *slog.Logger
}

func NewDedupePass(eq metamodel.Predicate, logger *slog.Logger) *DedupePass {
	return &DedupePass{eq: eq, logger: logger}
}

func (p *DedupePass) Name() string {
	return "dedupe"
}

func (p *DedupePass) Apply(reg *metamodel.Registry) (PassStats, error) {
	stats := dedupe.New(reg, p.eq, p.logger).DedupeAll(reg.AllTypes())
	return PassStats{Removed: stats.Removed(), Details: stats}, nil
}
