package analysis

import (
	"path/filepath"

	"typelift/internal/git"
	"typelift/internal/hierarchy"
	"typelift/internal/metamodel"

	"github.com/hashicorp/go-set/v3"
)

// ImpactReport lists the types touched by source changes.
type ImpactReport struct {
	// Changed types have a declaration overlapping a changed line.
	Changed []*metamodel.TypeNode
	// Related types can gain or lose features when a changed type is
	// normalized: its ancestors and the direct subtypes of it and of each
	// ancestor.
	Related []*metamodel.TypeNode
}

// Names returns the names of every changed and related type.
func (r *ImpactReport) Names() *set.Set[string] {
	names := set.New[string](len(r.Changed) + len(r.Related))
	for _, n := range r.Changed {
		names.Insert(n.Name)
	}
	for _, n := range r.Related {
		names.Insert(n.Name)
	}
	return names
}

// Analyzer maps changed lines onto a scanned registry.
type Analyzer struct {
	reg  *metamodel.Registry
	idx  *hierarchy.Index
	root string
}

// NewAnalyzer creates a new analyzer. root is the repository top level the
// changed paths are relative to.
func NewAnalyzer(reg *metamodel.Registry, root string) *Analyzer {
	return &Analyzer{reg: reg, idx: hierarchy.Build(reg), root: root}
}

// AnalyzeImpact identifies which types are affected by the given changes.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{}
	if len(changes) == 0 {
		return report
	}

	byFile := make(map[string][]git.LineRange, len(changes))
	for _, c := range changes {
		path := filepath.Clean(filepath.Join(a.root, filepath.FromSlash(c.Path)))
		byFile[path] = append(byFile[path], c.Ranges...)
	}

	// 1. Types declared on changed lines
	changed := set.New[*metamodel.TypeNode](0)
	for _, n := range a.reg.AllTypes() {
		ranges, ok := byFile[filepath.Clean(n.Origin.Filepath)]
		if !ok {
			continue
		}
		for _, r := range ranges {
			if r.Overlaps(n.Origin.StartLine, n.Origin.EndLine) {
				changed.Insert(n)
				report.Changed = append(report.Changed, n)
				break
			}
		}
	}

	// 2. Ancestors, and the siblings lifting can strip
	related := set.New[*metamodel.TypeNode](0)
	add := func(n *metamodel.TypeNode) {
		if !changed.Contains(n) && related.Insert(n) {
			report.Related = append(report.Related, n)
		}
	}
	for _, n := range report.Changed {
		family := append([]*metamodel.TypeNode{n}, a.reg.Ancestors(n)...)
		for _, f := range family {
			add(f)
			for _, sub := range a.idx.SubtypesOf(f) {
				add(sub)
			}
		}
	}

	return report
}
