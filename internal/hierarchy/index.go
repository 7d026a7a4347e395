package hierarchy

import (
	"typelift/internal/metamodel"

	"github.com/hashicorp/go-set/v3"
)

// Source is the part of the type registry the indexer reads.
type Source interface {
	AllTypes() []*metamodel.TypeNode
	SuperTypeInfosOf(n *metamodel.TypeNode) []*metamodel.TypeNode
}

// Index is the reverse (subtype) view of the supertype relation. It is
// derived once and not kept in sync with later edits to supertypes.
type Index struct {
	subtypes map[*metamodel.TypeNode]*set.Set[*metamodel.TypeNode]
	roots    *set.Set[*metamodel.TypeNode]
	// order keeps iteration deterministic across runs.
	order map[*metamodel.TypeNode]int
}

// Build indexes every node under the supertypes src reports for it and
// collects the nodes without declared supertypes as roots.
func Build(src Source) *Index {
	all := src.AllTypes()
	idx := &Index{
		subtypes: make(map[*metamodel.TypeNode]*set.Set[*metamodel.TypeNode]),
		roots:    set.New[*metamodel.TypeNode](0),
		order:    make(map[*metamodel.TypeNode]int, len(all)),
	}
	for i, n := range all {
		idx.order[n] = i
	}
	for _, n := range all {
		if len(n.Supertypes()) == 0 {
			idx.roots.Insert(n)
		}
		for _, super := range src.SuperTypeInfosOf(n) {
			idx.register(super, n)
		}
	}
	return idx
}

func (idx *Index) register(super, sub *metamodel.TypeNode) {
	subs, ok := idx.subtypes[super]
	if !ok {
		subs = set.New[*metamodel.TypeNode](1)
		idx.subtypes[super] = subs
	}
	subs.Insert(sub)
}

// SubtypesOf returns the subtypes registered under n, in registry order.
// It never fails; unknown nodes simply have none.
func (idx *Index) SubtypesOf(n *metamodel.TypeNode) []*metamodel.TypeNode {
	subs, ok := idx.subtypes[n]
	if !ok {
		return []*metamodel.TypeNode{}
	}
	return idx.sorted(subs)
}

// HasSubtypes reports whether anything was registered under n.
func (idx *Index) HasSubtypes(n *metamodel.TypeNode) bool {
	subs, ok := idx.subtypes[n]
	return ok && subs.Size() > 0
}

// Roots returns the types with no declared supertype, in registry order.
func (idx *Index) Roots() []*metamodel.TypeNode {
	return idx.sorted(idx.roots)
}

func (idx *Index) IsRoot(n *metamodel.TypeNode) bool {
	return idx.roots.Contains(n)
}

func (idx *Index) sorted(s *set.Set[*metamodel.TypeNode]) []*metamodel.TypeNode {
	out := s.Slice()
	sortByOrder(out, idx.order)
	return out
}
