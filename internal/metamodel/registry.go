package metamodel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-set/v3"
)

var (
	ErrDuplicateType = errors.New("duplicate type")
	ErrUnknownType   = errors.New("unknown type")
)

// IndexMode selects what SuperTypeInfosOf reports.
type IndexMode string

const (
	// IndexDirect reports declared supertypes only.
	IndexDirect IndexMode = "direct"
	// IndexTransitive reports every ancestor.
	IndexTransitive IndexMode = "transitive"
)

func ParseIndexMode(s string) (IndexMode, error) {
	switch IndexMode(s) {
	case "", IndexDirect:
		return IndexDirect, nil
	case IndexTransitive:
		return IndexTransitive, nil
	}
	return "", fmt.Errorf("unknown supertype index mode %q", s)
}

// Registry owns all type nodes of one hierarchy.
type Registry struct {
	mode   IndexMode
	types  []*TypeNode
	byName map[string]*TypeNode
}

func NewRegistry(mode IndexMode) *Registry {
	if mode == "" {
		mode = IndexDirect
	}
	return &Registry{
		mode:   mode,
		byName: make(map[string]*TypeNode),
	}
}

func (r *Registry) Mode() IndexMode {
	return r.mode
}

// Add registers a node. Names must be unique.
func (r *Registry) Add(n *TypeNode) error {
	if n == nil {
		return nil
	}
	if _, ok := r.byName[n.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, n.Name)
	}
	r.types = append(r.types, n)
	r.byName[n.Name] = n
	return nil
}

// Link declares super as a direct supertype of sub.
func (r *Registry) Link(sub, super string) error {
	s, ok := r.byName[sub]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, sub)
	}
	p, ok := r.byName[super]
	if !ok {
		return fmt.Errorf("%w: %s (supertype of %s)", ErrUnknownType, super, sub)
	}
	for _, existing := range s.supertypes {
		if existing == p {
			return nil
		}
	}
	s.supertypes = append(s.supertypes, p)
	return nil
}

func (r *Registry) Lookup(name string) (*TypeNode, bool) {
	n, ok := r.byName[name]
	return n, ok
}

func (r *Registry) Len() int {
	return len(r.types)
}

// AllTypes returns nodes in registration order.
func (r *Registry) AllTypes() []*TypeNode {
	return r.types
}

// SuperTypeInfosOf returns the supertypes n is indexed under.
func (r *Registry) SuperTypeInfosOf(n *TypeNode) []*TypeNode {
	if r.mode == IndexTransitive {
		return r.Ancestors(n)
	}
	return n.supertypes
}

// Ancestors returns every transitive supertype of n, each once, nearest
// first. Cycles are tolerated here but rejected by hierarchy.CheckAcyclic.
func (r *Registry) Ancestors(n *TypeNode) []*TypeNode {
	seen := set.New[*TypeNode](len(n.supertypes))
	var out []*TypeNode
	queue := append([]*TypeNode(nil), n.supertypes...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == n || !seen.Insert(cur) {
			continue
		}
		out = append(out, cur)
		queue = append(queue, cur.supertypes...)
	}
	return out
}

// CompatibleTypeOf returns the least type every member of nodes conforms
// to: the single minimal common ancestor-or-self. It returns nil when the
// nodes share no ancestor or more than one minimal candidate exists.
func (r *Registry) CompatibleTypeOf(nodes []*TypeNode) *TypeNode {
	if len(nodes) == 0 {
		return nil
	}
	common := r.ancestorsOrSelf(nodes[0])
	for _, n := range nodes[1:] {
		other := r.ancestorsOrSelf(n)
		for _, c := range common.Slice() {
			if !other.Contains(c) {
				common.Remove(c)
			}
		}
		if common.Size() == 0 {
			return nil
		}
	}

	var minimal *TypeNode
	for _, c := range common.Slice() {
		dominated := false
		for _, d := range common.Slice() {
			if d != c && r.isAncestor(c, d) {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}
		if minimal != nil {
			return nil
		}
		minimal = c
	}
	return minimal
}

func (r *Registry) ancestorsOrSelf(n *TypeNode) *set.Set[*TypeNode] {
	s := set.From(r.Ancestors(n))
	s.Insert(n)
	return s
}

// isAncestor reports whether a is a strict ancestor of d.
func (r *Registry) isAncestor(a, d *TypeNode) bool {
	for _, anc := range r.Ancestors(d) {
		if anc == a {
			return true
		}
	}
	return false
}

// Snapshot maps each type name to its sorted feature keys.
type Snapshot map[string][]string

func (r *Registry) Snapshot() Snapshot {
	snap := make(Snapshot, len(r.types))
	for _, n := range r.types {
		keys := make([]string, 0, len(n.features))
		for _, f := range n.features {
			keys = append(keys, f.Key())
		}
		sort.Strings(keys)
		snap[n.Name] = keys
	}
	return snap
}

// FeatureCount is the total number of declared features across all types.
func (r *Registry) FeatureCount() int {
	total := 0
	for _, n := range r.types {
		total += len(n.features)
	}
	return total
}
