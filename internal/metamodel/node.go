package metamodel

// TypeNode is one class-like type. Identity is the pointer; Name is only
// unique within a Registry.
type TypeNode struct {
	Name       string
	Mutability Mutability
	Origin     Origin

	supertypes []*TypeNode
	features   []*Feature
}

func NewTypeNode(name string, mutability Mutability, features ...*Feature) *TypeNode {
	if mutability == "" {
		mutability = Generated
	}
	n := &TypeNode{Name: name, Mutability: mutability}
	for _, f := range features {
		n.declare(f)
	}
	return n
}

// declare is construction-time only and bypasses the sealed guard.
func (n *TypeNode) declare(f *Feature) {
	if f != nil && !Contains(Structural, n.features, f) {
		n.features = append(n.features, f)
	}
}

func (n *TypeNode) Sealed() bool {
	return n.Mutability == Sealed
}

// Supertypes returns the declared (direct) supertypes.
func (n *TypeNode) Supertypes() []*TypeNode {
	return n.supertypes
}

// Features returns the directly declared features. The slice must not be
// modified by callers.
func (n *TypeNode) Features() []*Feature {
	return n.features
}

// AddFeature adds f unless a semantically equal feature is already declared.
// Sealed nodes are never modified.
func (n *TypeNode) AddFeature(f *Feature, eq Predicate) bool {
	if n.Sealed() || f == nil {
		return false
	}
	if Contains(eq, n.features, f) {
		return false
	}
	n.features = append(n.features, f)
	return true
}

// RemoveFeatures drops every declared feature semantically equal to a member
// of lifted and returns the dropped ones.
func (n *TypeNode) RemoveFeatures(lifted []*Feature, eq Predicate) []*Feature {
	if n.Sealed() || len(lifted) == 0 {
		return nil
	}
	var removed []*Feature
	kept := n.features[:0]
	for _, f := range n.features {
		if Contains(eq, lifted, f) {
			removed = append(removed, f)
			continue
		}
		kept = append(kept, f)
	}
	clear(n.features[len(kept):])
	n.features = kept
	return removed
}

func (n *TypeNode) String() string {
	return n.Name
}
