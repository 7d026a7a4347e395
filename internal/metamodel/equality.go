package metamodel

// FindResult is the outcome of looking a feature up by shape.
type FindResult int

const (
	FeatureDoesNotExist FindResult = iota
	FeatureExists
	// DifferentFeatureWithSameNameExists means the name is taken by a
	// feature of another shape.
	DifferentFeatureWithSameNameExists
)

func (r FindResult) String() string {
	switch r {
	case FeatureExists:
		return "exists"
	case DifferentFeatureWithSameNameExists:
		return "conflict"
	default:
		return "does_not_exist"
	}
}

// Predicate decides semantic equality of features. Implementations compare
// declared shape, never pointer identity.
type Predicate interface {
	Find(candidates []*Feature, f *Feature) FindResult
}

// PredicateFunc adapts a pairwise comparison to a Predicate.
type PredicateFunc func(a, b *Feature) bool

func (fn PredicateFunc) Find(candidates []*Feature, f *Feature) FindResult {
	result := FeatureDoesNotExist
	for _, c := range candidates {
		if fn(c, f) {
			return FeatureExists
		}
		if c.Name == f.Name {
			result = DifferentFeatureWithSameNameExists
		}
	}
	return result
}

// Structural treats two features as equal when name, kind, type,
// multiplicity and containment all match.
var Structural Predicate = PredicateFunc(SameShape)

func SameShape(a, b *Feature) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name &&
		a.Kind == b.Kind &&
		a.Type == b.Type &&
		a.Lower == b.Lower &&
		a.Upper == b.Upper &&
		a.Containment == b.Containment
}

// Contains is the membership test used by every set operation on features.
func Contains(eq Predicate, candidates []*Feature, f *Feature) bool {
	return eq.Find(candidates, f) == FeatureExists
}
