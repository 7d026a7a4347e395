package metamodel

import (
	"fmt"
	"strconv"
)

// Mutability tells whether typelift may rewrite a type's declared features.
type Mutability string

const (
	Generated Mutability = "generated"
	Sealed    Mutability = "sealed"
)

type FeatureKind string

const (
	Attribute FeatureKind = "attribute"
	Reference FeatureKind = "reference"
)

// Unbounded is the upper bound of a many-valued feature.
const Unbounded = -1

// Feature is a structural property declared on a type.
type Feature struct {
	Name        string      `json:"name" yaml:"name"`
	Kind        FeatureKind `json:"kind" yaml:"kind"`
	Type        string      `json:"type" yaml:"type"`
	Lower       int         `json:"lower" yaml:"lower"`
	Upper       int         `json:"upper" yaml:"upper"`
	Containment bool        `json:"containment,omitempty" yaml:"containment,omitempty"`
}

// Clone returns a copy not shared with any type.
func (f *Feature) Clone() *Feature {
	c := *f
	return &c
}

func (f *Feature) Many() bool {
	return f.Upper == Unbounded || f.Upper > 1
}

// Key renders the feature shape, e.g. "name:string[0..1]".
func (f *Feature) Key() string {
	upper := "*"
	if f.Upper != Unbounded {
		upper = strconv.Itoa(f.Upper)
	}
	key := fmt.Sprintf("%s:%s[%d..%s]", f.Name, f.Type, f.Lower, upper)
	if f.Kind == Reference {
		key = "&" + key
		if f.Containment {
			key = "+" + key
		}
	}
	return key
}

func (f *Feature) String() string {
	return f.Key()
}

// Origin points at the source a type was extracted from, if any.
type Origin struct {
	Filepath  string `json:"filepath,omitempty"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}
