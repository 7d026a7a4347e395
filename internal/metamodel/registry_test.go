package metamodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attr(name, typ string) *Feature {
	return &Feature{Name: name, Kind: Attribute, Type: typ, Lower: 0, Upper: 1}
}

func buildRegistry(t *testing.T, mode IndexMode, edges map[string][]string, names ...string) *Registry {
	t.Helper()
	r := NewRegistry(mode)
	for _, name := range names {
		require.NoError(t, r.Add(NewTypeNode(name, Generated)))
	}
	for sub, supers := range edges {
		for _, super := range supers {
			require.NoError(t, r.Link(sub, super))
		}
	}
	return r
}

func TestRegistry_AddAndLink(t *testing.T) {
	r := NewRegistry("")
	require.NoError(t, r.Add(NewTypeNode("A", Generated)))
	require.NoError(t, r.Add(NewTypeNode("B", Generated)))

	err := r.Add(NewTypeNode("A", Sealed))
	assert.ErrorIs(t, err, ErrDuplicateType)

	assert.ErrorIs(t, r.Link("B", "Missing"), ErrUnknownType)
	assert.ErrorIs(t, r.Link("Missing", "A"), ErrUnknownType)

	require.NoError(t, r.Link("B", "A"))
	require.NoError(t, r.Link("B", "A"))
	b, _ := r.Lookup("B")
	assert.Len(t, b.Supertypes(), 1)
	assert.Equal(t, IndexDirect, r.Mode())
}

func TestRegistry_SuperTypeInfosOf(t *testing.T) {
	edges := map[string][]string{"B": {"A"}, "C": {"B"}}

	direct := buildRegistry(t, IndexDirect, edges, "A", "B", "C")
	c, _ := direct.Lookup("C")
	assert.Equal(t, []string{"B"}, names(direct.SuperTypeInfosOf(c)))

	transitive := buildRegistry(t, IndexTransitive, edges, "A", "B", "C")
	c, _ = transitive.Lookup("C")
	assert.Equal(t, []string{"B", "A"}, names(transitive.SuperTypeInfosOf(c)))
}

func TestRegistry_AncestorsDiamond(t *testing.T) {
	r := buildRegistry(t, IndexDirect, map[string][]string{
		"B": {"A"},
		"C": {"A"},
		"D": {"B", "C"},
	}, "A", "B", "C", "D")

	d, _ := r.Lookup("D")
	assert.ElementsMatch(t, []string{"A", "B", "C"}, names(r.Ancestors(d)))
}

func TestRegistry_CompatibleTypeOf(t *testing.T) {
	r := buildRegistry(t, IndexDirect, map[string][]string{
		"Left":  {"Base"},
		"Right": {"Base"},
		"Leaf":  {"Left"},
		"M1":    {"X", "Y"},
		"M2":    {"X", "Y"},
	}, "Base", "Left", "Right", "Leaf", "Other", "X", "Y", "M1", "M2")

	lookup := func(ns ...string) []*TypeNode {
		var out []*TypeNode
		for _, n := range ns {
			node, ok := r.Lookup(n)
			require.True(t, ok)
			out = append(out, node)
		}
		return out
	}

	tests := []struct {
		name  string
		nodes []string
		want  string
	}{
		{"siblings", []string{"Left", "Right"}, "Base"},
		{"single", []string{"Left"}, "Left"},
		{"ancestor and descendant", []string{"Left", "Leaf"}, "Left"},
		{"cousins", []string{"Leaf", "Right"}, "Base"},
		{"unrelated", []string{"Left", "Other"}, ""},
		{"ambiguous", []string{"M1", "M2"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.CompatibleTypeOf(lookup(tt.nodes...))
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}

	assert.Nil(t, r.CompatibleTypeOf(nil))
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry(IndexDirect)
	require.NoError(t, r.Add(NewTypeNode("A", Generated, attr("b", "int"), attr("a", "string"))))

	snap := r.Snapshot()
	assert.Equal(t, []string{"a:string[0..1]", "b:int[0..1]"}, snap["A"])
	assert.Equal(t, 2, r.FeatureCount())
}

func names(nodes []*TypeNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}
