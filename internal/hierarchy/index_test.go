package hierarchy

import (
	"errors"
	"testing"

	"typelift/internal/metamodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, mode metamodel.IndexMode, names []string, edges [][2]string) *metamodel.Registry {
	t.Helper()
	r := metamodel.NewRegistry(mode)
	for _, n := range names {
		require.NoError(t, r.Add(metamodel.NewTypeNode(n, metamodel.Generated)))
	}
	for _, e := range edges {
		require.NoError(t, r.Link(e[0], e[1]))
	}
	return r
}

func node(t *testing.T, r *metamodel.Registry, name string) *metamodel.TypeNode {
	t.Helper()
	n, ok := r.Lookup(name)
	require.True(t, ok, "type %s", name)
	return n
}

func nodeNames(nodes []*metamodel.TypeNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestBuild_DiamondDirect(t *testing.T) {
	r := newRegistry(t, metamodel.IndexDirect,
		[]string{"A", "B", "C", "D", "Lone"},
		[][2]string{{"B", "A"}, {"C", "A"}, {"D", "B"}, {"D", "C"}})

	idx := Build(r)

	assert.Equal(t, []string{"A", "Lone"}, nodeNames(idx.Roots()))
	assert.Equal(t, []string{"B", "C"}, nodeNames(idx.SubtypesOf(node(t, r, "A"))))
	assert.Equal(t, []string{"D"}, nodeNames(idx.SubtypesOf(node(t, r, "B"))))
	assert.Equal(t, []string{"D"}, nodeNames(idx.SubtypesOf(node(t, r, "C"))))
	assert.True(t, idx.IsRoot(node(t, r, "Lone")))
	assert.False(t, idx.IsRoot(node(t, r, "D")))
}

func TestBuild_TransitiveRegistersUnderEveryAncestor(t *testing.T) {
	r := newRegistry(t, metamodel.IndexTransitive,
		[]string{"A", "B", "C"},
		[][2]string{{"B", "A"}, {"C", "B"}})

	idx := Build(r)

	assert.Equal(t, []string{"B", "C"}, nodeNames(idx.SubtypesOf(node(t, r, "A"))))
	assert.Equal(t, []string{"A"}, nodeNames(idx.Roots()))
}

func TestIndex_SubtypesOfDefaultsToEmpty(t *testing.T) {
	r := newRegistry(t, metamodel.IndexDirect, []string{"A"}, nil)
	idx := Build(r)

	leaf := idx.SubtypesOf(node(t, r, "A"))
	require.NotNil(t, leaf)
	assert.Empty(t, leaf)
	assert.False(t, idx.HasSubtypes(node(t, r, "A")))

	stranger := metamodel.NewTypeNode("Stranger", metamodel.Generated)
	assert.NotNil(t, idx.SubtypesOf(stranger))
	assert.Empty(t, idx.SubtypesOf(stranger))
}

func TestBuild_Empty(t *testing.T) {
	idx := Build(metamodel.NewRegistry(metamodel.IndexDirect))
	assert.Empty(t, idx.Roots())
}

func TestCheckAcyclic(t *testing.T) {
	t.Run("dag", func(t *testing.T) {
		r := newRegistry(t, metamodel.IndexDirect,
			[]string{"A", "B", "C", "D"},
			[][2]string{{"B", "A"}, {"C", "A"}, {"D", "B"}, {"D", "C"}})
		assert.NoError(t, CheckAcyclic(r))
	})

	t.Run("cycle", func(t *testing.T) {
		r := newRegistry(t, metamodel.IndexDirect,
			[]string{"A", "B", "C"},
			[][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}})
		err := CheckAcyclic(r)
		var cycle *CycleError
		require.True(t, errors.As(err, &cycle))
		assert.Equal(t, []string{"A", "B", "C", "A"}, cycle.Path)
		assert.Contains(t, err.Error(), "A -> B -> C -> A")
	})

	t.Run("self loop", func(t *testing.T) {
		r := newRegistry(t, metamodel.IndexDirect, []string{"A"}, [][2]string{{"A", "A"}})
		var cycle *CycleError
		require.ErrorAs(t, CheckAcyclic(r), &cycle)
		assert.Equal(t, []string{"A", "A"}, cycle.Path)
	})
}
