package index

import (
	"os"
	"path/filepath"
	"testing"

	"typelift/internal/crawler"
	"typelift/internal/extractor"
	"typelift/internal/metamodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexer_FromUnits(t *testing.T) {
	units := []*extractor.TypeUnit{
		{Name: "Base", Package: "m", Sealed: true, Fields: []extractor.FieldUnit{{Name: "ID", Type: "int", Lower: 1, Upper: 1}}},
		{Name: "Node", Package: "m", Embeds: []string{"Base", "sync.Mutex"}, Fields: []extractor.FieldUnit{
			{Name: "Parent", Type: "Node", Lower: 0, Upper: 1},
			{Name: "Tags", Type: "string", Lower: 0, Upper: -1},
		}},
		{Name: "Leaf", Package: "m", Embeds: []string{"m.Node"}},
		{Name: "Node", Package: "m", Filepath: "dup.go"},
	}

	reg, err := NewIndexer(nil, metamodel.IndexDirect, []string{"Leaf"}, nil).FromUnits(units)
	require.NoError(t, err)
	require.Equal(t, 3, reg.Len())

	base, ok := reg.Lookup("m.Base")
	require.True(t, ok)
	assert.True(t, base.Sealed(), "directive")

	leaf, _ := reg.Lookup("m.Leaf")
	assert.True(t, leaf.Sealed(), "configured")
	require.Len(t, leaf.Supertypes(), 1)
	assert.Equal(t, "m.Node", leaf.Supertypes()[0].Name)

	node, _ := reg.Lookup("m.Node")
	require.Len(t, node.Supertypes(), 1, "sync.Mutex is outside the scan")
	assert.Equal(t, "m.Base", node.Supertypes()[0].Name)

	parent := node.Features()[0]
	assert.Equal(t, metamodel.Reference, parent.Kind)
	assert.Equal(t, "m.Node", parent.Type)
	tags := node.Features()[1]
	assert.Equal(t, metamodel.Attribute, tags.Kind)
	assert.Equal(t, metamodel.Unbounded, tags.Upper)
}

func TestIndexer_BuildRegistry(t *testing.T) {
	root := t.TempDir()
	src := `package zoo

type Animal struct {
	Name string
}

type Cat struct {
	Animal
	Name  string
	Lives int
}

type Dog struct {
	Animal
	Name  string
	Owner *Cat
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "zoo.go"), []byte(src), 0o644))

	ext, err := extractor.NewExtractor("go")
	require.NoError(t, err)
	idx := NewIndexer(crawler.NewCrawler(ext, nil, nil), metamodel.IndexDirect, nil, nil)

	reg, err := idx.BuildRegistry(root)
	require.NoError(t, err)

	snap := reg.Snapshot()
	assert.Equal(t, []string{"Name:string[1..1]"}, snap["zoo.Animal"])
	assert.Equal(t, []string{"Lives:int[1..1]", "Name:string[1..1]"}, snap["zoo.Cat"])
	assert.Equal(t, []string{"&Owner:zoo.Cat[0..1]", "Name:string[1..1]"}, snap["zoo.Dog"])

	cat, _ := reg.Lookup("zoo.Cat")
	assert.Equal(t, filepath.Join(root, "zoo.go"), cat.Origin.Filepath)
	assert.Equal(t, 7, cat.Origin.StartLine)
}
