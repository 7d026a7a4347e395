package extractor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_ExtractFromFile(t *testing.T) {
	testFile := filepath.Join("testdata", "shapes.go")

	ext, err := NewExtractor("go")
	require.NoError(t, err)

	units, err := ext.ExtractFromFile(testFile)
	require.NoError(t, err)

	unitsByName := make(map[string]*TypeUnit)
	for _, unit := range units {
		unitsByName[unit.Name] = unit
	}

	t.Run("Only structs", func(t *testing.T) {
		assert.Len(t, units, 5, "Entity, Shape, Circle, Square, Group")
		assert.NotContains(t, unitsByName, "Label")
		assert.NotContains(t, unitsByName, "Drawer")
		for _, unit := range units {
			assert.Equal(t, "shapes", unit.Package)
			assert.Equal(t, "go", unit.Language)
		}
	})

	t.Run("Sealed directive", func(t *testing.T) {
		entity := unitsByName["Entity"]
		require.NotNil(t, entity)
		assert.True(t, entity.Sealed)
		assert.Equal(t, "shapes.Entity", entity.QualifiedName())
		assert.False(t, unitsByName["Shape"].Sealed)
	})

	t.Run("Embedding becomes supertype", func(t *testing.T) {
		assert.Equal(t, []string{"Entity"}, unitsByName["Shape"].Embeds)
		assert.Equal(t, []string{"Shape"}, unitsByName["Circle"].Embeds)
		assert.Equal(t, []string{"Shape"}, unitsByName["Square"].Embeds, "pointer embedding")
		assert.Empty(t, unitsByName["Entity"].Embeds)
	})

	t.Run("Field multiplicity", func(t *testing.T) {
		fields := make(map[string]FieldUnit)
		for _, f := range unitsByName["Square"].Fields {
			fields[f.Name] = f
		}
		require.Len(t, fields, 6)

		assert.Equal(t, FieldUnit{Name: "Name", Type: "string", Declared: "string", Lower: 1, Upper: 1}, fields["Name"])
		assert.Equal(t, "float64", fields["Side"].Type)
		assert.Equal(t, "float64", fields["Border"].Type)

		assert.Equal(t, "Circle", fields["Parent"].Type)
		assert.Equal(t, 0, fields["Parent"].Lower)
		assert.Equal(t, 1, fields["Parent"].Upper)

		assert.Equal(t, "Square", fields["Children"].Type)
		assert.Equal(t, -1, fields["Children"].Upper)
		assert.Contains(t, fields["Children"].Tag, `json:"children"`)

		assert.Equal(t, "map[string]string", fields["Meta"].Type)
		assert.Equal(t, -1, fields["Meta"].Upper)
	})

	t.Run("Grouped declaration", func(t *testing.T) {
		group := unitsByName["Group"]
		require.NotNil(t, group)
		assert.Equal(t, "Group collects shapes.", group.Description)
		require.Len(t, group.Fields, 1)
		assert.Equal(t, "Shape", group.Fields[0].Type)
		assert.Equal(t, -1, group.Fields[0].Upper)
	})
}

func TestNewExtractor_Unsupported(t *testing.T) {
	_, err := NewExtractor("cobol")
	assert.Error(t, err)
}

func TestNewFieldUnit(t *testing.T) {
	tests := []struct {
		declared     string
		typ          string
		lower, upper int
	}{
		{"int", "int", 1, 1},
		{"*time.Time", "time.Time", 0, 1},
		{"[]*Item", "Item", 0, -1},
		{"[4]byte", "byte", 0, -1},
		{"map[string]int", "map[string]int", 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			f := newFieldUnit("f", tt.declared, "")
			assert.Equal(t, tt.typ, f.Type)
			assert.Equal(t, tt.lower, f.Lower)
			assert.Equal(t, tt.upper, f.Upper)
		})
	}
	assert.Equal(t, "pkg.Base", embeddedName("*pkg.Base[T]"))
}
