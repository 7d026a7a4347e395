package document

import (
	"os"
	"path/filepath"
	"testing"

	"typelift/internal/metamodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
format: "1.0.0"
types:
  - name: Base
  - name: Left
    supertypes: [Base]
    features:
      - {name: name, type: string}
      - {name: tags, type: string, lower: 0, upper: -1}
  - name: Right
    supertypes: [Base]
    features:
      - {name: name, type: string}
      - {name: owner, kind: reference, type: Base, lower: 1, upper: 1, containment: true}
  - name: Frozen
    sealed: true
    supertypes: [Base]
`

func TestDecode(t *testing.T) {
	reg, err := Decode([]byte(sample), metamodel.IndexDirect)
	require.NoError(t, err)
	require.Equal(t, 4, reg.Len())

	left, ok := reg.Lookup("Left")
	require.True(t, ok)
	require.Len(t, left.Supertypes(), 1)
	assert.Equal(t, "Base", left.Supertypes()[0].Name)
	assert.Equal(t, []string{"name:string[0..1]", "tags:string[0..*]"}, reg.Snapshot()["Left"])

	right, _ := reg.Lookup("Right")
	owner := right.Features()[1]
	assert.Equal(t, metamodel.Reference, owner.Kind)
	assert.True(t, owner.Containment)
	assert.Equal(t, 1, owner.Lower)

	frozen, _ := reg.Lookup("Frozen")
	assert.True(t, frozen.Sealed())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"schema: unknown key", "format: \"1.0.0\"\ntypes:\n  - name: A\n    color: red\n", nil},
		{"schema: missing types", "format: \"1.0.0\"\n", nil},
		{"schema: bad kind", "format: \"1.0.0\"\ntypes:\n  - name: A\n    features: [{name: a, type: int, kind: method}]\n", nil},
		{"format too new", "format: \"2.1.0\"\ntypes: []\n", ErrUnsupportedFormat},
		{"format not a version", "format: \"latest\"\ntypes: []\n", ErrUnsupportedFormat},
		{"duplicate type", "format: \"1.0.0\"\ntypes:\n  - name: A\n  - name: A\n", metamodel.ErrDuplicateType},
		{"unknown supertype", "format: \"1.0.0\"\ntypes:\n  - name: A\n    supertypes: [B]\n", metamodel.ErrUnknownType},
		{"not yaml", "format: [", nil},
		{"schema: zero upper", "format: \"1.0.0\"\ntypes:\n  - name: A\n    features: [{name: a, type: int, upper: 0}]\n", nil},
		{"lower above upper", "format: \"1.0.0\"\ntypes:\n  - name: A\n    features: [{name: a, type: int, lower: 3, upper: 2}]\n", ErrInvalidMultiplicity},
		{"lower above default upper", "format: \"1.0.0\"\ntypes:\n  - name: A\n    features: [{name: a, type: int, lower: 2}]\n", ErrInvalidMultiplicity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc), metamodel.IndexDirect)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestDecode_AcceptsJSON(t *testing.T) {
	reg, err := Decode([]byte(`{"format": "1.2.0", "types": [{"name": "A", "features": [{"name": "id", "type": "int"}]}]}`), metamodel.IndexDirect)
	require.NoError(t, err)
	assert.Equal(t, []string{"id:int[0..1]"}, reg.Snapshot()["A"])
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	reg, err := Decode([]byte(sample), metamodel.IndexDirect)
	require.NoError(t, err)

	for _, format := range []Format{YAML, JSON} {
		t.Run(string(format), func(t *testing.T) {
			out, err := Encode(reg, format)
			require.NoError(t, err)

			again, err := Decode(out, metamodel.IndexDirect)
			require.NoError(t, err)
			assert.Equal(t, reg.Snapshot(), again.Snapshot())

			frozen, _ := again.Lookup("Frozen")
			assert.True(t, frozen.Sealed())
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	reg, err := Load(path, metamodel.IndexTransitive)
	require.NoError(t, err)
	assert.Equal(t, metamodel.IndexTransitive, reg.Mode())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), metamodel.IndexDirect)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
