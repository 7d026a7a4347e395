package document

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"typelift/internal/metamodel"

	"github.com/Masterminds/semver/v3"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// CurrentFormat is written by Encode.
const CurrentFormat = "1.0.0"

const (
	supportedFormats = ">= 1.0.0, < 2.0.0"
	schemaURL        = "https://typelift.dev/schema/hierarchy.schema.json"
)

var (
	ErrUnsupportedFormat   = errors.New("unsupported document format")
	ErrInvalidMultiplicity = errors.New("invalid multiplicity")
)

//go:embed hierarchy.schema.json
var schemaSource []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

type Document struct {
	Format string    `json:"format" yaml:"format"`
	Types  []TypeDoc `json:"types" yaml:"types"`
}

type TypeDoc struct {
	Name       string       `json:"name" yaml:"name"`
	Sealed     bool         `json:"sealed,omitempty" yaml:"sealed,omitempty"`
	Supertypes []string     `json:"supertypes,omitempty" yaml:"supertypes,omitempty"`
	Features   []FeatureDoc `json:"features,omitempty" yaml:"features,omitempty"`
}

// FeatureDoc leaves multiplicity optional; omitted bounds mean 0..1.
type FeatureDoc struct {
	Name        string `json:"name" yaml:"name"`
	Kind        string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Type        string `json:"type" yaml:"type"`
	Lower       *int   `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper       *int   `json:"upper,omitempty" yaml:"upper,omitempty"`
	Containment bool   `json:"containment,omitempty" yaml:"containment,omitempty"`
}

type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", YAML, "yml":
		return YAML, nil
	case JSON:
		return JSON, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Load reads a YAML or JSON hierarchy file into a registry.
func Load(path string, mode metamodel.IndexMode) (*metamodel.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	reg, err := Decode(data, mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Decode validates data against the hierarchy schema and builds a registry.
func Decode(data []byte, mode metamodel.IndexMode) (*metamodel.Registry, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if err := checkFormat(doc.Format); err != nil {
		return nil, err
	}
	return doc.Registry(mode)
}

// Validate checks data against the embedded JSON Schema.
func Validate(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to compile hierarchy schema: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	// Normalize YAML values into the JSON data model the validator expects.
	buf, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to normalize document: %w", err)
	}
	var v any
	if err := json.Unmarshal(buf, &v); err != nil {
		return fmt.Errorf("failed to normalize document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("document schema validation failed: %w", err)
	}
	return nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaSource)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

func checkFormat(format string) error {
	v, err := semver.NewVersion(format)
	if err != nil {
		return fmt.Errorf("%w: %q is not a version", ErrUnsupportedFormat, format)
	}
	c, err := semver.NewConstraint(supportedFormats)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s (want %s)", ErrUnsupportedFormat, v, supportedFormats)
	}
	return nil
}

// Registry builds the type graph described by the document.
func (d *Document) Registry(mode metamodel.IndexMode) (*metamodel.Registry, error) {
	reg := metamodel.NewRegistry(mode)
	for _, t := range d.Types {
		mutability := metamodel.Generated
		if t.Sealed {
			mutability = metamodel.Sealed
		}
		features := make([]*metamodel.Feature, 0, len(t.Features))
		for _, f := range t.Features {
			feature, err := f.feature()
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", t.Name, err)
			}
			features = append(features, feature)
		}
		if err := reg.Add(metamodel.NewTypeNode(t.Name, mutability, features...)); err != nil {
			return nil, err
		}
	}
	for _, t := range d.Types {
		for _, super := range t.Supertypes {
			if err := reg.Link(t.Name, super); err != nil {
				return nil, err
			}
		}
	}
	return reg, nil
}

// feature applies the 0..1 default and rejects an upper bound that is
// neither unbounded nor at least the lower bound.
func (f FeatureDoc) feature() (*metamodel.Feature, error) {
	out := &metamodel.Feature{
		Name:        f.Name,
		Kind:        metamodel.Attribute,
		Type:        f.Type,
		Lower:       0,
		Upper:       1,
		Containment: f.Containment,
	}
	if f.Kind == string(metamodel.Reference) {
		out.Kind = metamodel.Reference
	}
	if f.Lower != nil {
		out.Lower = *f.Lower
	}
	if f.Upper != nil {
		out.Upper = *f.Upper
	}
	if out.Upper != metamodel.Unbounded && (out.Upper < 1 || out.Upper < out.Lower) {
		return nil, fmt.Errorf("%w: feature %s [%d..%d]", ErrInvalidMultiplicity, f.Name, out.Lower, out.Upper)
	}
	return out, nil
}

// FromRegistry captures the current state of reg as a document.
func FromRegistry(reg *metamodel.Registry) *Document {
	doc := &Document{Format: CurrentFormat, Types: make([]TypeDoc, 0, reg.Len())}
	for _, n := range reg.AllTypes() {
		t := TypeDoc{Name: n.Name, Sealed: n.Sealed()}
		for _, s := range n.Supertypes() {
			t.Supertypes = append(t.Supertypes, s.Name)
		}
		for _, f := range n.Features() {
			lower, upper := f.Lower, f.Upper
			t.Features = append(t.Features, FeatureDoc{
				Name:        f.Name,
				Kind:        string(f.Kind),
				Type:        f.Type,
				Lower:       &lower,
				Upper:       &upper,
				Containment: f.Containment,
			})
		}
		doc.Types = append(doc.Types, t)
	}
	return doc
}

// Encode renders reg as a hierarchy document.
func Encode(reg *metamodel.Registry, format Format) ([]byte, error) {
	doc := FromRegistry(reg)
	switch format {
	case JSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case YAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
