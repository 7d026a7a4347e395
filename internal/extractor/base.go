package extractor

import sitter "github.com/smacker/go-tree-sitter"

// SealedDirective in a type's doc comment marks it sealed.
const SealedDirective = "typelift:sealed"

// TypeUnit is one struct-like type found in source.
type TypeUnit struct {
	ID          string      `json:"id"`
	Filepath    string      `json:"filepath"`
	Package     string      `json:"package"`
	Language    string      `json:"language"`
	StartLine   int         `json:"start_line"`
	EndLine     int         `json:"end_line"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Sealed      bool        `json:"sealed"`
	Embeds      []string    `json:"embeds,omitempty"` // supertype names as written
	Fields      []FieldUnit `json:"fields,omitempty"`
}

// QualifiedName is Package.Name, or Name when the package is unknown.
func (u *TypeUnit) QualifiedName() string {
	if u.Package == "" {
		return u.Name
	}
	return u.Package + "." + u.Name
}

// FieldUnit is a named field with its multiplicity already derived from the
// declared type.
type FieldUnit struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // element type, e.g. "Item" for []*Item
	Declared string `json:"declared"`
	Lower    int    `json:"lower"`
	Upper    int    `json:"upper"`
	Tag      string `json:"tag,omitempty"`
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string, packageName string) *TypeUnit
}
