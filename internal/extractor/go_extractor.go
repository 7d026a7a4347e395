package extractor

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoExtractor implements LanguageExtractor for Go. Struct types become
// units; embedded fields are their supertypes.
type GoExtractor struct{}

func (g *GoExtractor) GetLanguage() *sitter.Language {
	return golang.GetLanguage()
}

func (g *GoExtractor) GetQuery() string {
	return `(type_spec type: (struct_type)) @type`
}

func (g *GoExtractor) ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string, packageName string) *TypeUnit {
	if captureName != "type" {
		return nil
	}
	unit := g.extractStructUnit(node, sourceCode, filepath)
	if unit != nil {
		unit.Package = packageName
		unit.Language = "go"
	}
	return unit
}

func (g *GoExtractor) extractStructUnit(node *sitter.Node, sourceCode []byte, filepath string) *TypeUnit {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil || typeNode.Type() != "struct_type" {
		return nil
	}
	name := nameNode.Content(sourceCode)

	parentNode := node.Parent()
	if parentNode == nil || parentNode.Type() != "type_declaration" || isGrouped(parentNode) {
		parentNode = node
	}
	docComment := g.extractDocComment(parentNode, sourceCode)

	unit := &TypeUnit{
		ID:          fmt.Sprintf("%s:%s:%d", filepath, name, node.StartPoint().Row+1),
		Filepath:    filepath,
		StartLine:   int(parentNode.StartPoint().Row + 1),
		EndLine:     int(parentNode.EndPoint().Row + 1),
		Name:        name,
		Description: docComment,
		Sealed:      hasDirective(docComment, SealedDirective),
	}
	g.extractStructFields(unit, typeNode, sourceCode)
	return unit
}

func (g *GoExtractor) extractStructFields(unit *TypeUnit, structNode *sitter.Node, sourceCode []byte) {
	var fieldList *sitter.Node
	for i := 0; i < int(structNode.ChildCount()); i++ {
		child := structNode.Child(i)
		if child.Type() == "field_declaration_list" {
			fieldList = child
			break
		}
	}
	if fieldList == nil {
		return
	}

	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		fieldDecl := fieldList.NamedChild(i)
		if fieldDecl.Type() != "field_declaration" {
			continue
		}

		typeNode := fieldDecl.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		declared := typeNode.Content(sourceCode)

		var tag string
		if tagNode := fieldDecl.ChildByFieldName("tag"); tagNode != nil {
			tag = tagNode.Content(sourceCode)
		}

		foundNames := false
		for j := 0; j < int(fieldDecl.NamedChildCount()); j++ {
			child := fieldDecl.NamedChild(j)
			if child.Type() != "field_identifier" {
				continue
			}
			unit.Fields = append(unit.Fields, newFieldUnit(child.Content(sourceCode), declared, tag))
			foundNames = true
		}

		if !foundNames {
			unit.Embeds = append(unit.Embeds, embeddedName(declared))
		}
	}
}

// newFieldUnit derives multiplicity from the declared Go type: slices,
// arrays and maps are many-valued, pointers optional, everything else
// required.
func newFieldUnit(name, declared, tag string) FieldUnit {
	f := FieldUnit{Name: name, Declared: declared, Tag: tag, Type: declared, Lower: 1, Upper: 1}
	switch {
	case strings.HasPrefix(declared, "map["):
		f.Lower, f.Upper = 0, -1
	case strings.HasPrefix(declared, "["):
		f.Lower, f.Upper = 0, -1
		f.Type = strings.TrimPrefix(declared[strings.Index(declared, "]")+1:], "*")
	case strings.HasPrefix(declared, "*"):
		f.Lower, f.Upper = 0, 1
		f.Type = strings.TrimPrefix(declared, "*")
	}
	return f
}

// embeddedName strips pointer and type arguments: *pkg.Base[T] -> pkg.Base.
func embeddedName(declared string) string {
	name := strings.TrimPrefix(declared, "*")
	if i := strings.Index(name, "["); i != -1 {
		name = name[:i]
	}
	return name
}

// isGrouped reports a parenthesized type ( ... ) declaration.
func isGrouped(decl *sitter.Node) bool {
	for i := 0; i < int(decl.ChildCount()); i++ {
		if decl.Child(i).Type() == "(" {
			return true
		}
	}
	return false
}

func hasDirective(doc, directive string) bool {
	for _, line := range strings.Split(doc, "\n") {
		if strings.TrimSpace(line) == directive {
			return true
		}
	}
	return false
}

func (g *GoExtractor) extractDocComment(node *sitter.Node, sourceCode []byte) string {
	var commentLines []string
	currentNode := node
	for {
		prevSibling := currentNode.PrevSibling()
		if prevSibling == nil || (currentNode.StartPoint().Row-prevSibling.EndPoint().Row > 1) {
			break
		}
		if prevSibling.Type() != "comment" {
			break
		}
		commentLines = append([]string{prevSibling.Content(sourceCode)}, commentLines...)
		currentNode = prevSibling
	}
	return cleanDocComment(strings.Join(commentLines, "\n"))
}

func cleanDocComment(rawComment string) string {
	if rawComment == "" {
		return ""
	}
	lines := strings.Split(rawComment, "\n")
	var cleaned []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimPrefix(l, "/*")
		l = strings.TrimSuffix(l, "*/")
		cleaned = append(cleaned, strings.TrimSpace(l))
	}
	return strings.Join(cleaned, "\n")
}
