package hunt

import (
	"github.com/panbanda/deadhunt/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// ExportForm is the syntactic form an export was discovered through.
type ExportForm string

const (
	FormType     ExportForm = "type"
	FormVariable ExportForm = "variable"
	FormFunction ExportForm = "function"
	FormDefault  ExportForm = "default"
)

// Declaration is an exported binding found in one file.
type Declaration struct {
	Name     string     `json:"name"`
	Category Category   `json:"category"`
	Form     ExportForm `json:"form"`
	Line     uint32     `json:"line"`
}

var typeDeclarationNodes = map[string]bool{
	"interface_declaration":  true,
	"type_alias_declaration": true,
	"enum_declaration":       true,
}

var functionDeclarationNodes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
}

var variableDeclarationNodes = map[string]bool{
	"lexical_declaration":  true,
	"variable_declaration": true,
}

// Declarations that can carry a default export's name.
var namedDefaultNodes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"class_declaration":              true,
	"abstract_class_declaration":     true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"class":                          true,
}

// ExtractExports returns the exported declarations of a parsed file in
// document order. Export statements nested in namespaces are included.
func ExtractExports(result *parser.ParseResult) []Declaration {
	if result == nil || result.Tree == nil {
		return nil
	}

	var decls []Declaration
	parser.WalkTyped(result.Tree.RootNode(), result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if nodeType == "export_statement" {
			decls = append(decls, exportsOf(node, source)...)
		}
		return true
	})
	return decls
}

func exportsOf(stmt *sitter.Node, source []byte) []Declaration {
	decl := stmt.ChildByFieldName("declaration")
	if isDefaultExport(stmt) {
		if d, ok := defaultExport(stmt, decl, source); ok {
			return []Declaration{d}
		}
		return nil
	}
	if decl == nil {
		// export { a, b }, export * from, export = x
		return nil
	}
	// export declare interface/type/enum/const; declare function has no body and stays unregistered.
	if decl.Type() == "ambient_declaration" && decl.NamedChildCount() > 0 {
		decl = decl.NamedChild(0)
	}

	declType := decl.Type()
	switch {
	case typeDeclarationNodes[declType]:
		name := parser.GetNodeText(decl.ChildByFieldName("name"), source)
		if name == "" {
			return nil
		}
		return []Declaration{{Name: name, Category: CategoryType, Form: FormType, Line: parser.Line(decl)}}

	case variableDeclarationNodes[declType]:
		var out []Declaration
		for i := range int(decl.NamedChildCount()) {
			declarator := decl.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			nameNode := declarator.ChildByFieldName("name")
			// Destructuring patterns bind no single name.
			if nameNode == nil || nameNode.Type() != "identifier" {
				continue
			}
			name := parser.GetNodeText(nameNode, source)
			out = append(out, Declaration{Name: name, Category: Categorize(name), Form: FormVariable, Line: parser.Line(declarator)})
		}
		return out

	case functionDeclarationNodes[declType]:
		name := parser.GetNodeText(decl.ChildByFieldName("name"), source)
		if name == "" {
			return nil
		}
		return []Declaration{{Name: name, Category: Categorize(name), Form: FormFunction, Line: parser.Line(decl)}}
	}

	return nil
}

func isDefaultExport(stmt *sitter.Node) bool {
	for i := range int(stmt.ChildCount()) {
		if stmt.Child(i).Type() == "default" {
			return true
		}
	}
	return false
}

// defaultExport resolves the name of `export default ...`. Anonymous values
// (arrow functions, call results, unnamed functions or classes) have none.
func defaultExport(stmt, decl *sitter.Node, source []byte) (Declaration, bool) {
	target := decl
	if target == nil {
		target = unwrapParens(stmt.ChildByFieldName("value"))
	}
	if target == nil {
		return Declaration{}, false
	}

	line := parser.Line(stmt)
	targetType := target.Type()
	switch {
	case targetType == "identifier":
		name := parser.GetNodeText(target, source)
		return Declaration{Name: name, Category: Categorize(name), Form: FormDefault, Line: line}, name != ""

	case typeDeclarationNodes[targetType]:
		name := parser.GetNodeText(target.ChildByFieldName("name"), source)
		return Declaration{Name: name, Category: CategoryType, Form: FormDefault, Line: line}, name != ""

	case namedDefaultNodes[targetType]:
		name := parser.GetNodeText(target.ChildByFieldName("name"), source)
		return Declaration{Name: name, Category: Categorize(name), Form: FormDefault, Line: line}, name != ""
	}

	return Declaration{}, false
}

func unwrapParens(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" && node.NamedChildCount() > 0 {
		node = node.NamedChild(0)
	}
	return node
}
