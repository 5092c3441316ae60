package hunt

import (
	"fmt"
	"strings"

	"github.com/panbanda/deadhunt/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Detector is one syntactic pattern that counts as a usage.
type Detector string

const (
	DetectorImport        Detector = "import"
	DetectorMarkup        Detector = "markup"
	DetectorIdentifier    Detector = "identifier"
	DetectorTypeReference Detector = "type"
)

// AllDetectors lists every detector.
var AllDetectors = []Detector{DetectorImport, DetectorMarkup, DetectorIdentifier, DetectorTypeReference}

// ParseDetector converts user input to a Detector.
func ParseDetector(s string) (Detector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "import", "imports":
		return DetectorImport, nil
	case "markup", "jsx", "tag", "tags":
		return DetectorMarkup, nil
	case "identifier", "identifiers", "ident":
		return DetectorIdentifier, nil
	case "type", "types", "type-reference", "typeref":
		return DetectorTypeReference, nil
	default:
		return "", fmt.Errorf("unknown detector %q (want import, markup, identifier or type)", s)
	}
}

// DetectorSet is a set of detectors.
type DetectorSet uint8

func detectorBit(d Detector) DetectorSet {
	switch d {
	case DetectorImport:
		return 1 << 0
	case DetectorMarkup:
		return 1 << 1
	case DetectorIdentifier:
		return 1 << 2
	case DetectorTypeReference:
		return 1 << 3
	default:
		return 0
	}
}

// NewDetectorSet builds a set from the given detectors.
func NewDetectorSet(detectors ...Detector) DetectorSet {
	var s DetectorSet
	for _, d := range detectors {
		s |= detectorBit(d)
	}
	return s
}

// AllDetectorSet returns the set containing every detector.
func AllDetectorSet() DetectorSet {
	return NewDetectorSet(AllDetectors...)
}

// ParseDetectorSet parses detector names; an empty list means all detectors.
func ParseDetectorSet(names []string) (DetectorSet, error) {
	var s DetectorSet
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			d, err := ParseDetector(part)
			if err != nil {
				return 0, err
			}
			s |= detectorBit(d)
		}
	}
	if s == 0 {
		return AllDetectorSet(), nil
	}
	return s, nil
}

// Has reports whether d is in the set.
func (s DetectorSet) Has(d Detector) bool {
	bit := detectorBit(d)
	return bit != 0 && s&bit != 0
}

func (s DetectorSet) String() string {
	var parts []string
	for _, d := range AllDetectors {
		if s.Has(d) {
			parts = append(parts, string(d))
		}
	}
	return strings.Join(parts, ",")
}

// Reference is a candidate usage of a name found by one detector.
type Reference struct {
	Name     string   `json:"name"`
	Detector Detector `json:"detector"`
	Line     uint32   `json:"line"`
}

// Token types the identifier detector treats as identifiers.
var identifierNodes = map[string]bool{
	"identifier":                            true,
	"property_identifier":                   true,
	"shorthand_property_identifier":         true,
	"shorthand_property_identifier_pattern": true,
	"type_identifier":                       true,
	"statement_identifier":                  true,
}

var jsxTagNodes = map[string]bool{
	"jsx_opening_element":      true,
	"jsx_self_closing_element": true,
	"jsx_closing_element":      true,
}

// Nodes whose "name" field declares a type rather than referencing one.
var typeDeclarationParents = map[string]bool{
	"interface_declaration":      true,
	"type_alias_declaration":     true,
	"class_declaration":          true,
	"abstract_class_declaration": true,
	"class":                      true,
	"type_parameter":             true,
	"mapped_type_clause":         true,
}

// ExtractReferences collects every candidate usage in a parsed file for all
// four detectors. Each (detector, name) pair is reported once, at its first
// occurrence.
func ExtractReferences(result *parser.ParseResult) []Reference {
	if result == nil || result.Tree == nil {
		return nil
	}
	c := &referenceCollector{
		source: result.Source,
		seen:   make(map[Detector]map[string]bool, len(AllDetectors)),
	}
	c.visit(result.Tree.RootNode(), false)
	return c.refs
}

type referenceCollector struct {
	source []byte
	refs   []Reference
	seen   map[Detector]map[string]bool
}

func (c *referenceCollector) add(d Detector, name string, node *sitter.Node) {
	if name == "" {
		return
	}
	names := c.seen[d]
	if names == nil {
		names = make(map[string]bool)
		c.seen[d] = names
	}
	if names[name] {
		return
	}
	names[name] = true
	c.refs = append(c.refs, Reference{Name: name, Detector: d, Line: parser.Line(node)})
}

// visit walks the tree. inTag is set inside JSX tag and attribute names, whose
// identifiers are markup tokens rather than program identifiers.
func (c *referenceCollector) visit(node *sitter.Node, inTag bool) {
	if node == nil {
		return
	}
	nodeType := node.Type()

	switch {
	case nodeType == "import_statement":
		c.collectImports(node)

	case jsxTagNodes[nodeType]:
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil && nodeType != "jsx_closing_element" && node.NamedChildCount() > 0 {
			nameNode = node.NamedChild(0)
		}
		if nodeType != "jsx_closing_element" {
			c.add(DetectorMarkup, rootIdentifier(nameNode, c.source), node)
		}
		for i := range int(node.ChildCount()) {
			child := node.Child(i)
			c.visit(child, inTag || parser.SameNode(child, nameNode))
		}
		return

	case nodeType == "jsx_attribute":
		for i := range int(node.ChildCount()) {
			child := node.Child(i)
			// The attribute name is the first child; its value is ordinary code.
			c.visit(child, inTag || i == 0)
		}
		return

	case identifierNodes[nodeType] && !inTag:
		name := parser.GetNodeText(node, c.source)
		c.add(DetectorIdentifier, name, node)
		if nodeType == "type_identifier" && !declaresType(node) {
			c.add(DetectorTypeReference, name, node)
		}
	}

	for i := range int(node.ChildCount()) {
		c.visit(node.Child(i), inTag)
	}
}

// collectImports records the externally visible name of every binding in an
// import statement: the imported name for `{ a as b }`, the local name for
// default and namespace imports.
func (c *referenceCollector) collectImports(stmt *sitter.Node) {
	parser.WalkTyped(stmt, c.source, func(node *sitter.Node, nodeType string, source []byte) bool {
		switch nodeType {
		case "import_clause":
			for i := range int(node.NamedChildCount()) {
				child := node.NamedChild(i)
				if child.Type() == "identifier" {
					c.add(DetectorImport, parser.GetNodeText(child, source), child)
				}
			}
		case "namespace_import":
			for i := range int(node.NamedChildCount()) {
				child := node.NamedChild(i)
				if child.Type() == "identifier" {
					c.add(DetectorImport, parser.GetNodeText(child, source), child)
				}
			}
			return false
		case "import_specifier":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil && node.NamedChildCount() > 0 {
				nameNode = node.NamedChild(0)
			}
			// String-literal import names (`{ "a-b" as c }`) have no identifier.
			if nameNode != nil && nameNode.Type() == "identifier" {
				c.add(DetectorImport, parser.GetNodeText(nameNode, source), node)
			}
			return false
		case "string":
			return false
		}
		return true
	})
}

// rootIdentifier resolves the leading identifier of a JSX tag name:
// `Button` for <Button>, `Layout` for <Layout.Header.Title>. Namespaced
// names (<svg:rect>) resolve to nothing.
func rootIdentifier(node *sitter.Node, source []byte) string {
	for node != nil {
		switch node.Type() {
		case "identifier", "jsx_identifier":
			return parser.GetNodeText(node, source)
		case "member_expression", "nested_identifier":
			next := node.ChildByFieldName("object")
			if next == nil && node.NamedChildCount() > 0 {
				next = node.NamedChild(0)
			}
			node = next
		default:
			return ""
		}
	}
	return ""
}

// declaresType reports whether a type_identifier is the name being declared
// (interface Foo, type Foo, class Foo, <T>) rather than a reference.
func declaresType(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil || !typeDeclarationParents[parent.Type()] {
		return false
	}
	return parser.SameNode(parent.ChildByFieldName("name"), node)
}

// Resolver applies references from usage-pass files to a Registry.
type Resolver struct {
	registry  *Registry
	detectors DetectorSet
}

// NewResolver creates a resolver marking symbols in registry using the given detectors.
func NewResolver(registry *Registry, detectors DetectorSet) *Resolver {
	if detectors == 0 {
		detectors = AllDetectorSet()
	}
	return &Resolver{registry: registry, detectors: detectors}
}

// Resolve marks every registered symbol referenced by file. fileIndex is the
// file's position in the usage list. It returns the number of marks applied;
// repeated marks of the same symbol are counted but change nothing.
func (r *Resolver) Resolve(file string, fileIndex uint32, refs []Reference) int {
	marked := 0
	for _, ref := range refs {
		if !r.detectors.Has(ref.Detector) {
			continue
		}
		if r.registry.MarkUsed(ref.Name, file, fileIndex) {
			marked++
		}
	}
	return marked
}
