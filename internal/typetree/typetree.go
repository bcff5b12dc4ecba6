// Package typetree walks interface and object-literal types into the
// path-annotated member lists used for model accessors.
package typetree

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/checker"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/lang"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

// Extractor turns type bodies into member trees.
//
// Members of an object-typed property follow it in the same sequence with
// the property appended to their parent path. Members of an array-of-object
// property start a fresh path and hang off the property's Children instead.
type Extractor struct {
	Checker checker.Checker
}

// New returns an Extractor backed by c.
func New(c checker.Checker) *Extractor {
	return &Extractor{Checker: c}
}

type shape struct {
	file *parse.File
	node *sitter.Node
}

// Members extracts the property signatures of an interface body or object
// type literal. parents are the names of the enclosing properties.
func (x *Extractor) Members(f *parse.File, body *sitter.Node, parents []string) []model.Member {
	return x.walk([]shape{{f, body}}, parents, map[*checker.Symbol]bool{})
}

// Interface extracts the merged members of every declaration of an
// interface or object type alias.
func (x *Extractor) Interface(sym *checker.Symbol) []model.Member {
	shapes := shapesOf(sym)
	if len(shapes) == 0 {
		return nil
	}
	return x.walk(shapes, nil, map[*checker.Symbol]bool{sym: true})
}

func (x *Extractor) walk(shapes []shape, parents []string, visiting map[*checker.Symbol]bool) []model.Member {
	var out []model.Member
	seen := make(map[string]bool)
	for _, sh := range shapes {
		for _, m := range lang.NamedChildren(sh.node) {
			if m.Type() != "property_signature" {
				continue
			}
			name := lang.PropertyName(m.ChildByFieldName("name"), sh.file.Source)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, x.member(sh.file, m, name, parents, visiting)...)
		}
	}
	return out
}

func (x *Extractor) member(f *parse.File, node *sitter.Node, name string, parents []string, visiting map[*checker.Symbol]bool) []model.Member {
	typeNode := checker.AnnotatedType(node.ChildByFieldName("type"))
	m := model.Member{
		Name:       name,
		ParentPath: ParentPath(parents),
		Type:       x.Checker.TypeToString(f, typeNode),
		Comments:   f.DocComment(node),
	}
	if typeNode != nil {
		m.Kind = typeNode.Type()
	}

	if shapes, sym := x.structure(f, typeNode, visiting); len(shapes) > 0 {
		if sym != nil {
			visiting[sym] = true
			defer delete(visiting, sym)
		}
		nested := append(slices.Clone(parents), name)
		return append([]model.Member{m}, x.walk(shapes, nested, visiting)...)
	}

	if elem := elementType(f, typeNode); elem != nil {
		if shapes, sym := x.structure(f, elem, visiting); len(shapes) > 0 {
			if sym != nil {
				visiting[sym] = true
				defer delete(visiting, sym)
			}
			m.Children = x.walk(shapes, nil, visiting)
		}
	}
	return []model.Member{m}
}

// structure returns the member-bearing bodies behind a type node: the node
// itself for an object literal, or the declarations of a referenced
// interface. References already being expanded are treated as leaves.
func (x *Extractor) structure(f *parse.File, typeNode *sitter.Node, visiting map[*checker.Symbol]bool) ([]shape, *checker.Symbol) {
	if typeNode == nil {
		return nil, nil
	}
	switch typeNode.Type() {
	case "object_type":
		return []shape{{f, typeNode}}, nil
	case "parenthesized_type":
		return x.structure(f, lang.FirstNamedChild(typeNode), visiting)
	case "type_identifier", "nested_type_identifier", "generic_type":
		sym := x.Checker.Aliased(x.Checker.SymbolAt(f, typeNode))
		if sym == nil || visiting[sym] {
			return nil, nil
		}
		return shapesOf(sym), sym
	}
	return nil, nil
}

func shapesOf(sym *checker.Symbol) []shape {
	if sym == nil {
		return nil
	}
	var out []shape
	for _, d := range sym.Decls {
		switch d.Node.Type() {
		case "interface_declaration":
			if body := d.Node.ChildByFieldName("body"); body != nil {
				out = append(out, shape{d.File, body})
			}
		case "type_alias_declaration":
			if v := d.Node.ChildByFieldName("value"); v != nil && v.Type() == "object_type" {
				out = append(out, shape{d.File, v})
			}
		}
	}
	return out
}

// elementType returns T for "T[]", "Array<T>" and "ReadonlyArray<T>".
func elementType(f *parse.File, typeNode *sitter.Node) *sitter.Node {
	if typeNode == nil {
		return nil
	}
	switch typeNode.Type() {
	case "array_type":
		return lang.FirstNamedChild(typeNode)
	case "generic_type":
		switch f.Text(typeNode.ChildByFieldName("name")) {
		case "Array", "ReadonlyArray":
			if args := lang.NamedChildren(typeNode.ChildByFieldName("type_arguments")); len(args) == 1 {
				return args[0]
			}
		}
	}
	return nil
}

// ParentPath renders the enclosing property names as "/a/b", or "" at the
// top level.
func ParentPath(parents []string) string {
	if len(parents) == 0 {
		return ""
	}
	return "/" + strings.Join(parents, "/")
}
