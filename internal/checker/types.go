package checker

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/lang"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

var intrinsics = map[string]struct{}{
	"any": {}, "unknown": {}, "never": {}, "void": {}, "undefined": {}, "null": {},
	"string": {}, "number": {}, "boolean": {}, "bigint": {}, "symbol": {}, "object": {},
}

// Type is the declared type of a member or the return type of a method.
// Exactly one of Intrinsic and Symbol is set for named types; Text always
// holds the printed form.
type Type struct {
	Intrinsic string
	Symbol    *Symbol
	Text      string
}

// Name returns the intrinsic name for primitives, the qualified name of the
// type's symbol otherwise, and the printed text for anonymous types
// ("string | null", "{ a: string; }").
func (t Type) Name() string {
	switch {
	case t.Intrinsic != "":
		return t.Intrinsic
	case t.Symbol != nil:
		return t.Symbol.QualifiedName()
	}
	return t.Text
}

// ReturnType returns the annotated return type of the first declaration of
// a method. A method without an annotation returns "any".
func (p *Program) ReturnType(method *Symbol) Type {
	if method == nil || len(method.Decls) == 0 {
		return Type{}
	}
	d := method.Decls[0]
	ann := d.Node.ChildByFieldName("return_type")
	if ann == nil {
		if method.Is(FlagProperty) {
			ann = d.Node.ChildByFieldName("type")
		}
		if ann == nil {
			return Type{Intrinsic: "any", Text: "any"}
		}
	}
	return p.TypeOf(d.File, AnnotatedType(ann))
}

// AnnotatedType unwraps a type_annotation (": T") to the type node T.
func AnnotatedType(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "type_annotation" {
		return lang.FirstNamedChild(node)
	}
	return node
}

// TypeOf resolves the type written at node.
func (p *Program) TypeOf(f *parse.File, node *sitter.Node) Type {
	if node == nil {
		return Type{Intrinsic: "any", Text: "any"}
	}
	text := p.TypeToString(f, node)
	switch node.Type() {
	case "predefined_type":
		name := lang.CollapseWhitespace(f.Text(node))
		if _, ok := intrinsics[name]; ok {
			return Type{Intrinsic: name, Text: name}
		}
	case "literal_type":
		inner := lang.FirstNamedChild(node)
		if inner != nil && (inner.Type() == "null" || inner.Type() == "undefined") {
			return Type{Intrinsic: inner.Type(), Text: inner.Type()}
		}
	case "parenthesized_type":
		return p.TypeOf(f, lang.FirstNamedChild(node))
	case "type_identifier", "nested_type_identifier", "generic_type", "this_type":
		if sym := p.Aliased(p.SymbolAt(f, node)); sym != nil {
			return Type{Symbol: sym, Text: text}
		}
	}
	return Type{Text: text}
}

// TypeToString prints the type written at node: object literals as
// "{ a: string; }", arrays as "T[]", anything else as its collapsed text.
func (p *Program) TypeToString(f *parse.File, node *sitter.Node) string {
	node = AnnotatedType(node)
	if node == nil {
		return "any"
	}
	switch node.Type() {
	case "object_type":
		var b strings.Builder
		b.WriteString("{ ")
		for _, m := range lang.NamedChildren(node) {
			switch m.Type() {
			case "property_signature":
				b.WriteString(lang.PropertyName(m.ChildByFieldName("name"), f.Source))
				if lang.HasChild(m, "?") {
					b.WriteString("?")
				}
				b.WriteString(": ")
				b.WriteString(p.TypeToString(f, m.ChildByFieldName("type")))
				b.WriteString("; ")
			default:
				b.WriteString(strings.TrimRight(lang.CollapseWhitespace(f.Text(m)), ";,"))
				b.WriteString("; ")
			}
		}
		b.WriteString("}")
		return b.String()

	case "array_type":
		elem := lang.FirstNamedChild(node)
		s := p.TypeToString(f, elem)
		if elem != nil && (elem.Type() == "union_type" || elem.Type() == "function_type") {
			s = "(" + s + ")"
		}
		return s + "[]"

	case "generic_type":
		name := lang.CollapseWhitespace(f.Text(node.ChildByFieldName("name")))
		args := lang.NamedChildren(node.ChildByFieldName("type_arguments"))
		if name == "Array" && len(args) == 1 {
			return p.TypeToString(f, args[0]) + "[]"
		}
		printed := make([]string, len(args))
		for i, a := range args {
			printed[i] = p.TypeToString(f, a)
		}
		return name + "<" + strings.Join(printed, ", ") + ">"

	case "union_type":
		var parts []string
		for _, part := range lang.NamedChildren(node) {
			parts = append(parts, p.TypeToString(f, part))
		}
		return strings.Join(parts, " | ")
	}
	return lang.CollapseWhitespace(f.Text(node))
}

// Documentation returns the JSDoc text of the symbol's first declaration.
func (p *Program) Documentation(sym *Symbol) string {
	if sym == nil || len(sym.Decls) == 0 {
		return ""
	}
	d := sym.Decls[0]
	return d.File.DocComment(d.Node)
}
