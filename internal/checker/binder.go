package checker

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/lang"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

// binder walks one file's statements and records declarations in the
// program's scopes.
type binder struct {
	p    *Program
	file *parse.File
}

func (p *Program) bindFile(f *parse.File) {
	b := &binder{p: p, file: f}

	container := p.global
	if isModuleFile(f) {
		container = &Symbol{
			Name:     f.Path,
			Flags:    FlagModule,
			exports:  newTable(),
			locals:   newTable(),
			external: true,
		}
		p.fileModules[f] = container
	}
	p.scopes[keyOf(f, f.Root)] = container
	b.statements(f.Root, container, false)
}

// isModuleFile reports whether the file has a top-level import or export,
// which makes its declarations local instead of global.
func isModuleFile(f *parse.File) bool {
	for _, stmt := range lang.NamedChildren(f.Root) {
		switch stmt.Type() {
		case "import_statement", "export_statement":
			return true
		}
	}
	return false
}

func (b *binder) statements(block *sitter.Node, container *Symbol, exported bool) {
	for _, stmt := range lang.NamedChildren(block) {
		b.statement(stmt, container, exported)
	}
}

func (b *binder) statement(stmt *sitter.Node, container *Symbol, exported bool) {
	switch stmt.Type() {
	case "export_statement":
		b.export(stmt, container)
	case "import_statement":
		b.importStatement(stmt, container)
	case "import_alias":
		b.importAlias(stmt, container)
	case "ambient_declaration":
		if block := lang.ChildOfType(stmt, "statement_block"); block != nil && lang.HasChild(stmt, "global") {
			b.p.scopes[keyOf(b.file, block)] = b.p.global
			b.statements(block, b.p.global, true)
			return
		}
		for _, decl := range lang.NamedChildren(stmt) {
			b.statement(decl, container, exported)
		}
	case "expression_statement":
		// A bare "namespace X {}" parses as an expression.
		if inner := lang.FirstNamedChild(stmt); inner != nil && inner.Type() == "internal_module" {
			b.namespace(inner, container, exported)
		}
	default:
		b.declaration(stmt, container, exported)
	}
}

// declaration binds a declaration node and returns its symbol, or nil when
// the node declares nothing nameable.
func (b *binder) declaration(node *sitter.Node, container *Symbol, exported bool) *Symbol {
	switch node.Type() {
	case "class_declaration", "abstract_class_declaration", "class":
		name := b.file.Text(node.ChildByFieldName("name"))
		if name == "" {
			name = "default"
		}
		sym := b.declare(container, name, FlagClass, node, exported)
		b.classMembers(sym, node)
		return sym

	case "interface_declaration":
		name := b.file.Text(node.ChildByFieldName("name"))
		sym := b.declare(container, name, FlagInterface, node, exported)
		b.shapeMembers(sym, node.ChildByFieldName("body"))
		return sym

	case "type_alias_declaration":
		name := b.file.Text(node.ChildByFieldName("name"))
		sym := b.declare(container, name, FlagTypeAlias, node, exported)
		if value := node.ChildByFieldName("value"); value != nil && value.Type() == "object_type" {
			b.shapeMembers(sym, value)
		}
		return sym

	case "enum_declaration":
		return b.declare(container, b.file.Text(node.ChildByFieldName("name")), FlagEnum, node, exported)

	case "function_declaration", "function_signature", "generator_function_declaration":
		return b.declare(container, b.file.Text(node.ChildByFieldName("name")), FlagFunction, node, exported)

	case "lexical_declaration", "variable_declaration":
		var last *Symbol
		for _, d := range lang.NamedChildren(node) {
			if d.Type() != "variable_declarator" {
				continue
			}
			if name := d.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				last = b.declare(container, b.file.Text(name), FlagVariable, d, exported)
			}
		}
		return last

	case "internal_module":
		return b.namespace(node, container, exported)

	case "module":
		name := node.ChildByFieldName("name")
		if lang.IsStringLiteral(name) {
			return b.ambientModule(node, lang.StringValue(name, b.file.Source))
		}
		return b.namespace(node, container, exported)
	}
	return nil
}

func (b *binder) namespace(node *sitter.Node, container *Symbol, exported bool) *Symbol {
	parts := splitDotted(b.file.Text(node.ChildByFieldName("name")))
	if len(parts) == 0 {
		return nil
	}
	ns := container
	for i, part := range parts {
		ns = b.declare(ns, part, FlagNamespace, node, exported || i > 0)
		if ns.exports == nil {
			ns.exports = newTable()
		}
		if ns.locals == nil {
			ns.locals = newTable()
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		b.p.scopes[keyOf(b.file, body)] = ns
		b.statements(body, ns, true)
	}
	return ns
}

func (b *binder) ambientModule(node *sitter.Node, spec string) *Symbol {
	mod, ok := b.p.ambient[spec]
	if !ok {
		mod = &Symbol{
			Name:    spec,
			Flags:   FlagModule,
			Parent:  b.p.global,
			exports: newTable(),
			locals:  newTable(),
		}
		b.p.ambient[spec] = mod
	}
	mod.Decls = append(mod.Decls, Decl{File: b.file, Node: node})
	if body := node.ChildByFieldName("body"); body != nil {
		b.p.scopes[keyOf(b.file, body)] = mod
		b.statements(body, mod, true)
	}
	return mod
}

// declare adds or merges name into container. Module containers keep every
// declaration in locals and exported ones in exports too; namespaces and the
// global scope expose everything through exports.
func (b *binder) declare(container *Symbol, name string, flags Flags, node *sitter.Node, exported bool) *Symbol {
	if name == "" {
		return nil
	}
	tbl := container.exports
	if container.Is(FlagModule) {
		tbl = container.locals
	}

	sym := tbl.get(name)
	if sym == nil || sym.Is(FlagAlias) {
		sym = &Symbol{Name: name, Parent: container}
		tbl.set(name, sym)
	}
	sym.Flags |= flags
	sym.Decls = append(sym.Decls, Decl{File: b.file, Node: node})
	b.p.declared[keyOf(b.file, node)] = sym

	if exported && container.Is(FlagModule) {
		container.exports.set(name, sym)
	}
	return sym
}

func (b *binder) export(stmt *sitter.Node, container *Symbol) {
	isDefault := lang.HasChild(stmt, "default")
	source := stmt.ChildByFieldName("source")

	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		var sym *Symbol
		if decl.Type() == "ambient_declaration" {
			for _, inner := range lang.NamedChildren(decl) {
				sym = b.declaration(inner, container, true)
			}
		} else if decl.Type() == "import_alias" {
			sym = b.importAlias(decl, container)
			if sym != nil && container.exports != nil {
				container.exports.set(sym.Name, sym)
			}
		} else {
			sym = b.declaration(decl, container, !isDefault)
		}
		if isDefault && sym != nil && container.exports != nil {
			container.exports.set("default", sym)
		}
		return
	}

	if clause := lang.ChildOfType(stmt, "export_clause"); clause != nil {
		for _, spec := range lang.NamedChildren(clause) {
			if spec.Type() != "export_specifier" {
				continue
			}
			name := b.file.Text(spec.ChildByFieldName("name"))
			exportedAs := name
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exportedAs = b.file.Text(alias)
			}
			target := aliasTarget{from: b.file, entity: []string{name}, scope: stmt}
			if source != nil {
				target = aliasTarget{from: b.file, module: lang.StringValue(source, b.file.Source), name: name}
			}
			b.exportAlias(container, exportedAs, target, spec)
		}
		return
	}

	if source != nil {
		spec := lang.StringValue(source, b.file.Source)
		if ns := lang.ChildOfType(stmt, "namespace_export"); ns != nil {
			name := b.file.Text(lang.FirstNamedChild(ns))
			b.exportAlias(container, name, aliasTarget{from: b.file, module: spec, name: "*"}, ns)
			return
		}
		container.stars = append(container.stars, aliasTarget{from: b.file, module: spec, name: "*"})
		return
	}

	// export default <expression>; and export = <expression>;
	value := stmt.ChildByFieldName("value")
	if value == nil && lang.HasChild(stmt, "=") {
		if kids := lang.NamedChildren(stmt); len(kids) > 0 {
			value = kids[len(kids)-1]
		}
	}
	if value == nil {
		return
	}
	if parts := entityName(b.file, value); len(parts) > 0 {
		b.exportAlias(container, "default", aliasTarget{from: b.file, entity: parts, scope: stmt}, value)
	}
}

func (b *binder) exportAlias(container *Symbol, name string, target aliasTarget, node *sitter.Node) {
	if container.exports == nil || name == "" {
		return
	}
	t := target
	container.exports.set(name, &Symbol{
		Name:   name,
		Flags:  FlagAlias,
		Parent: container,
		Decls:  []Decl{{File: b.file, Node: node}},
		alias:  &t,
	})
}

func (b *binder) importStatement(stmt *sitter.Node, container *Symbol) {
	if req := lang.ChildOfType(stmt, "import_require_clause"); req != nil {
		name := b.file.Text(lang.FirstNamedChild(req))
		src := req.ChildByFieldName("source")
		if src == nil {
			src = lang.ChildOfType(req, "string")
		}
		if src != nil {
			b.importAs(container, name, aliasTarget{from: b.file, module: lang.StringValue(src, b.file.Source), name: "default"}, req)
		}
		return
	}

	source := stmt.ChildByFieldName("source")
	clause := lang.ChildOfType(stmt, "import_clause")
	if source == nil || clause == nil {
		return
	}
	spec := lang.StringValue(source, b.file.Source)

	for _, part := range lang.NamedChildren(clause) {
		switch part.Type() {
		case "identifier":
			b.importAs(container, b.file.Text(part), aliasTarget{from: b.file, module: spec, name: "default"}, part)
		case "namespace_import":
			b.importAs(container, b.file.Text(lang.FirstNamedChild(part)), aliasTarget{from: b.file, module: spec, name: "*"}, part)
		case "named_imports":
			for _, is := range lang.NamedChildren(part) {
				if is.Type() != "import_specifier" {
					continue
				}
				name := b.file.Text(is.ChildByFieldName("name"))
				local := name
				if alias := is.ChildByFieldName("alias"); alias != nil {
					local = b.file.Text(alias)
				}
				b.importAs(container, local, aliasTarget{from: b.file, module: spec, name: name}, is)
			}
		}
	}
}

// importAlias binds "import X = a.b.c;".
func (b *binder) importAlias(stmt *sitter.Node, container *Symbol) *Symbol {
	kids := lang.NamedChildren(stmt)
	if len(kids) < 2 {
		return nil
	}
	name := b.file.Text(kids[0])
	parts := splitDotted(b.file.Text(kids[len(kids)-1]))
	return b.importAs(container, name, aliasTarget{from: b.file, entity: parts, scope: stmt}, stmt)
}

func (b *binder) importAs(container *Symbol, local string, target aliasTarget, node *sitter.Node) *Symbol {
	if local == "" {
		return nil
	}
	if container.locals == nil {
		container.locals = newTable()
	}
	t := target
	sym := &Symbol{
		Name:   local,
		Flags:  FlagAlias,
		Parent: container,
		Decls:  []Decl{{File: b.file, Node: node}},
		alias:  &t,
	}
	container.locals.set(local, sym)
	return sym
}

// classMembers records instance methods and fields. Static members and the
// constructor are not part of the instance shape.
func (b *binder) classMembers(class *Symbol, node *sitter.Node) {
	if class.members == nil {
		class.members = newTable()
	}
	body := parse.ClassBody(node)
	for _, m := range lang.NamedChildren(body) {
		var flags Flags
		switch m.Type() {
		case "method_definition", "method_signature", "abstract_method_signature":
			flags = FlagMethod
		case "public_field_definition":
			flags = FlagProperty
		default:
			continue
		}
		name := lang.PropertyName(m.ChildByFieldName("name"), b.file.Source)
		if name == "" || name == "constructor" {
			continue
		}
		static := lang.HasChild(m, "static")
		if static {
			continue
		}
		b.member(class, name, flags, m)
	}
}

// shapeMembers records the property and method signatures of an interface
// body or object type literal.
func (b *binder) shapeMembers(sym *Symbol, body *sitter.Node) {
	if sym == nil || body == nil {
		return
	}
	if sym.members == nil {
		sym.members = newTable()
	}
	for _, m := range lang.NamedChildren(body) {
		var flags Flags
		switch m.Type() {
		case "property_signature":
			flags = FlagProperty
		case "method_signature":
			flags = FlagMethod
		default:
			continue
		}
		b.member(sym, lang.PropertyName(m.ChildByFieldName("name"), b.file.Source), flags, m)
	}
}

func (b *binder) member(owner *Symbol, name string, flags Flags, node *sitter.Node) {
	if name == "" {
		return
	}
	if existing := owner.members.get(name); existing != nil {
		existing.Decls = append(existing.Decls, Decl{File: b.file, Node: node})
		return
	}
	sym := &Symbol{
		Name:   name,
		Flags:  flags,
		Parent: owner,
		Decls:  []Decl{{File: b.file, Node: node}},
	}
	if mod := lang.ChildOfType(node, "accessibility_modifier"); mod != nil {
		if access := b.file.Text(mod); access != "public" {
			sym.Access = access
		}
	}
	if strings.HasPrefix(name, "#") {
		sym.Access = "private"
	}
	owner.members.set(name, sym)
	b.p.declared[keyOf(b.file, node)] = sym
}

func splitDotted(text string) []string {
	text = strings.Join(strings.Fields(text), "")
	if text == "" {
		return nil
	}
	return strings.Split(text, ".")
}

// entityName returns the dotted parts of an identifier-like expression, or
// nil when node is not a plain (possibly qualified) name.
func entityName(f *parse.File, node *sitter.Node) []string {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "identifier", "type_identifier", "member_expression", "nested_identifier",
		"nested_type_identifier", "property_identifier":
		return splitDotted(f.Text(node))
	case "generic_type":
		return entityName(f, node.ChildByFieldName("name"))
	case "parenthesized_expression":
		return entityName(f, lang.FirstNamedChild(node))
	}
	return nil
}
