package checker

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

const maxAliasDepth = 64

// SymbolAt resolves the name written at node (an identifier, a dotted
// expression, a type reference or "this") as seen from its location. The
// result may itself be an alias; see Aliased.
func (p *Program) SymbolAt(f *parse.File, node *sitter.Node) *Symbol {
	if node == nil {
		return nil
	}
	if node.Type() == "this_type" || node.Type() == "this" {
		return p.enclosingClass(f, node)
	}
	parts := entityName(f, node)
	if len(parts) == 0 {
		return nil
	}
	return p.resolveEntity(f, node, parts)
}

// Aliased follows import and re-export aliases to the symbol they finally
// name. Non-alias symbols are returned unchanged; a broken or cyclic alias
// chain yields nil.
func (p *Program) Aliased(sym *Symbol) *Symbol {
	for depth := 0; sym != nil && sym.Is(FlagAlias); depth++ {
		if depth >= maxAliasDepth {
			p.log.Debugw("alias chain too deep", "symbol", sym.Name)
			return nil
		}
		sym = p.resolveAlias(sym)
	}
	return sym
}

// Lookup resolves a dotted name from the global scope.
func (p *Program) Lookup(qualified string) *Symbol {
	parts := splitDotted(qualified)
	if len(parts) == 0 {
		return nil
	}
	sym := p.global.exports.get(parts[0])
	for _, part := range parts[1:] {
		sym = p.Aliased(sym)
		if sym == nil {
			return nil
		}
		sym = p.exportOf(sym, part, nil)
	}
	return sym
}

func (p *Program) resolveAlias(sym *Symbol) *Symbol {
	t := sym.alias
	if t == nil {
		return nil
	}
	if t.module != "" {
		mod := p.resolveModule(t.from, t.module)
		if mod == nil {
			p.log.Debugw("module not found", "module", t.module, "file", t.from.Path)
			return nil
		}
		if t.name == "*" {
			return mod
		}
		return p.exportOf(mod, t.name, nil)
	}
	return p.resolveEntity(t.from, t.scope, t.entity)
}

func (p *Program) resolveEntity(f *parse.File, at *sitter.Node, parts []string) *Symbol {
	sym := p.lookup(f, at, parts[0])
	for _, part := range parts[1:] {
		sym = p.Aliased(sym)
		if sym == nil {
			return nil
		}
		sym = p.exportOf(sym, part, nil)
	}
	return sym
}

// exportOf finds name among the exports of a namespace or module, then in
// its "export * from" modules.
func (p *Program) exportOf(container *Symbol, name string, seen map[*Symbol]bool) *Symbol {
	if container == nil {
		return nil
	}
	if s := container.exports.get(name); s != nil {
		return s
	}
	if name == "default" || len(container.stars) == 0 {
		return nil
	}
	if seen == nil {
		seen = make(map[*Symbol]bool)
	}
	seen[container] = true
	for _, star := range container.stars {
		mod := p.resolveModule(star.from, star.module)
		if mod == nil || seen[mod] {
			continue
		}
		if s := p.exportOf(mod, name, seen); s != nil {
			return s
		}
	}
	return nil
}

// lookup walks the lexical containers enclosing node, innermost first, and
// finishes in the global scope.
func (p *Program) lookup(f *parse.File, node *sitter.Node, name string) *Symbol {
	for c := p.containerOf(f, node); c != nil; c = c.Parent {
		if s := c.locals.get(name); s != nil {
			return s
		}
		if s := c.exports.get(name); s != nil {
			return s
		}
	}
	return p.global.exports.get(name)
}

func (p *Program) containerOf(f *parse.File, node *sitter.Node) *Symbol {
	for n := node; n != nil; n = n.Parent() {
		if c, ok := p.scopes[keyOf(f, n)]; ok {
			return c
		}
	}
	if m := p.fileModules[f]; m != nil {
		return m
	}
	return p.global
}

func (p *Program) enclosingClass(f *parse.File, node *sitter.Node) *Symbol {
	for n := node.Parent(); n != nil; n = n.Parent() {
		switch n.Type() {
		case "class_declaration", "abstract_class_declaration", "class", "interface_declaration":
			return p.DeclarationOf(f, n)
		}
	}
	return nil
}
