// Package checker binds TypeScript declarations across a set of parsed files
// and answers the symbol questions the generators ask: what a name refers
// to, what an import aliases, what a method returns and how a type prints.
//
// It is intentionally narrow. There is no inference and no assignability;
// types are read from annotations and names are followed through
// namespaces, ambient modules, imports and re-exports.
package checker

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

// Flags classify a symbol. A merged symbol (a class and a namespace of the
// same name, say) carries several.
type Flags uint32

const (
	FlagClass Flags = 1 << iota
	FlagInterface
	FlagNamespace
	FlagModule
	FlagAlias
	FlagTypeAlias
	FlagEnum
	FlagFunction
	FlagVariable
	FlagMethod
	FlagProperty
)

// Decl is one declaration site of a symbol.
type Decl struct {
	File *parse.File
	Node *sitter.Node
}

// Symbol is a named entity. Symbols are owned by the Program that bound them.
type Symbol struct {
	Name   string
	Flags  Flags
	Parent *Symbol
	Decls  []Decl

	// Access is "private" or "protected" for restricted class members.
	Access string

	exports *table
	locals  *table
	members *table
	stars   []aliasTarget
	alias   *aliasTarget

	// external marks a file module, which contributes no qualified name segment.
	external bool
}

// Is reports whether s carries all of f.
func (s *Symbol) Is(f Flags) bool {
	return s != nil && s.Flags&f == f
}

// Members returns the instance members of a class or interface in
// declaration order, one symbol per name.
func (s *Symbol) Members() []*Symbol {
	if s == nil || s.members == nil {
		return nil
	}
	return s.members.list()
}

// Member returns the instance member called name.
func (s *Symbol) Member(name string) *Symbol {
	if s == nil || s.members == nil {
		return nil
	}
	return s.members.get(name)
}

// Export returns the exported member called name of a namespace or module.
func (s *Symbol) Export(name string) *Symbol {
	if s == nil || s.exports == nil {
		return nil
	}
	return s.exports.get(name)
}

// ClassDecl returns the first class declaration of s.
func (s *Symbol) ClassDecl() (Decl, bool) {
	if s == nil {
		return Decl{}, false
	}
	for _, d := range s.Decls {
		switch d.Node.Type() {
		case "class_declaration", "abstract_class_declaration", "class":
			return d, true
		}
	}
	return Decl{}, false
}

// QualifiedName joins the names of s and its lexical containers. Ambient
// modules contribute their specifier as dotted segments ("sap/ui/core/Control"
// -> "sap.ui.core.Control"), without repeating a trailing segment equal to the
// declared name. File modules and the global scope contribute nothing.
func (s *Symbol) QualifiedName() string {
	if s == nil {
		return ""
	}
	var parts []string
	for c := s; c != nil; c = c.Parent {
		if c.Is(FlagModule) {
			if c.external {
				break
			}
			segs := strings.FieldsFunc(c.Name, func(r rune) bool { return r == '/' })
			if c != s && len(parts) > 0 && len(segs) > 0 && segs[len(segs)-1] == parts[0] {
				segs = segs[:len(segs)-1]
			}
			parts = append(segs, parts...)
			break
		}
		if c.Name == "" {
			break
		}
		parts = append([]string{c.Name}, parts...)
	}
	return strings.Join(parts, ".")
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.QualifiedName()
}

type table struct {
	order []string
	m     map[string]*Symbol
}

func newTable() *table {
	return &table{m: make(map[string]*Symbol)}
}

func (t *table) get(name string) *Symbol {
	if t == nil {
		return nil
	}
	return t.m[name]
}

func (t *table) set(name string, sym *Symbol) {
	if _, ok := t.m[name]; !ok {
		t.order = append(t.order, name)
	}
	t.m[name] = sym
}

func (t *table) list() []*Symbol {
	out := make([]*Symbol, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.m[name])
	}
	return out
}

// aliasTarget is what an import or export points at: either an export of a
// module, or a dotted entity name looked up from a scope.
type aliasTarget struct {
	from   *parse.File
	module string // module specifier, when importing
	name   string // export name, "default", or "*" for the module itself
	entity []string
	scope  *sitter.Node
}
