package checker

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

// Checker is the symbol capability the analyzers depend on.
type Checker interface {
	SymbolAt(f *parse.File, node *sitter.Node) *Symbol
	Aliased(sym *Symbol) *Symbol
	TypeToString(f *parse.File, node *sitter.Node) string
	ReturnType(method *Symbol) Type
	Documentation(sym *Symbol) string
}

var _ Checker = (*Program)(nil)
