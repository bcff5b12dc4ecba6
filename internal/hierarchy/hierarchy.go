// Package hierarchy resolves the chain of base classes above a class
// declaration, following imports and re-exports across files.
package hierarchy

import (
	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/checker"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/lang"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

var (
	ErrNoExtends        = errors.New("class has no extends clause")
	ErrAmbiguousExtends = errors.New("class extends more than one expression")
	ErrUnresolved       = errors.New("base class could not be resolved")
)

// DefaultRoots are the framework base classes at which a chain stops.
var DefaultRoots = []string{
	"sap.ui.core.Control",
	"sap.ui.core.Element",
	"sap.ui.base.ManagedObject",
	"sap.ui.base.EventProvider",
	"sap.ui.base.Object",
}

// MemberReconstructor recovers the public members of an ancestor class.
type MemberReconstructor interface {
	Reconstruct(decl checker.Decl, sym *checker.Symbol) (model.ControlMetadata, model.Source)
}

// Base is the resolved extends clause of one class.
type Base struct {
	Expr          *sitter.Node
	Written       string // the base expression as written, "Control" or "sap.m.Button"
	Symbol        *checker.Symbol
	TypeArguments []string
	// Arguments are the type argument nodes behind TypeArguments.
	Arguments []*sitter.Node
}

// Resolver walks extends clauses.
type Resolver struct {
	Checker checker.Checker
	Members MemberReconstructor
	Log     *zap.SugaredLogger

	roots map[string]bool
}

// NewResolver returns a Resolver that stops at roots (DefaultRoots when empty).
func NewResolver(c checker.Checker, roots []string, log *zap.SugaredLogger) *Resolver {
	if len(roots) == 0 {
		roots = DefaultRoots
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	set := make(map[string]bool, len(roots))
	for _, r := range roots {
		set[r] = true
	}
	return &Resolver{Checker: c, Log: log, roots: set}
}

// IsRoot reports whether qualified names a configured root class.
func (r *Resolver) IsRoot(qualified string) bool {
	return r.roots[qualified]
}

type heritage struct {
	value *sitter.Node
	args  *sitter.Node
}

// extendsValues returns each base expression of the class with its type
// arguments, in source order.
func extendsValues(class *sitter.Node) []heritage {
	var out []heritage
	h := lang.ChildOfType(class, "class_heritage")
	ext := lang.ChildOfType(h, "extends_clause")
	for _, n := range lang.NamedChildren(ext) {
		if n.Type() == "type_arguments" {
			if len(out) > 0 && out[len(out)-1].args == nil {
				out[len(out)-1].args = n
			}
			continue
		}
		out = append(out, heritage{value: n})
	}
	return out
}

// Base resolves the single base expression of class.
func (r *Resolver) Base(f *parse.File, class *sitter.Node) (Base, error) {
	values := extendsValues(class)
	switch {
	case len(values) == 0:
		return Base{}, ErrNoExtends
	case len(values) > 1:
		return Base{}, ErrAmbiguousExtends
	}

	v := values[0]
	b := Base{
		Expr:    v.value,
		Written: lang.CollapseWhitespace(f.Text(v.value)),
	}
	b.TypeArguments, b.Arguments = typeArgumentNames(f, v.args)
	b.Symbol = r.Checker.Aliased(r.Checker.SymbolAt(f, v.value))
	if b.Symbol == nil {
		return b, errors.Wrapf(ErrUnresolved, "%s extends %s", f.ClassName(class), b.Written)
	}
	return b, nil
}

// typeArgumentNames returns the generic arguments as names when every one of
// them is a plain type identifier, and nil otherwise.
func typeArgumentNames(f *parse.File, args *sitter.Node) ([]string, []*sitter.Node) {
	kids := lang.NamedChildren(args)
	if len(kids) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(kids))
	for _, k := range kids {
		if k.Type() != "type_identifier" {
			return nil, nil
		}
		names = append(names, f.Text(k))
	}
	return names, kids
}

// Chain returns the ancestors of class, nearest first, ending at the first
// root class (inclusive) or at the last resolvable declaration. When a step
// cannot be resolved the entries found so far are returned with an error
// wrapping ErrUnresolved. A class without an extends clause yields
// ErrNoExtends.
func (r *Resolver) Chain(f *parse.File, class *sitter.Node) ([]model.ClassEntry, error) {
	var chain []model.ClassEntry
	visited := make(map[*checker.Symbol]bool)

	curFile, cur := f, class
	for {
		base, err := r.Base(curFile, cur)
		if err != nil {
			if len(chain) > 0 && errors.Is(err, ErrNoExtends) {
				return chain, nil
			}
			if errors.Is(err, ErrUnresolved) {
				r.Log.Debugw("base class unresolved",
					"file", curFile.Path,
					"class", curFile.ClassName(cur),
					"base", base.Written,
				)
			}
			return chain, err
		}
		if visited[base.Symbol] {
			r.Log.Warnw("inheritance cycle", "class", base.Symbol.QualifiedName())
			return chain, nil
		}
		visited[base.Symbol] = true

		entry := model.ClassEntry{
			Symbol:        base.Symbol,
			QualifiedName: base.Symbol.QualifiedName(),
			TypeArguments: base.TypeArguments,
		}
		decl, ok := base.Symbol.ClassDecl()
		if ok && r.Members != nil {
			entry.Members, entry.Source = r.Members.Reconstruct(decl, base.Symbol)
		}
		chain = append(chain, entry)

		if r.IsRoot(entry.QualifiedName) || !ok {
			return chain, nil
		}
		curFile, cur = decl.File, decl.Node
	}
}
