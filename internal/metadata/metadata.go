package metadata

import (
	"github.com/tapsiturbi/ui5-ts-codegen/internal/checker"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
)

// Strategy recovers the members of one class declaration.
type Strategy interface {
	Members(decl checker.Decl, sym *checker.Symbol) (model.ControlMetadata, bool)
}

// DeclarativeStrategy reads the class's static metadata literal.
type DeclarativeStrategy struct{}

func (DeclarativeStrategy) Members(decl checker.Decl, _ *checker.Symbol) (model.ControlMetadata, bool) {
	obj, ok := FindDeclaration(decl.File, decl.Node)
	if !ok {
		return model.ControlMetadata{}, false
	}
	return Declarative(decl.File, obj), true
}

// InferredStrategy classifies the class's public accessors.
type InferredStrategy struct {
	Checker checker.Checker
}

func (s InferredStrategy) Members(_ checker.Decl, sym *checker.Symbol) (model.ControlMetadata, bool) {
	return Infer(s.Checker, sym), true
}

// Reconstructor picks the declarative strategy when a class has a metadata
// literal and falls back to inference otherwise.
type Reconstructor struct {
	declarative DeclarativeStrategy
	inferred    InferredStrategy
}

// NewReconstructor returns a Reconstructor over c.
func NewReconstructor(c checker.Checker) *Reconstructor {
	return &Reconstructor{inferred: InferredStrategy{Checker: c}}
}

// Reconstruct implements hierarchy.MemberReconstructor.
func (r *Reconstructor) Reconstruct(decl checker.Decl, sym *checker.Symbol) (model.ControlMetadata, model.Source) {
	if md, ok := r.declarative.Members(decl, sym); ok {
		return md, model.Declarative
	}
	md, _ := r.inferred.Members(decl, sym)
	return md, model.Inferred
}
