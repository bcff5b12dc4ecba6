package generator

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/checker"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/hierarchy"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/host"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/logger"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/metadata"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
)

// Describe reports what both generators recover from every class of doc
// without editing it. Classes that fail to resolve are reported with
// whatever was found.
func Describe(ctx context.Context, doc host.Document, parents []string, opts Options) (*model.Report, error) {
	s, err := Open(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	m := Model{ParentClassNames: parents}
	report := &model.Report{File: doc.Path()}
	for _, class := range s.File.Classes() {
		name := s.File.ClassName(class)
		cr := model.ClassReport{Name: name}

		base, err := s.Resolver.Base(s.File, class)
		cr.Base = base.Written
		if err != nil && !errors.Is(err, hierarchy.ErrUnresolved) {
			report.Classes = append(report.Classes, cr)
			continue
		}

		chain, err := s.Resolver.Chain(s.File, class)
		if err != nil {
			s.Log.Debugw("ancestor chain incomplete", logger.FieldClass, name, logger.FieldError, err)
		}
		cr.Chain = chain

		if obj, ok := metadata.FindDeclaration(s.File, class); ok {
			md := metadata.Declarative(s.File, obj)
			cr.Declared = &md
		}

		if m.matches(base) {
			for _, arg := range base.Arguments {
				sym := s.Program.Aliased(s.Program.SymbolAt(s.File, arg))
				if sym == nil || !(sym.Is(checker.FlagInterface) || sym.Is(checker.FlagTypeAlias)) {
					continue
				}
				cr.Shapes = append(cr.Shapes, model.Shape{Name: sym.Name, Members: s.Extractor.Interface(sym)})
			}
		}
		report.Classes = append(report.Classes, cr)
	}
	return report, nil
}
