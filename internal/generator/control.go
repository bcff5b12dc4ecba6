package generator

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/hierarchy"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/logger"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/merge"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/metadata"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/synth"
)

// Control generates property accessors for a class with a static
// metadata literal. When several classes qualify the last one wins.
type Control struct{}

func (Control) Kind() synth.Kind { return synth.KindControl }

func (Control) Region(s *Session, now time.Time) (model.Region, error) {
	var region model.Region
	found := false
	for _, class := range s.File.Classes() {
		name := s.File.ClassName(class)
		log := s.Log.With(logger.FieldClass, name)

		chain, err := s.Resolver.Chain(s.File, class)
		switch {
		case errors.Is(err, hierarchy.ErrNoExtends), errors.Is(err, hierarchy.ErrAmbiguousExtends):
			log.Infow("skipping class, cannot parse the class hierarchy", logger.FieldError, err)
			continue
		case err != nil:
			log.Debugw("ancestor chain incomplete", logger.FieldError, err, logger.FieldCount, len(chain))
		}

		obj, ok := metadata.FindDeclaration(s.File, class)
		if !ok {
			log.Debugw("skipping class without static metadata")
			continue
		}
		md := metadata.Declarative(s.File, obj)
		warnRedeclared(log, md, chain)

		pos, end, ok := s.File.ClosingBounds(class, merge.AnchorEnd)
		if !ok {
			continue
		}
		if found {
			log.Infow("several classes declare metadata, using the last one", "previous", region.ClassName)
		}
		region = model.Region{
			Content:   synth.Control(name, md.Properties, now),
			Pos:       pos,
			End:       end,
			ClassName: name,
		}
		found = true
	}
	if !found {
		return region, errors.Mark(errors.New("No class found that has a static metadata property"), ErrNoCandidate)
	}
	return region, nil
}

// warnRedeclared logs declared properties an ancestor already provides.
func warnRedeclared(log *zap.SugaredLogger, md model.ControlMetadata, chain []model.ClassEntry) {
	for _, p := range md.Properties {
		for _, e := range chain {
			if _, ok := e.Members.Property(p.Name); ok {
				log.Warnw("property redeclares an inherited property", "property", p.Name, logger.FieldBase, e.QualifiedName)
				break
			}
		}
	}
}
