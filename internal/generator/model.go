package generator

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hbollon/go-edlib"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/checker"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/hierarchy"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/host"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/logger"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/merge"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/synth"
)

// Model generates data accessors and path maps for a class extending one
// of ParentClassNames, from the interfaces named by its type arguments.
type Model struct {
	ParentClassNames []string
}

func (Model) Kind() synth.Kind { return synth.KindModel }

func (m Model) parents() []string {
	if len(m.ParentClassNames) > 0 {
		return m.ParentClassNames
	}
	return host.DefaultParentClassNames
}

// matches reports whether base names one of the parent classes, either as
// written or by its qualified name.
func (m Model) matches(base hierarchy.Base) bool {
	parents := m.parents()
	if slices.Contains(parents, base.Written) {
		return true
	}
	return base.Symbol != nil && slices.Contains(parents, base.Symbol.QualifiedName())
}

type modelTarget struct {
	name     string
	base     hierarchy.Base
	pos, end int
}

func (m Model) Region(s *Session, now time.Time) (model.Region, error) {
	var target *modelTarget
	var seen []string
	for _, class := range s.File.Classes() {
		name := s.File.ClassName(class)
		log := s.Log.With(logger.FieldClass, name)

		base, err := s.Resolver.Base(s.File, class)
		if err != nil && !errors.Is(err, hierarchy.ErrUnresolved) {
			log.Infow("skipping class, cannot parse the class", logger.FieldError, err)
			continue
		}
		if !m.matches(base) {
			seen = append(seen, base.Written)
			log.Infow("skipping class, unexpected parent class", logger.FieldBase, base.Written, "expected", m.parents())
			continue
		}
		if len(base.TypeArguments) == 0 {
			log.Infow("skipping class without type arguments", logger.FieldBase, base.Written)
			continue
		}
		pos, end, ok := s.File.ClosingBounds(class, merge.AnchorEnd)
		if !ok {
			continue
		}
		target = &modelTarget{name: name, base: base, pos: pos, end: end}
	}
	if target == nil {
		err := errors.Mark(errors.Newf("No class found that inherits from one of the following parent classes: %s",
			strings.Join(m.parents(), ",")), ErrNoCandidate)
		if hint := m.suggest(seen); hint != "" {
			err = errors.WithHint(err, hint)
		}
		return model.Region{}, err
	}

	var parts []string
	for i, arg := range target.base.Arguments {
		sym := s.Program.Aliased(s.Program.SymbolAt(s.File, arg))
		if sym == nil || !(sym.Is(checker.FlagInterface) || sym.Is(checker.FlagTypeAlias)) {
			s.Log.Warnw("type argument is not an interface", logger.FieldClass, target.name, "argument", target.base.TypeArguments[i])
			continue
		}
		members := s.Extractor.Interface(sym)
		parts = append(parts, synth.Model(sym.Name, members, now))
	}
	if len(parts) == 0 {
		return model.Region{}, errors.Mark(errors.Newf("None of the type arguments <%s> of %s resolve to an interface",
			strings.Join(target.base.TypeArguments, ", "), target.name), ErrNoCandidate)
	}

	return model.Region{
		Content:       strings.Join(parts, "\n"),
		Pos:           target.pos,
		End:           target.end,
		ClassName:     target.name,
		ClassGenerics: target.base.TypeArguments,
	}, nil
}

// suggest proposes the configured parent class closest to one of the base
// classes actually seen.
func (m Model) suggest(seen []string) string {
	bestDist, bestSeen, bestParent := -1, "", ""
	for _, s := range seen {
		for _, p := range m.parents() {
			d := edlib.LevenshteinDistance(strings.ToLower(s), strings.ToLower(p))
			if bestDist < 0 || d < bestDist {
				bestDist, bestSeen, bestParent = d, s, p
			}
		}
	}
	switch {
	case bestDist < 0:
		return ""
	case bestDist <= max(2, len(bestParent)/3):
		return fmt.Sprintf("Found a class extending %s; did you mean %s?", bestSeen, bestParent)
	default:
		return fmt.Sprintf("Add %s to %s if it is a model base class.", bestSeen, host.KeyParentClassName)
	}
}
