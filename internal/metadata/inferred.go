package metadata

import (
	"github.com/tapsiturbi/ui5-ts-codegen/internal/checker"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/naming"
)

// Candidate is an accessor whose name places it in one member family.
type Candidate interface {
	Key() string
	Verb() string
	Method() *checker.Symbol
}

type candidate struct {
	key, verb string
	method    *checker.Symbol
}

func (c candidate) Key() string             { return c.key }
func (c candidate) Verb() string            { return c.verb }
func (c candidate) Method() *checker.Symbol { return c.method }

// PropertyCandidate is a get/set accessor.
type PropertyCandidate struct{ candidate }

// AggregationCandidate is an add/insert/destroy accessor.
type AggregationCandidate struct{ candidate }

// EventCandidate is a fire/detach accessor.
type EventCandidate struct{ candidate }

var (
	propertyVerbs    = []string{"get", "set"}
	aggregationVerbs = []string{"add", "insert", "destroy"}
	eventVerbs       = []string{"fire", "detach"}
)

// Classify places a method in the first family whose verb prefixes its
// name. Families are tried in the order property, aggregation, event.
func Classify(method *checker.Symbol) (Candidate, bool) {
	if method == nil {
		return nil, false
	}
	name := method.Name
	if verb, key, ok := trim(name, propertyVerbs); ok {
		return PropertyCandidate{candidate{key, verb, method}}, true
	}
	if verb, key, ok := trim(name, aggregationVerbs); ok {
		return AggregationCandidate{candidate{key, verb, method}}, true
	}
	if verb, key, ok := trim(name, eventVerbs); ok {
		return EventCandidate{candidate{key, verb, method}}, true
	}
	return nil, false
}

func trim(name string, verbs []string) (verb, key string, ok bool) {
	for _, v := range verbs {
		if k, ok := naming.TrimPrefix(name, v); ok {
			return v, k, true
		}
	}
	return "", "", false
}

// group collects candidates by key, remembering first-seen key order.
type group[C Candidate] struct {
	order []string
	byKey map[string][]C
}

func (g *group[C]) add(c C) {
	if g.byKey == nil {
		g.byKey = make(map[string][]C)
	}
	if _, ok := g.byKey[c.Key()]; !ok {
		g.order = append(g.order, c.Key())
	}
	g.byKey[c.Key()] = append(g.byKey[c.Key()], c)
}

func find[C Candidate](cs []C, verb string) (C, bool) {
	for _, c := range cs {
		if c.Verb() == verb {
			return c, true
		}
	}
	var zero C
	return zero, false
}

// Infer reconstructs metadata from the public instance members of a class
// that has no metadata literal.
//
//   - a property needs a getter and exactly one other accessor under its key;
//   - an aggregation needs a destroy plus an add, where the add may sit under
//     the singular key ("destroyItems" with "addItem");
//   - an event needs fire and detach under its key.
//
// Property and aggregation types come from the getter's and adder's return
// types. Unconfirmed candidates are dropped.
func Infer(c checker.Checker, class *checker.Symbol) model.ControlMetadata {
	var props group[PropertyCandidate]
	var aggrs group[AggregationCandidate]
	var events group[EventCandidate]

	for _, m := range class.Members() {
		if m.Access != "" {
			continue
		}
		cand, ok := Classify(m)
		if !ok {
			continue
		}
		switch cand := cand.(type) {
		case PropertyCandidate:
			props.add(cand)
		case AggregationCandidate:
			aggrs.add(cand)
		case EventCandidate:
			events.add(cand)
		}
	}

	var out model.ControlMetadata
	for _, key := range props.order {
		cs := props.byKey[key]
		getter, ok := find(cs, "get")
		if !ok || len(cs) != 2 {
			continue
		}
		out.Properties = append(out.Properties, fromAccessor(c, key, getter.Method()))
	}

	for _, key := range aggrs.order {
		cs := aggrs.byKey[key]
		if _, ok := find(cs, "destroy"); !ok {
			continue
		}
		adder, ok := find(cs, "add")
		if !ok {
			adder, ok = find(aggrs.byKey[naming.Singular(key)], "add")
		}
		if !ok {
			continue
		}
		out.Aggregations = append(out.Aggregations, fromAccessor(c, key, adder.Method()))
	}

	for _, key := range events.order {
		cs := events.byKey[key]
		fire, ok := find(cs, "fire")
		if !ok || len(cs) != 2 {
			continue
		}
		out.Events = append(out.Events, model.Member{
			Name:     key,
			Comments: c.Documentation(fire.Method()),
		})
	}
	return out
}

func fromAccessor(c checker.Checker, key string, method *checker.Symbol) model.Member {
	return model.Member{
		Name:     key,
		Type:     c.ReturnType(method).Name(),
		Comments: c.Documentation(method),
	}
}
