// Package metadata recovers a control's properties, aggregations and events,
// either from its "static metadata" object literal or by inference from
// accessor naming conventions.
package metadata

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/lang"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

// FindDeclaration returns the object literal assigned to the class's
// "static metadata" member. ok is false when there is no such member or its
// initializer is not an object literal.
func FindDeclaration(f *parse.File, class *sitter.Node) (*sitter.Node, bool) {
	for _, m := range lang.NamedChildren(parse.ClassBody(class)) {
		if m.Type() != "public_field_definition" || !lang.HasChild(m, "static") {
			continue
		}
		if lang.PropertyName(m.ChildByFieldName("name"), f.Source) != "metadata" {
			continue
		}
		value := unwrapExpression(m.ChildByFieldName("value"))
		if value == nil || value.Type() != "object" {
			return nil, false
		}
		return value, true
	}
	return nil, false
}

// unwrapExpression looks through parentheses and "as"/"satisfies" casts.
func unwrapExpression(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "parenthesized_expression", "as_expression", "satisfies_expression":
			n = lang.FirstNamedChild(n)
		default:
			return n
		}
	}
	return nil
}

// Declarative reads the properties, aggregations and events sections of a
// metadata object literal. Section names match case-insensitively. Only
// string literals are taken for type and defaultValue; anything else reads
// as "".
func Declarative(f *parse.File, metadata *sitter.Node) model.ControlMetadata {
	var out model.ControlMetadata
	for _, pair := range pairs(metadata) {
		section := unwrapExpression(pair.ChildByFieldName("value"))
		if section == nil || section.Type() != "object" {
			continue
		}
		switch strings.ToLower(lang.PropertyName(pair.ChildByFieldName("key"), f.Source)) {
		case "properties":
			out.Properties = append(out.Properties, entries(f, section)...)
		case "aggregations":
			out.Aggregations = append(out.Aggregations, entries(f, section)...)
		case "events":
			out.Events = append(out.Events, entries(f, section)...)
		}
	}
	return out
}

func pairs(obj *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range lang.NamedChildren(obj) {
		if c.Type() == "pair" {
			out = append(out, c)
		}
	}
	return out
}

func entries(f *parse.File, section *sitter.Node) []model.Member {
	var out []model.Member
	for _, pair := range pairs(section) {
		m := model.Member{
			Name:     lang.PropertyName(pair.ChildByFieldName("key"), f.Source),
			Comments: f.DocComment(pair),
		}
		value := unwrapExpression(pair.ChildByFieldName("value"))
		switch {
		case lang.IsStringLiteral(value):
			m.Type = lang.StringValue(value, f.Source)
		case value != nil && value.Type() == "object":
			for _, attr := range pairs(value) {
				v := unwrapExpression(attr.ChildByFieldName("value"))
				switch lang.PropertyName(attr.ChildByFieldName("key"), f.Source) {
				case "type":
					m.Type = literal(f, v)
				case "defaultValue":
					m.DefaultValue = literal(f, v)
				case "multiple":
					m.Multiple = v != nil && v.Type() == "true"
				}
			}
		}
		out = append(out, m)
	}
	return out
}

func literal(f *parse.File, n *sitter.Node) string {
	if lang.IsStringLiteral(n) {
		return lang.StringValue(n, f.Source)
	}
	return ""
}
