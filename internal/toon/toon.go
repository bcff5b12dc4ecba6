// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a describe Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("file: %s", encodeValue(r.File)))

	var classRows, propRows, aggrRows, eventRows [][]string
	for i := range r.Classes {
		c := &r.Classes[i]
		source := "none"
		if c.Declared != nil {
			source = string(model.Declarative)
			for _, p := range c.Declared.Properties {
				propRows = append(propRows, []string{c.Name, p.Name, p.Type, p.DefaultValue})
			}
			for _, a := range c.Declared.Aggregations {
				aggrRows = append(aggrRows, []string{c.Name, a.Name, a.Type, fmt.Sprintf("%t", a.Multiple)})
			}
			for _, e := range c.Declared.Events {
				eventRows = append(eventRows, []string{c.Name, e.Name})
			}
		}
		classRows = append(classRows, []string{c.Name, c.Base, source})
	}
	parts = append(parts, formatTabular("classes", []string{"name", "base", "metadata"}, classRows))
	parts = append(parts, formatTabular("properties", []string{"class", "name", "type", "default"}, propRows))
	parts = append(parts, formatTabular("aggregations", []string{"class", "name", "type", "multiple"}, aggrRows))
	parts = append(parts, formatTabular("events", []string{"class", "name"}, eventRows))

	var chainRows, inheritedRows [][]string
	seen := make(map[string]bool)
	for i := range r.Classes {
		c := &r.Classes[i]
		for depth, e := range c.Chain {
			chainRows = append(chainRows, []string{c.Name, fmt.Sprintf("%d", depth+1), e.QualifiedName, string(e.Source)})
			if seen[e.QualifiedName] {
				continue
			}
			seen[e.QualifiedName] = true
			for _, p := range e.Members.Properties {
				inheritedRows = append(inheritedRows, []string{e.QualifiedName, "property", p.Name, p.Type})
			}
			for _, a := range e.Members.Aggregations {
				inheritedRows = append(inheritedRows, []string{e.QualifiedName, "aggregation", a.Name, a.Type})
			}
			for _, ev := range e.Members.Events {
				inheritedRows = append(inheritedRows, []string{e.QualifiedName, "event", ev.Name, ""})
			}
		}
	}
	parts = append(parts, formatTabular("chain", []string{"class", "depth", "ancestor", "source"}, chainRows))
	parts = append(parts, formatTabular("inherited", []string{"ancestor", "kind", "name", "type"}, inheritedRows))

	var shapeRows, elementRows [][]string
	for i := range r.Classes {
		c := &r.Classes[i]
		for _, sh := range c.Shapes {
			for _, m := range sh.Members {
				shapeRows = append(shapeRows, []string{c.Name, sh.Name, m.Path(), m.Type, fmt.Sprintf("%d", len(m.Children))})
				elementRows = appendElements(elementRows, sh.Name, "", m)
			}
		}
	}
	parts = append(parts, formatTabular("shapes", []string{"class", "shape", "path", "type", "children"}, shapeRows))
	if len(elementRows) > 0 {
		parts = append(parts, formatTabular("elements", []string{"shape", "array", "path", "type"}, elementRows))
	}

	return strings.Join(parts, "\n")
}

// appendElements adds a row per array element member under m, recursing
// into nested arrays. prefix is the full path of the enclosing arrays.
func appendElements(rows [][]string, shape, prefix string, m model.Member) [][]string {
	array := prefix + m.Path()
	for _, c := range m.Children {
		rows = append(rows, []string{shape, array, c.Path(), c.Type})
		rows = appendElements(rows, shape, array, c)
	}
	return rows
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
