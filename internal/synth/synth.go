// Package synth renders accessor and path-function source text from a
// recovered member model. Output is deterministic for a given model and
// clock; callers indent and anchor it through the merge package.
package synth

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/naming"
)

// Spacer is the indentation unit of generated code.
const Spacer = "    "

// Tool is the attribution written into every banner.
const Tool = "ui5-ts-codegen"

// Kind names what a banner was generated for.
type Kind string

const (
	KindControl Kind = "control"
	KindModel   Kind = "model"
)

// StampPrefix starts the banner line that carries the generation time.
const StampPrefix = " * Generated on "

var stampLine = regexp.MustCompile(`(?m)^[ \t]*\* Generated on .*$`)

// StripStamp blanks every generation timestamp in text.
func StripStamp(text string) string {
	return stampLine.ReplaceAllString(text, " * Generated on")
}

// Banner returns the comment heading a generated block.
func Banner(name string, kind Kind, now time.Time) string {
	var b strings.Builder
	b.WriteString("/*\n")
	fmt.Fprintf(&b, " * Auto generated %s accessors for %s\n", kind, name)
	fmt.Fprintf(&b, " * Generated by %s, do not modify by hand\n", Tool)
	b.WriteString(StampPrefix + now.UTC().Format(time.RFC3339) + "\n")
	b.WriteString(" */\n")
	return b.String()
}

// Region wraps body in editor fold markers.
func Region(body string) string {
	return "//#region Auto generated code\n" + body + "\n//#endregion"
}

func docComment(b *strings.Builder, lines ...string) {
	b.WriteString("/**\n")
	for _, l := range lines {
		if l == "" {
			continue
		}
		for _, line := range strings.Split(l, "\n") {
			b.WriteString(strings.TrimRight(" * "+line, " ") + "\n")
		}
	}
	b.WriteString(" */\n")
}

// PropertyAccessors renders a getter and setter for each control property.
func PropertyAccessors(className string, props []model.Member) string {
	var b strings.Builder
	for _, p := range props {
		camel := naming.CamelCase(p.Name)

		docComment(&b, fmt.Sprintf("Getter for %s property of class %s", p.Name, className), p.Comments)
		fmt.Fprintf(&b, "public get%s() : %s {\n", camel, p.Type)
		fmt.Fprintf(&b, "%sreturn this.getProperty(%q);\n", Spacer, p.Name)
		b.WriteString("}\n\n")

		docComment(&b, fmt.Sprintf("Setter for %s property of class %s", p.Name, className), p.Comments)
		fmt.Fprintf(&b, "public set%s(vValue : %s, bRerender? : boolean) {\n", camel, p.Type)
		fmt.Fprintf(&b, "%sreturn this.setProperty(%q, vValue, bRerender);\n", Spacer, p.Name)
		b.WriteString("}\n\n")
	}
	return b.String()
}

// DataAccessors renders getData/setData pairs keyed by each member's full
// slash path.
func DataAccessors(ifaceName string, members []model.Member) string {
	var b strings.Builder
	for _, m := range members {
		path := m.Path()
		fn := naming.FunctionName(path)

		docComment(&b, "Data of model property "+path, m.Comments, "@see "+ifaceName)
		fmt.Fprintf(&b, "public getData%s() : %s {\n", fn, m.Type)
		fmt.Fprintf(&b, "%sreturn this.getProperty(%q);\n", Spacer, path)
		b.WriteString("}\n\n")

		docComment(&b, "Data of model property "+path, m.Comments, "@see "+ifaceName)
		fmt.Fprintf(&b, "public setData%s(vValue: %s) {\n", fn, m.Type)
		fmt.Fprintf(&b, "%sthis.setProperty(%q, vValue);\n", Spacer, path)
		b.WriteString("}\n\n")
	}
	return b.String()
}

type entry struct {
	doc, key, value string
}

// objectFunction renders a static method returning an object literal.
func objectFunction(b *strings.Builder, doc, name string, entries []entry, indent string) {
	docComment(b, doc)
	fmt.Fprintf(b, "public static %s() {\n", name)
	b.WriteString(Spacer + "return {\n")
	for i, e := range entries {
		if e.doc != "" {
			b.WriteString(indent + e.doc + "\n")
		}
		fmt.Fprintf(b, "%s%s: %q", indent, e.key, e.value)
		if i < len(entries)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(Spacer + "};\n")
	b.WriteString("}\n")
}

// PathFunctions renders path() and fullpath() over the flattened members,
// followed by the context path pairs of every array-of-object member.
func PathFunctions(ifaceName string, members []model.Member) string {
	paths := make([]entry, 0, len(members))
	full := make([]entry, 0, len(members))
	for _, m := range members {
		path := m.Path()
		doc := fmt.Sprintf("/** @type {%s} path to %s", m.Type, path)
		if m.Comments != "" {
			doc += "; " + strings.Join(strings.Fields(m.Comments), " ")
		}
		doc += " */"
		key := naming.PathIdentifier(path)
		paths = append(paths, entry{doc, key, path})
		full = append(full, entry{doc, key, "{" + path + "}"})
	}

	var b strings.Builder
	indent := Spacer + Spacer
	objectFunction(&b, "Paths to each data entry to this model, each defined in "+ifaceName, "path", paths, indent)
	objectFunction(&b, "Full paths to each data entry to this model, each defined in "+ifaceName, "fullpath", full, indent)
	for _, m := range members {
		if m.HasChildren() {
			contextFunctions(&b, ifaceName, m, "")
		}
	}
	return b.String()
}

// contextFunctions renders contextPath/fullContextPath for one
// array-of-object member and recurses into nested arrays. prefix is the
// full path of the enclosing array members.
func contextFunctions(b *strings.Builder, ifaceName string, m model.Member, prefix string) {
	path := prefix + m.Path()
	fn := naming.FunctionName(path)
	doc := fmt.Sprintf("Paths to each data entry to this model (%s) under the context of %s", ifaceName, ContextLabel(path))

	var rel, full []entry
	for _, c := range m.Children {
		if c.ParentPath != "" {
			continue
		}
		rel = append(rel, entry{key: c.Name, value: c.Name})
		full = append(full, entry{key: c.Name, value: "{" + c.Name + "}"})
	}
	objectFunction(b, doc, "contextPath"+fn, rel, Spacer+Spacer)
	objectFunction(b, doc, "fullContextPath"+fn, full, Spacer+Spacer)

	for _, c := range m.Children {
		if c.HasChildren() {
			contextFunctions(b, ifaceName, c, path)
		}
	}
}

// ContextLabel marks every segment of path as a list: "/a/b" -> "/a[]/b[]".
func ContextLabel(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if s != "" {
			segs[i] = s + "[]"
		}
	}
	return strings.Join(segs, "/")
}

// Control renders the complete region body for a control class.
func Control(className string, props []model.Member, now time.Time) string {
	return Region(Banner(className, KindControl, now) + PropertyAccessors(className, props))
}

// Model renders the complete region body for one model interface.
func Model(ifaceName string, members []model.Member, now time.Time) string {
	return Region(Banner(ifaceName, KindModel, now) + DataAccessors(ifaceName, members) + PathFunctions(ifaceName, members))
}
