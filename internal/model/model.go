// Package model defines the per-run data structures shared by the
// analyzers, the synthesizer and the merge engine.
package model

import "github.com/tapsiturbi/ui5-ts-codegen/internal/checker"

// Member describes one property, aggregation, event or interface field.
type Member struct {
	Name         string
	ParentPath   string // "" at top level, otherwise "/a/b"
	Kind         string // syntax kind of the declared type, if known
	Type         string
	Comments     string
	DefaultValue string
	Multiple     bool // aggregations only
	Children     []Member
}

// Path returns the member's full slash path.
func (m Member) Path() string {
	return m.ParentPath + "/" + m.Name
}

// HasChildren reports whether the member is an array of object shape.
func (m Member) HasChildren() bool {
	return len(m.Children) > 0
}

// ControlMetadata is the reconstructed public surface of a control class.
type ControlMetadata struct {
	Properties   []Member
	Aggregations []Member
	Events       []Member
}

// Property returns the property named name.
func (c ControlMetadata) Property(name string) (Member, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Member{}, false
}

// Source says how a ClassEntry's members were recovered.
type Source string

const (
	Declarative Source = "declarative"
	Inferred    Source = "inferred"
)

// ClassEntry is one step of an ancestor chain. Symbol is owned by the
// checker program and is valid only for the current run.
type ClassEntry struct {
	Symbol        *checker.Symbol
	QualifiedName string
	TypeArguments []string
	Members       ControlMetadata
	Source        Source
}

// Region is the text to merge into a class plus the offsets that anchor it.
type Region struct {
	Content       string
	Pos           int // just past the last token before the closing brace
	End           int // just past the closing brace
	ClassName     string
	ClassGenerics []string
}

// Shape is a model interface and its extracted member tree.
type Shape struct {
	Name    string
	Members []Member
}

// ClassReport is what a describe run recovered for one class.
type ClassReport struct {
	Name     string
	Base     string
	Declared *ControlMetadata // nil without a static metadata literal
	Chain    []ClassEntry
	Shapes   []Shape
}

// Report covers every class of one file.
type Report struct {
	File    string
	Classes []ClassReport
}
