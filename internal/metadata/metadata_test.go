package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/checker"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

func parseFile(t *testing.T, source string) *parse.File {
	t.Helper()
	f, err := parse.Parse(context.Background(), "control.ts", []byte(source))
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

func names(ms []model.Member) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

func TestDeclarative(t *testing.T) {
	t.Parallel()

	f := parseFile(t, `class MyControl extends Control {
  static readonly metadata = {
    library: "my.lib",
    Properties: {
      /** Size of the box */
      size: { type: "sap.ui.core.CSSSize", defaultValue: "100%" },
      count: { type: "int", defaultValue: 3 },
      label: "string",
    },
    aggregations: {
      items: { type: "sap.ui.core.Control", multiple: true },
    },
    events: {
      press: {},
    },
  };
}
`)
	obj, ok := FindDeclaration(f, f.Classes()[0])
	require.True(t, ok)

	md := Declarative(f, obj)
	require.Len(t, md.Properties, 3)
	assert.Equal(t, model.Member{Name: "size", Type: "sap.ui.core.CSSSize", DefaultValue: "100%", Comments: "Size of the box"}, md.Properties[0])
	assert.Equal(t, model.Member{Name: "count", Type: "int"}, md.Properties[1], "non-string defaults read as empty")
	assert.Equal(t, "string", md.Properties[2].Type)

	require.Len(t, md.Aggregations, 1)
	assert.True(t, md.Aggregations[0].Multiple)
	assert.Equal(t, []string{"press"}, names(md.Events))
}

func TestFindDeclarationRequiresStaticObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
	}{
		{"instance field", `class A { metadata = { properties: {} }; }`},
		{"not an object", `class A { static metadata = createMetadata(); }`},
		{"other name", `class A { static meta = { properties: {} }; }`},
		{"none", `class A {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := parseFile(t, tt.source)
			_, ok := FindDeclaration(f, f.Classes()[0])
			assert.False(t, ok)
		})
	}
}

const inferredSource = `declare namespace sap.ui.core {
  type CSSSize = string;
  class Control {}
  class Box extends Control {
    /** Width of the box */
    getWidth(): sap.ui.core.CSSSize;
    setWidth(value: string): this;
    getHeight(): string;
    getVisible(): boolean;
    setVisible(v: boolean): this;
    protected getSecret(): string;
    protected setSecret(v: string): this;
    destroyItems(): this;
    addItem(item: sap.ui.core.Control): this;
    insertItem(item: sap.ui.core.Control, i: number): this;
    destroyContent(): this;
    firePress(): this;
    detachPress(fn: Function): this;
    fireHover(): this;
    getaway(): void;
  }
}
`

func TestInfer(t *testing.T) {
	t.Parallel()

	f := parseFile(t, inferredSource)
	p := checker.NewProgram(context.Background(), []*parse.File{f})
	box := p.Lookup("sap.ui.core.Box")
	require.NotNil(t, box)

	md := Infer(p, box)

	// width has get and set; height only a getter, so it is dropped.
	assert.Equal(t, []string{"width", "visible"}, names(md.Properties))
	assert.Equal(t, "sap.ui.core.CSSSize", md.Properties[0].Type)
	assert.Equal(t, "Width of the box", md.Properties[0].Comments)
	assert.Equal(t, "boolean", md.Properties[1].Type)

	require.Equal(t, []string{"items"}, names(md.Aggregations))
	assert.Equal(t, "sap.ui.core.Box", md.Aggregations[0].Type)

	require.Equal(t, []string{"press"}, names(md.Events))
	assert.Equal(t, "", md.Events[0].Type)
}

func TestPropertySymmetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		members string
		want    []string
	}{
		{"getter and setter", "getWidth(): string; setWidth(v: string): this;", []string{"width"}},
		{"getter only", "getHeight(): string;", nil},
		{"setter only", "setHeight(v: string): this;", nil},
		{"setter before getter", "setWidth(v: string): this; getWidth(): string;", []string{"width"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := parseFile(t, "declare class Box { "+tt.members+" }\n")
			p := checker.NewProgram(context.Background(), []*parse.File{f})
			md := Infer(p, p.Lookup("Box"))
			if tt.want == nil {
				assert.Empty(t, md.Properties)
				return
			}
			assert.Equal(t, tt.want, names(md.Properties))
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind string
		key  string
	}{
		{"getWidth", "property", "width"},
		{"insertItem", "aggregation", "item"},
		{"detachPress", "event", "press"},
		{"attachPress", "", ""},
		{"getaway", "", ""},
	}
	for _, tt := range tests {
		cand, ok := Classify(&checker.Symbol{Name: tt.name})
		var kind string
		switch cand.(type) {
		case PropertyCandidate:
			kind = "property"
		case AggregationCandidate:
			kind = "aggregation"
		case EventCandidate:
			kind = "event"
		}
		assert.Equal(t, tt.kind, kind, tt.name)
		assert.Equal(t, tt.kind != "", ok, tt.name)
		if ok {
			assert.Equal(t, tt.key, cand.Key(), tt.name)
		}
	}
}

func TestReconstructorPicksStrategy(t *testing.T) {
	t.Parallel()

	f := parseFile(t, `declare class Declared {
  static metadata: { properties: {} };
}
class Literal {
  static metadata = { properties: { text: { type: "string" } } };
}
declare class Plain {
  getText(): string;
  setText(v: string): this;
}
`)
	p := checker.NewProgram(context.Background(), []*parse.File{f})
	r := NewReconstructor(p)

	for _, tt := range []struct {
		class  string
		source model.Source
	}{
		{"Literal", model.Declarative},
		{"Plain", model.Inferred},
		{"Declared", model.Inferred},
	} {
		sym := p.Lookup(tt.class)
		require.NotNil(t, sym, tt.class)
		decl, ok := sym.ClassDecl()
		require.True(t, ok)
		md, source := r.Reconstruct(decl, sym)
		assert.Equal(t, tt.source, source, tt.class)
		if tt.class != "Declared" {
			assert.Equal(t, []string{"text"}, names(md.Properties), tt.class)
		}
	}
}
