package hierarchy

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/checker"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/metadata"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

const frameworkTypes = `declare namespace sap.ui.base {
  class Object {}
  class EventProvider extends sap.ui.base.Object {}
  class ManagedObject extends sap.ui.base.EventProvider {}
}
declare namespace sap.ui.core {
  class Element extends sap.ui.base.ManagedObject {}
  class Control extends sap.ui.core.Element {
    getBusy(): boolean;
    setBusy(b: boolean): this;
  }
}
declare module "sap/ui/core/Control" {
  export default sap.ui.core.Control;
}
declare module "my/lib/Base" {
  import Control from "sap/ui/core/Control";
  export default class Base extends Control {
    static metadata = { properties: { color: { type: "string" } } };
  }
}
`

func setup(t *testing.T, user string) (*Resolver, *parse.File) {
	t.Helper()
	fw, err := parse.Parse(context.Background(), "framework.d.ts", []byte(frameworkTypes))
	require.NoError(t, err)
	t.Cleanup(fw.Close)
	f, err := parse.Parse(context.Background(), "src/MyControl.ts", []byte(user))
	require.NoError(t, err)
	t.Cleanup(f.Close)

	p := checker.NewProgram(context.Background(), []*parse.File{f, fw})
	r := NewResolver(p, nil, zaptest.NewLogger(t).Sugar())
	r.Members = metadata.NewReconstructor(p)
	return r, f
}

func classNamed(t *testing.T, f *parse.File, name string) *sitter.Node {
	t.Helper()
	for _, c := range f.Classes() {
		if f.ClassName(c) == name {
			return c
		}
	}
	t.Fatalf("class %s not found", name)
	return nil
}

func qualifiedNames(chain []model.ClassEntry) []string {
	out := make([]string, len(chain))
	for i, e := range chain {
		out[i] = e.QualifiedName
	}
	return out
}

func TestChainStopsAtRoot(t *testing.T) {
	t.Parallel()

	r, f := setup(t, `import Base from "my/lib/Base";
export default class MyControl extends Base {}
`)
	chain, err := r.Chain(f, classNamed(t, f, "MyControl"))
	require.NoError(t, err)
	assert.Equal(t, []string{"my.lib.Base", "sap.ui.core.Control"}, qualifiedNames(chain))

	assert.Equal(t, model.Declarative, chain[0].Source)
	assert.Equal(t, "color", chain[0].Members.Properties[0].Name)
	assert.Equal(t, model.Inferred, chain[1].Source)
	assert.Equal(t, "busy", chain[1].Members.Properties[0].Name)
}

func TestChainWithCustomRoots(t *testing.T) {
	t.Parallel()

	fw, err := parse.Parse(context.Background(), "framework.d.ts", []byte(frameworkTypes))
	require.NoError(t, err)
	defer fw.Close()
	f, err := parse.Parse(context.Background(), "x.ts", []byte(`import Control from "sap/ui/core/Control";
export class X extends Control {}
`))
	require.NoError(t, err)
	defer f.Close()

	p := checker.NewProgram(context.Background(), []*parse.File{f, fw})
	r := NewResolver(p, []string{"sap.ui.base.Object"}, nil)

	chain, err := r.Chain(f, classNamed(t, f, "X"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"sap.ui.core.Control",
		"sap.ui.core.Element",
		"sap.ui.base.ManagedObject",
		"sap.ui.base.EventProvider",
		"sap.ui.base.Object",
	}, qualifiedNames(chain))
}

func TestBaseErrors(t *testing.T) {
	t.Parallel()

	r, f := setup(t, `import Missing from "not/declared";
class NoBase {}
class Unknown extends Missing {}
class Generic extends Base<Foo, Bar> {}
class Complex extends Base<Foo[]> {}
`)

	_, err := r.Base(f, classNamed(t, f, "NoBase"))
	assert.True(t, errors.Is(err, ErrNoExtends))

	_, err = r.Base(f, classNamed(t, f, "Unknown"))
	assert.True(t, errors.Is(err, ErrUnresolved))

	chain, err := r.Chain(f, classNamed(t, f, "Unknown"))
	assert.True(t, errors.Is(err, ErrUnresolved))
	assert.Empty(t, chain)

	b, _ := r.Base(f, classNamed(t, f, "Generic"))
	assert.Equal(t, []string{"Foo", "Bar"}, b.TypeArguments)
	assert.Equal(t, "Base", b.Written)

	b, _ = r.Base(f, classNamed(t, f, "Complex"))
	assert.Nil(t, b.TypeArguments)
}

func TestChainCycle(t *testing.T) {
	t.Parallel()

	r, f := setup(t, `declare class A extends B {}
declare class B extends A {}
class C extends A {}
`)
	chain, err := r.Chain(f, classNamed(t, f, "C"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, qualifiedNames(chain))
}
