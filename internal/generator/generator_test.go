package generator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/host"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/merge"
)

type memDoc struct {
	path    string
	text    string
	applied int
}

func (d *memDoc) URI() string  { return "file://" + d.path }
func (d *memDoc) Path() string { return d.path }
func (d *memDoc) Text() string { return d.text }

func (d *memDoc) Apply(_ context.Context, e merge.Edit) error {
	out, err := merge.Apply(d.text, e)
	if err != nil {
		return err
	}
	d.text = out
	d.applied++
	return nil
}

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var fixed = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

const frameworkTypes = `declare namespace sap.ui.core {
  type CSSSize = string;
  class Element {}
  class Control extends sap.ui.core.Element {
    getBusy(): boolean;
    setBusy(b: boolean): this;
  }
}
declare module "sap/ui/core/Control" {
  export default sap.ui.core.Control;
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const controlSource = `import Control from "sap/ui/core/Control";

/**
 * A sized box.
 */
export default class MyControl extends Control {
    static readonly metadata = {
        properties: {
            /** Outer size */
            size: { type: "sap.ui.core.CSSSize", defaultValue: "auto" }
        }
    };

    init() {}
}
`

func TestControlEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	decl := writeFile(t, dir, "typings/ui5.d.ts", frameworkTypes)
	doc := &memDoc{path: filepath.Join(dir, "MyControl.ts"), text: controlSource}
	var n host.Recorder
	opts := Options{Declarations: []string{decl}, Now: clock(fixed), Log: zaptest.NewLogger(t).Sugar()}

	res, err := Run(context.Background(), Control{}, doc, &n, opts)
	require.NoError(t, err)
	assert.Equal(t, Inserted, res.Status)
	assert.Equal(t, "MyControl", res.Region.ClassName)

	assert.Contains(t, doc.text, "public getSize() : sap.ui.core.CSSSize {")
	assert.Contains(t, doc.text, `return this.getProperty("size");`)
	assert.Contains(t, doc.text, "public setSize(vValue : sap.ui.core.CSSSize, bRerender? : boolean) {")
	assert.Contains(t, doc.text, `return this.setProperty("size", vValue, bRerender);`)
	assert.Contains(t, doc.text, " * Outer size\n")
	assert.NotContains(t, doc.text, "getBusy", "inherited properties are not generated")
	assert.Equal(t, 1, strings.Count(doc.text, merge.AnchorStart))

	// A later run only differs in its timestamp and leaves the document alone.
	first := doc.text
	opts.Now = clock(fixed.Add(time.Hour))
	res, err = Run(context.Background(), Control{}, doc, &n, opts)
	require.NoError(t, err)
	assert.Equal(t, UpToDate, res.Status)
	assert.Equal(t, first, doc.text)
	assert.Equal(t, 1, doc.applied)

	msgs := n.Messages()
	require.Len(t, msgs, 2)
	assert.False(t, msgs[0].Error)
	assert.Contains(t, msgs[1].Text, "up to date")
}

func TestControlRegeneratesAfterMetadataChange(t *testing.T) {
	t.Parallel()

	doc := &memDoc{path: "/project/MyControl.ts", text: controlSource}
	var n host.Recorder
	opts := Options{Now: clock(fixed), Strategy: merge.EndMarker}

	_, err := Run(context.Background(), Control{}, doc, &n, opts)
	require.NoError(t, err)

	doc.text = strings.Replace(doc.text,
		`size: { type: "sap.ui.core.CSSSize", defaultValue: "auto" }`,
		`size: { type: "sap.ui.core.CSSSize", defaultValue: "auto" },
            label: "string"`, 1)
	res, err := Run(context.Background(), Control{}, doc, &n, opts)
	require.NoError(t, err)
	assert.Equal(t, Replaced, res.Status)
	assert.Contains(t, doc.text, "public getLabel() : string {")
	assert.Equal(t, 1, strings.Count(doc.text, merge.AnchorStart))
	assert.Equal(t, 1, strings.Count(doc.text, merge.AnchorEnd))
	assert.True(t, strings.HasSuffix(doc.text, "    "+merge.AnchorEnd+"\n}\n"))
}

func TestControlWithoutPropertiesRerunsCleanly(t *testing.T) {
	t.Parallel()

	src := `import Control from "sap/ui/core/Control";

export default class List extends Control {
    static readonly metadata = {
        aggregations: {
            items: { type: "sap.ui.core.Control", multiple: true }
        }
    };

    init() {}
}
`
	for _, strategy := range []merge.Strategy{merge.LineCount, merge.EndMarker} {
		t.Run(string(strategy), func(t *testing.T) {
			t.Parallel()
			doc := &memDoc{path: "/project/List.ts", text: src}
			var n host.Recorder
			opts := Options{Now: clock(fixed), Strategy: strategy}

			res, err := Run(context.Background(), Control{}, doc, &n, opts)
			require.NoError(t, err)
			assert.Equal(t, Inserted, res.Status)
			first := doc.text

			opts.Now = clock(fixed.Add(time.Hour))
			res, err = Run(context.Background(), Control{}, doc, &n, opts)
			require.NoError(t, err)
			assert.Equal(t, UpToDate, res.Status)
			assert.Equal(t, first, doc.text)
			assert.Equal(t, 1, strings.Count(doc.text, merge.AnchorStart))
		})
	}
}

func TestControlWarnsOnRedeclaredProperty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	decl := writeFile(t, dir, "ui5.d.ts", frameworkTypes)
	core, logs := observer.New(zapcore.WarnLevel)

	doc := &memDoc{path: filepath.Join(dir, "Busy.ts"), text: `import Control from "sap/ui/core/Control";
export default class Busy extends Control {
    static metadata = { properties: { busy: "boolean" } };
}
`}
	_, err := Run(context.Background(), Control{}, doc, &host.Recorder{}, Options{
		Declarations: []string{decl},
		Log:          zap.New(core).Sugar(),
	})
	require.NoError(t, err)

	warned := logs.FilterMessage("property redeclares an inherited property").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "sap.ui.core.Control", warned[0].ContextMap()["base"])
}

func TestControlWithoutMetadata(t *testing.T) {
	t.Parallel()

	doc := &memDoc{path: "/p/A.ts", text: "class A extends B {}\nclass C {}\n"}
	var n host.Recorder
	_, err := Run(context.Background(), Control{}, doc, &n, Options{})
	require.True(t, errors.Is(err, ErrNoCandidate))
	assert.Equal(t, 0, doc.applied)

	msgs := n.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Error)
	assert.Contains(t, msgs[0].Text, "No class found that has a static metadata property")
}

func TestModelEndToEnd(t *testing.T) {
	t.Parallel()

	doc := &memDoc{path: "/project/MyModel.ts", text: `import ViewJSONModel from "./ViewJSONModel";

interface MyShape {
    foo: string;
}

export default class MyModel extends ViewJSONModel<MyShape> {
}
`}
	var n host.Recorder
	res, err := Run(context.Background(), Model{}, doc, &n, Options{Now: clock(fixed)})
	require.NoError(t, err)
	assert.Equal(t, Inserted, res.Status)
	assert.Equal(t, []string{"MyShape"}, res.Region.ClassGenerics)

	assert.Contains(t, doc.text, "public static path() {")
	assert.Contains(t, doc.text, `foo: "/foo"`)
	assert.Contains(t, doc.text, "public static fullpath() {")
	assert.Contains(t, doc.text, `foo: "{/foo}"`)
	assert.Contains(t, doc.text, "public getDataFoo() : string {")
	assert.Contains(t, doc.text, "public setDataFoo(vValue: string) {")
	assert.Contains(t, doc.text, "@see MyShape")

	again, err := Run(context.Background(), Model{}, doc, &n, Options{Now: clock(fixed)})
	require.NoError(t, err)
	assert.Equal(t, UpToDate, again.Status)
}

func TestModelShapeFromAnotherFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "model/shapes.ts", `export interface Order {
    id: string;
    lines: { sku: string; qty: number }[];
}
`)
	path := writeFile(t, dir, "model/OrderModel.ts", `import { Order } from "./shapes";
import JSONModel from "sap/ui/model/json/JSONModel";

export default class OrderModel extends JSONModel<Order> {
}
`)
	doc, err := host.OpenFile(path)
	require.NoError(t, err)

	_, err = Run(context.Background(), Model{ParentClassNames: []string{"JSONModel"}}, doc, &host.Recorder{}, Options{Now: clock(fixed)})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "public getDataId() : string {")
	assert.Contains(t, text, "public static contextPathLines() {")
	assert.Contains(t, text, `sku: "sku"`)
	assert.NotContains(t, text, "getDataLinesSku", "array element fields are not flattened")
}

func TestModelNoCandidateSuggestsParent(t *testing.T) {
	t.Parallel()

	doc := &memDoc{path: "/p/M.ts", text: "interface S { a: string }\nexport class M extends ViewJsonModel<S> {}\n"}
	var n host.Recorder
	_, err := Run(context.Background(), Model{}, doc, &n, Options{})
	require.True(t, errors.Is(err, ErrNoCandidate))
	assert.Contains(t, err.Error(), "ViewJSONModel")

	hints := errors.GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "did you mean ViewJSONModel?")
	assert.Contains(t, n.Messages()[0].Text, hints[0])
}

func TestModelSkipsClassesWithoutTypeArguments(t *testing.T) {
	t.Parallel()

	doc := &memDoc{path: "/p/M.ts", text: "export class M extends ViewJSONModel {}\n"}
	_, err := Run(context.Background(), Model{}, doc, &host.Recorder{}, Options{})
	assert.True(t, errors.Is(err, ErrNoCandidate))
}

func TestAnchorOrderLeavesDocumentUntouched(t *testing.T) {
	t.Parallel()

	text := controlSource + "\n" + merge.AnchorStart + "\n" + merge.AnchorEnd + "\n"
	doc := &memDoc{path: "/p/MyControl.ts", text: text}
	var n host.Recorder
	_, err := Run(context.Background(), Control{}, doc, &n, Options{})
	require.True(t, errors.Is(err, merge.ErrAnchorOrder))
	assert.Equal(t, text, doc.text)
	assert.Equal(t, 0, doc.applied)
	assert.Contains(t, n.Messages()[0].Text, "AUTO GENERATED region")
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := &memDoc{path: "/p/MyControl.ts", text: controlSource}
	_, err := Run(ctx, Control{}, doc, &host.Recorder{}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	decl := writeFile(t, dir, "ui5.d.ts", frameworkTypes)
	doc := &memDoc{path: filepath.Join(dir, "Mixed.ts"), text: controlSource + `
interface Shape { title: string }
export class ShapeModel extends ViewJSONModel<Shape> {}
class Loose {}
`}
	r, err := Describe(context.Background(), doc, nil, Options{Declarations: []string{decl}})
	require.NoError(t, err)
	require.Len(t, r.Classes, 3)

	ctl := r.Classes[0]
	assert.Equal(t, "MyControl", ctl.Name)
	require.NotNil(t, ctl.Declared)
	assert.Equal(t, "size", ctl.Declared.Properties[0].Name)
	require.NotEmpty(t, ctl.Chain)
	assert.Equal(t, "sap.ui.core.Control", ctl.Chain[0].QualifiedName)

	mdl := r.Classes[1]
	assert.Nil(t, mdl.Declared)
	require.Len(t, mdl.Shapes, 1)
	assert.Equal(t, "/title", mdl.Shapes[0].Members[0].Path())

	assert.Equal(t, "Loose", r.Classes[2].Name)
	assert.Empty(t, r.Classes[2].Base)
	assert.Equal(t, controlSource+`
interface Shape { title: string }
export class ShapeModel extends ViewJSONModel<Shape> {}
class Loose {}
`, doc.text, "describe never edits")
}
