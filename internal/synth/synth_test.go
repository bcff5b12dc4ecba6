package synth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
)

var fixed = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func TestPropertyAccessors(t *testing.T) {
	t.Parallel()

	got := PropertyAccessors("MyControl", []model.Member{
		{Name: "size", Type: "sap.ui.core.CSSSize", Comments: "Size of the box"},
	})
	want := `/**
 * Getter for size property of class MyControl
 * Size of the box
 */
public getSize() : sap.ui.core.CSSSize {
    return this.getProperty("size");
}

/**
 * Setter for size property of class MyControl
 * Size of the box
 */
public setSize(vValue : sap.ui.core.CSSSize, bRerender? : boolean) {
    return this.setProperty("size", vValue, bRerender);
}

`
	assert.Equal(t, want, got)
}

func TestDataAccessors(t *testing.T) {
	t.Parallel()

	got := DataAccessors("MyShape", []model.Member{
		{Name: "street", ParentPath: "/address", Type: "string"},
	})
	assert.Contains(t, got, "public getDataAddressStreet() : string {\n    return this.getProperty(\"/address/street\");\n}")
	assert.Contains(t, got, "public setDataAddressStreet(vValue: string) {\n    this.setProperty(\"/address/street\", vValue);\n}")
	assert.Contains(t, got, " * @see MyShape\n")
}

func TestPathFunctions(t *testing.T) {
	t.Parallel()

	members := []model.Member{
		{Name: "name", Type: "string", Comments: "Display name"},
		{Name: "address", Type: "{ street: string; }"},
		{Name: "street", ParentPath: "/address", Type: "string"},
		{Name: "items", Type: "{ title: string; sub: { id: number; }[]; }[]", Children: []model.Member{
			{Name: "title", Type: "string"},
			{Name: "meta", Type: "{ a: string; }"},
			{Name: "a", ParentPath: "/meta", Type: "string"},
			{Name: "sub", Type: "{ id: number; }[]", Children: []model.Member{
				{Name: "id", Type: "number"},
			}},
		}},
	}
	got := PathFunctions("MyShape", members)

	assert.Contains(t, got, `public static path() {
    return {
        /** @type {string} path to /name; Display name */
        name: "/name",
        /** @type {{ street: string; }} path to /address */
        address: "/address",
        /** @type {string} path to /address/street */
        address_street: "/address/street",`)
	assert.Contains(t, got, `        address_street: "{/address/street}",`)

	assert.Contains(t, got, `public static contextPathItems() {
    return {
        title: "title",
        meta: "meta",
        sub: "sub"
    };
}`)
	assert.Contains(t, got, `public static fullContextPathItems() {
    return {
        title: "{title}",`)
	assert.NotContains(t, got, `a: "a"`, "context functions expose immediate children only")

	assert.Contains(t, got, "public static contextPathItemsSub() {")
	assert.Contains(t, got, "under the context of /items[]/sub[]")
	assert.Less(t, strings.Index(got, "contextPathItems()"), strings.Index(got, "contextPathItemsSub()"))
}

func TestBannerAndStamp(t *testing.T) {
	t.Parallel()

	a := Banner("MyControl", KindControl, fixed)
	assert.Contains(t, a, "MyControl")
	assert.Contains(t, a, Tool)
	assert.Contains(t, a, StampPrefix+"2026-10-14T09:30:00Z\n")

	b := Banner("MyControl", KindControl, fixed.Add(time.Hour))
	require.NotEqual(t, a, b)
	assert.Equal(t, StripStamp(a), StripStamp(b))
	assert.Equal(t, StripStamp("    "+a), StripStamp("    "+b), "indented stamps compare equal")
}

func TestDeterministic(t *testing.T) {
	t.Parallel()

	props := []model.Member{{Name: "text", Type: "string"}}
	assert.Equal(t, Control("C", props, fixed), Control("C", props, fixed))

	got := Model("S", []model.Member{{Name: "x", Type: "number"}}, fixed)
	require.True(t, strings.HasPrefix(got, "//#region Auto generated code\n/*\n"))
	assert.True(t, strings.HasSuffix(got, "\n//#endregion"))
}

func TestContextLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a[]/b[]", ContextLabel("/a/b"))
	assert.Equal(t, "", ContextLabel(""))
}
