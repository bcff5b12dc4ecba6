package naming

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

func TestCamelCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"a", "A"},
		{"width", "Width"},
		{"Width", "Width"},
		{"backgroundColor", "BackgroundColor"},
		{"_private", "_private"},
		{"élan", "Élan"},
	}
	for _, tt := range tests {
		if got := CamelCase(tt.in); got != tt.want {
			t.Errorf("CamelCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Every generated accessor name is derived with CamelCase, so the first rune
// must be upper-cased and nothing else may change.
func TestCamelCasePreservesTail(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"x", "xY", "someLongName", "with space", "ünïcode", "9lives", "a/b"} {
		got := CamelCase(s)
		r, size := utf8.DecodeRuneInString(s)
		gr, gsize := utf8.DecodeRuneInString(got)
		if gr != unicode.ToUpper(r) {
			t.Errorf("CamelCase(%q): first rune %q, want %q", s, gr, unicode.ToUpper(r))
		}
		if got[gsize:] != s[size:] {
			t.Errorf("CamelCase(%q): tail changed to %q", s, got[gsize:])
		}
	}
}

func TestTrimPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, prefix string
		want         string
		ok           bool
	}{
		{"getWidth", "get", "width", true},
		{"setWidth", "set", "width", true},
		{"getaway", "get", "", false},
		{"get", "get", "", false},
		{"fireSelect", "fire", "select", true},
		{"destroyItems", "destroy", "items", true},
		{"width", "get", "", false},
	}
	for _, tt := range tests {
		got, ok := TrimPrefix(tt.name, tt.prefix)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TrimPrefix(%q, %q) = (%q, %v), want (%q, %v)", tt.name, tt.prefix, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSingular(t *testing.T) {
	t.Parallel()

	if got := Singular("items"); got != "item" {
		t.Errorf("Singular(items) = %q", got)
	}
	if got := Singular("a"); got != "a" {
		t.Errorf("Singular(a) = %q", got)
	}
}

func TestPathHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, id, fn string
	}{
		{"/name", "name", "Name"},
		{"/address/street", "address_street", "AddressStreet"},
		{"/items/title", "items_title", "ItemsTitle"},
		{"plain", "plain", "Plain"},
	}
	for _, tt := range tests {
		if got := PathIdentifier(tt.path); got != tt.id {
			t.Errorf("PathIdentifier(%q) = %q, want %q", tt.path, got, tt.id)
		}
		if got := FunctionName(tt.path); got != tt.fn {
			t.Errorf("FunctionName(%q) = %q, want %q", tt.path, got, tt.fn)
		}
	}
}

func TestCountOccurrences(t *testing.T) {
	t.Parallel()

	text := "a\nb\nc\n"
	if got := CountOccurrences(text, "\n"); got != strings.Count(text, "\n") {
		t.Errorf("CountOccurrences = %d", got)
	}
	if got := CountOccurrences(text, ""); got != 0 {
		t.Errorf("empty needle = %d, want 0", got)
	}
}
