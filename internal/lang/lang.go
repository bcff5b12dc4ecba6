// Package lang provides the TypeScript grammar registry and small helpers
// for walking tree-sitter TypeScript syntax.
package lang

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds tree-sitter configuration for one TypeScript dialect.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Parsers are not safe for concurrent use.
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps dialect names to their configuration.
var Languages = map[string]*Language{
	"typescript": {
		Name:       "typescript",
		Extensions: []string{".ts", ".mts", ".cts"},
		lang:       typescript.GetLanguage(),
	},
	"tsx": {
		Name:       "tsx",
		Extensions: []string{".tsx"},
		lang:       tsx.GetLanguage(),
	},
}

var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// ForPath returns the language for a file path, or nil if unsupported.
// Declaration files (".d.ts") use the plain TypeScript grammar.
func ForPath(path string) *Language {
	name := ForExtension(strings.ToLower(filepath.Ext(path)))
	if name == "" {
		return nil
	}
	return Languages[name]
}

// IsDeclarationFile reports whether path names an ambient declaration file.
func IsDeclarationFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(base, ".d.ts") || strings.HasSuffix(base, ".d.mts") || strings.HasSuffix(base, ".d.cts")
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// ChildOfType returns the first direct child of node with the given type.
func ChildOfType(node *sitter.Node, typ string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c != nil && c.Type() == typ {
			return c
		}
	}
	return nil
}

// HasChild reports whether node has a direct child (named or anonymous) of typ.
func HasChild(node *sitter.Node, typ string) bool {
	return ChildOfType(node, typ) != nil
}

// NamedChildren returns the named direct children of node, skipping comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FirstNamedChild returns the first non-comment named child of node.
func FirstNamedChild(node *sitter.Node) *sitter.Node {
	kids := NamedChildren(node)
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}

// Unwrap strips an export_statement wrapper and returns the declaration it
// carries, or node itself.
func Unwrap(node *sitter.Node) *sitter.Node {
	if node == nil || node.Type() != "export_statement" {
		return node
	}
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		return decl
	}
	return node
}

// IsClass reports whether node is a (possibly abstract) class declaration.
func IsClass(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "class_declaration", "abstract_class_declaration", "class":
		return true
	}
	return false
}

// IsStringLiteral reports whether node is a plain quoted string.
func IsStringLiteral(node *sitter.Node) bool {
	return node != nil && node.Type() == "string"
}

// StringValue returns the unquoted content of a string literal node.
func StringValue(node *sitter.Node, source []byte) string {
	raw := NodeText(node, source)
	if len(raw) < 2 {
		return ""
	}
	if raw[0] == '\'' {
		raw = `"` + strings.ReplaceAll(strings.ReplaceAll(raw[1:len(raw)-1], `\'`, `'`), `"`, `\"`) + `"`
	}
	if s, err := strconv.Unquote(raw); err == nil {
		return s
	}
	return raw[1 : len(raw)-1]
}

// PropertyName returns the textual key of a property name node
// (identifier, string or number).
func PropertyName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if IsStringLiteral(node) {
		return StringValue(node, source)
	}
	return NodeText(node, source)
}
