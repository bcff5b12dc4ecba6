// Package parse turns TypeScript sources into tree-sitter syntax trees and
// offers the few structural queries the generators need.
package parse

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/lang"
)

// File is one parsed source file. Node pointers handed out by its Root stay
// valid until Close.
type File struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree
	Root   *sitter.Node
}

// Parse parses source as the dialect implied by path.
func Parse(ctx context.Context, path string, source []byte) (*File, error) {
	l := lang.ForPath(path)
	if l == nil {
		l = lang.Languages["typescript"]
	}
	parser := l.NewParser()
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return &File{Path: path, Source: source, Tree: tree, Root: tree.RootNode()}, nil
}

// ReadFile reads and parses the file at path.
func ReadFile(ctx context.Context, path string) (*File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Parse(ctx, path, source)
}

// Close releases the syntax tree.
func (f *File) Close() {
	if f != nil && f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// Text returns the source text covered by node.
func (f *File) Text(node *sitter.Node) string {
	return lang.NodeText(node, f.Source)
}

// Line returns the 1-based line of node.
func (f *File) Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// Classes returns the top-level class declarations of the file in source
// order, looking through export wrappers.
func (f *File) Classes() []*sitter.Node {
	var out []*sitter.Node
	for _, stmt := range lang.NamedChildren(f.Root) {
		if decl := lang.Unwrap(stmt); lang.IsClass(decl) {
			out = append(out, decl)
		}
	}
	return out
}

// ClassName returns the declared name of a class node.
func (f *File) ClassName(class *sitter.Node) string {
	return f.Text(class.ChildByFieldName("name"))
}

// ClassBody returns the class_body node of a class declaration.
func ClassBody(class *sitter.Node) *sitter.Node {
	if body := class.ChildByFieldName("body"); body != nil {
		return body
	}
	return lang.ChildOfType(class, "class_body")
}

// DocComment returns the cleaned JSDoc text attached to node: the "/** */"
// block comment directly preceding it (or its export wrapper), with comment
// markers and tag lines removed.
func (f *File) DocComment(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	target := node
	if p := node.Parent(); p != nil && p.Type() == "export_statement" {
		target = p
	}
	prev := target.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := f.Text(prev)
	if !strings.HasPrefix(text, "/**") || text == "/**/" {
		return ""
	}
	return CleanJSDoc(text)
}

// CleanJSDoc strips "/**", "*/" and leading asterisks, dropping everything
// from the first block tag ("@param", "@returns", ...) on.
func CleanJSDoc(text string) string {
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimSuffix(text, "*/")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "@") {
			break
		}
		lines = append(lines, line)
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// ClosingBounds returns the offset just past the last non-comment token
// before a class's closing brace, and the offset just past the brace. A
// comment starting with marker counts as a token, so a region made only of
// comments still lies before pos.
func (f *File) ClosingBounds(class *sitter.Node, marker string) (pos, end int, ok bool) {
	body := ClassBody(class)
	if body == nil || body.ChildCount() < 2 {
		return 0, 0, false
	}
	closing := body.Child(int(body.ChildCount()) - 1)
	if closing.Type() != "}" {
		return 0, 0, false
	}
	for i := int(body.ChildCount()) - 2; i >= 0; i-- {
		c := body.Child(i)
		if c.Type() == "comment" && (marker == "" || !strings.HasPrefix(f.Text(c), marker)) {
			continue
		}
		return int(c.EndByte()), int(closing.EndByte()), true
	}
	return 0, 0, false
}
