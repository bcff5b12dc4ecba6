package checker

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
)

// Loader parses the file at path. It is called lazily for relative imports
// that are not part of the initial file set.
type Loader func(ctx context.Context, path string) (*parse.File, error)

// Option configures a Program.
type Option func(*Program)

// WithLogger sets the diagnostic logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(p *Program) {
		if log != nil {
			p.log = log
		}
	}
}

// WithLoader replaces the file loader used for relative imports.
func WithLoader(l Loader) Option {
	return func(p *Program) { p.load = l }
}

type nodeKey struct {
	file       *parse.File
	start, end uint32
	typ        string
}

func keyOf(f *parse.File, n *sitter.Node) nodeKey {
	return nodeKey{file: f, start: n.StartByte(), end: n.EndByte(), typ: n.Type()}
}

// Program is the bound view of a set of files. It is not safe for
// concurrent use; one program serves one generation run.
type Program struct {
	ctx    context.Context
	log    *zap.SugaredLogger
	load   Loader
	files  []*parse.File
	byPath map[string]*parse.File
	owned  []*parse.File

	global      *Symbol
	ambient     map[string]*Symbol
	fileModules map[*parse.File]*Symbol
	scopes      map[nodeKey]*Symbol
	declared    map[nodeKey]*Symbol
}

// NewProgram binds files. The first file is conventionally the one under
// analysis; the rest are auxiliary declaration files.
func NewProgram(ctx context.Context, files []*parse.File, opts ...Option) *Program {
	p := &Program{
		ctx:         ctx,
		log:         zap.NewNop().Sugar(),
		load:        parse.ReadFile,
		byPath:      make(map[string]*parse.File),
		global:      &Symbol{Flags: FlagNamespace, exports: newTable(), locals: newTable()},
		ambient:     make(map[string]*Symbol),
		fileModules: make(map[*parse.File]*Symbol),
		scopes:      make(map[nodeKey]*Symbol),
		declared:    make(map[nodeKey]*Symbol),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, f := range files {
		p.add(f)
	}
	return p
}

// Files returns every bound file, including lazily loaded ones.
func (p *Program) Files() []*parse.File {
	return p.files
}

// Global returns the global scope symbol.
func (p *Program) Global() *Symbol {
	return p.global
}

// Close releases files the program loaded on its own.
func (p *Program) Close() {
	for _, f := range p.owned {
		f.Close()
	}
	p.owned = nil
}

func (p *Program) add(f *parse.File) {
	if f == nil {
		return
	}
	path := filepath.Clean(f.Path)
	if _, ok := p.byPath[path]; ok {
		return
	}
	p.byPath[path] = f
	p.files = append(p.files, f)
	p.bindFile(f)
}

// DeclarationOf returns the symbol bound for a declaration node.
func (p *Program) DeclarationOf(f *parse.File, node *sitter.Node) *Symbol {
	if node == nil {
		return nil
	}
	return p.declared[keyOf(f, node)]
}

// Module returns the module symbol a specifier resolves to from file.
func (p *Program) Module(from *parse.File, specifier string) *Symbol {
	return p.resolveModule(from, specifier)
}

var moduleExtensions = []string{".ts", ".tsx", ".d.ts", "/index.ts", "/index.d.ts"}

func (p *Program) resolveModule(from *parse.File, spec string) *Symbol {
	if m, ok := p.ambient[spec]; ok {
		return m
	}

	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || filepath.IsAbs(spec) {
		base := spec
		if from != nil && !filepath.IsAbs(spec) {
			base = filepath.Join(filepath.Dir(from.Path), spec)
		}
		base = strings.TrimSuffix(base, ".js")
		for _, ext := range moduleExtensions {
			if m := p.fileModule(base + ext); m != nil {
				return m
			}
		}
		return nil
	}

	// Bare specifiers resolve against loaded declaration files by path
	// suffix, which covers the "exports/sap/ui/core/Control.d.ts" layout.
	suffix := "/" + strings.TrimPrefix(spec, "/")
	for _, f := range p.files {
		trimmed := trimTSExtension(filepath.ToSlash(f.Path))
		if trimmed == spec || strings.HasSuffix(trimmed, suffix) {
			if m := p.fileModules[f]; m != nil {
				return m
			}
		}
	}
	return nil
}

func trimTSExtension(path string) string {
	for _, ext := range []string{".d.ts", ".tsx", ".ts"} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

func (p *Program) fileModule(path string) *Symbol {
	path = filepath.Clean(path)
	f, ok := p.byPath[path]
	if !ok {
		if _, err := os.Stat(path); err != nil {
			return nil
		}
		loaded, err := p.load(p.ctx, path)
		if err != nil {
			p.log.Debugw("loading import failed", "file", path, "error", err)
			return nil
		}
		p.owned = append(p.owned, loaded)
		p.add(loaded)
		f = loaded
	}
	return p.fileModules[f]
}
