// Package discover finds TypeScript sources and declaration files in a
// project.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to project root
	Language string
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"build":        {},
	"dist":         {},
	"coverage":     {},
	".ui5":         {},
	"webapp-dist":  {},
}

// tree walks a project root, honouring skipDirs and either git's view of
// the working tree or the root .gitignore.
type tree struct {
	root     string
	gitFiles map[string]struct{}
	gi       *ignore.GitIgnore
}

func newTree(root string) *tree {
	t := &tree{root: root, gitFiles: gitLsFiles(root)}
	if t.gitFiles == nil {
		t.gi = loadGitignore(root)
	}
	return t
}

// SkipDir reports whether a directory named name is never descended into.
func SkipDir(name string) bool {
	_, skip := skipDirs[name]
	return skip || strings.HasPrefix(name, ".")
}

// walk calls fn with the root-relative path of every visible file, and
// dir for every visible directory.
func (t *tree) walk(file func(rel string), dir func(rel string)) error {
	return filepath.WalkDir(t.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()
		rel, err := filepath.Rel(t.root, path)
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if path != t.root {
				if SkipDir(name) || (t.gi != nil && t.gi.MatchesPath(rel+"/")) {
					return filepath.SkipDir
				}
			}
			if dir != nil {
				dir(rel)
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if t.gitFiles != nil {
			if _, ok := t.gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if t.gi != nil && t.gi.MatchesPath(rel) {
			return nil
		}
		if file != nil {
			file(rel)
		}
		return nil
	})
}

// Files discovers TypeScript sources under root, declaration files
// included. If languages is non-empty, only files of those languages are
// returned.
func Files(root string, languages []string) ([]FileEntry, error) {
	langSet := make(map[string]struct{}, len(languages))
	for _, l := range languages {
		langSet[l] = struct{}{}
	}

	var results []FileEntry
	err := newTree(root).walk(func(rel string) {
		langName := lang.ForExtension(filepath.Ext(rel))
		if langName == "" {
			return
		}
		if len(langSet) > 0 {
			if _, ok := langSet[langName]; !ok {
				return
			}
		}
		results = append(results, FileEntry{Path: rel, Language: langName})
	}, nil)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results, nil
}

// Dirs returns the root-relative directories Files would descend into,
// "." first.
func Dirs(root string) ([]string, error) {
	var dirs []string
	if err := newTree(root).walk(nil, func(rel string) { dirs = append(dirs, rel) }); err != nil {
		return nil, err
	}
	return dirs, nil
}

// Declarations expands glob patterns into absolute .d.ts paths. Patterns
// with a literal base directory ("node_modules/@types/*.d.ts") are globbed
// there directly, so skipped and ignored directories can still be named
// explicitly. Patterns without one are matched against the project walk.
func Declarations(root string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		if !lang.IsDeclarationFile(path) {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}

	var walked []string
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Newf("invalid declaration pattern %q", pattern)
		}

		base, rest := doublestar.SplitPattern(pattern)
		if base == "." {
			if walked == nil {
				walked = []string{}
				if err := newTree(root).walk(func(rel string) {
					walked = append(walked, filepath.ToSlash(rel))
				}, nil); err != nil {
					return nil, err
				}
			}
			for _, rel := range walked {
				if ok, _ := doublestar.Match(pattern, rel); ok {
					add(filepath.Join(root, filepath.FromSlash(rel)))
				}
			}
			continue
		}

		dir := filepath.FromSlash(base)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		matches, err := doublestar.Glob(os.DirFS(dir), rest, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "glob %s", pattern)
		}
		for _, m := range matches {
			add(filepath.Join(dir, filepath.FromSlash(m)))
		}
	}

	sort.Strings(out)
	return out, nil
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
