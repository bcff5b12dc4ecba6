// Package watch regenerates accessors when TypeScript sources change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/discover"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/generator"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/host"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/lang"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is handled.
const DefaultDebounce = 200 * time.Millisecond

// DefaultPatterns select the files handled when no pattern is given.
var DefaultPatterns = []string{"**/*.ts"}

// Handler processes one changed file. Errors are logged and do not stop
// the watcher.
type Handler func(ctx context.Context, path string) error

// Options configure a Watcher.
type Options struct {
	// Patterns are doublestar globs matched against root-relative paths.
	Patterns []string
	Debounce time.Duration
	Log      *zap.SugaredLogger
}

// Watcher delivers debounced changes under a project root to a Handler.
// Handler calls are serialized on the goroutine running Run.
type Watcher struct {
	root     string
	patterns []string
	debounce time.Duration
	handle   Handler
	log      *zap.SugaredLogger
	fsw      *fsnotify.Watcher
}

// New watches every directory discover would descend into under root.
func New(root string, handle Handler, opts Options) (*Watcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", root)
	}
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Newf("invalid watch pattern %q", p)
		}
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	w := &Watcher{
		root:     root,
		patterns: patterns,
		debounce: debounce,
		handle:   handle,
		log:      logger.Component(opts.Log, "watch"),
		fsw:      fsw,
	}

	dirs, err := discover.Dirs(root)
	if err != nil {
		_ = fsw.Close()
		return nil, errors.Wrapf(err, "list directories under %s", root)
	}
	for _, dir := range dirs {
		w.add(filepath.Join(root, dir))
	}
	w.log.Infow("watching", "root", root, logger.FieldCount, len(dirs))
	return w, nil
}

func (w *Watcher) add(dir string) {
	if err := w.fsw.Add(dir); err != nil {
		w.log.Warnw("cannot watch directory", "dir", dir, logger.FieldError, err)
	}
}

// Match reports whether path (absolute or root-relative) is handled.
func (w *Watcher) Match(path string) bool {
	if lang.IsDeclarationFile(path) {
		return false
	}
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return false
		}
		path = rel
	}
	path = filepath.ToSlash(path)
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// Sweep hands every existing source that Match accepts to the handler, in
// path order. It returns the number of files handled.
func (w *Watcher) Sweep(ctx context.Context) (int, error) {
	files, err := discover.Files(w.root, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "list sources under %s", w.root)
	}
	var handled int
	for _, f := range files {
		if !w.Match(f.Path) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return handled, err
		}
		path := filepath.Join(w.root, f.Path)
		if err := w.handle(ctx, path); err != nil {
			w.log.Debugw("handler failed", logger.FieldFile, path, logger.FieldError, err)
		}
		handled++
	}
	w.log.Infow("initial sweep done", logger.FieldCount, handled)
	return handled, nil
}

// Run handles changes until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.event(ev) {
				pending[ev.Name] = struct{}{}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watcher error", logger.FieldError, err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			sort.Strings(paths)
			for _, p := range paths {
				if ctx.Err() != nil {
					return nil
				}
				if err := w.handle(ctx, p); err != nil {
					w.log.Debugw("handler failed", logger.FieldFile, p, logger.FieldError, err)
				}
			}
		}
	}
}

// event picks up new directories and reports whether ev names a file to
// handle.
func (w *Watcher) event(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) && !discover.SkipDir(info.Name()) {
			w.add(ev.Name)
		}
		return false
	}
	return w.Match(ev.Name)
}

// Regenerate runs the first generator of gens that finds a candidate class
// in path. A file no generator applies to is reported up to date.
func Regenerate(ctx context.Context, path string, gens []generator.Generator, n host.Notifier, opts generator.Options) (generator.Result, error) {
	for _, gen := range gens {
		doc, err := host.OpenFile(path)
		if err != nil {
			return generator.Result{}, err
		}
		var rec host.Recorder
		res, err := generator.Run(ctx, gen, doc, &rec, opts)
		if errors.Is(err, generator.ErrNoCandidate) {
			continue
		}
		replay(&rec, n)
		return res, err
	}
	return generator.Result{Status: generator.UpToDate}, nil
}

func replay(rec *host.Recorder, n host.Notifier) {
	for _, m := range rec.Messages() {
		if m.Error {
			n.Error(m.Text)
		} else {
			n.Info(m.Text)
		}
	}
}
