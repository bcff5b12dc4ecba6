// Package generator drives one generation run: it parses the document,
// binds it with the project's declaration files, asks a Generator for the
// region to write and merges that region back through the host.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/checker"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/hierarchy"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/host"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/logger"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/merge"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/metadata"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/model"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/parse"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/synth"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/typetree"
)

// ErrNoCandidate marks runs where no class in the document qualifies.
var ErrNoCandidate = errors.New("no candidate class")

// Options configure a run.
type Options struct {
	// Declarations are .d.ts paths bound alongside the document.
	Declarations []string
	// RootClasses end ancestor walks; hierarchy.DefaultRoots when empty.
	RootClasses []string
	Strategy    merge.Strategy
	// Now is the banner clock; time.Now when nil.
	Now func() time.Time
	Log *zap.SugaredLogger
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) logger() *zap.SugaredLogger {
	if o.Log != nil {
		return o.Log
	}
	return logger.Logger
}

// Generator selects a target class and renders its region.
type Generator interface {
	Kind() synth.Kind
	Region(s *Session, now time.Time) (model.Region, error)
}

// Session is the parsed and bound state of one run.
type Session struct {
	File      *parse.File
	Program   *checker.Program
	Resolver  *hierarchy.Resolver
	Extractor *typetree.Extractor
	Log       *zap.SugaredLogger

	files []*parse.File
}

// Open parses doc and binds it with the declaration files in opts.
// Unreadable declaration files are logged and skipped.
func Open(ctx context.Context, doc host.Document, opts Options) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := opts.logger().With(logger.FieldFile, doc.Path())

	f, err := parse.Parse(ctx, doc.Path(), []byte(doc.Text()))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", doc.Path())
	}
	files := []*parse.File{f}
	for _, path := range opts.Declarations {
		if path == doc.Path() {
			continue
		}
		d, err := parse.ReadFile(ctx, path)
		if err != nil {
			log.Warnw("skipping declaration file", "declaration", path, logger.FieldError, err)
			continue
		}
		files = append(files, d)
	}
	log.Debugw("bound program", logger.FieldCount, len(files))

	p := checker.NewProgram(ctx, files, checker.WithLogger(log))
	r := hierarchy.NewResolver(p, opts.RootClasses, log)
	r.Members = metadata.NewReconstructor(p)
	return &Session{
		File:      f,
		Program:   p,
		Resolver:  r,
		Extractor: typetree.New(p),
		Log:       log,
		files:     files,
	}, nil
}

// Close releases the session's syntax trees.
func (s *Session) Close() {
	s.Program.Close()
	for _, f := range s.files {
		f.Close()
	}
}

// Status says what a run did to the document.
type Status int

const (
	Inserted Status = iota
	Replaced
	UpToDate
)

func (s Status) String() string {
	switch s {
	case Inserted:
		return "inserted"
	case Replaced:
		return "replaced"
	default:
		return "up to date"
	}
}

// Result describes a successful run.
type Result struct {
	Status Status
	Region model.Region
	Edit   merge.Edit
}

// Run generates into doc. Every failure is reported once through n, with
// hints appended, logged, and returned.
func Run(ctx context.Context, gen Generator, doc host.Document, n host.Notifier, opts Options) (res Result, err error) {
	log := opts.logger().With(logger.FieldFile, doc.Path(), logger.FieldCommand, string(gen.Kind()))
	start := time.Now()
	defer func() {
		if err == nil {
			log.Infow("generation finished", "status", res.Status.String(), logger.FieldDuration, time.Since(start))
			return
		}
		n.Error(Message(err))
		if errors.Is(err, ErrNoCandidate) {
			log.Infow("no candidate class", logger.FieldError, err)
			return
		}
		log.Errorw("generation failed", logger.FieldError, fmt.Sprintf("%+v", err))
	}()

	s, err := Open(ctx, doc, opts)
	if err != nil {
		return Result{}, err
	}
	defer s.Close()

	region, err := gen.Region(s, opts.now())
	if err != nil {
		return Result{}, err
	}

	text := doc.Text()
	edit, err := merge.Planner{Strategy: opts.Strategy}.Plan(text, region)
	if err != nil {
		return Result{}, err
	}
	next, err := merge.Apply(text, edit)
	if err != nil {
		return Result{}, err
	}

	res = Result{Region: region, Edit: edit, Status: Inserted}
	if edit.Kind == merge.Replace {
		res.Status = Replaced
	}
	if merge.SameIgnoringStamp(next, text) {
		res.Status = UpToDate
		n.Info(fmt.Sprintf("%s accessors for %s are up to date", gen.Kind(), region.ClassName))
		return res, nil
	}

	if err := doc.Apply(ctx, edit); err != nil {
		return Result{}, err
	}
	n.Info(fmt.Sprintf("Generated %s accessors for %s", gen.Kind(), region.ClassName))
	return res, nil
}

// Message renders err with its hints for display.
func Message(err error) string {
	msg := err.Error()
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		msg += "\n" + strings.Join(hints, "\n")
	}
	return msg
}
