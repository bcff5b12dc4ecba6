// ui5codegen generates typed accessors for UI5 TypeScript controls and JSON
// models, merged into the source file inside a regenerable region.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/config"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/discover"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/generator"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/host"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/logger"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/lsp"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/toon"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/watch"
)

var version = "dev"

// errReported marks failures already shown to the user by a notifier.
var errReported = errors.New("generation failed")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %s\n", generator.Message(err))
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var verbosity int
	app := &cli.App{
		Name:                   "ui5codegen",
		Usage:                  "Generate typed accessors for UI5 TypeScript controls and models",
		Version:                version,
		Writer:                 stdout,
		ErrWriter:              stderr,
		UseShortOptionHandling: true,
		ExitErrHandler:         func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "project root holding the configuration and declaration files",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (default: <root>/" + config.FileName + ")",
			},
			&cli.StringSliceFlag{
				Name:  "declarations",
				Usage: "glob of .d.ts files to bind, replaces the configured list (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log more (-v info, -vv debug)",
				Count:   &verbosity,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "log as JSON lines",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "model",
				Usage:     "Generate path and data accessors for a JSON model class",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					dryRunFlag(),
					&cli.StringSliceFlag{
						Name:  "parent",
						Usage: "model base class name, replaces parentClassName (repeatable)",
					},
				},
				Action: func(c *cli.Context) error {
					p, err := loadProject(c, stderr, verbosity)
					if err != nil {
						return err
					}
					return generateFiles(c, p, generator.Model{ParentClassNames: p.parents(c)}, stdout, stderr)
				},
			},
			{
				Name:      "control",
				Usage:     "Generate property getters and setters for a control class",
				ArgsUsage: "FILE...",
				Flags:     []cli.Flag{dryRunFlag()},
				Action: func(c *cli.Context) error {
					p, err := loadProject(c, stderr, verbosity)
					if err != nil {
						return err
					}
					return generateFiles(c, p, generator.Control{}, stdout, stderr)
				},
			},
			{
				Name:      "describe",
				Usage:     "Print the recovered member model of a file in TOON form",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					p, err := loadProject(c, stderr, verbosity)
					if err != nil {
						return err
					}
					return describe(c, p, stdout)
				},
			},
			{
				Name:      "watch",
				Usage:     "Regenerate accessors whenever a source file changes",
				ArgsUsage: "[DIR]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "pattern",
						Usage: "doublestar glob of files to regenerate, relative to DIR (repeatable)",
					},
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "quiet period before a changed file is handled",
						Value: watch.DefaultDebounce,
					},
					&cli.BoolFlag{
						Name:  "initial",
						Usage: "regenerate every matching file once before watching",
					},
				},
				Action: func(c *cli.Context) error {
					p, err := loadProject(c, stderr, verbosity)
					if err != nil {
						return err
					}
					return watchDir(c, p, stderr)
				},
			},
			{
				Name:  "lsp",
				Usage: "Serve the generators as language server commands over stdio",
				Action: func(c *cli.Context) error {
					p, err := loadProject(c, stderr, verbosity)
					if err != nil {
						return err
					}
					srv := lsp.New(p.root, p.cfg, p.log)
					srv.Version = version
					return srv.RunStdio()
				},
			},
			{
				Name:      "init",
				Usage:     "Write or update the project configuration file",
				ArgsUsage: "[PATH]",
				Flags:     []cli.Flag{dryRunFlag()},
				Action: func(c *cli.Context) error {
					return runInit(c, stdout, stderr)
				},
			},
		},
	}
	return app.Run(append([]string{"ui5codegen"}, args...))
}

func dryRunFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "print the resulting document instead of writing it",
	}
}

// project is the configuration shared by every command.
type project struct {
	root string
	cfg  config.Config
	log  *zap.SugaredLogger
}

func loadProject(c *cli.Context, stderr io.Writer, verbosity int) (*project, error) {
	log := logger.New(stderr, c.Bool("json"), verbosity)

	root, err := filepath.Abs(c.String("root"))
	if err != nil {
		return nil, errors.Wrap(err, "resolving root")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "root path")
	}
	if !info.IsDir() {
		return nil, errors.Newf("%s: not a directory", root)
	}

	path := c.String("config")
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if decls := c.StringSlice("declarations"); len(decls) > 0 {
		cfg.Declarations = decls
	}
	log.Debugw("configuration loaded", "root", root, "config", path)
	return &project{root: root, cfg: cfg, log: log}, nil
}

func (p *project) parents(c *cli.Context) []string {
	if names := c.StringSlice("parent"); len(names) > 0 {
		return names
	}
	return host.ParentClassNames(p.cfg)
}

func (p *project) options() (generator.Options, error) {
	decls, err := discover.Declarations(p.root, p.cfg.Declarations)
	if err != nil {
		return generator.Options{}, err
	}
	p.log.Debugw("declarations discovered", logger.FieldCount, len(decls))
	return generator.Options{
		Declarations: decls,
		RootClasses:  p.cfg.RootClasses,
		Strategy:     p.cfg.Strategy(),
		Log:          p.log,
	}, nil
}

func generateFiles(c *cli.Context, p *project, gen generator.Generator, stdout, stderr io.Writer) error {
	if c.NArg() == 0 {
		return errors.WithHint(errors.New("no input file"), "Pass the TypeScript file to generate into.")
	}
	opts, err := p.options()
	if err != nil {
		return err
	}
	console := host.NewConsole(stderr)

	var failed int
	for _, path := range c.Args().Slice() {
		doc, err := host.OpenFile(path)
		if err != nil {
			console.Error(generator.Message(err))
			failed++
			continue
		}
		doc.DryRun = c.Bool("dry-run")
		doc.Out = stdout
		if _, err := generator.Run(c.Context, gen, doc, console, opts); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return errors.Wrapf(errReported, "%d of %d files", failed, c.NArg())
	}
	return nil
}

func describe(c *cli.Context, p *project, stdout io.Writer) error {
	if c.NArg() != 1 {
		return errors.New("describe takes exactly one file")
	}
	opts, err := p.options()
	if err != nil {
		return err
	}
	doc, err := host.OpenFile(c.Args().First())
	if err != nil {
		return err
	}
	report, err := generator.Describe(c.Context, doc, host.ParentClassNames(p.cfg), opts)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, toon.Encode(report))
	return nil
}

func watchDir(c *cli.Context, p *project, stderr io.Writer) error {
	dir := p.root
	if c.NArg() > 0 {
		dir = c.Args().First()
	}
	opts, err := p.options()
	if err != nil {
		return err
	}
	console := host.NewConsole(stderr)
	gens := []generator.Generator{generator.Control{}, generator.Model{ParentClassNames: host.ParentClassNames(p.cfg)}}

	w, err := watch.New(dir, func(ctx context.Context, path string) error {
		_, err := watch.Regenerate(ctx, path, gens, console, opts)
		return err
	}, watch.Options{
		Patterns: c.StringSlice("pattern"),
		Debounce: c.Duration("debounce"),
		Log:      p.log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if c.Bool("initial") {
		if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
			console.Error(generator.Message(err))
		}
	}
	console.Info(fmt.Sprintf("Watching %s (Ctrl+C to stop)", dir))
	start := time.Now()
	err = w.Run(ctx)
	p.log.Infow("watch stopped", logger.FieldDuration, time.Since(start))
	return err
}
