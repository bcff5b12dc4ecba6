// Package config loads the optional .ui5codegen.toml project file.
package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/hierarchy"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/host"
	"github.com/tapsiturbi/ui5-ts-codegen/internal/merge"
)

// FileName is looked up in the project root.
const FileName = ".ui5codegen.toml"

// Setting keys understood by StringSlice.
const (
	KeyParentClassName = host.KeyParentClassName
	KeyRootClasses     = "rootClasses"
	KeyDeclarations    = "declarations"
)

// Config is the project configuration.
type Config struct {
	// ParentClassName lists the base classes whose type argument is a model
	// shape. A written base name or a resolved qualified name both match.
	ParentClassName []string `toml:"parentClassName"`
	// RootClasses end ancestor chain walks.
	RootClasses []string `toml:"rootClasses"`
	// Declarations are glob patterns of .d.ts files loaded with every run.
	Declarations []string `toml:"declarations"`
	// MergeStrategy is "line-count" or "end-marker".
	MergeStrategy string `toml:"mergeStrategy"`
}

// Default returns the configuration used without a project file.
func Default() Config {
	return Config{
		ParentClassName: append([]string(nil), host.DefaultParentClassNames...),
		RootClasses:     append([]string(nil), hierarchy.DefaultRoots...),
		Declarations:    []string{"typings/**/*.d.ts", "node_modules/@openui5/ts-types/types/*.d.ts"},
		MergeStrategy:   string(merge.LineCount),
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "read %s", path)
	}

	var file Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, errors.WithHint(errors.Wrapf(err, "parse %s", path), strict.String())
		}
		return cfg, errors.Wrapf(err, "parse %s", path)
	}
	cfg.merge(file)
	return cfg, cfg.validate()
}

// LoadDir loads FileName from dir.
func LoadDir(dir string) (Config, error) {
	return Load(filepath.Join(dir, FileName))
}

func (c *Config) merge(o Config) {
	if o.ParentClassName != nil {
		c.ParentClassName = o.ParentClassName
	}
	if o.RootClasses != nil {
		c.RootClasses = o.RootClasses
	}
	if o.Declarations != nil {
		c.Declarations = o.Declarations
	}
	if o.MergeStrategy != "" {
		c.MergeStrategy = o.MergeStrategy
	}
}

func (c Config) validate() error {
	switch merge.Strategy(c.MergeStrategy) {
	case merge.LineCount, merge.EndMarker:
		return nil
	}
	return errors.WithHintf(errors.Newf("unknown mergeStrategy %q", c.MergeStrategy),
		"Use %q or %q.", merge.LineCount, merge.EndMarker)
}

// Strategy returns the configured merge strategy.
func (c Config) Strategy() merge.Strategy {
	return merge.Strategy(c.MergeStrategy)
}

// StringSlice implements host.Settings.
func (c Config) StringSlice(key string) []string {
	switch key {
	case KeyParentClassName:
		return c.ParentClassName
	case KeyRootClasses:
		return c.RootClasses
	case KeyDeclarations:
		return c.Declarations
	}
	return nil
}

// Encode renders c as TOML.
func (c Config) Encode() (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetArraysMultiline(true)
	if err := enc.Encode(c); err != nil {
		return "", errors.Wrap(err, "encode config")
	}
	return buf.String(), nil
}
