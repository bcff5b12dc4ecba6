package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/config"
)

const (
	sentinelStart = "# ui5-ts-codegen:start"
	sentinelEnd   = "# ui5-ts-codegen:end"
)

// runInit implements `ui5codegen init`, which writes (or updates) the
// default settings section of the project configuration file. The target
// defaults to <root>/.ui5codegen.toml.
func runInit(c *cli.Context, stdout, stderr io.Writer) error {
	section, err := generateSection()
	if err != nil {
		return err
	}
	dryRun := c.Bool("dry-run")

	// --dry-run with no path: just print the section itself.
	if dryRun && c.NArg() == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := filepath.Join(c.String("root"), config.FileName)
	if c.NArg() > 0 {
		path = c.Args().First()
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "reading %s", path)
	}
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	if _, err := config.Load(path); err != nil {
		return errors.WithHint(errors.Wrapf(err, "%s no longer loads", path),
			"Settings outside the generated section may repeat one of its keys; keep each key once.")
	}

	_, _ = fmt.Fprintf(stderr, "wrote default settings to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped default configuration.
func generateSection() (string, error) {
	body, err := config.Default().Encode()
	if err != nil {
		return "", err
	}
	header := `# Default settings for ui5codegen. Edit values in place; re-running
# "ui5codegen init" resets this section and leaves the rest of the file alone.
#
# parentClassName  model base classes whose type argument is the data shape
# rootClasses      classes at which ancestor walks stop
# declarations     .d.ts globs bound with every run, relative to the root
# mergeStrategy    "line-count" or "end-marker"
`
	return sentinelStart + "\n" + header + strings.TrimRight(body, "\n") + "\n" + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
