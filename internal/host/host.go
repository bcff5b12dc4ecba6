// Package host defines what a generation run needs from its environment
// and provides the file system and console implementations used by the
// command line.
package host

import (
	"context"

	"github.com/tapsiturbi/ui5-ts-codegen/internal/merge"
)

// Document is the text being generated into.
type Document interface {
	URI() string
	Path() string
	Text() string
	// Apply performs a single edit. Implementations do not retry.
	Apply(ctx context.Context, e merge.Edit) error
}

// Notifier shows user-facing messages.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// Settings exposes configuration values by key.
type Settings interface {
	StringSlice(key string) []string
}

// KeyParentClassName names the model base classes setting.
const KeyParentClassName = "parentClassName"

// DefaultParentClassNames is used when no setting is present.
var DefaultParentClassNames = []string{"ViewJSONModel"}

// StaticSettings is a fixed key/value Settings.
type StaticSettings map[string][]string

func (s StaticSettings) StringSlice(key string) []string {
	return s[key]
}

// ParentClassNames reads KeyParentClassName, falling back to the default.
func ParentClassNames(s Settings) []string {
	if s != nil {
		if v := s.StringSlice(KeyParentClassName); len(v) > 0 {
			return v
		}
	}
	return DefaultParentClassNames
}
