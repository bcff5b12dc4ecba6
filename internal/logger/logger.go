// Package logger builds the structured logger shared by every component.
// Output always goes to a caller-supplied writer (stderr in practice) so
// the LSP channel on stdout stays clean.
package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the fallback for components built without a logger.
var Logger = zap.NewNop().Sugar()

// Standard field names.
const (
	FieldComponent = "component"
	FieldFile      = "file"
	FieldClass     = "class"
	FieldBase      = "base"
	FieldCount     = "count"
	FieldCommand   = "command"
	FieldError     = "error"
	FieldDuration  = "duration"
)

// Verbosity levels for repeated -v flags.
const (
	VerbosityUser  = 0 // warnings and errors
	VerbosityInfo  = 1 // -v
	VerbosityDebug = 2 // -vv
)

// VerbosityToLevel maps a -v count to a zap level.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// New returns a logger writing to w at the given verbosity, as JSON lines
// or human-readable console output.
func New(w io.Writer, jsonOutput bool, verbosity int) *zap.SugaredLogger {
	var enc zapcore.Encoder
	if jsonOutput {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), VerbosityToLevel(verbosity))
	return zap.New(core).Sugar()
}

// Component returns l (or Logger when nil) tagged with a component name.
func Component(l *zap.SugaredLogger, name string) *zap.SugaredLogger {
	if l == nil {
		l = Logger
	}
	return l.With(FieldComponent, name)
}
