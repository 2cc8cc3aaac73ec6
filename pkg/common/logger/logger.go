// Package logger is a thin facade over log/slog with a tint handler. Init
// wires the process-wide logger once; everything else logs through the
// package-level helpers with key-value args.
package logger

import (
	"log/slog"
	"os"
	"sync"

	"github.com/lmittmann/tint"
)

var (
	initOnce sync.Once
	base     *slog.Logger
)

// Options configures the shared logger. Zero values fall back to stdout and
// tint's defaults.
type Options struct {
	Level      slog.Leveler
	Writer     *os.File
	TimeFormat string
}

// Init installs the shared logger. Only the first call takes effect; it also
// becomes the slog default so library code logging via slog lands in the
// same stream.
func Init(opts *Options) {
	initOnce.Do(func() {
		writer := opts.Writer
		if writer == nil {
			writer = os.Stdout
		}

		base = slog.New(tint.NewHandler(writer, &tint.Options{
			Level:      opts.Level,
			TimeFormat: opts.TimeFormat,
		}))
		slog.SetDefault(base)
	})
}

// l resolves the active logger; before Init it is the slog default, so tests
// and init-order stragglers never hit a nil logger.
func l() *slog.Logger {
	if base != nil {
		return base
	}
	return slog.Default()
}

func L() *slog.Logger {
	return l()
}

func Debug(msg string, args ...any) {
	l().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	l().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	l().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	l().Error(msg, args...)
}

// Fatal logs at error level and exits the process.
func Fatal(msg string, args ...any) {
	Error(msg, args...)
	os.Exit(1)
}

func With(args ...any) *slog.Logger {
	return l().With(args...)
}
