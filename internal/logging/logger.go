// Package logging provides structured logging for agentsync using slog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Level aliases for convenience.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	defaultMu     sync.RWMutex
	defaultLogger *slog.Logger
)

// Options configures the logger behavior.
type Options struct {
	// Level sets the minimum log level. Defaults to LevelWarn for CLI use.
	Level slog.Level
	// Output sets the output destination. Defaults to os.Stderr.
	Output io.Writer
	// JSON switches the handler to JSON lines.
	JSON bool
	// AddSource includes source file and line in log output.
	AddSource bool
}

// DefaultOptions returns options suitable for CLI usage. Sync output is
// rendered separately, so only warnings reach stderr unless --verbose is set.
func DefaultOptions() Options {
	return Options{
		Level:  LevelWarn,
		Output: os.Stderr,
	}
}

// New creates a new logger with the given options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	return slog.New(handler)
}

// Default returns the process logger, creating one from DefaultOptions on first use.
func Default() *slog.Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(DefaultOptions())
	}
	return defaultLogger
}

// SetDefault replaces the process logger and installs it as slog's default.
func SetDefault(logger *slog.Logger) {
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
	slog.SetDefault(logger)
}

// With returns a logger that includes the given attributes in every output.
func With(args ...any) *slog.Logger {
	return Default().With(args...)
}

// WithContext returns the logger attached to ctx, or the default logger.
func WithContext(ctx context.Context) *slog.Logger {
	if l := FromContext(ctx); l != nil {
		return l
	}
	return Default()
}

// Debug logs at debug level using the default logger.
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
}

// Info logs at info level using the default logger.
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

// Error logs at error level using the default logger.
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}

// Timer logs the elapsed time of an operation at debug level when the
// returned func is called. Typical use: defer logging.Timer("sync")().
func Timer(op string) func() {
	start := time.Now()
	return func() {
		Default().Debug("operation finished",
			Operation(op),
			slog.Duration(KeyDuration, time.Since(start)),
		)
	}
}

type loggerKey struct{}

// NewContext returns a context with the logger attached.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves the logger from context, or nil if not present.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return nil
}

// Common attribute keys.
const (
	KeyClient    = "client"
	KeyPlugin    = "plugin"
	KeySkill     = "skill"
	KeyPath      = "path"
	KeyScope     = "scope"
	KeyOperation = "operation"
	KeyCount     = "count"
	KeyError     = "error"
	KeyDuration  = "duration"
)

// Client returns a slog attribute naming a target client.
func Client(c string) slog.Attr {
	return slog.String(KeyClient, c)
}

// Plugin returns a slog attribute naming a plugin source.
func Plugin(p string) slog.Attr {
	return slog.String(KeyPlugin, p)
}

// Skill returns a slog attribute for skill logging.
func Skill(name string) slog.Attr {
	return slog.String(KeySkill, name)
}

// Path returns a slog attribute for file path logging.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Scope returns a slog attribute for the sync scope (project or user).
func Scope(s string) slog.Attr {
	return slog.String(KeyScope, s)
}

// Operation returns a slog attribute for operation logging.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Err returns a slog attribute for error logging.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(KeyError, err)
}

// Count returns a slog attribute for item counts.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}
