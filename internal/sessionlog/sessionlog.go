// Package sessionlog provides an operator-facing structured debug log,
// distinct from the user-facing telemetry JSONL stream (spec §2.2). It
// wraps zerolog and writes leveled JSON lines for LLM calls, validation
// rejects, and state-machine transitions into a per-game logfile that
// each session appends to.
package sessionlog

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around a zerolog.Logger scoped to one
// interactive session.
type Logger struct {
	zl zerolog.Logger
}

// Option configures a Logger at construction time.
type Option func(*options)

type options struct {
	level  zerolog.Level
	output io.Writer
}

// WithLevel overrides the minimum level written to the log (default Info).
func WithLevel(level zerolog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithWriter overrides the destination writer (default: a file under dir).
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// New opens (creating if needed) <dir>/<gameName>_session.log and returns
// a Logger writing JSON lines to it at Info level or above.
func New(dir, gameName string, opts ...Option) (*Logger, error) {
	o := &options{level: zerolog.InfoLevel}
	for _, opt := range opts {
		opt(o)
	}

	if o.output == nil {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, gameName+"_session.log")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		o.output = f
	}

	zl := zerolog.New(o.output).
		Level(o.level).
		With().
		Timestamp().
		Str("game", gameName).
		Logger()

	return &Logger{zl: zl}, nil
}

// NewNop returns a Logger that discards everything, for callers (and
// tests) that don't care about session diagnostics.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// LLMCall logs one round trip to the LLM backend.
func (l *Logger) LLMCall(provider, model string, latency time.Duration, err error) {
	ev := l.zl.Info()
	if err != nil {
		ev = l.zl.Warn().Err(err)
	}
	ev.Str("provider", provider).
		Str("model", model).
		Dur("latency", latency).
		Msg("llm call")
}

// ValidationReject logs a rewrite that C9 refused to accept.
func (l *Logger) ValidationReject(rewrite, reason string) {
	l.zl.Info().
		Str("rewrite", rewrite).
		Str("reason", reason).
		Msg("validation reject")
}

// StateTransition logs one retrymachine.State change.
func (l *Logger) StateTransition(from, to string) {
	l.zl.Debug().
		Str("from", from).
		Str("to", to).
		Msg("state transition")
}

// Error logs an unexpected error outside the above categories.
func (l *Logger) Error(msg string, err error) {
	l.zl.Error().Err(err).Msg(msg)
}
