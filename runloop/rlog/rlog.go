// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rlog is a small structured-logging shim over log/slog.
// Logging in the runloop is best-effort and not part of its observable
// behavior (spec §6): progress of HTTP transfers and frame counts at
// completion of NBIO/image transfers are logged, and nothing else
// depends on what a Logger does with them.
package rlog

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the narrow logging surface the runloop package calls
// into. *slog.Logger satisfies it directly; Noop satisfies it too.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures New, mirroring framer's functional-option style
// (Options struct + Option func(*Options) + With* constructors).
type Options struct {
	Writer io.Writer
	Level  slog.Level
}

var defaultOptions = Options{
	Writer: os.Stderr,
	Level:  slog.LevelInfo,
}

type Option func(*Options)

// WithWriter sets the destination for log records. Default os.Stderr.
func WithWriter(w io.Writer) Option { return func(o *Options) { o.Writer = w } }

// WithLevel sets the minimum enabled level. Default slog.LevelInfo.
func WithLevel(level slog.Level) Option { return func(o *Options) { o.Level = level } }

// New returns a *slog.Logger configured with opts, using a text
// handler (no third-party structured logger appears anywhere in the
// retrieved example pack besides log/slog and two single-file
// outliers; see DESIGN.md).
func New(opts ...Option) *slog.Logger {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	h := slog.NewTextHandler(o.Writer, &slog.HandlerOptions{Level: o.Level})
	return slog.New(h)
}

// Noop is a Logger that discards everything. Used as the runloop's
// default so callers are never required to configure logging.
type Noop struct{}

func (Noop) Debug(string, ...any) {}
func (Noop) Info(string, ...any)  {}
func (Noop) Error(string, ...any) {}

// noopSlog returns a *slog.Logger that discards everything, for callers
// that specifically want the slog.Logger type rather than the Logger
// interface (e.g. to pass to a third-party API expecting *slog.Logger).
func noopSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// NoopSlog is exported for callers that need a concrete *slog.Logger.
var NoopSlog = noopSlog()
