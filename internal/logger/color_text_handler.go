package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// ColorTextHandler wraps slog.TextHandler and prefixes the message with an
// ANSI-colored level tag for console output.
type ColorTextHandler struct {
	*slog.TextHandler
}

func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *ColorTextHandler {
	return &ColorTextHandler{TextHandler: slog.NewTextHandler(w, opts)}
}

func (h *ColorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	var color string
	switch r.Level {
	case slog.LevelDebug:
		color = "\033[36m"
	case slog.LevelInfo:
		color = "\033[32m"
	case slog.LevelWarn:
		color = "\033[33m"
	case slog.LevelError:
		color = "\033[31m"
	default:
		color = "\033[0m"
	}
	r.Message = color + r.Level.String() + "\033[0m  " + r.Message
	return h.TextHandler.Handle(ctx, r)
}

// teeHandler fans records out to the console and file handlers. Errors from
// either side are joined so a broken file sink never hides console output.
type teeHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t.console.Enabled(ctx, level) || t.file.Enabled(ctx, level)
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	errC := t.console.Handle(ctx, r.Clone())
	errF := t.file.Handle(ctx, r.Clone())
	return errors.Join(errC, errF)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return teeHandler{console: t.console.WithAttrs(attrs), file: t.file.WithAttrs(attrs)}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return teeHandler{console: t.console.WithGroup(name), file: t.file.WithGroup(name)}
}
