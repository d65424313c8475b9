package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the supervisor's own operational log. Per-service
// process logs are NOT rotated: they are truncated on every start and their
// header/footer layout is an operational contract.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes the supervisor's operational logging.
type Config struct {
	Dir        string // directory for wardkeep.log; empty disables the file sink
	Level      string // debug|info|warn|error, default info
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// FileWriter returns a rotating writer for the operational log, or nil when
// no directory is configured.
func (c Config) FileWriter() io.WriteCloser {
	if c.Dir == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   filepath.Join(c.Dir, "wardkeep.log"),
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

// New builds the root slog.Logger: colored text on stderr plus, when
// configured, a rotating file sink.
func New(c Config) *slog.Logger {
	level := parseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = NewColorTextHandler(os.Stderr, opts)
	if w := c.FileWriter(); w != nil {
		h = teeHandler{console: h, file: slog.NewTextHandler(w, opts)}
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
