package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options selects the handler, its level and the destination.
type Options struct {
	Level  string
	Format string
	// File appends to the named file instead of Writer when set.
	File   string
	Writer io.Writer
}

// Logger wraps a slog.Logger together with the file it may own so callers
// can release it when the run ends.
type Logger struct {
	*slog.Logger
	file *os.File
}

// New builds a structured logger. Unknown levels fall back to info and any
// format other than json uses the text handler.
func New(opts Options) (*Logger, error) {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	var file *os.File
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("logging: ensure log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		file = f
		out = f
	}
	return &Logger{Logger: NewHandlerLogger(opts.Level, opts.Format, out), file: file}, nil
}

// NewHandlerLogger creates an isolated slog.Logger writing to w. It never
// touches the process-wide default logger.
func NewHandlerLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(levelStr)}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(formatStr), "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
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

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
