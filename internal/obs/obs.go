// Package obs builds the structured loggers handed to sessions, waiters and
// page objects. Nothing below internal/session reaches for a global logger;
// every component receives a Logger explicitly.
package obs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kuitang/tradeui-e2e/internal/logutil"
)

// Logger is the logging capability injected into the wait and page layers.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Correlation carries identifiers attached to every line a session logs.
type Correlation struct {
	RunID   string
	Test    string
	Browser string
	Page    string
}

// New returns a JSON logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				t, ok := attr.Value.Any().(time.Time)
				if ok {
					return slog.String(slog.TimeKey, t.UTC().Format(time.RFC3339Nano))
				}
			}
			if attr.Value.Kind() == slog.KindString && logutil.IsSensitiveLogField(attr.Key) {
				return slog.String(attr.Key, "[REDACTED]")
			}
			return attr
		},
	})
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

// ParseLevel maps debug/info/warn/error (case-insensitive) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// RunLog is a logger that writes to a per-run file and to stderr.
type RunLog struct {
	*slog.Logger
	Path string

	mu   sync.Mutex
	file *os.File
}

// OpenRunLog creates dir (if needed) and a fresh test_run_<timestamp>.log in it.
func OpenRunLog(dir string, level slog.Level) (*RunLog, error) {
	return openRunLog(dir, level, os.Stderr, time.Now())
}

func openRunLog(dir string, level slog.Level, console io.Writer, now time.Time) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, "test_run_"+now.Format("20060102_150405")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return &RunLog{
		Logger: New(io.MultiWriter(f, console), level),
		Path:   path,
		file:   f,
	}, nil
}

// Close flushes and closes the log file. Safe to call more than once.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// With returns logger tagged with the non-empty correlation fields.
func With(logger *slog.Logger, corr Correlation) *slog.Logger {
	attrs := correlationAttrs(corr)
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}

type loggerContextKey struct{}

// WithLogger stores logger in ctx for helpers that only receive a context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// From returns the logger stored in ctx, or a discarding logger.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Discard()
}

func correlationAttrs(corr Correlation) []any {
	attrs := make([]any, 0, 8)
	if corr.RunID != "" {
		attrs = append(attrs, "run_id", corr.RunID)
	}
	if corr.Test != "" {
		attrs = append(attrs, "test", corr.Test)
	}
	if corr.Browser != "" {
		attrs = append(attrs, "browser", corr.Browser)
	}
	if corr.Page != "" {
		attrs = append(attrs, "page", corr.Page)
	}
	return attrs
}
