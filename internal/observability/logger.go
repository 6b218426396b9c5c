package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the service logger: JSON on stdout, tagged with the
// environment, carrying trace and actor attributes from the context.
func NewLogger(env string) *slog.Logger {
	return NewLoggerTo(os.Stdout, env)
}

// NewLoggerTo logs at debug in dev and info elsewhere. LOG_LEVEL overrides
// both when it names a slog level.
func NewLoggerTo(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			level = l
		}
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			// durations read better as milliseconds in dashboards
			if a.Value.Kind() == slog.KindDuration {
				return slog.Int64(a.Key+"_ms", a.Value.Duration().Milliseconds())
			}
			return a
		},
	})

	return slog.New(NewContextHandler(handler)).With("env", env)
}
