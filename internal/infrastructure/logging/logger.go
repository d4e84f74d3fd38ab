package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cherubic/NLog/internal/infrastructure/config"
)

// serviceName is attached to every record as the "service" attribute.
const serviceName = "nlog"

// ErrUnknownLevel is returned by ParseLevel for unrecognised names.
var ErrUnknownLevel = errors.New("logging: unknown level")

// Logger is the daemon's structured logger. It satisfies the small Logger
// interfaces declared by the lifecycle, watch, mqtt, remote and audit
// packages.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the bootstrap logging section. An unknown level
// falls back to info; config.Validate reports it before this point.
func New(cfg config.LoggingConfig, version string) *Logger {
	return &Logger{
		Logger: slog.New(NewHandler(cfg, OutputWriter(cfg.Output), version)),
	}
}

// NewHandler builds a JSON or text handler writing to w, tagged with the
// service name and version. Logging configuration documents use it too.
func NewHandler(cfg config.LoggingConfig, w io.Writer, version string) slog.Handler {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})
}

// ParseLevel maps debug, info, warn (or warning) and error, in any case,
// to a slog level. An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}
}

// OutputWriter maps an output name to a writer: stderr, discard (or none),
// and stdout for anything else.
func OutputWriter(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr
	case "discard", "none":
		return io.Discard
	default:
		return os.Stdout
	}
}

// With returns a child logger carrying args on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the JSON stdout logger used until the daemon config is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
