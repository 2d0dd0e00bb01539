package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// SlogManager manages slog-based logging with console, file, and GELF output.
type SlogManager struct {
	logger *slog.Logger
}

// Options configures Setup. When File is set, records go to the file instead
// of the console. Gelf, when set, additionally receives every record as JSON.
type Options struct {
	Console io.Writer // defaults to os.Stdout
	File    io.Writer
	Gelf    io.Writer
	Level   string
	Session AttrProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// NewGelfWriter connects a GELF writer to the given Graylog address.
func NewGelfWriter(address string) (*gelf.Writer, error) {
	return gelf.NewWriter(address)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system.
func (m *SlogManager) Setup(opts Options) {
	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler

	// File output supersedes the console.
	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, handlerOpts))
	} else {
		console := opts.Console
		if console == nil {
			console = os.Stdout
		}
		handlers = append(handlers, slog.NewTextHandler(console, handlerOpts))
	}

	if opts.Gelf != nil {
		handlers = append(handlers, slog.NewJSONHandler(opts.Gelf, handlerOpts))
	}

	handler := WithSessionAttrs(NewMultiHandler(handlers...), opts.Session)

	m.logger = slog.New(handler)
	m.logger.Info("Logging initialized", "level", opts.Level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}
