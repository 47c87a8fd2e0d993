package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// stdout is the console sink used when no log file is configured.
var stdout io.Writer = os.Stdout

// SlogManager manages slog-based logging fanned out to a local sink and an optional GELF sink.
type SlogManager struct {
	logger  *slog.Logger
	context *ContextSource
	closers []io.Closer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{context: &ContextSource{}}
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
// Records go to file when one is given, to stdout otherwise, and to graylog as JSON when non-nil.
func (m *SlogManager) Setup(file io.Writer, level string, graylog io.Writer) {
	lvl := parseLevel(level)

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
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
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(stdout, handlerOpts))
	}

	if graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(graylog, &slog.HandlerOptions{Level: lvl}))
		if c, ok := graylog.(io.Closer); ok {
			m.closers = append(m.closers, c)
		}
	}

	m.logger = slog.New(NewContextHandler(NewMultiHandler(handlers...), m.context))
	m.logger.Info("Logging initialized", "level", level)
}

// SetContextProvider registers the attributes appended to every record from now on.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.context.Set(p)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Close releases remote sinks opened for this manager.
func (m *SlogManager) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	return first
}
