package messages

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// NewLogger builds the process logger.
// format is one of text, json or logfmt.
func NewLogger(w io.Writer, level, format string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	formatter := log.TextFormatter
	switch strings.ToLower(format) {
	case "", "text":
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "packhost",
		Level:           lvl,
		Formatter:       formatter,
	}), nil
}

// LogSink writes messages to a charmbracelet logger
type LogSink struct {
	logger *log.Logger
}

// NewLogSink wraps logger
func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Log renders msg and logs it with keyvals attached as fields
func (s *LogSink) Log(msg Message, keyvals ...any) {
	s.logger.Log(toLogLevel(LevelOf(msg)), Render(msg, keyvals...), keyvals...)
}

func toLogLevel(l Level) log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
