package batch

import (
	"os"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	// LogLevelDebug is for per-chunk and per-item detail.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for run start, completion and progress.
	LogLevelInfo
	// LogLevelWarn is for problems that do not fail the run, such as a close error after a failure.
	LogLevelWarn
	// LogLevelError is for failures that terminate the run.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelInfo:
		return logrus.InfoLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

// Logger defines the interface for logging within a Step.
// The Logger is optional - if not provided, no logging occurs.
type Logger interface {
	// Log writes a log message at the specified level.
	// The message is formatted using fmt.Sprintf if args are provided.
	Log(level LogLevel, format string, args ...interface{})

	// Debug logs a debug-level message.
	Debug(format string, args ...interface{})

	// Info logs an info-level message.
	Info(format string, args ...interface{})

	// Warn logs a warning-level message.
	Warn(format string, args ...interface{})

	// Error logs an error-level message.
	Error(format string, args ...interface{})
}

// NoOpLogger is a logger that discards all log messages.
// This is the default logger when none is specified.
type NoOpLogger struct{}

// Log implements the Logger interface.
func (n *NoOpLogger) Log(level LogLevel, format string, args ...interface{}) {}

// Debug implements the Logger interface.
func (n *NoOpLogger) Debug(format string, args ...interface{}) {}

// Info implements the Logger interface.
func (n *NoOpLogger) Info(format string, args ...interface{}) {}

// Warn implements the Logger interface.
func (n *NoOpLogger) Warn(format string, args ...interface{}) {}

// Error implements the Logger interface.
func (n *NoOpLogger) Error(format string, args ...interface{}) {}

// LogrusLogger routes Logger calls to a logrus entry, so fields attached to
// the entry (run id, input path) appear on every line.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps entry. A nil entry uses the logrus standard logger.
//
// Example:
//
//	log := logrus.New()
//	log.SetFormatter(&logrus.JSONFormatter{})
//	logger := batch.NewLogrusLogger(log.WithField("run_id", runID))
func NewLogrusLogger(entry *logrus.Entry) *LogrusLogger {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LogrusLogger{entry: entry}
}

// NewSimpleLogger returns a LogrusLogger writing text lines to stderr at or
// above minLevel.
func NewSimpleLogger(minLevel LogLevel) *LogrusLogger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(minLevel.logrusLevel())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return NewLogrusLogger(logrus.NewEntry(log))
}

// WithField returns a LogrusLogger that adds key=value to every line.
func (l *LogrusLogger) WithField(key string, value interface{}) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithField(key, value)}
}

// Log implements the Logger interface.
func (l *LogrusLogger) Log(level LogLevel, format string, args ...interface{}) {
	l.entry.Logf(level.logrusLevel(), format, args...)
}

// Debug implements the Logger interface.
func (l *LogrusLogger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Info implements the Logger interface.
func (l *LogrusLogger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warn implements the Logger interface.
func (l *LogrusLogger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error implements the Logger interface.
func (l *LogrusLogger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}
