// Package logger provides the structured logger shared by all engine
// components. It is a thin wrapper over logrus that carries a component
// name on every line.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is a component-scoped structured logger.
type Logger struct {
	entry *logrus.Entry
}

// New creates a logger for the named component at the given level.
func New(component string, level logrus.Level) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	return &Logger{entry: l.WithField("component", component)}
}

// NewDefault creates a logger for the named component at info level.
func NewDefault(component string) *Logger {
	return New(component, logrus.InfoLevel)
}

// WithField returns a logger with an extra structured field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithError returns a logger with the error attached.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...any) { l.entry.Errorf(format, args...) }
