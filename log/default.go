package log

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Format of the entries written by the default logger.
type Format string

const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

//DefaultLogger returns a logrus backed logger writing text entries into output with InfoLevel
func DefaultLogger(output io.Writer) Logger {
	return NewLogger(output, TextFormat, InfoLevel)
}

// NewLogger creates a logrus backed logger.
func NewLogger(output io.Writer, format Format, level Level) Logger {
	internal := logrus.New()
	internal.SetOutput(output)

	if format == JSONFormat {
		internal.SetFormatter(&logrus.JSONFormatter{})
	} else {
		internal.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	l := &defaultLogger{internalLogger: internal, entry: logrus.NewEntry(internal)}
	l.SetLevel(level)

	return l
}

type defaultLogger struct {
	internalLogger *logrus.Logger
	entry          *logrus.Entry
}

func (l defaultLogger) Log(level Level, v ...interface{}) {
	l.entry.Log(logrus.Level(level), fmt.Sprint(v...))
}

func (l defaultLogger) Logf(level Level, template string, args ...interface{}) {
	l.entry.Logf(logrus.Level(level), template, args...)
}

func (l *defaultLogger) SetLevel(level Level) {
	l.internalLogger.SetLevel(logrus.Level(level))
}

func (l *defaultLogger) WithFields(fields Fields) Logger {
	return &defaultLogger{
		internalLogger: l.internalLogger,
		entry:          l.entry.WithFields(logrus.Fields(fields)),
	}
}
