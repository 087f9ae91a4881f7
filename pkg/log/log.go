// Package log provides the thin logging interface used throughout gbcore,
// so that callers can supply their own logrus instance (or none at all)
// without the core depending on any particular logger configuration.
package log

import "github.com/sirupsen/logrus"

type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// logrusLogger adapts a *logrus.Logger to the Logger interface.
type logrusLogger struct {
	l *logrus.Logger
}

// NewLogrus returns a Logger backed by logrus, formatted as plain text,
// at the given level.
func NewLogrus(level logrus.Level) Logger {
	l := logrus.New()
	l.SetLevel(level)
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp: true,
	}
	return &logrusLogger{l: l}
}

func (g *logrusLogger) Infof(format string, args ...interface{})  { g.l.Infof(format, args...) }
func (g *logrusLogger) Errorf(format string, args ...interface{}) { g.l.Errorf(format, args...) }
func (g *logrusLogger) Debugf(format string, args ...interface{}) { g.l.Debugf(format, args...) }
