package logging

import "github.com/juju/loggo/v2"

// rootModule prefixes every logger created by this package.
const rootModule = "lamportd"

// LogLevel describes the level of importance of a log message.
type LogLevel = loggo.Level

const (
	// DEBUG is used for protocol traces.
	DEBUG LogLevel = loggo.DEBUG
	// INFO is used for general information messages.
	INFO LogLevel = loggo.INFO
	// WARN is important information that may indicate a problem.
	WARN LogLevel = loggo.WARNING
	// ERR is used for error messages.
	ERR LogLevel = loggo.ERROR
)

// Logger is a named logger. Output goes to the writers installed with
// Configure, filtered by the module levels given there.
type Logger struct {
	logger loggo.Logger
}

// NewLogger returns a logger for the given component name, under the
// "lamportd" module.
func NewLogger(name string) *Logger {
	return &Logger{logger: loggo.GetLogger(rootModule).Child(name)}
}

// Name returns the loggo module name of the logger.
func (l *Logger) Name() string {
	return l.logger.Name()
}

// WithPostfix returns a child logger, named after the given postfix.
func (l *Logger) WithPostfix(postfix string) *Logger {
	return &Logger{logger: l.logger.Child(postfix)}
}

// Debugf logs a formatted message with the DEBUG level.
func (l *Logger) Debugf(format string, args ...any) {
	l.logger.Debugf(format, args...)
}

// Infof logs a formatted message with the INFO level.
func (l *Logger) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

// Warnf logs a formatted message with the WARN level.
func (l *Logger) Warnf(format string, args ...any) {
	l.logger.Warningf(format, args...)
}

// Errorf logs a formatted message with the ERR level.
func (l *Logger) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}
