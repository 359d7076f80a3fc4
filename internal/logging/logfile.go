package logging

import (
	"io"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const fileWriterName = "file"

// Options describe where log output goes.
type Options struct {
	// Level is a loggo configuration string, either a single level such as
	// "DEBUG" or a list such as "<root>=INFO;lamportd.mutex=DEBUG".
	Level string
	// Console receives every log entry. Nil leaves loggo's default writer.
	Console io.Writer
	// File, when set, receives a copy of every entry. It is rotated once it
	// reaches MaxSizeMB megabytes.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Configure installs the log writers and levels described by opts. The
// returned closer flushes and closes the log file, if any.
func Configure(opts Options) (io.Closer, error) {
	if opts.Level != "" {
		if err := loggo.ConfigureLoggers(opts.Level); err != nil {
			return nil, errors.NewNotValid(err, "log level")
		}
	}

	if opts.Console != nil {
		if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(opts.Console, loggo.DefaultFormatter)); err != nil {
			return nil, errors.Annotate(err, "installing console log writer")
		}
	}

	if opts.File == "" {
		return nopCloser{}, nil
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}
	_, _ = loggo.RemoveWriter(fileWriterName)
	if err := loggo.RegisterWriter(fileWriterName, loggo.NewSimpleWriter(file, loggo.DefaultFormatter)); err != nil {
		_ = file.Close()
		return nil, errors.Annotatef(err, "installing log file %q", opts.File)
	}
	return &logFile{file: file}, nil
}

type logFile struct {
	file *lumberjack.Logger
}

func (lf *logFile) Close() error {
	_, _ = loggo.RemoveWriter(fileWriterName)
	return lf.file.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
