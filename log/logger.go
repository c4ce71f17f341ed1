/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"io"
	"os"

	"github.com/ssgreg/logf"
	"github.com/ssgreg/logftext"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Field hold data of a specific field.
type Field = logf.Field

// Field constructors used by the cache.
var (
	Error    = logf.Error
	String   = logf.String
	Int      = logf.Int
	Duration = logf.Duration
	Time     = logf.Time
)

// FieldLogger is an interface for loggers which writes logs in structured format.
type FieldLogger interface {
	With(...Field) FieldLogger
	WithLevel(level Level) FieldLogger

	Debug(string, ...Field)
	Info(string, ...Field)
	Warn(string, ...Field)
	Error(string, ...Field)
}

// LogfAdapter adapts logf.Logger to FieldLogger interface.
type LogfAdapter struct {
	Logger *logf.Logger
}

// NewDisabledLogger returns a new logger that logs nothing.
func NewDisabledLogger() FieldLogger {
	return &LogfAdapter{logf.NewDisabledLogger()}
}

// NewLogger returns a logger writing to the configured output and a function
// that flushes pending entries and must be called before the process exits.
func NewLogger(cfg *Config) (FieldLogger, func()) {
	w, closeWriter := newWriter(cfg)
	channel, closeChannel := logf.NewChannelWriter(logf.ChannelWriterConfig{
		Appender:          newAppender(cfg, w),
		EnableSyncOnError: true,
	})
	logger := logf.NewLogger(toLogfLevel(cfg.Level), channel).With(logf.Int("pid", os.Getpid()))
	if cfg.AddCaller {
		// skip the adapter frame
		logger = logger.WithCaller().WithCallerSkip(1)
	}
	return &LogfAdapter{logger}, func() {
		closeChannel()
		closeWriter()
	}
}

// With returns a new logger with the given additional fields.
func (l *LogfAdapter) With(fs ...Field) FieldLogger {
	return &LogfAdapter{l.Logger.With(fs...)}
}

// WithLevel returns a logger that also drops entries below level.
func (l *LogfAdapter) WithLevel(level Level) FieldLogger {
	return &LogfAdapter{l.Logger.WithLevel(toLogfLevel(level))}
}

// Debug logs message at "debug" level.
func (l *LogfAdapter) Debug(s string, fields ...Field) { l.Logger.Debug(s, fields...) }

// Info logs message at "info" level.
func (l *LogfAdapter) Info(s string, fields ...Field) { l.Logger.Info(s, fields...) }

// Warn logs message at "warn" level.
func (l *LogfAdapter) Warn(s string, fields ...Field) { l.Logger.Warn(s, fields...) }

// Error logs message at "error" level.
func (l *LogfAdapter) Error(s string, fields ...Field) { l.Logger.Error(s, fields...) }

func toLogfLevel(level Level) logf.Level {
	switch level {
	case LevelError:
		return logf.LevelError
	case LevelWarn:
		return logf.LevelWarn
	case LevelDebug:
		return logf.LevelDebug
	}
	return logf.LevelInfo
}

func newWriter(cfg *Config) (io.Writer, func()) {
	switch cfg.Output {
	case OutputFile:
		lj := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    int(cfg.File.Rotation.MaxSize / 1024 / 1024), // lumberjack counts megabytes
			MaxBackups: cfg.File.Rotation.MaxBackups,
			Compress:   cfg.File.Rotation.Compress,
		}
		return lj, func() { _ = lj.Close() }
	case OutputStderr:
		return os.Stderr, func() {}
	}
	return os.Stdout, func() {}
}

func newAppender(cfg *Config, w io.Writer) logf.Appender {
	if cfg.Format == FormatText {
		noColor := cfg.NoColor
		return logftext.NewAppender(w, logftext.EncoderConfig{
			NoColor:    &noColor,
			EncodeTime: logf.RFC3339NanoTimeEncoder,
		})
	}
	return logf.NewWriteAppender(w, logf.NewJSONEncoder(logf.JSONEncoderConfig{
		EncodeTime:   logf.RFC3339NanoTimeEncoder,
		FieldKeyTime: "time",
	}))
}
