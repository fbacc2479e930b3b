/*
The logger package wraps zerolog with the small surface the rest of the
library needs: leveled, formatted logging plus cheap child loggers scoped to
a component (e.g. "Websocket", "Socket"). Console writers and an optional
rotating log file can be combined in a single logger.
*/
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogLevel string

const (
	Trace LogLevel = "trace"
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Error LogLevel = "error"
)

const (
	maxLogFileSizeMb = 100
	maxLogFileCount  = 10
)

type Config struct {
	// Minimum level that gets written, defaults to Debug
	LogLevel LogLevel

	// Path to a rotating log file, none is created if empty
	FilePath string

	// Any additional writers, e.g. os.Stdout or a test writer
	ConsoleWriters []io.Writer
}

type Logger struct {
	logger zerolog.Logger
}

func New(config *Config) (*Logger, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	writers := []io.Writer{}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create log directory for %s: %w", config.FilePath, err)
		}

		writers = append(writers, &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    maxLogFileSizeMb,
			MaxBackups: maxLogFileCount,
			Compress:   true,
		})
	}

	for _, writer := range config.ConsoleWriters {
		writers = append(writers, zerolog.ConsoleWriter{Out: writer, NoColor: true})
	}

	if len(writers) == 0 {
		return nil, fmt.Errorf("refusing to create a logger with no outputs")
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(config.LogLevel)).
		With().
		Timestamp().
		Logger()

	return &Logger{logger: logger}, nil
}

func parseLevel(level LogLevel) zerolog.Level {
	switch level {
	case Trace:
		return zerolog.TraceLevel
	case Info:
		return zerolog.InfoLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.DebugLevel
	}
}

// Discard returns a logger that drops everything, for callers who didn't
// configure one
func Discard() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// GetComponentLogger returns a child logger annotated with the given
// component name. The child shares the parent's writers and level.
func (l *Logger) GetComponentLogger(component string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("component", component).Logger(),
	}
}

// AddField annotates every subsequent log line with a static key/value pair
func (l *Logger) AddField(key string, value string) *Logger {
	return &Logger{
		logger: l.logger.With().Str(key, value).Logger(),
	}
}

func (l *Logger) Trace(msg string) {
	l.logger.Trace().Msg(msg)
}

func (l *Logger) Tracef(format string, a ...any) {
	l.logger.Trace().Msgf(format, a...)
}

func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *Logger) Debugf(format string, a ...any) {
	l.logger.Debug().Msgf(format, a...)
}

func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *Logger) Infof(format string, a ...any) {
	l.logger.Info().Msgf(format, a...)
}

func (l *Logger) Error(err error) {
	l.logger.Error().Msg(err.Error())
}

func (l *Logger) Errorf(format string, a ...any) {
	l.logger.Error().Msgf(format, a...)
}
