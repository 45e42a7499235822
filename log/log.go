// Package log provides the structured logger used across the module. It is a
// thin wrapper around zerolog with the sugared call surface (Infow, Debugf,
// etc.) the rest of the code base uses.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

var (
	log   zerolog.Logger
	level = LogLevelError

	// logTestWriter is used by tests to redirect the output to a custom writer
	// by passing logTestWriterName as output to Init.
	logTestWriter     io.Writer
	logTestWriterName = "log_test_writer"

	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"
)

func init() {
	l := os.Getenv("LOG_LEVEL")
	if l == "" {
		l = LogLevelError
	}
	Init(l, "stderr", nil)
}

// invalidCharChecker panics when a log line contains the unicode replacement
// character, which usually means raw bytes were logged instead of hex.
type invalidCharChecker struct{}

func (*invalidCharChecker) Write(p []byte) (int, error) {
	if panicOnInvalidChars && (bytes.Contains(p, []byte(`\ufffd`)) || bytes.ContainsRune(p, utf8.RuneError)) {
		panic(fmt.Sprintf("log line with invalid chars: %q", p))
	}
	return len(p), nil
}

// errorLevelWriter only forwards warn and error entries.
type errorLevelWriter struct {
	io.Writer
}

func (w *errorLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.WarnLevel {
		return len(p), nil
	}
	return w.Write(p)
}

// Init initializes the logger. Output can be stdout, stderr or a file path.
// If errorOutput is not nil, warn and error entries are also written there.
// The gnark internal logger is routed to the same output.
func Init(logLevel, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339Nano},
		&invalidCharChecker{},
	}
	if errorOutput != nil {
		writers = append(writers, &errorLevelWriter{zerolog.ConsoleWriter{
			Out:        errorOutput,
			TimeFormat: time.RFC3339Nano,
			NoColor:    true,
		}})
	}
	log = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	switch strings.ToLower(logLevel) {
	case LogLevelDebug:
		log = log.Level(zerolog.DebugLevel)
	case LogLevelInfo:
		log = log.Level(zerolog.InfoLevel)
	case LogLevelWarn:
		log = log.Level(zerolog.WarnLevel)
	case LogLevelError:
		log = log.Level(zerolog.ErrorLevel)
	default:
		panic(fmt.Sprintf("invalid log level: %q", logLevel))
	}
	level = strings.ToLower(logLevel)

	// gnark prints constraint counts and proving times at debug level
	if level == LogLevelDebug {
		logger.Set(log.With().Str("module", "gnark").Logger())
	} else {
		logger.Disable()
	}
	log.Debug().Msgf("logger initialized at level %s", level)
}

// Level returns the current log level.
func Level() string {
	return level
}

// Logger returns the underlying zerolog logger.
func Logger() *zerolog.Logger {
	return &log
}

func Debug(args ...any) {
	log.Debug().Msg(fmt.Sprint(args...))
}

func Info(args ...any) {
	log.Info().Msg(fmt.Sprint(args...))
}

func Warn(args ...any) {
	log.Warn().Msg(fmt.Sprint(args...))
}

func Error(args ...any) {
	log.Error().Msg(fmt.Sprint(args...))
}

func Fatal(args ...any) {
	log.Fatal().Msg(fmt.Sprint(args...))
}

func Debugf(template string, args ...any) {
	log.Debug().Msgf(template, args...)
}

func Infof(template string, args ...any) {
	log.Info().Msgf(template, args...)
}

func Warnf(template string, args ...any) {
	log.Warn().Msgf(template, args...)
}

func Errorf(template string, args ...any) {
	log.Error().Msgf(template, args...)
}

func Fatalf(template string, args ...any) {
	log.Fatal().Msgf(template, args...)
}

// Debugw logs a message with key/value pairs.
func Debugw(msg string, keyvalues ...any) {
	log.Debug().Fields(keyvalues).Msg(msg)
}

// Infow logs a message with key/value pairs.
func Infow(msg string, keyvalues ...any) {
	log.Info().Fields(keyvalues).Msg(msg)
}

// Warnw logs a message with key/value pairs.
func Warnw(msg string, keyvalues ...any) {
	log.Warn().Fields(keyvalues).Msg(msg)
}

// Errorw logs an error with a message and key/value pairs.
func Errorw(err error, msg string, keyvalues ...any) {
	log.Error().Err(err).Fields(keyvalues).Msg(msg)
}
