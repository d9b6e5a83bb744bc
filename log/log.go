// Package log provides the structured logger used across zkpipe. It is a thin
// wrapper around zerolog with a package-level API, so callers just do
// log.Infow("proof submitted", "iteration", i) without carrying a logger around.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Available log levels for Init.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)

const (
	logTestWriterName = "_testWriter"
	outputStdout      = "stdout"
	outputStderr      = "stderr"
)

var (
	logger zerolog.Logger
	level  string

	// logTestWriter is the writer used when Init is called with
	// logTestWriterName as output. Only meant for benchmarks and tests.
	logTestWriter io.Writer = io.Discard

	// panicOnInvalidChars is set via the LOG_PANIC_ON_INVALIDCHARS env var.
	// When enabled, any log write containing invalid UTF-8 panics, to catch
	// places where raw binary data is logged without a proper encoding.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"
)

func init() {
	// a sane default so the package is usable before Init is called
	Init(LogLevelInfo, outputStderr, nil)
}

type invalidCharChecker struct{ io.Writer }

func (w invalidCharChecker) Write(p []byte) (int, error) {
	if !utf8.Valid(p) {
		panic(fmt.Sprintf("log line with invalid chars: %q", string(p)))
	}
	return w.Writer.Write(p)
}

// Init initializes the logger with the given level and output. The output can
// be "stdout", "stderr" or a file path. If errorOutput is not nil, all entries
// of level error or above are duplicated to it.
func Init(logLevel, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case outputStdout:
		out = os.Stdout
	case outputStderr:
		out = os.Stderr
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot create log output: %v", err))
		}
		out = f
	}
	if out == os.Stdout || out == os.Stderr {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "3:04PM"}
	}
	if panicOnInvalidChars {
		out = invalidCharChecker{out}
	}
	if errorOutput != nil {
		out = zerolog.MultiLevelWriter(out, errLevelWriter{errorOutput})
	}
	logger = zerolog.New(out).With().Timestamp().Logger()
	level = strings.ToLower(logLevel)
	switch level {
	case LogLevelDebug:
		logger = logger.Level(zerolog.DebugLevel)
	case LogLevelInfo:
		logger = logger.Level(zerolog.InfoLevel)
	case LogLevelWarn:
		logger = logger.Level(zerolog.WarnLevel)
	case LogLevelError:
		logger = logger.Level(zerolog.ErrorLevel)
	case LogLevelFatal:
		logger = logger.Level(zerolog.FatalLevel)
	default:
		panic(fmt.Sprintf("invalid log level: %q", logLevel))
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger.Debug().Msgf("logger construction succeeded at level %s with output %s", logLevel, output)
}

// errLevelWriter duplicates error-or-above entries to a secondary writer.
type errLevelWriter struct{ w io.Writer }

func (e errLevelWriter) Write(p []byte) (int, error) { return len(p), nil }

func (e errLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l >= zerolog.ErrorLevel {
		return e.w.Write(p)
	}
	return len(p), nil
}

// Level returns the current log level.
func Level() string { return level }

// Logger returns the underlying zerolog logger, for the rare caller that needs
// a contextual sub-logger.
func Logger() *zerolog.Logger { return &logger }

func argsToString(args ...any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return strings.Join(parts, " ")
}

// withKeyValues attaches alternating key/value pairs to an event. Odd trailing
// keys are ignored.
func withKeyValues(ev *zerolog.Event, keyvalues []any) *zerolog.Event {
	for i := 0; i+1 < len(keyvalues); i += 2 {
		key, ok := keyvalues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keyvalues[i])
		}
		ev = ev.Interface(key, keyvalues[i+1])
	}
	return ev
}

// Debug sends a debug level log message.
func Debug(args ...any) { logger.Debug().Msg(argsToString(args...)) }

// Info sends an info level log message.
func Info(args ...any) { logger.Info().Msg(argsToString(args...)) }

// Warn sends a warn level log message.
func Warn(args ...any) { logger.Warn().Msg(argsToString(args...)) }

// Error sends an error level log message.
func Error(args ...any) { logger.Error().Msg(argsToString(args...)) }

// Fatal sends a fatal level log message and exits with code 1.
func Fatal(args ...any) {
	logger.Fatal().Msg(argsToString(args...))
	// If the logger level is higher than fatal, the program should exit anyway.
	os.Exit(1)
}

// Debugf sends a formatted debug level log message.
func Debugf(template string, args ...any) { logger.Debug().Msgf(template, args...) }

// Infof sends a formatted info level log message.
func Infof(template string, args ...any) { logger.Info().Msgf(template, args...) }

// Warnf sends a formatted warn level log message.
func Warnf(template string, args ...any) { logger.Warn().Msgf(template, args...) }

// Errorf sends a formatted error level log message.
func Errorf(template string, args ...any) { logger.Error().Msgf(template, args...) }

// Fatalf sends a formatted fatal level log message and exits with code 1.
func Fatalf(template string, args ...any) {
	logger.Fatal().Msgf(template, args...)
	os.Exit(1)
}

// Debugw sends a debug level log message with alternating key/value pairs.
func Debugw(msg string, keyvalues ...any) { withKeyValues(logger.Debug(), keyvalues).Msg(msg) }

// Infow sends an info level log message with alternating key/value pairs.
func Infow(msg string, keyvalues ...any) { withKeyValues(logger.Info(), keyvalues).Msg(msg) }

// Warnw sends a warn level log message with alternating key/value pairs.
func Warnw(msg string, keyvalues ...any) { withKeyValues(logger.Warn(), keyvalues).Msg(msg) }

// Errorw sends an error level log message wrapping an error.
func Errorw(err error, msg string) {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	logger.Error().Err(err).Msg(msg)
}
