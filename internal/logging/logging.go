// Package logging builds the structured zerolog logger shared by every
// component, grounded on _examples/adred-codev-ws_poc/src/logger.go.
package logging

import (
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger at the given level ("debug","info","warn","error")
// and format ("json","console").
func New(level, format string) zerolog.Logger {
	var lvl zerolog.Level
	switch level {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	default:
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var output io.Writer = os.Stdout
	if format == "console" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).With().Timestamp().Str("service", "quoteserver").Logger()
}

// LogPanic logs a recovered panic with a stack trace; callers decide
// whether to re-panic after calling it.
func LogPanic(logger zerolog.Logger, panicValue any, msg string) {
	logger.Error().
		Interface("panic_value", panicValue).
		Str("stack_trace", string(debug.Stack())).
		Msg(msg)
}
