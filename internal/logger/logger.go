// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted by Configure.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Log is the global logger instance.
var Log zerolog.Logger

func init() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	Log = console(os.Stdout)
}

func console(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetLevel sets the global log level. Unknown or empty names mean info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// SetJSON switches to JSON lines on stdout.
func SetJSON() {
	SetOutput(os.Stdout)
}

// SetOutput sends JSON log lines to w. Tests use it to capture output.
func SetOutput(w io.Writer) {
	Log = zerolog.New(w).With().Timestamp().Logger()
}

// Configure applies LOG_LEVEL and LOG_FORMAT in one call.
func Configure(level, format string) {
	SetLevel(level)
	if strings.EqualFold(format, FormatJSON) {
		SetJSON()
	}
}
