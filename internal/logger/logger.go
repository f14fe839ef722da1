package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a configured zerolog.Logger. In development, it uses a human-friendly console writer.
// level overrides the environment default when it parses as a zerolog level.
func New(appEnv, level string) zerolog.Logger {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	isDev := env == "development" || env == "dev"

	lvl := zerolog.InfoLevel
	if isDev {
		lvl = zerolog.DebugLevel
	}
	if l, err := zerolog.ParseLevel(strings.TrimSpace(level)); err == nil && level != "" {
		lvl = l
	}

	if isDev {
		cw := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stdout
			w.TimeFormat = "2006-01-02 15:04:05"
		})
		return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("service", "rentmail").Logger()
}

// Component returns a child logger tagged with the module name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// Nop returns a logger that discards output, for tests.
func Nop() zerolog.Logger {
	return zerolog.New(io.Discard)
}
