// Package logging builds the zerolog loggers the commands hand to every
// component.
package logging

import (
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// New returns a console logger writing to w. Debug enables debug level,
// otherwise only warnings and errors are shown so that command output on
// stdout stays readable.
func New(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
