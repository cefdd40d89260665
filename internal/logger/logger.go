// Package logger builds the zerolog loggers used by the qrzlog binaries.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

var configureOnce sync.Once

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

// configureErrors makes zerolog render github.com/pkg/errors stacks. Errors
// without one get a stack attached at the logging call site.
func configureErrors() {
	configureOnce.Do(func() {
		zerolog.ErrorStackMarshaler = func(err error) interface{} {
			if _, ok := err.(stackTracer); !ok {
				err = pkgerrors.WithStack(err)
			}
			return zpkgerrors.MarshalStack(err)
		}
		zerolog.ErrorMarshalFunc = func(err error) interface{} {
			if _, ok := err.(stackTracer); ok {
				return err
			}
			return pkgerrors.WithStack(err)
		}
	})
}

// New returns a JSON logger on stdout tagged with the service name.
// Call sites should use .Stack() on error events to include stacks.
func New(serviceName string) zerolog.Logger {
	return NewJSON(os.Stdout, serviceName)
}

// NewJSON is New writing to w.
func NewJSON(w io.Writer, serviceName string) zerolog.Logger {
	configureErrors()
	return zerolog.New(w).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// NewConsole returns a human-readable logger for interactive use. Debug
// events are dropped unless debug is set.
func NewConsole(w io.Writer, debug bool) zerolog.Logger {
	configureErrors()
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
