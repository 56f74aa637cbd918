package notifier

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger type used for the notifier's slow-path
// diagnostics: construction and teardown, including a warning when Close
// finds sources still registered. Trigger lifecycle and fatal conditions
// are not logged. The hot dispatch path inside Wait never logs.
//
// Grounded on eventloop/logging.go's "injectable, package-level logging as a
// cross-cutting concern" design, but wired to the real ecosystem library
// go-eventloop itself depends on (logiface) with stumpy as the concrete JSON
// writer, rather than a bespoke Logger interface.
type Logger = *logiface.Logger[*stumpy.Event]

// defaultLogger returns a Logger with no writer configured, which logiface
// treats as disabled — every call is a safe no-op. This is the zero-value
// behavior a Notifier gets when constructed without [WithLogger].
func defaultLogger() Logger {
	return logiface.New[*stumpy.Event]()
}

// NewStderrLogger returns a Logger that writes newline-delimited JSON to
// os.Stderr at or above the given level, using stumpy as the writer —
// the same construction shown in stumpy's own examples
// (stumpy.L.New(stumpy.L.WithStumpy(), ...)).
func NewStderrLogger(level logiface.Level) Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithLevel(level),
	)
}
