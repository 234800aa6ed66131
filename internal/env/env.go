// Package env carries the per-run execution context: where output lines
// go, where progress is reported, and the run's logger.
package env

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/einsim-go/einsim/internal/log"
	"github.com/einsim-go/einsim/internal/simwire"
)

type Env struct {
	RunID string
	Log   *log.Logger
	// Sink receives the [ECC], [INFO] and [DATA] lines.
	Sink *simwire.Sink
	// Progress receives human-readable status; nil disables it.
	Progress io.Writer
	// Verbosity 2 and above echoes data lines to Progress.
	Verbosity int
}

// New builds an Env with a fresh run id attached to every log record.
func New(out io.Writer, progress io.Writer, logger *log.Logger, verbosity int) *Env {
	if logger == nil {
		logger = log.Root()
	}
	id := uuid.NewString()
	return &Env{
		RunID:     id,
		Log:       logger.With("run", id),
		Sink:      simwire.NewSink(out),
		Progress:  progress,
		Verbosity: verbosity,
	}
}

// Emit writes a line to the sink and, when verbose, echoes it.
func (e *Env) Emit(line string) error {
	if err := e.Sink.WriteLine(line); err != nil {
		return err
	}
	if e.Verbosity >= 2 && e.Progress != nil {
		_, _ = io.WriteString(e.Progress, line+"\n")
	}
	return nil
}

// Module returns a logger for a subsystem of this run.
func (e *Env) Module(name string) *log.Logger { return e.Log.Module(name) }

// Printf writes human-readable status to Progress, if any.
func (e *Env) Printf(format string, args ...any) {
	if e.Progress != nil {
		fmt.Fprintf(e.Progress, format, args...)
	}
}
