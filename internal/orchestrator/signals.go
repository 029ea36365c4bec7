package orchestrator

import (
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// InterruptFlag is the single mutable piece of shared state the resource
// model allows: a flag the orchestrator polls between stages, never inside
// one. A second signal forces an immediate exit rather than waiting for the
// current stage to reach its next poll point.
type InterruptFlag struct {
	interrupted atomic.Bool
	signalCount atomic.Int32
}

// NewInterruptFlag installs a SIGINT/SIGTERM handler and returns the flag it
// sets. The returned stop function removes the handler.
func NewInterruptFlag() (*InterruptFlag, func()) {
	f := &InterruptFlag{}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig, ok := <-sigChan:
				if !ok {
					return
				}
				n := f.signalCount.Add(1)
				if n >= 2 {
					slog.Warn("second interrupt received, forcing exit", "signal", sig.String())
					os.Exit(1)
				}
				slog.Info("interrupt received, will stop after the current stage", "signal", sig.String())
				f.interrupted.Store(true)
			case <-done:
				return
			}
		}
	}()

	return f, func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// Interrupted reports whether a stop has been requested. Checked between
// stages, never inside one: a stage is the unit of atomicity.
func (f *InterruptFlag) Interrupted() bool {
	return f.interrupted.Load()
}
