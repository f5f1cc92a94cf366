// Package dispatch runs hotkey listeners off the hook goroutine.
//
// An Executor decides where listener calls run: Serial owns one worker
// goroutine, Host hands calls to an application's own event loop. Dispatcher
// wraps either one with panic confinement.
package dispatch

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"keyhook/registry"
)

// Executor accepts work for later execution. Execute reports false once the
// executor has been shut down. Neither method blocks.
type Executor interface {
	Execute(fn func()) bool
	Shutdown()
}

// Dispatcher invokes binding listeners through an Executor.
type Dispatcher struct {
	exec   Executor
	log    zerolog.Logger
	closed atomic.Bool
}

func New(exec Executor, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{exec: exec, log: log}
}

// Dispatch schedules b's listener. It never runs the listener on the calling
// goroutine and reports false if the event was dropped.
func (d *Dispatcher) Dispatch(b registry.Binding) bool {
	if d.closed.Load() {
		return false
	}
	return d.exec.Execute(func() { d.call(b) })
}

func (d *Dispatcher) call(b registry.Binding) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("combo", b.Combo.String()).
				Uint32("binding", b.ID).
				Interface("panic", r).
				Msg("callback_failure")
		}
	}()
	b.Listener(b.Combo)
}

// Shutdown stops accepting events. Work already queued still runs.
func (d *Dispatcher) Shutdown() {
	if d.closed.Swap(true) {
		return
	}
	d.exec.Shutdown()
}
