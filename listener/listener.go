// Package listener turns a native transition stream into hotkey fires.
package listener

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"keyhook/combo"
	"keyhook/native"
	"keyhook/registry"
)

var ErrCallbackPanic = errors.New("hook callback panicked")

// stopTimeout bounds how long Stop waits for the native loop to exit.
const stopTimeout = 2 * time.Second

// Listener owns one native hook. The pressed-key set is only touched from
// the hook's delivery goroutine.
type Listener struct {
	hook native.Hook
	reg  *registry.Registry
	fire func(registry.Binding)
	log  zerolog.Logger

	pressed map[combo.Code]struct{}
	// busy is held for the whole of one transition's delivery
	busy chan struct{}

	mu      sync.Mutex
	started bool
	handle  native.Handle
	done    chan struct{}
	err     error
	running atomic.Bool
	stopped atomic.Bool
}

// New creates a listener that forwards every satisfied binding in reg to
// fire. fire runs on the hook goroutine: it must not block or call Stop.
func New(hook native.Hook, reg *registry.Registry, fire func(registry.Binding), log zerolog.Logger) *Listener {
	return &Listener{
		hook: hook,
		reg:  reg,
		fire: fire,
		log:  log,
		busy: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Start installs the hook and begins delivering transitions.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return errors.New("listener already started")
	}
	if l.stopped.Load() {
		return errors.New("listener stopped")
	}
	l.started = true

	l.pressed = map[combo.Code]struct{}{}
	h, err := l.hook.Install(l.onTransition)
	if err != nil {
		l.err = err
		close(l.done)
		return err
	}
	l.handle = h
	l.running.Store(l.err == nil && !l.stopped.Load())
	if !l.running.Load() {
		h.Uninstall()
	}
	go l.wait(h)
	return nil
}

// wait blocks until the native loop exits, however that happens.
func (l *Listener) wait(h native.Handle) {
	<-h.Done()
	err := h.Err()
	l.running.Store(false)

	l.mu.Lock()
	if l.err == nil {
		l.err = err
	}
	err = l.err
	l.mu.Unlock()

	if err != nil {
		l.log.Error().Err(err).Msg("hook_loop_exit")
	} else {
		l.log.Debug().Msg("hook_loop_exit")
	}
	close(l.done)
}

func (l *Listener) onTransition(t native.Transition) {
	l.busy <- struct{}{}
	defer func() {
		<-l.busy
		if r := recover(); r != nil {
			l.fail(fmt.Errorf("%w: %v", ErrCallbackPanic, r))
		}
	}()
	if l.stopped.Load() {
		return
	}

	if !t.Pressed {
		delete(l.pressed, t.Code)
		return
	}
	l.pressed[t.Code] = struct{}{}

	snap := l.reg.Snapshot()
	if t.Combo.Valid() {
		// the OS matched exactly one grab
		if b, ok := snap.Lookup(t.Combo); ok && !l.stopped.Load() {
			l.fire(b)
		}
		return
	}
	snap.Each(func(b registry.Binding) {
		if !l.stopped.Load() && l.satisfied(b.Combo, t) {
			l.fire(b)
		}
	})
}

// satisfied reports whether c fires on low-level transition t. A keystroke
// only needs its own key to be down; held modifiers are not compared. A media
// key fires on its own transition.
func (l *Listener) satisfied(c combo.Combination, t native.Transition) bool {
	if c.IsMedia() {
		return t.Code == c.Target()
	}
	_, ok := l.pressed[c.Target()]
	return ok
}

func (l *Listener) fail(err error) {
	l.log.Error().Err(err).Msg("hook_callback_failure")
	l.mu.Lock()
	if l.err == nil {
		l.err = err
	}
	h := l.handle
	l.mu.Unlock()
	l.running.Store(false)
	if h != nil {
		h.Uninstall()
	}
}

// Running reports whether the hook is installed and its loop alive.
func (l *Listener) Running() bool { return l.running.Load() }

// Done is closed once the native loop has exited or Start failed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Err reports why the listener ended, if not through Stop.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Stop uninstalls the hook, waits for a transition still being delivered
// and for the native loop to exit, each bounded by stopTimeout. No binding
// is forwarded after Stop returns. It is idempotent.
func (l *Listener) Stop() {
	if l.stopped.Swap(true) {
		return
	}
	l.running.Store(false)

	l.mu.Lock()
	h := l.handle
	l.mu.Unlock()
	if h == nil {
		return
	}
	h.Uninstall()

	timeout := time.NewTimer(stopTimeout)
	defer timeout.Stop()
	select {
	case l.busy <- struct{}{}:
		<-l.busy
	case <-timeout.C:
		l.log.Warn().Dur("timeout", stopTimeout).Msg("hook_stop_timeout")
		return
	}
	select {
	case <-l.done:
	case <-timeout.C:
		l.log.Warn().Dur("timeout", stopTimeout).Msg("hook_stop_timeout")
	}
}

// Grab registers c with handles that need it; it is a no-op for low-level
// hooks.
func (l *Listener) Grab(id uint32, c combo.Combination) error {
	g, ok := l.grabber()
	if !ok {
		return nil
	}
	return g.Grab(id, c)
}

func (l *Listener) Release(id uint32) error {
	g, ok := l.grabber()
	if !ok {
		return nil
	}
	return g.Release(id)
}

// Grabs reports whether the installed hook needs per-combination grabs.
func (l *Listener) Grabs() bool {
	_, ok := l.grabber()
	return ok
}

func (l *Listener) grabber() (native.Grabber, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.handle.(native.Grabber)
	return g, ok
}
