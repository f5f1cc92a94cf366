// Package provider is the public entry point for system-wide hotkeys.
//
// A Provider owns one native hook, one binding registry and one dispatcher.
// Create it with Current (or New with an explicit hook), call Init, register
// combinations, and Close it when done. A stopped Provider cannot be reused.
package provider

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"keyhook/combo"
	"keyhook/dispatch"
	"keyhook/listener"
	"keyhook/native"
	"keyhook/registry"
)

var (
	ErrHookInstall        = errors.New("hotkey hook install failed")
	ErrStopped            = errors.New("provider stopped")
	ErrInvalidCombination = errors.New("invalid key combination")
)

type State int32

const (
	Created State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

type Options struct {
	// Queue, if set, runs listeners on the host's event loop instead of a
	// dedicated worker goroutine.
	Queue dispatch.Queue
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// ID tags every log line of this provider; a random UUID if empty.
	ID string
}

type Provider struct {
	id      string
	backend string
	log     zerolog.Logger
	hook    native.Hook
	reg     *registry.Registry
	disp    *dispatch.Dispatcher

	mu      sync.Mutex
	state   State
	lis     *listener.Listener
	initErr error
}

func New(hook native.Hook, opts Options) *Provider {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	base := zerolog.Nop()
	if opts.Logger != nil {
		base = *opts.Logger
	}
	log := base.With().Str("provider", id).Logger()

	var exec dispatch.Executor
	mode := "serial"
	if opts.Queue != nil {
		exec = dispatch.NewHost(opts.Queue)
		mode = "host"
	} else {
		exec = dispatch.NewSerial()
	}
	log.Debug().Str("dispatch", mode).Msg("provider_created")

	return &Provider{
		id:   id,
		log:  log,
		hook: hook,
		reg:  registry.New(),
		disp: dispatch.New(exec, log),
	}
}

// Current returns a provider for the running platform's native backend. On
// platforms without one it logs and returns ErrUnsupportedPlatform.
func Current(opts Options) (*Provider, error) {
	be, err := native.Host()
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.Warn().Err(err).Msg("hotkeys_unavailable")
		}
		return nil, err
	}
	p := New(be.Hook, opts)
	p.backend = be.Name
	p.log.Info().Str("backend", be.Name).Str("mechanism", string(be.Mechanism)).Msg("backend_selected")
	return p, nil
}

func (p *Provider) ID() string { return p.id }

// Backend names the native backend, empty for providers built with New.
func (p *Provider) Backend() string { return p.backend }

// Init installs the native hook. Bindings registered before Init are grabbed
// now; one that cannot be is removed and its error, wrapping ErrHookInstall
// as Register would, is joined into the result while the hook keeps running.
// A failed install is not retried: the provider stays Running with
// IsRunning false and every later Init returns the same error.
func (p *Provider) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case Stopped:
		return ErrStopped
	case Running:
		return p.initErr
	}
	p.state = Running

	lis := listener.New(p.hook, p.reg, p.fire, p.log)
	p.lis = lis
	if err := lis.Start(); err != nil {
		p.initErr = fmt.Errorf("%w: %w", ErrHookInstall, err)
		p.log.Error().Err(err).Msg("hook_install_failed")
		return p.initErr
	}

	var errs []error
	if lis.Grabs() {
		for _, b := range p.reg.Snapshot().Bindings() {
			if err := lis.Grab(b.ID, b.Combo); err != nil {
				p.reg.Remove(b.Combo)
				p.log.Warn().Err(err).Str("combo", b.Combo.String()).Msg("grab_failed")
				errs = append(errs, fmt.Errorf("%w: %v: %w", ErrHookInstall, b.Combo, err))
			}
		}
	}
	p.log.Info().Int("bindings", p.reg.Snapshot().Len()).Msg("provider_running")
	return errors.Join(errs...)
}

func (p *Provider) fire(b registry.Binding) {
	if !p.disp.Dispatch(b) {
		p.log.Debug().Str("combo", b.Combo.String()).Msg("fire_dropped")
	}
}

// Register binds c to l, replacing any listener already bound to c.
func (p *Provider) Register(c combo.Combination, l registry.Listener) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidCombination, c)
	}
	if l == nil {
		return fmt.Errorf("%w: nil listener for %v", ErrInvalidCombination, c)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Stopped {
		return ErrStopped
	}
	b := p.reg.Insert(c, l)
	if p.lis != nil && p.lis.Grabs() {
		if err := p.lis.Grab(b.ID, c); err != nil {
			p.reg.Remove(c)
			return fmt.Errorf("%w: %w", ErrHookInstall, err)
		}
	}
	p.log.Debug().Str("combo", c.String()).Uint32("binding", b.ID).Msg("hotkey_registered")
	return nil
}

func (p *Provider) RegisterMedia(m combo.MediaKey, l registry.Listener) error {
	return p.Register(combo.Media(m), l)
}

// Unregister removes the binding for c. Unknown combinations are ignored.
func (p *Provider) Unregister(c combo.Combination) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.reg.Remove(c)
	if !ok {
		return
	}
	p.release(b)
	p.log.Debug().Str("combo", c.String()).Msg("hotkey_unregistered")
}

func (p *Provider) UnregisterMedia(m combo.MediaKey) {
	p.Unregister(combo.Media(m))
}

// Reset removes every binding.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

func (p *Provider) resetLocked() int {
	old := p.reg.Clear()
	for _, b := range old {
		p.release(b)
	}
	return len(old)
}

func (p *Provider) release(b registry.Binding) {
	if p.lis == nil {
		return
	}
	if err := p.lis.Release(b.ID); err != nil {
		p.log.Warn().Err(err).Str("combo", b.Combo.String()).Msg("release_failed")
	}
}

// Stop tears the hook down and shuts the dispatcher. Listeners already
// dispatched still run; nothing is dispatched afterwards. Stop is idempotent
// and may be called from a listener.
func (p *Provider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Stopped {
		return
	}
	p.state = Stopped

	if n := p.resetLocked(); n > 0 {
		p.log.Warn().Int("bindings", n).Msg("stop_with_bindings")
	}
	if p.lis != nil {
		p.lis.Stop()
	}
	p.disp.Shutdown()
	p.log.Info().Msg("provider_stopped")
}

// Close resets and stops the provider.
func (p *Provider) Close() error {
	p.Reset()
	p.Stop()
	return nil
}

// IsRunning reports whether the native hook is alive. It turns false after
// an unexpected hook failure even though State is still Running.
func (p *Provider) IsRunning() bool {
	p.mu.Lock()
	lis := p.lis
	p.mu.Unlock()
	return lis != nil && lis.Running()
}

func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done is closed when the native hook loop exits. It is nil before Init.
func (p *Provider) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lis == nil {
		return nil
	}
	return p.lis.Done()
}

// Err reports why the hook loop exited, if it failed.
func (p *Provider) Err() error {
	p.mu.Lock()
	lis := p.lis
	initErr := p.initErr
	p.mu.Unlock()
	if initErr != nil {
		return initErr
	}
	if lis == nil {
		return nil
	}
	return lis.Err()
}

// Bindings returns the registered combinations in registration order.
func (p *Provider) Bindings() []combo.Combination {
	bs := p.reg.Snapshot().Bindings()
	out := make([]combo.Combination, len(bs))
	for i, b := range bs {
		out[i] = b.Combo
	}
	return out
}
