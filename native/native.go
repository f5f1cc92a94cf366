// Package native wraps the operating system's keyboard hook mechanisms.
//
// A Hook is installed once per listener and yields a serial stream of key
// transitions until its Handle is uninstalled. Backends that cannot observe
// every key (key grabs, registered hotkeys) also implement Grabber, and only
// report transitions for combinations grabbed through it.
package native

import (
	"errors"

	"keyhook/combo"
)

var (
	ErrUnsupportedPlatform = errors.New("no hotkey backend for this platform")
	ErrInstall             = errors.New("native hook install failed")
	ErrMediaUnsupported    = errors.New("media keys not supported by this backend")
	ErrUnknownKey          = errors.New("key not supported by this backend")
)

// Transition is a single key-down or key-up event.
type Transition struct {
	Code    combo.Code
	Pressed bool
	// Combo is the exact combination the OS matched, set by Grabber handles.
	// Low-level hooks leave it zero.
	Combo combo.Combination
}

// Hook installs a native keyboard hook. fn is never called concurrently with
// itself.
type Hook interface {
	Install(fn func(Transition)) (Handle, error)
}

// Handle is an installed hook.
type Handle interface {
	// Done is closed when the native loop has exited.
	Done() <-chan struct{}
	// Err reports why the loop exited, nil after a plain Uninstall. It is
	// only meaningful once Done is closed.
	Err() error
	// Uninstall releases the hook. It is idempotent, does not wait for the
	// loop to exit and may be called from inside fn.
	Uninstall()
}

// Grabber is implemented by handles that need each combination registered
// with the OS before transitions for it are reported.
type Grabber interface {
	Grab(id uint32, c combo.Combination) error
	Release(id uint32) error
}

// Mechanism names the kind of native facility a backend uses.
type Mechanism string

const (
	LowLevelHook     Mechanism = "low-level-hook"
	KeyGrab          Mechanism = "key-grab"
	RegisteredHotkey Mechanism = "registered-hotkey"
)

// Backend describes the hook implementation selected for the host.
type Backend struct {
	Name      string
	Mechanism Mechanism
	Hook      Hook
}

// Host returns the backend for the running platform, or
// ErrUnsupportedPlatform.
func Host() (Backend, error) {
	return hostBackend()
}

// Diagnose checks whether the host backend can be used and describes it.
func Diagnose() (string, error) {
	return diagnose()
}
