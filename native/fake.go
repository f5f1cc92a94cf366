package native

import (
	"errors"
	"sync"

	"keyhook/combo"
)

// Fake is an in-memory Hook. Transitions are delivered synchronously on the
// goroutine that calls Press or Release, one at a time.
type Fake struct {
	// InstallErr, if set, makes Install fail with it wrapped in ErrInstall.
	InstallErr error
	// GrabErr, if set, makes Grab fail.
	GrabErr error
	// Grabbing makes installed handles behave like key grabs: modifier keys
	// are not reported, and a key is reported only when a grab matches it
	// with the held modifiers exactly.
	Grabbing bool

	mu       sync.Mutex
	handle   *fakeHandle
	installs int
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Install(fn func(Transition)) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installs++
	if f.InstallErr != nil {
		return nil, errors.Join(ErrInstall, f.InstallErr)
	}
	h := &fakeHandle{
		fake:  f,
		fn:    fn,
		done:  make(chan struct{}),
		grabs: map[uint32]combo.Combination{},
		down:  map[combo.Code]combo.Combination{},
	}
	f.handle = h
	return h, nil
}

// Installs reports how many times Install was called.
func (f *Fake) Installs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installs
}

// Press simulates a key-down. It reports false if no hook is installed or
// the code is not grabbed on a grabbing fake.
func (f *Fake) Press(code combo.Code) bool { return f.send(Transition{Code: code, Pressed: true}) }

// Release simulates a key-up.
func (f *Fake) Release(code combo.Code) bool { return f.send(Transition{Code: code}) }

// Tap presses and releases each code in order, then releases them in reverse.
func (f *Fake) Tap(codes ...combo.Code) {
	for _, c := range codes {
		f.Press(c)
	}
	for i := len(codes) - 1; i >= 0; i-- {
		f.Release(codes[i])
	}
}

// Crash ends the native loop with err, as an OS-side failure would.
func (f *Fake) Crash(err error) {
	f.mu.Lock()
	h := f.handle
	f.mu.Unlock()
	if h != nil {
		h.finish(err)
	}
}

// Grabbed returns the combinations currently grabbed on the live handle.
func (f *Fake) Grabbed() []combo.Combination {
	f.mu.Lock()
	h := f.handle
	f.mu.Unlock()
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]combo.Combination, 0, len(h.grabs))
	for _, c := range h.grabs {
		out = append(out, c)
	}
	return out
}

func (f *Fake) send(t Transition) bool {
	f.mu.Lock()
	h := f.handle
	f.mu.Unlock()
	if h == nil {
		return false
	}
	return h.deliver(t)
}

type fakeHandle struct {
	fake *Fake
	fn   func(Transition)

	// serializes deliveries like a native message loop would
	deliverMu sync.Mutex

	mu       sync.Mutex
	grabs    map[uint32]combo.Combination
	mods     combo.Modifier
	down     map[combo.Code]combo.Combination
	finished bool
	err      error
	done     chan struct{}
	once     sync.Once
}

func (h *fakeHandle) deliver(t Transition) bool {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return false
	}
	if h.fake.Grabbing {
		var ok bool
		if t, ok = h.grabbedLocked(t); !ok {
			h.mu.Unlock()
			return false
		}
	}
	h.mu.Unlock()

	h.fn(t)
	return true
}

// grabbedLocked tags t with the grab it satisfies. A release is reported
// only for a key whose press was.
func (h *fakeHandle) grabbedLocked(t Transition) (Transition, bool) {
	if m, ok := combo.ModifierOf(t.Code); ok {
		if t.Pressed {
			h.mods |= m
		} else {
			h.mods &^= m
		}
		return t, false
	}
	if !t.Pressed {
		c, ok := h.down[t.Code]
		delete(h.down, t.Code)
		t.Combo = c
		return t, ok
	}
	want := combo.Keystroke(t.Code, h.mods)
	for _, c := range h.grabs {
		if c == want || (c.IsMedia() && c.Target() == t.Code) {
			h.down[t.Code] = c
			t.Combo = c
			return t, true
		}
	}
	return t, false
}

func (h *fakeHandle) finish(err error) {
	h.once.Do(func() {
		h.mu.Lock()
		h.finished = true
		h.err = err
		h.mu.Unlock()
		close(h.done)
	})
}

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *fakeHandle) Uninstall() { h.finish(nil) }

func (h *fakeHandle) Grab(id uint32, c combo.Combination) error {
	if h.fake.GrabErr != nil {
		return h.fake.GrabErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return ErrInstall
	}
	h.grabs[id] = c
	return nil
}

func (h *fakeHandle) Release(id uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.grabs, id)
	return nil
}
