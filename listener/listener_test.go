package listener

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"keyhook/combo"
	"keyhook/native"
	"keyhook/registry"
)

type recorder struct {
	mu    sync.Mutex
	fired []combo.Combination
}

func (r *recorder) fire(b registry.Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, b.Combo)
}

func (r *recorder) count(c combo.Combination) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.fired {
		if f == c {
			n++
		}
	}
	return n
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func nop(combo.Combination) {}

func startListener(t *testing.T) (*Listener, *native.Fake, *registry.Registry, *recorder) {
	t.Helper()
	fk := native.NewFake()
	reg := registry.New()
	rec := &recorder{}
	l := New(fk, reg, rec.fire, zerolog.Nop())
	if err := l.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(l.Stop)
	return l, fk, reg, rec
}

func waitDone(t *testing.T, l *Listener) {
	t.Helper()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for listener loop to exit")
	}
}

var ctrlSpace = combo.Keystroke(combo.KeySpace, combo.ModCtrl)

func TestPressFiresOnceReleaseNever(t *testing.T) {
	_, fk, reg, rec := startListener(t)
	reg.Insert(ctrlSpace, nop)

	fk.Press(combo.KeyLCtrl)
	fk.Press(combo.KeySpace)
	if n := rec.count(ctrlSpace); n != 1 {
		t.Fatalf("fired %d times after press, want 1", n)
	}
	fk.Release(combo.KeySpace)
	fk.Release(combo.KeyLCtrl)
	if n := rec.total(); n != 1 {
		t.Errorf("fired %d times after release, want 1", n)
	}
}

func TestSingleKeyPressAndRelease(t *testing.T) {
	_, fk, reg, rec := startListener(t)
	a := combo.Keystroke(combo.KeyA, 0)
	reg.Insert(a, nop)

	fk.Press(combo.KeyA)
	fk.Release(combo.KeyA)
	if n := rec.count(a); n != 1 {
		t.Errorf("fired %d times, want 1", n)
	}
}

// Matching only looks at the target key; modifiers in the combination are
// not required to be held.
func TestLooseMatchIgnoresModifiers(t *testing.T) {
	_, fk, reg, rec := startListener(t)
	reg.Insert(ctrlSpace, nop)

	fk.Press(combo.KeySpace)
	if n := rec.count(ctrlSpace); n != 1 {
		t.Errorf("fired %d times without ctrl held, want 1", n)
	}
}

func TestEverySatisfiedBindingFires(t *testing.T) {
	_, fk, reg, rec := startListener(t)
	a := combo.Keystroke(combo.KeyA, combo.ModCtrl)
	b := combo.Keystroke(combo.KeyB, combo.ModCtrl)
	reg.Insert(a, nop)
	reg.Insert(b, nop)

	fk.Press(combo.KeyA)
	if rec.count(a) != 1 || rec.count(b) != 0 {
		t.Fatalf("after first press: a=%d b=%d", rec.count(a), rec.count(b))
	}
	fk.Press(combo.KeyB)
	if rec.count(a) != 2 || rec.count(b) != 1 {
		t.Errorf("after second press: a=%d b=%d, want 2 and 1", rec.count(a), rec.count(b))
	}
}

func TestMediaKeyFiresOnItsOwnTransition(t *testing.T) {
	_, fk, reg, rec := startListener(t)
	pp := combo.Media(combo.MediaPlayPause)
	reg.Insert(pp, nop)

	fk.Press(combo.KeyMediaPlayPause)
	fk.Press(combo.KeyA) // play/pause never released by the backend
	if n := rec.count(pp); n != 1 {
		t.Errorf("media key fired %d times, want 1", n)
	}
}

func TestRemovedBindingDoesNotFire(t *testing.T) {
	_, fk, reg, rec := startListener(t)
	reg.Insert(ctrlSpace, nop)
	fk.Tap(combo.KeyLCtrl, combo.KeySpace)
	reg.Remove(ctrlSpace)
	fk.Tap(combo.KeyLCtrl, combo.KeySpace)
	if n := rec.total(); n != 1 {
		t.Errorf("fired %d times, want 1", n)
	}
}

func TestFireSeesRegistryUpdates(t *testing.T) {
	_, fk, reg, rec := startListener(t)
	fk.Press(combo.KeySpace)
	reg.Insert(ctrlSpace, nop)
	fk.Release(combo.KeySpace)
	fk.Press(combo.KeySpace)
	if n := rec.total(); n != 1 {
		t.Errorf("fired %d times, want 1", n)
	}
}

func TestStartFailure(t *testing.T) {
	fk := native.NewFake()
	fk.InstallErr = errors.New("access denied")
	l := New(fk, registry.New(), func(registry.Binding) {}, zerolog.Nop())

	err := l.Start()
	if !errors.Is(err, native.ErrInstall) {
		t.Fatalf("Start = %v, want ErrInstall", err)
	}
	if l.Running() {
		t.Error("Running after failed install")
	}
	waitDone(t, l)
	if err := l.Start(); err == nil {
		t.Error("second Start after failure succeeded")
	}
}

func TestCrashStopsRunning(t *testing.T) {
	l, fk, _, _ := startListener(t)
	if !l.Running() {
		t.Fatal("not running after Start")
	}
	crash := errors.New("hook torn down by OS")
	fk.Crash(crash)
	waitDone(t, l)
	if l.Running() {
		t.Error("still running after native loop exit")
	}
	if !errors.Is(l.Err(), crash) {
		t.Errorf("Err = %v, want %v", l.Err(), crash)
	}
}

func TestPanicInCallbackKillsListener(t *testing.T) {
	fk := native.NewFake()
	reg := registry.New()
	reg.Insert(ctrlSpace, nop)
	l := New(fk, reg, func(registry.Binding) { panic("boom") }, zerolog.Nop())
	if err := l.Start(); err != nil {
		t.Fatal(err)
	}

	fk.Press(combo.KeySpace) // must not propagate the panic
	waitDone(t, l)
	if l.Running() {
		t.Error("still running after callback panic")
	}
	if !errors.Is(l.Err(), ErrCallbackPanic) {
		t.Errorf("Err = %v, want ErrCallbackPanic", l.Err())
	}
}

func TestStopIsIdempotentAndDropsLateTransitions(t *testing.T) {
	l, fk, reg, rec := startListener(t)
	reg.Insert(ctrlSpace, nop)
	l.Stop()
	l.Stop()
	if l.Running() {
		t.Error("running after Stop")
	}
	if fk.Press(combo.KeySpace) {
		t.Error("fake delivered a transition after Stop")
	}
	if rec.total() != 0 {
		t.Error("fired after Stop")
	}
	if l.Err() != nil {
		t.Errorf("Err after Stop = %v, want nil", l.Err())
	}
}

func TestStopWaitsForInFlightFire(t *testing.T) {
	fk := native.NewFake()
	reg := registry.New()
	reg.Insert(combo.Keystroke(combo.KeyA, 0), nop)
	reg.Insert(combo.Keystroke(combo.KeyA, combo.ModCtrl), nop)

	var fired atomic.Int32
	entered := make(chan struct{})
	unblock := make(chan struct{})
	l := New(fk, reg, func(registry.Binding) {
		if fired.Add(1) == 1 {
			close(entered)
			<-unblock
		}
	}, zerolog.Nop())
	if err := l.Start(); err != nil {
		t.Fatal(err)
	}

	go fk.Press(combo.KeyA)
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first binding never fired")
	}

	stopped := make(chan struct{})
	go func() {
		l.Stop()
		close(stopped)
	}()
	for l.Running() {
		time.Sleep(time.Millisecond)
	}
	select {
	case <-stopped:
		t.Fatal("Stop returned while a fire was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(unblock)
	select {
	case <-stopped:
	case <-time.After(stopTimeout):
		t.Fatal("Stop did not return after the fire finished")
	}
	if n := fired.Load(); n != 1 {
		t.Errorf("fired %d bindings, want 1: the second was satisfied after Stop", n)
	}
}

// Every transition delivered while another goroutine removes a binding sees
// either the old or the new registry, never a partial one.
func TestConcurrentUnregisterDuringDelivery(t *testing.T) {
	_, fk, reg, rec := startListener(t)
	other := combo.Keystroke(combo.KeyA, 0)
	reg.Insert(ctrlSpace, nop)
	reg.Insert(other, nop)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			fk.Press(combo.KeySpace)
			fk.Release(combo.KeySpace)
		}
	}()
	for i := 0; i < 500; i++ {
		reg.Remove(ctrlSpace)
		reg.Insert(ctrlSpace, nop)
	}
	wg.Wait()

	if n := rec.count(other); n != 0 {
		t.Errorf("binding for an unpressed key fired %d times", n)
	}
	if rec.count(ctrlSpace) > 500 {
		t.Errorf("fired more than once per press: %d", rec.count(ctrlSpace))
	}
}

func TestGrabForwardsToGrabbingHandle(t *testing.T) {
	fk := native.NewFake()
	fk.Grabbing = true
	reg := registry.New()
	rec := &recorder{}
	l := New(fk, reg, rec.fire, zerolog.Nop())
	if err := l.Start(); err != nil {
		t.Fatal(err)
	}
	defer l.Stop()

	b := reg.Insert(ctrlSpace, nop)
	fk.Press(combo.KeyLCtrl)
	if fk.Press(combo.KeySpace) {
		t.Fatal("ungrabbed key delivered")
	}
	fk.Release(combo.KeySpace)
	if err := l.Grab(b.ID, ctrlSpace); err != nil {
		t.Fatal(err)
	}
	fk.Press(combo.KeySpace)
	fk.Release(combo.KeySpace)
	fk.Release(combo.KeyLCtrl)
	if rec.count(ctrlSpace) != 1 {
		t.Errorf("fired %d times, want 1", rec.count(ctrlSpace))
	}
	if err := l.Release(b.ID); err != nil {
		t.Fatal(err)
	}
	if len(fk.Grabbed()) != 0 {
		t.Errorf("grabs left after Release: %v", fk.Grabbed())
	}
}

// A grab event names the one combination the OS matched; other bindings on
// the same key stay silent.
func TestGrabFiresOnlyTheMatchedCombination(t *testing.T) {
	fk := native.NewFake()
	fk.Grabbing = true
	reg := registry.New()
	rec := &recorder{}
	l := New(fk, reg, rec.fire, zerolog.Nop())
	if err := l.Start(); err != nil {
		t.Fatal(err)
	}
	defer l.Stop()

	ctrlA := combo.Keystroke(combo.KeyA, combo.ModCtrl)
	altA := combo.Keystroke(combo.KeyA, combo.ModAlt)
	for _, c := range []combo.Combination{ctrlA, altA} {
		b := reg.Insert(c, nop)
		if err := l.Grab(b.ID, c); err != nil {
			t.Fatal(err)
		}
	}

	fk.Press(combo.KeyLCtrl)
	fk.Press(combo.KeyA)
	fk.Release(combo.KeyA)
	fk.Release(combo.KeyLCtrl)
	if rec.count(ctrlA) != 1 || rec.count(altA) != 0 {
		t.Fatalf("after ctrl+a: ctrl+a=%d alt+a=%d, want 1 and 0", rec.count(ctrlA), rec.count(altA))
	}

	fk.Press(combo.KeyRAlt)
	fk.Tap(combo.KeyA)
	fk.Release(combo.KeyRAlt)
	if rec.count(ctrlA) != 1 || rec.count(altA) != 1 {
		t.Errorf("after alt+a: ctrl+a=%d alt+a=%d, want 1 and 1", rec.count(ctrlA), rec.count(altA))
	}

	fk.Tap(combo.KeyA)
	if rec.total() != 2 {
		t.Errorf("plain a fired a grabbed binding: total=%d", rec.total())
	}
}
