//go:build darwin || (linux && x11)

package native

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	"keyhook/combo"
)

// Grab registers each combination with the OS through golang.design/x/hotkey
// (XGrabKey on X11, RegisterEventHotKey on macOS). On macOS the program must
// run under mainthread.Init.
type Grab struct{}

func (Grab) Install(fn func(Transition)) (Handle, error) {
	h := &grabHandle{
		events: make(chan Transition, 64),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		grabs:  map[uint32]*grabbed{},
	}
	go h.pump(fn)
	return h, nil
}

type grabbed struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
}

type grabHandle struct {
	events chan Transition
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once

	mu    sync.Mutex
	grabs map[uint32]*grabbed
}

func (h *grabHandle) pump(fn func(Transition)) {
	defer close(h.done)
	for {
		select {
		case <-h.stop:
			return
		case t := <-h.events:
			fn(t)
		}
	}
}

func (h *grabHandle) Grab(id uint32, c combo.Combination) error {
	if c.IsMedia() {
		return ErrMediaUnsupported
	}
	key, ok := grabKeys[c.Target()]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownKey, c.Target())
	}
	var mods []hotkey.Modifier
	for _, m := range []combo.Modifier{combo.ModCtrl, combo.ModAlt, combo.ModShift, combo.ModMeta} {
		if c.Has(m) {
			mods = append(mods, modifierMap[m])
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.stop:
		return fmt.Errorf("%w: hook already uninstalled", ErrInstall)
	default:
	}
	if old, ok := h.grabs[id]; ok {
		h.releaseLocked(id, old)
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("%w: grab %v: %v", ErrInstall, c, err)
	}
	g := &grabbed{hk: hk, stop: make(chan struct{})}
	h.grabs[id] = g
	go h.forward(g, c)
	return nil
}

// forward turns the grab's keydown/keyup channels into transitions tagged
// with the grabbed combination.
func (h *grabHandle) forward(g *grabbed, c combo.Combination) {
	for {
		var t Transition
		select {
		case <-g.stop:
			return
		case <-g.hk.Keydown():
			t = Transition{Code: c.Target(), Pressed: true, Combo: c}
		case <-g.hk.Keyup():
			t = Transition{Code: c.Target(), Combo: c}
		}
		select {
		case h.events <- t:
		case <-g.stop:
			return
		}
	}
}

func (h *grabHandle) Release(id uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.grabs[id]
	if !ok {
		return nil
	}
	return h.releaseLocked(id, g)
}

func (h *grabHandle) releaseLocked(id uint32, g *grabbed) error {
	delete(h.grabs, id)
	close(g.stop)
	return g.hk.Unregister()
}

func (h *grabHandle) Done() <-chan struct{} { return h.done }
func (h *grabHandle) Err() error            { return nil }

func (h *grabHandle) Uninstall() {
	h.once.Do(func() {
		h.mu.Lock()
		for id, g := range h.grabs {
			h.releaseLocked(id, g)
		}
		close(h.stop)
		h.mu.Unlock()
	})
}

var grabKeys = map[combo.Code]hotkey.Key{
	combo.KeySpace:  hotkey.KeySpace,
	combo.KeyReturn: hotkey.KeyReturn,
	combo.KeyTab:    hotkey.KeyTab,
	combo.KeyEscape: hotkey.KeyEscape,
	combo.KeyDelete: hotkey.KeyDelete,
	combo.KeyLeft:   hotkey.KeyLeft,
	combo.KeyRight:  hotkey.KeyRight,
	combo.KeyUp:     hotkey.KeyUp,
	combo.KeyDown:   hotkey.KeyDown,
}

func init() {
	digits := []hotkey.Key{hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
		hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9}
	for i, k := range digits {
		grabKeys[combo.Key0+combo.Code(i)] = k
	}
	letters := []hotkey.Key{hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE,
		hotkey.KeyF, hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
		hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR, hotkey.KeyS,
		hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX, hotkey.KeyY, hotkey.KeyZ}
	for i, k := range letters {
		grabKeys[combo.KeyA+combo.Code(i)] = k
	}
	fkeys := []hotkey.Key{hotkey.KeyF1, hotkey.KeyF2, hotkey.KeyF3, hotkey.KeyF4, hotkey.KeyF5,
		hotkey.KeyF6, hotkey.KeyF7, hotkey.KeyF8, hotkey.KeyF9, hotkey.KeyF10, hotkey.KeyF11, hotkey.KeyF12}
	for i, k := range fkeys {
		grabKeys[combo.KeyF1+combo.Code(i)] = k
	}
}
