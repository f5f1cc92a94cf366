package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"keyhook/action"
	"keyhook/beep"
	"keyhook/combo"
	"keyhook/config"
	"keyhook/log"
	"keyhook/provider"
)

// daemon binds config entries to actions on one provider.
type daemon struct {
	p      *provider.Provider
	runner *action.Runner
	beep   bool
	hist   *history

	mu      sync.Mutex
	applied []config.Binding
}

func newDaemon(p *provider.Provider, runner *action.Runner, withBeep bool) *daemon {
	d := &daemon{p: p, runner: runner, beep: withBeep, hist: newHistory(10)}
	runner.Fired = func(c combo.Combination, a action.Action) {
		log.Fired(c.String(), a.String())
		d.hist.add(firedEntry{At: time.Now(), Keys: c.String(), Action: a.String()})
	}
	return d
}

// apply replaces every registered hotkey with bs. Bad entries are skipped
// and reported together; the rest stay registered.
func (d *daemon) apply(bs []config.Binding) error {
	d.p.Reset()

	var errs []error
	var applied []config.Binding
	for _, b := range bs {
		c, err := b.Combo()
		if err != nil {
			errs = append(errs, fmt.Errorf("binding %q: %w", b.Keys, err))
			continue
		}
		a, err := action.Parse(b.Action)
		if err != nil {
			errs = append(errs, fmt.Errorf("binding %q: %w", b.Keys, err))
			continue
		}
		if err := d.p.Register(c, d.listener(a)); err != nil {
			errs = append(errs, fmt.Errorf("binding %q: %w", b.Keys, err))
			continue
		}
		applied = append(applied, config.Binding{Keys: c.String(), Action: a.String()})
	}

	d.mu.Lock()
	d.applied = dedupe(applied)
	d.mu.Unlock()
	return errors.Join(errs...)
}

// dedupe keeps the last entry per key combination, at the position of its
// first occurrence, matching how the provider replaces bindings.
func dedupe(bs []config.Binding) []config.Binding {
	idx := map[string]int{}
	var out []config.Binding
	for _, b := range bs {
		if i, ok := idx[b.Keys]; ok {
			out[i] = b
			continue
		}
		idx[b.Keys] = len(out)
		out = append(out, b)
	}
	return out
}

func (d *daemon) listener(a action.Action) func(combo.Combination) {
	return func(c combo.Combination) {
		if err := d.runner.Run(c, a); err != nil {
			log.Warnf("action failed: %v", err)
			d.hist.add(firedEntry{At: time.Now(), Keys: c.String(), Action: a.String(), Err: err})
			if d.beep {
				beep.PlayError()
			}
			return
		}
		if d.beep && a.Kind != action.Beep {
			beep.PlayFire()
		}
	}
}

// bindings lists the applied entries the provider still holds; grabs that
// failed at Init are gone from it.
func (d *daemon) bindings() []config.Binding {
	live := map[string]bool{}
	for _, c := range d.p.Bindings() {
		live[c.String()] = true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []config.Binding
	for _, b := range d.applied {
		if live[b.Keys] {
			out = append(out, b)
		}
	}
	return out
}

// history keeps the most recent fires and printed lines for the TUI.
type history struct {
	max int

	mu      sync.Mutex
	entries []firedEntry
	output  []string
	total   int
}

type firedEntry struct {
	At     time.Time
	Keys   string
	Action string
	Err    error
}

func newHistory(n int) *history { return &history{max: n} }

func (h *history) add(e firedEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	if e.Err == nil {
		h.total++
	}
}

// Write collects print action output.
func (h *history) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.output = append(h.output, strings.Split(strings.TrimSuffix(string(p), "\n"), "\n")...)
	if len(h.output) > h.max {
		h.output = h.output[len(h.output)-h.max:]
	}
	return len(p), nil
}

func (h *history) snapshot() (entries []firedEntry, output []string, total int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]firedEntry(nil), h.entries...), append([]string(nil), h.output...), h.total
}
