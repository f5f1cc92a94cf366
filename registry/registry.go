// Package registry maps key combinations to listeners.
//
// Writers serialize on a mutex and publish a new immutable Snapshot; the hook
// goroutine reads the current Snapshot without locking.
package registry

import (
	"sync"
	"sync/atomic"

	"keyhook/combo"
)

// Listener is called when the combination it is bound to fires.
type Listener func(combo.Combination)

// Binding associates a combination with its listener.
type Binding struct {
	ID       uint32
	Combo    combo.Combination
	Listener Listener
}

// Snapshot is a consistent, read-only view of all bindings.
type Snapshot struct {
	bindings []Binding
	index    map[combo.Combination]int
}

var empty = &Snapshot{index: map[combo.Combination]int{}}

func (s *Snapshot) Len() int { return len(s.bindings) }

// Each calls fn for every binding in registration order.
func (s *Snapshot) Each(fn func(Binding)) {
	for _, b := range s.bindings {
		fn(b)
	}
}

func (s *Snapshot) Lookup(c combo.Combination) (Binding, bool) {
	i, ok := s.index[c]
	if !ok {
		return Binding{}, false
	}
	return s.bindings[i], true
}

// Bindings returns a copy of the bindings in registration order.
func (s *Snapshot) Bindings() []Binding {
	out := make([]Binding, len(s.bindings))
	copy(out, s.bindings)
	return out
}

type Registry struct {
	mu     sync.Mutex
	nextID uint32
	cur    atomic.Pointer[Snapshot]
}

func New() *Registry {
	r := &Registry{}
	r.cur.Store(empty)
	return r
}

// Snapshot returns the bindings as of the last completed mutation.
func (r *Registry) Snapshot() *Snapshot {
	return r.cur.Load()
}

// Insert binds c to l, replacing any listener already bound to c. A replaced
// binding keeps its ID and position.
func (r *Registry) Insert(c combo.Combination, l Listener) Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.cur.Load()
	next := clone(old, 1)
	if i, ok := next.index[c]; ok {
		next.bindings[i].Listener = l
		r.cur.Store(next)
		return next.bindings[i]
	}
	r.nextID++
	b := Binding{ID: r.nextID, Combo: c, Listener: l}
	next.index[c] = len(next.bindings)
	next.bindings = append(next.bindings, b)
	r.cur.Store(next)
	return b
}

// Remove deletes the binding for c. Removing an unbound combination is a no-op.
func (r *Registry) Remove(c combo.Combination) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.cur.Load()
	i, ok := old.index[c]
	if !ok {
		return Binding{}, false
	}
	removed := old.bindings[i]
	next := &Snapshot{
		bindings: make([]Binding, 0, len(old.bindings)-1),
		index:    make(map[combo.Combination]int, len(old.bindings)-1),
	}
	for _, b := range old.bindings {
		if b.Combo == c {
			continue
		}
		next.index[b.Combo] = len(next.bindings)
		next.bindings = append(next.bindings, b)
	}
	r.cur.Store(next)
	return removed, true
}

// Clear removes every binding and returns what was removed.
func (r *Registry) Clear() []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.cur.Swap(empty)
	return old.Bindings()
}

func clone(s *Snapshot, extra int) *Snapshot {
	next := &Snapshot{
		bindings: make([]Binding, len(s.bindings), len(s.bindings)+extra),
		index:    make(map[combo.Combination]int, len(s.bindings)+extra),
	}
	copy(next.bindings, s.bindings)
	for c, i := range s.index {
		next.index[c] = i
	}
	return next
}
