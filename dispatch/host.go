package dispatch

import "sync/atomic"

// Queue is an application event loop that runs posted funcs one at a time on
// its own goroutine.
type Queue interface {
	Post(fn func())
}

// QueueFunc adapts a plain function to Queue.
type QueueFunc func(fn func())

func (f QueueFunc) Post(fn func()) { f(fn) }

// Host forwards work to a Queue; ordering and exclusivity are the queue's.
type Host struct {
	q      Queue
	closed atomic.Bool
}

func NewHost(q Queue) *Host {
	return &Host{q: q}
}

func (h *Host) Execute(fn func()) bool {
	if h.closed.Load() {
		return false
	}
	h.q.Post(fn)
	return true
}

func (h *Host) Shutdown() { h.closed.Store(true) }
