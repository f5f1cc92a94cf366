package dispatch

import "sync"

// Serial runs tasks one at a time, in submission order, on a worker goroutine
// started by the first Execute. The queue is unbounded.
type Serial struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	started bool
	closed  bool
}

func NewSerial() *Serial {
	return &Serial{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (s *Serial) Execute(fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, fn)
	if !s.started {
		s.started = true
		go s.work()
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *Serial) work() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.mu.Unlock()
			<-s.wake
			s.mu.Lock()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			close(s.done)
			return
		}
		fn := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		run(fn)
	}
}

// run keeps the worker alive across a panicking task.
func run(fn func()) {
	defer func() { recover() }()
	fn()
}

// Shutdown refuses further work and lets the queue drain. It does not wait,
// so it may be called from inside a task.
func (s *Serial) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	if !started {
		close(s.done)
		return
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Done is closed once Shutdown has been called and the queue is empty.
func (s *Serial) Done() <-chan struct{} { return s.done }
