// Package host adapts GUI and TUI event loops to dispatch.Queue, so hotkey
// listeners run on the same goroutine as the rest of the application's UI
// code.
package host

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"keyhook/dispatch"
)

// Run carries a posted func into a bubbletea Update.
type Run struct {
	fn func()
}

// Handle runs msg if it is a Run and reports whether it was. Models call it
// first thing in Update.
func Handle(msg tea.Msg) bool {
	r, ok := msg.(Run)
	if !ok {
		return false
	}
	if r.fn != nil {
		r.fn()
	}
	return true
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Tea posts funcs into a bubbletea program. Program.Send blocks until the
// event loop reads it, so sends go through a serial pump and Post never
// blocks. Posts made before Attach are held until a program is attached.
type Tea struct {
	pump     *dispatch.Serial
	attached chan struct{}
	once     sync.Once
	prog     Sender
}

func NewTea() *Tea {
	return &Tea{
		pump:     dispatch.NewSerial(),
		attached: make(chan struct{}),
	}
}

// Attach sets the program that receives posts. Only the first call counts.
func (t *Tea) Attach(s Sender) {
	t.once.Do(func() {
		t.prog = s
		close(t.attached)
	})
}

func (t *Tea) Post(fn func()) {
	t.pump.Execute(func() {
		<-t.attached
		t.prog.Send(Run{fn: fn})
	})
}

// Close stops the pump. Posts still queued are delivered if a program is
// attached and running.
func (t *Tea) Close() { t.pump.Shutdown() }
