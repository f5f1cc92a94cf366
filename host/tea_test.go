package host

import (
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"keyhook/dispatch"
)

var _ dispatch.Queue = (*Tea)(nil)
var _ dispatch.Queue = Fyne{}
var _ Sender = (*tea.Program)(nil)

// loop stands in for a bubbletea event loop: it handles every message on a
// single goroutine.
type loop struct {
	msgs chan tea.Msg
}

func (l *loop) Send(msg tea.Msg) { l.msgs <- msg }

func TestHandle(t *testing.T) {
	ran := false
	if !Handle(Run{fn: func() { ran = true }}) {
		t.Fatal("Run not handled")
	}
	if !ran {
		t.Error("func not run")
	}
	if Handle(tea.KeyMsg{}) {
		t.Error("foreign message handled")
	}
}

func TestPostBeforeAttachIsHeld(t *testing.T) {
	q := NewTea()
	defer q.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	l := &loop{msgs: make(chan tea.Msg)}
	q.Attach(l)
	for i := 0; i < 5; i++ {
		select {
		case msg := <-l.msgs:
			if !Handle(msg) {
				t.Fatalf("unexpected message %T", msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("post %d not delivered", i)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestPostDoesNotBlockOnBusyLoop(t *testing.T) {
	q := NewTea()
	defer q.Close()
	q.Attach(&loop{msgs: make(chan tea.Msg)}) // never read

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			q.Post(func() {})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Post blocked")
	}
}
