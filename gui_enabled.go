//go:build gui

package main

import (
	"fmt"
	"runtime"
	"sync"

	"keyhook/gui"
)

var (
	guiApp    *gui.App
	guiMu     sync.Mutex
	guiDaemon *daemon
)

func initGUI() {
	// Lock this goroutine to OS thread for Fyne/GLFW
	runtime.LockOSThread()

	guiApp = gui.NewApp(func() {
		run()
	})
	if err := gui.Run(guiApp); err != nil {
		panic(err)
	}
	guiMu.Lock()
	d := guiDaemon
	guiMu.Unlock()
	gracefulShutdown(d, 0)
}

func runGUI(d *daemon, backend string) {
	guiMu.Lock()
	guiDaemon = d
	guiMu.Unlock()
	guiApp.SetSource(guiSource{d: d, backend: backend})
}

type guiSource struct {
	d       *daemon
	backend string
}

func (s guiSource) Status() (string, bool) {
	if s.d.p.IsRunning() {
		return "listening (" + s.backend + ")", true
	}
	if err := s.d.p.Err(); err != nil {
		return "hook down: " + err.Error(), false
	}
	return "hook down", false
}

func (s guiSource) Bindings() []string {
	var out []string
	for _, b := range s.d.bindings() {
		out = append(out, b.Keys+"  "+b.Action)
	}
	return out
}

func (s guiSource) Fired() []string {
	entries, _, _ := s.d.hist.snapshot()
	out := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		line := fmt.Sprintf("%s  %s  %s", e.At.Format("15:04:05"), e.Keys, e.Action)
		if e.Err != nil {
			line += "  failed: " + e.Err.Error()
		}
		out = append(out, line)
	}
	return out
}
