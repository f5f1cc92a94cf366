//go:build gui

// Package gui shows the daemon's hotkeys in a small fyne window with a tray
// menu. Hotkey listeners run on the fyne main goroutine through host.Fyne.
package gui

import (
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Source is polled for what the window shows.
type Source interface {
	Status() (text string, ok bool)
	Bindings() []string
	Fired() []string
}

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	onReady func()

	status   *widget.Label
	bindings *widget.Label
	fired    *widget.Label

	mu  sync.Mutex
	src Source
}

func NewApp(onReady func()) *App {
	return &App{onReady: onReady}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.keyhook.gui")
	a.fyneApp.Settings().SetTheme(&darkTheme{})

	// Set up system tray using Fyne's built-in support
	if desk, ok := a.fyneApp.(desktop.App); ok {
		menu := fyne.NewMenu("keyhook",
			fyne.NewMenuItem("Show", func() { a.window.Show() }),
			fyne.NewMenuItem("Quit", a.Quit),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(theme.ComputerIcon())
	}

	a.status = widget.NewLabelWithStyle("starting...", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	a.bindings = widget.NewLabel("")
	a.fired = widget.NewLabel("No hotkeys fired yet")

	a.window = a.fyneApp.NewWindow("keyhook")
	a.window.SetContent(container.NewVBox(
		a.status,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Bindings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		a.bindings,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Fired", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		a.fired,
	))
	a.window.Resize(fyne.NewSize(420, 360))
	// Closing the window hides it; Quit lives in the tray menu
	a.window.SetCloseIntercept(func() { a.window.Hide() })
	a.window.Show()

	stop := make(chan struct{})
	a.fyneApp.Lifecycle().SetOnStopped(func() { close(stop) })
	go a.refreshLoop(stop)
	go a.onReady()

	a.fyneApp.Run()
	return nil
}

func (a *App) SetSource(src Source) {
	a.mu.Lock()
	a.src = src
	a.mu.Unlock()
	a.refresh()
}

func (a *App) refreshLoop(stop <-chan struct{}) {
	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			a.refresh()
		}
	}
}

func (a *App) refresh() {
	a.mu.Lock()
	src := a.src
	a.mu.Unlock()
	if src == nil {
		return
	}
	status, ok := src.Status()
	bindings := src.Bindings()
	fired := src.Fired()

	fyne.Do(func() {
		if ok {
			a.status.SetText("● " + status)
		} else {
			a.status.SetText("○ " + status)
		}
		if len(bindings) == 0 {
			a.bindings.SetText("none")
		} else {
			a.bindings.SetText(strings.Join(bindings, "\n"))
		}
		if len(fired) > 0 {
			a.fired.SetText(strings.Join(fired, "\n"))
		}
	})
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}
