package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"keyhook/config"
	"keyhook/host"
)

type chanSender chan tea.Msg

func (c chanSender) Send(msg tea.Msg) { c <- msg }

func sizedModel(d *daemon) tuiModel {
	m := tuiModel{d: d, backend: "fake", configPath: "/tmp/keyhook.toml"}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(tuiModel)
}

func TestTUIViewListsBindings(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	if err := d.apply([]config.Binding{{Keys: "ctrl+space", Action: "print"}}); err != nil {
		t.Fatal(err)
	}
	m := sizedModel(d)

	view := m.View()
	for _, want := range []string{"ctrl+space", "HOOK DOWN", "No hotkeys fired yet", "/tmp/keyhook.toml"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTUIViewBeforeSize(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	if got := (tuiModel{d: d}).View(); got != "Loading..." {
		t.Errorf("View = %q", got)
	}
}

func TestTUIReloadMessage(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	m := sizedModel(d)

	next, _ := m.Update(reloadMsg{Err: errors.New("bad toml")})
	m = next.(tuiModel)
	if m.reloads != 1 || m.reloadErr != "bad toml" {
		t.Errorf("reloads=%d reloadErr=%q", m.reloads, m.reloadErr)
	}
	next, _ = m.Update(reloadMsg{})
	m = next.(tuiModel)
	if m.reloads != 2 || m.reloadErr != "" {
		t.Errorf("reloads=%d reloadErr=%q after clean reload", m.reloads, m.reloadErr)
	}
}

func TestTUIRunsPostedListeners(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	m := sizedModel(d)

	q := host.NewTea()
	defer q.Close()
	sent := make(chanSender, 1)
	q.Attach(sent)

	ran := false
	q.Post(func() { ran = true })

	var msg tea.Msg
	select {
	case msg = <-sent:
	case <-time.After(time.Second):
		t.Fatal("posted func never sent")
	}
	_, cmd := m.Update(msg)
	if !ran {
		t.Error("Update did not run the posted func")
	}
	if cmd != nil {
		t.Error("posted func produced a command")
	}
}

func TestTUIQuitKey(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	m := sizedModel(d)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("config reload failed: unknown key in binding", 20)
	for _, line := range got {
		if len(line) > 20 {
			t.Errorf("line %q longer than 20", line)
		}
	}
	if strings.Join(got, " ") != "config reload failed: unknown key in binding" {
		t.Errorf("wrapText lost words: %v", got)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText of empty string not nil")
	}
}
