package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"keyhook/host"
)

// TUI message types
type reloadMsg struct{ Err error }
type tickMsg time.Time

type tuiModel struct {
	d             *daemon
	backend       string
	configPath    string
	width, height int
	reloadErr     string
	reloads       int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

// NewTUIProgram builds the program and attaches q, the queue hotkey
// listeners are posted to, so they run inside Update.
func NewTUIProgram(d *daemon, backend, configPath string, q *host.Tea) *tea.Program {
	m := tuiModel{d: d, backend: backend, configPath: configPath}
	p := tea.NewProgram(m, tea.WithAltScreen())
	q.Attach(p)
	return p
}

func tuiTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if host.Handle(msg) {
		return m, nil
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case tickMsg:
		return m, tuiTick()

	case reloadMsg:
		m.reloads++
		m.reloadErr = ""
		if msg.Err != nil {
			m.reloadErr = msg.Err.Error()
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var left []string
	left = append(left, titleStyle.Render("keyhook "+version), "")

	if m.d.p.IsRunning() {
		left = append(left, runningStyle.Render("● LISTENING")+dimStyle.Render(" "+m.backend))
	} else {
		status := "○ HOOK DOWN"
		if err := m.d.p.Err(); err != nil {
			status += ": " + err.Error()
		}
		left = append(left, downStyle.Render(status))
	}
	if m.configPath != "" {
		left = append(left, dimStyle.Render("config: "+m.configPath))
	}
	if m.reloads > 0 {
		left = append(left, dimStyle.Render(fmt.Sprintf("reloaded %d×", m.reloads)))
	}
	if m.reloadErr != "" {
		for _, line := range wrapText(m.reloadErr, 40) {
			left = append(left, warnStyle.Render(line))
		}
	}

	left = append(left, "", titleStyle.Render("Bindings"))
	bindings := m.d.bindings()
	if len(bindings) == 0 {
		left = append(left, dimStyle.Render("none (use -bind keys=action or a config file)"))
	}
	for _, b := range bindings {
		left = append(left, keyStyle.Render(b.Keys)+dimStyle.Render("  "+b.Action))
	}
	left = append(left, "", helpStyle.Render("q to quit"))

	entries, output, total := m.d.hist.snapshot()
	var right strings.Builder
	right.WriteString(titleStyle.Render(fmt.Sprintf("Fired (%d)", total)) + "\n\n")
	if len(entries) == 0 {
		right.WriteString(dimStyle.Render("No hotkeys fired yet"))
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		line := dimStyle.Render(e.At.Format("15:04:05")) + " " + keyStyle.Render(e.Keys) + " " + e.Action
		if e.Err != nil {
			line += " " + warnStyle.Render("✗ "+e.Err.Error())
		}
		right.WriteString(line + "\n")
	}
	if len(output) > 0 {
		right.WriteString("\n" + titleStyle.Render("Output") + "\n\n")
		for _, line := range output {
			right.WriteString(line + "\n")
		}
	}

	leftWidth := 44
	rightWidth := m.width - leftWidth - 1
	if rightWidth < 20 {
		rightWidth = 20
	}
	leftPanel := lipgloss.NewStyle().
		Width(leftWidth).
		Height(m.height).
		Render(strings.Join(left, "\n"))
	rightPanel := lipgloss.NewStyle().
		Width(rightWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(right.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
