//go:build !js

package terminal

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/fullstage/internal/viewport"
	"github.com/san-kum/fullstage/internal/viz"
)

type frameMsg time.Time

type fullscreenMsg struct{}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

type model struct {
	p        *Platform
	r        *Renderer
	interval time.Duration
	frames   int
}

func newModel(p *Platform, r *Renderer) model {
	return model{p: p, r: r, interval: time.Second / time.Duration(p.opts.FPS)}
}

func (m model) Init() tea.Cmd { return m.tick() }

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var next tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.p.exitFullscreen()
		case "enter", "f":
			m.p.Dispatch(viewport.EventClick)
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.p.Dispatch(viewport.EventClick)
		}

	case tea.WindowSizeMsg:
		m.p.setTerminalSize(msg.Width, msg.Height)
		m.p.Dispatch(viewport.EventWindowResize)

	case fullscreenMsg:
		m.p.Dispatch(viewport.EventFullscreenChange)

	case frameMsg:
		if n := m.p.opts.Frames; n > 0 && m.frames >= n {
			return m, tea.Quit
		}
		m.p.Flush()
		m.frames++
		next = m.tick()
	}

	cmds := append(m.p.takeCmds(), next)
	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.r.Frame())
	b.WriteString("\n")
	if m.p.IsFullscreen() {
		b.WriteString(viz.KeyHint.Render("esc leave fullscreen   q quit"))
	} else {
		b.WriteString(viz.KeyHint.Render("click or enter for fullscreen   q quit"))
	}
	return b.String()
}
