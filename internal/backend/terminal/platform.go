//go:build !js

// Package terminal hosts the viewport inside a terminal with bubbletea.
// Sizes are in cells; each cell carries 2x4 braille dots, so drawables see
// a canvas twice as wide and four times as tall. Fullscreen is the
// alternate screen.
package terminal

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"

	"github.com/san-kum/fullstage/internal/backend"
	"github.com/san-kum/fullstage/internal/viewport"
)

const Name = "terminal"

var errNoRenderer = errors.New("terminal: no renderer")

func init() {
	backend.Register(backend.Backend{
		Name:        Name,
		Description: "braille canvas in the current terminal",
		Priority:    20,
		Available: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		},
		Open: func(opts backend.Options) (viewport.Platform, error) {
			return New(opts), nil
		},
	})
}

// Platform keeps the terminal geometry and the commands produced by
// listeners, which the model hands back to bubbletea after each message.
type Platform struct {
	viewport.Dispatcher
	viewport.FrameQueue

	mu         sync.Mutex
	opts       backend.Options
	log        *slog.Logger
	cols, rows int
	fullscreen bool
	renderer   *Renderer
	cmds       []tea.Cmd
}

func New(opts backend.Options) *Platform {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	p := &Platform{
		opts: opts,
		log:  opts.Log().With("backend", Name),
		cols: 80,
		rows: 24,
	}
	out, ok := opts.Output.(*os.File)
	if opts.Output == nil {
		out, ok = os.Stdout, true
	}
	if ok {
		if w, h, err := term.GetSize(out.Fd()); err == nil && w > 0 && h > 0 {
			p.cols, p.rows = w, h
		}
	}
	return p
}

func (p *Platform) Name() string { return Name }

// WindowSize is the inline region: the full width and half the height.
func (p *Platform) WindowSize() viewport.Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return viewport.Size{Width: p.cols, Height: max(p.rows/2, 1)}
}

// ScreenSize is the whole terminal minus the hint line.
func (p *Platform) ScreenSize() viewport.Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return viewport.Size{Width: p.cols, Height: max(p.rows-1, 1)}
}

func (p *Platform) IsFullscreen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fullscreen
}

// RequestFullscreen switches to the alternate screen; the change event
// arrives once bubbletea has done so.
func (p *Platform) RequestFullscreen(s viewport.Surface) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderer == nil || s != viewport.Surface(p.renderer.surface) {
		return viewport.ErrForeignSurface
	}
	if p.fullscreen {
		return nil
	}
	p.fullscreen = true
	p.cmds = append(p.cmds, tea.Sequence(tea.EnterAltScreen, emit(fullscreenMsg{})))
	return nil
}

func (p *Platform) exitFullscreen() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.fullscreen {
		return
	}
	p.fullscreen = false
	p.cmds = append(p.cmds, tea.Sequence(tea.ExitAltScreen, emit(fullscreenMsg{})))
}

func (p *Platform) setTerminalSize(cols, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cols, p.rows = max(cols, 0), max(rows, 0)
}

func (p *Platform) takeCmds() []tea.Cmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmds := p.cmds
	p.cmds = nil
	return cmds
}

func (p *Platform) Append(s viewport.Surface) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderer == nil || s != viewport.Surface(p.renderer.surface) {
		return viewport.ErrForeignSurface
	}
	return nil
}

func (p *Platform) NewRenderer(opts viewport.RendererOptions) (viewport.Renderer, error) {
	r := newRenderer(opts)
	p.mu.Lock()
	p.renderer = r
	p.mu.Unlock()
	return r, nil
}

// Run drives the bubbletea program until quit, ctx cancellation or the frame limit.
func (p *Platform) Run(ctx context.Context) error {
	p.mu.Lock()
	r := p.renderer
	p.mu.Unlock()
	if r == nil {
		return errNoRenderer
	}

	opts := []tea.ProgramOption{tea.WithMouseCellMotion(), tea.WithContext(ctx)}
	if p.opts.Input != nil {
		opts = append(opts, tea.WithInput(p.opts.Input))
	}
	if p.opts.Output != nil {
		opts = append(opts, tea.WithOutput(p.opts.Output))
	}

	prog := tea.NewProgram(newModel(p, r), opts...)
	_, err := prog.Run()
	if err != nil && ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
