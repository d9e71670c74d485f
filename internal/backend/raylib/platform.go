//go:build !js

// Package raylib hosts the viewport in a native window driven by raylib.
package raylib

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/fullstage/internal/backend"
	"github.com/san-kum/fullstage/internal/viewport"
)

const Name = "raylib"

var errNoWindow = errors.New("raylib: window not open")

func init() {
	backend.Register(backend.Backend{
		Name:        Name,
		Description: "native OpenGL window (raylib)",
		Priority:    40,
		Available:   backend.HasDisplay,
		Open: func(opts backend.Options) (viewport.Platform, error) {
			return New(opts), nil
		},
	})
}

// Platform owns the raylib window. All raylib calls happen on the goroutine
// that calls Run, which must be the one that created the renderer.
type Platform struct {
	viewport.Dispatcher
	viewport.FrameQueue

	mu         sync.Mutex
	opts       backend.Options
	log        *slog.Logger
	renderer   *Renderer
	fullscreen bool
	windowed   windowMemo
}

// windowMemo keeps the windowed size across a fullscreen round trip. raylib
// restores the size the window had right before the toggle, which is already
// the monitor size.
type windowMemo struct {
	size viewport.Size
	set  bool
}

func (m *windowMemo) remember(s viewport.Size) {
	if s.Empty() {
		return
	}
	m.size, m.set = s, true
}

// take returns the remembered size once.
func (m *windowMemo) take() (viewport.Size, bool) {
	s, ok := m.size, m.set
	*m = windowMemo{}
	return s, ok
}

func New(opts backend.Options) *Platform {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	return &Platform{
		opts: opts,
		log:  opts.Log().With("backend", Name),
	}
}

func (p *Platform) Name() string { return Name }

func (p *Platform) open() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderer != nil
}

func (p *Platform) WindowSize() viewport.Size {
	if !p.open() {
		return p.opts.Window
	}
	return viewport.Size{Width: rl.GetScreenWidth(), Height: rl.GetScreenHeight()}
}

func (p *Platform) ScreenSize() viewport.Size {
	if !p.open() {
		return p.opts.Screen
	}
	m := rl.GetCurrentMonitor()
	return viewport.Size{Width: rl.GetMonitorWidth(m), Height: rl.GetMonitorHeight(m)}
}

func (p *Platform) IsFullscreen() bool {
	return p.open() && rl.IsWindowFullscreen()
}

func (p *Platform) RequestFullscreen(s viewport.Surface) error {
	p.mu.Lock()
	r := p.renderer
	p.mu.Unlock()
	if r == nil || s != viewport.Surface(r.surface) {
		return viewport.ErrForeignSurface
	}
	if rl.IsWindowFullscreen() {
		return nil
	}
	window, screen := p.WindowSize(), p.ScreenSize()
	p.mu.Lock()
	p.windowed.remember(window)
	p.mu.Unlock()
	rl.SetWindowSize(screen.Width, screen.Height)
	rl.ToggleFullscreen()
	return nil
}

// Append is a no-op: the window is the surface.
func (p *Platform) Append(s viewport.Surface) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderer == nil || s != viewport.Surface(p.renderer.surface) {
		return viewport.ErrForeignSurface
	}
	return nil
}

// NewRenderer opens the window. Only one renderer per platform is supported.
func (p *Platform) NewRenderer(opts viewport.RendererOptions) (viewport.Renderer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderer != nil {
		return nil, errors.New("raylib: window already open")
	}

	var flags uint32 = rl.FlagWindowResizable
	if opts.Antialias {
		flags |= rl.FlagMsaa4xHint
	}
	if opts.Transparent {
		flags |= rl.FlagWindowTransparent
	}
	rl.SetConfigFlags(flags)

	size := opts.Size.Clamp()
	rl.InitWindow(int32(max(size.Width, 1)), int32(max(size.Height, 1)), p.opts.Title)
	rl.SetTargetFPS(int32(p.opts.FPS))
	rl.SetExitKey(0)

	p.renderer = newRenderer(size, opts)
	p.log.Debug("window opened", "width", size.Width, "height", size.Height, "fps", p.opts.FPS)
	return p.renderer, nil
}

// Run pumps input and frames until the window closes, ctx is done or the
// frame limit is reached. The window is closed on return.
func (p *Platform) Run(ctx context.Context) error {
	if !p.open() {
		return errNoWindow
	}
	defer rl.CloseWindow()

	idle := 1 / float64(p.opts.FPS)
	frames := 0
	for !rl.WindowShouldClose() {
		if ctx.Err() != nil {
			return nil
		}
		if p.opts.Frames > 0 && frames >= p.opts.Frames {
			return nil
		}

		p.pollEvents()

		// EndDrawing polls input; without a frame we have to do it ourselves.
		if p.Flush() == 0 {
			rl.PollInputEvents()
			rl.WaitTime(idle)
		}
		frames++
	}
	return nil
}

func (p *Platform) pollEvents() {
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		p.Dispatch(viewport.EventClick)
	}
	if rl.IsKeyPressed(rl.KeyEscape) && rl.IsWindowFullscreen() {
		rl.ToggleFullscreen()
	}

	fs := rl.IsWindowFullscreen()
	p.mu.Lock()
	changed := fs != p.fullscreen
	p.fullscreen = fs
	var prev viewport.Size
	var restore bool
	if changed && !fs {
		prev, restore = p.windowed.take()
	}
	p.mu.Unlock()
	if restore {
		rl.SetWindowSize(prev.Width, prev.Height)
	}
	if changed {
		p.log.Debug("fullscreen changed", "fullscreen", fs)
		p.Dispatch(viewport.EventFullscreenChange)
	}

	if rl.IsWindowResized() {
		p.Dispatch(viewport.EventWindowResize)
	}
}
