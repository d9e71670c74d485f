// Package ebitengine hosts the viewport with Ebitengine. It is the backend
// used for desktop windows where raylib is unavailable and for wasm builds
// running in a browser tab.
package ebitengine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/san-kum/fullstage/internal/backend"
	"github.com/san-kum/fullstage/internal/viewport"
)

const Name = "ebitengine"

var errNoRenderer = errors.New("ebitengine: no renderer")

func init() {
	backend.Register(backend.Backend{
		Name:        Name,
		Description: "Ebitengine window or browser canvas",
		Priority:    30,
		Available:   backend.HasDisplay,
		Open: func(opts backend.Options) (viewport.Platform, error) {
			return New(opts), nil
		},
	})
}

type Platform struct {
	viewport.Dispatcher
	viewport.FrameQueue

	mu         sync.Mutex
	opts       backend.Options
	log        *slog.Logger
	renderer   *Renderer
	running    bool
	fullscreen bool
	window     viewport.Size
}

func New(opts backend.Options) *Platform {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	return &Platform{
		opts:   opts,
		log:    opts.Log().With("backend", Name),
		window: opts.Window.Clamp(),
	}
}

func (p *Platform) Name() string { return Name }

func (p *Platform) isRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Platform) WindowSize() viewport.Size {
	if !p.isRunning() {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.window
	}
	w, h := ebiten.WindowSize()
	return viewport.Size{Width: w, Height: h}
}

func (p *Platform) ScreenSize() viewport.Size {
	if !p.isRunning() {
		return p.opts.Screen
	}
	w, h := ebiten.ScreenSizeInFullscreen()
	return viewport.Size{Width: w, Height: h}
}

func (p *Platform) IsFullscreen() bool {
	return p.isRunning() && ebiten.IsFullscreen()
}

func (p *Platform) RequestFullscreen(s viewport.Surface) error {
	p.mu.Lock()
	r := p.renderer
	p.mu.Unlock()
	if r == nil || s != viewport.Surface(r.surface) {
		return viewport.ErrForeignSurface
	}
	ebiten.SetFullscreen(true)
	return nil
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

// Run blocks in ebiten.RunGame until the window closes, ctx is done or the
// frame limit is reached.
func (p *Platform) Run(ctx context.Context) error {
	p.mu.Lock()
	r := p.renderer
	p.mu.Unlock()
	if r == nil {
		return errNoRenderer
	}

	size := r.View().Size()
	ebiten.SetWindowTitle(p.opts.Title)
	ebiten.SetWindowSize(max(size.Width, 1), max(size.Height, 1))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(p.opts.FPS)
	ebiten.SetScreenClearedEveryFrame(false)

	p.mu.Lock()
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	g := &game{p: p, r: r, ctx: ctx}
	err := ebiten.RunGameWithOptions(g, &ebiten.RunGameOptions{
		ScreenTransparent: r.transparent,
	})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type game struct {
	p      *Platform
	r      *Renderer
	ctx    context.Context
	frames int
	last   viewport.Size
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if n := g.p.opts.Frames; n > 0 && g.frames >= n {
		return ebiten.Termination
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.p.Dispatch(viewport.EventClick)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && ebiten.IsFullscreen() {
		ebiten.SetFullscreen(false)
	}

	fs := ebiten.IsFullscreen()
	g.p.mu.Lock()
	changed := fs != g.p.fullscreen
	g.p.fullscreen = fs
	g.p.mu.Unlock()
	if changed {
		g.p.log.Debug("fullscreen changed", "fullscreen", fs)
		g.p.Dispatch(viewport.EventFullscreenChange)
	}

	w, h := ebiten.WindowSize()
	if cur := (viewport.Size{Width: w, Height: h}); cur != g.last {
		if !g.last.Empty() {
			g.p.Dispatch(viewport.EventWindowResize)
		}
		g.last = cur
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.r.bind(screen)
	g.p.Flush()
	g.r.bind(nil)
	g.frames++
}

// Layout keeps the logical screen at the renderer size; ebiten scales it to
// the window.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.r.View().Size()
	return max(s.Width, 1), max(s.Height, 1)
}
