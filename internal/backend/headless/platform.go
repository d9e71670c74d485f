// Package headless is a platform with no window: frames are rasterised in
// memory by gg, the screen size is configured and user input is scripted.
package headless

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gg"

	"github.com/san-kum/fullstage/internal/backend"
	"github.com/san-kum/fullstage/internal/viewport"
)

const Name = "headless"

func init() {
	backend.Register(backend.Backend{
		Name:        Name,
		Description: "in-memory gg rasteriser, no window",
		Priority:    10,
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
	window     viewport.Size
	screen     viewport.Size
	fullscreen bool
	events     []viewport.Event
	appended   []viewport.Surface
	renderer   *Renderer
	frame      int
	script     map[int][]func(*Platform)
}

func New(opts backend.Options) *Platform {
	log := opts.Log()
	gg.SetLogger(log)
	screen := opts.Screen
	if screen.Empty() {
		screen = opts.Window
	}
	return &Platform{
		opts:   opts,
		log:    log.With("backend", Name),
		window: opts.Window.Clamp(),
		screen: screen.Clamp(),
		script: make(map[int][]func(*Platform)),
	}
}

func (p *Platform) Name() string { return Name }

func (p *Platform) WindowSize() viewport.Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window
}

func (p *Platform) ScreenSize() viewport.Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.screen
}

func (p *Platform) IsFullscreen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fullscreen
}

// RequestFullscreen enters fullscreen and queues a change event for the next frame.
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
	p.events = append(p.events, viewport.EventFullscreenChange)
	return nil
}

// ExitFullscreen is the scripted equivalent of pressing Escape.
func (p *Platform) ExitFullscreen() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.fullscreen {
		return
	}
	p.fullscreen = false
	p.events = append(p.events, viewport.EventFullscreenChange)
}

// Click queues a click for the next frame.
func (p *Platform) Click() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, viewport.EventClick)
}

// SetWindowSize changes the window and queues a resize event.
func (p *Platform) SetWindowSize(s viewport.Size) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.window = s.Clamp()
	p.events = append(p.events, viewport.EventWindowResize)
}

// At runs fn at the start of the given frame, before events are delivered.
func (p *Platform) At(frame int, fn func(*Platform)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script[frame] = append(p.script[frame], fn)
}

func (p *Platform) Append(s viewport.Surface) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appended = append(p.appended, s)
	return nil
}

// Appended returns the surfaces inserted into the platform.
func (p *Platform) Appended() []viewport.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]viewport.Surface(nil), p.appended...)
}

func (p *Platform) NewRenderer(opts viewport.RendererOptions) (viewport.Renderer, error) {
	r := NewRenderer(opts)
	p.mu.Lock()
	p.renderer = r
	p.mu.Unlock()
	return r, nil
}

// Renderer returns the most recently created renderer, or nil.
func (p *Platform) Renderer() *Renderer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderer
}

func (p *Platform) Frame() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// Step runs one frame: scripted actions, queued events, then frame callbacks.
// It reports whether anything happened.
func (p *Platform) Step() bool {
	p.mu.Lock()
	actions := p.script[p.frame]
	delete(p.script, p.frame)
	p.mu.Unlock()
	for _, fn := range actions {
		fn(p)
	}

	p.mu.Lock()
	events := p.events
	p.events = nil
	p.mu.Unlock()
	for _, ev := range events {
		n := p.Dispatch(ev)
		p.log.Debug("event", "event", ev, "listeners", n)
	}

	ran := p.Flush()

	p.mu.Lock()
	p.frame++
	pendingScript := len(p.script) > 0
	p.mu.Unlock()
	return ran > 0 || len(events) > 0 || len(actions) > 0 || pendingScript
}

// Run steps until the frame limit, until ctx is done, or until nothing is
// left to do when running unpaced without a limit.
func (p *Platform) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if p.opts.FPS > 0 {
		t := time.NewTicker(time.Second / time.Duration(p.opts.FPS))
		defer t.Stop()
		tick = t.C
	}

	for {
		if p.opts.Frames > 0 && p.Frame() >= p.opts.Frames {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		busy := p.Step()
		if !busy && p.opts.Frames == 0 && tick == nil {
			return nil
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
	}
}
