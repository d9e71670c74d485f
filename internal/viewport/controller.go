package viewport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/fullstage/internal/stage"
)

// Options configure a Controller.
type Options struct {
	Background  stage.Color
	Transparent bool
	Antialias   bool
	// FollowWindow also resizes on plain window resizes, not just
	// fullscreen transitions.
	FollowWindow bool
	Logger       *slog.Logger
	// FrameObserver, if set, receives every frame's render duration.
	FrameObserver func(time.Duration)
}

func DefaultOptions() Options {
	return Options{Background: stage.DefaultBackground}
}

type Controller struct {
	mu       sync.Mutex
	platform Platform
	opts     Options
	log      *slog.Logger

	stage    *stage.Stage
	renderer Renderer
	loop     *Loop
	size     Size
	removers []func()
	ready    bool
}

func New(p Platform, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		platform: p,
		opts:     opts,
		log:      log.With("platform", p.Name()),
	}
}

// Init builds the scene root and renderer, appends the surface to the host,
// registers the fullscreen-change and click listeners and starts the loop.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return ErrAlreadyInitialized
	}

	size := c.platform.WindowSize().Clamp()
	r, err := c.platform.NewRenderer(RendererOptions{
		Size:        size,
		Background:  c.opts.Background,
		Transparent: c.opts.Transparent,
		Antialias:   c.opts.Antialias,
	})
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	if err := c.platform.Append(r.View()); err != nil {
		return fmt.Errorf("append surface: %w", err)
	}

	c.stage = stage.New(c.opts.Background)
	c.renderer = r
	c.size = size

	c.loop = NewLoop(c.platform, c.renderFrame)
	c.loop.OnError(func(err error) {
		c.log.Warn("render failed", "err", err)
	})
	if c.opts.FrameObserver != nil {
		c.loop.OnFrame(c.opts.FrameObserver)
	}

	c.removers = append(c.removers,
		c.platform.Listen(EventFullscreenChange, c.HandleFullscreenChange),
		c.platform.Listen(EventClick, c.HandleClick),
	)
	if c.opts.FollowWindow {
		c.removers = append(c.removers, c.platform.Listen(EventWindowResize, c.HandleWindowResize))
	}

	c.ready = true
	c.loop.Start()
	c.log.Debug("viewport initialized", "width", size.Width, "height", size.Height)
	return nil
}

func (c *Controller) renderFrame() error {
	return c.renderer.Render(c.stage)
}

// Context returns the scene root and renderer. Both are nil before Init.
func (c *Controller) Context() Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Context{Stage: c.stage, Renderer: c.renderer}
}

// Attach hands the context to a collaborator.
func (c *Controller) Attach(col Collaborator) error {
	ctx := c.Context()
	if ctx.Stage == nil {
		return ErrNotInitialized
	}
	if err := col.Attach(ctx); err != nil {
		return fmt.Errorf("attach collaborator: %w", err)
	}
	return nil
}

// Size returns the most recently applied dimensions.
func (c *Controller) Size() Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Controller) Loop() *Loop {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loop
}

// HandleFullscreenChange resizes to the screen when fullscreen, otherwise to the window.
func (c *Controller) HandleFullscreenChange() {
	var size Size
	if c.platform.IsFullscreen() {
		size = c.platform.ScreenSize()
	} else {
		size = c.platform.WindowSize()
	}
	c.resize(size, "fullscreenchange")
}

// HandleWindowResize follows the window while not fullscreen.
func (c *Controller) HandleWindowResize() {
	if c.platform.IsFullscreen() {
		return
	}
	c.resize(c.platform.WindowSize(), "resize")
}

func (c *Controller) resize(size Size, cause string) {
	size = size.Clamp()
	c.mu.Lock()
	r := c.renderer
	if r == nil {
		c.mu.Unlock()
		return
	}
	c.size = size
	c.mu.Unlock()

	r.Resize(size.Width, size.Height)
	c.log.Debug("viewport resized", "cause", cause, "width", size.Width, "height", size.Height)
}

// HandleClick requests fullscreen for the render surface.
func (c *Controller) HandleClick() {
	c.mu.Lock()
	r := c.renderer
	c.mu.Unlock()
	if r == nil {
		return
	}
	if err := c.platform.RequestFullscreen(r.View()); err != nil {
		c.log.Warn("fullscreen request failed", "err", err)
	}
}

// Run initializes the controller if needed, pumps the platform until it
// exits and then closes the controller.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	ready := c.ready
	c.mu.Unlock()
	if !ready {
		if err := c.Init(); err != nil {
			return err
		}
	}
	defer c.Close()
	return c.platform.Run(ctx)
}

// Close stops the loop and removes the event listeners.
func (c *Controller) Close() {
	c.mu.Lock()
	removers := c.removers
	c.removers = nil
	loop := c.loop
	c.mu.Unlock()

	if loop != nil {
		loop.Stop()
	}
	for _, rm := range removers {
		rm()
	}
}
