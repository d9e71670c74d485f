package viewport_test

import (
	"context"
	"errors"

	"github.com/san-kum/fullstage/internal/stage"
	"github.com/san-kum/fullstage/internal/viewport"
)

type fakeSurface struct {
	r *fakeRenderer
}

func (s *fakeSurface) Size() viewport.Size { return s.r.size }

type fakeRenderer struct {
	size      viewport.Size
	opts      viewport.RendererOptions
	surface   *fakeSurface
	resizes   []viewport.Size
	renders   int
	renderErr error
}

func newFakeRenderer(opts viewport.RendererOptions) *fakeRenderer {
	r := &fakeRenderer{size: opts.Size, opts: opts}
	r.surface = &fakeSurface{r: r}
	return r
}

func (r *fakeRenderer) View() viewport.Surface { return r.surface }

func (r *fakeRenderer) Resize(w, h int) {
	r.size = viewport.Size{Width: w, Height: h}.Clamp()
	r.resizes = append(r.resizes, r.size)
}

func (r *fakeRenderer) Render(s *stage.Stage) error {
	r.renders++
	return r.renderErr
}

// fakePlatform is a scripted host: tests flip fullscreen state, fire events
// and flush frames by hand.
type fakePlatform struct {
	viewport.Dispatcher
	viewport.FrameQueue

	window, screen viewport.Size
	fullscreen     bool
	appended       []viewport.Surface
	requests       []viewport.Surface
	renderer       *fakeRenderer
	rendererErr    error
	fullscreenErr  error
	canceled       []viewport.FrameID
	runErr         error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		window: viewport.Size{Width: 800, Height: 600},
		screen: viewport.Size{Width: 1920, Height: 1080},
	}
}

func (p *fakePlatform) Name() string              { return "fake" }
func (p *fakePlatform) WindowSize() viewport.Size  { return p.window }
func (p *fakePlatform) ScreenSize() viewport.Size  { return p.screen }
func (p *fakePlatform) IsFullscreen() bool         { return p.fullscreen }

func (p *fakePlatform) RequestFullscreen(s viewport.Surface) error {
	p.requests = append(p.requests, s)
	return p.fullscreenErr
}

func (p *fakePlatform) Append(s viewport.Surface) error {
	p.appended = append(p.appended, s)
	return nil
}

func (p *fakePlatform) CancelFrame(id viewport.FrameID) {
	p.canceled = append(p.canceled, id)
	p.FrameQueue.CancelFrame(id)
}

func (p *fakePlatform) NewRenderer(opts viewport.RendererOptions) (viewport.Renderer, error) {
	if p.rendererErr != nil {
		return nil, p.rendererErr
	}
	p.renderer = newFakeRenderer(opts)
	return p.renderer, nil
}

func (p *fakePlatform) Run(ctx context.Context) error {
	if p.runErr != nil {
		return p.runErr
	}
	for i := 0; i < 3; i++ {
		p.Flush()
	}
	return nil
}

var errBoom = errors.New("boom")
