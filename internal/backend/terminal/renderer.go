//go:build !js

package terminal

import (
	"sync"

	"github.com/san-kum/fullstage/internal/stage"
	"github.com/san-kum/fullstage/internal/viewport"
	"github.com/san-kum/fullstage/internal/viz"
)

// Renderer draws the stage onto a braille canvas and keeps the last frame
// as a string for the bubbletea view.
type Renderer struct {
	mu      sync.Mutex
	canvas  *viz.Canvas
	size    viewport.Size
	frame   string
	surface *Surface
}

type Surface struct {
	r *Renderer
}

func (s *Surface) Size() viewport.Size {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return s.r.size
}

func newRenderer(opts viewport.RendererOptions) *Renderer {
	size := opts.Size.Clamp()
	c := viz.NewCanvas(size.Width, size.Height)
	c.SetTransparent(opts.Transparent)
	r := &Renderer{canvas: c, size: size}
	r.surface = &Surface{r: r}
	return r
}

func (r *Renderer) View() viewport.Surface { return r.surface }

func (r *Renderer) Resize(width, height int) {
	size := viewport.Size{Width: width, Height: height}.Clamp()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.size = size
	r.canvas.Resize(size.Width, size.Height)
}

func (r *Renderer) Render(s *stage.Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.Render(r.canvas)
	r.frame = r.canvas.Render()
	return nil
}

// Frame returns the last rendered frame.
func (r *Renderer) Frame() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}
