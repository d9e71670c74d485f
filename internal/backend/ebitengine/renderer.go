package ebitengine

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/san-kum/fullstage/internal/stage"
	"github.com/san-kum/fullstage/internal/viewport"
)

type Renderer struct {
	mu          sync.Mutex
	size        viewport.Size
	transparent bool
	antialias   bool
	screen      *ebiten.Image
	surface     *Surface
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
	r := &Renderer{
		size:        opts.Size.Clamp(),
		transparent: opts.Transparent,
		antialias:   opts.Antialias,
	}
	r.surface = &Surface{r: r}
	return r
}

func (r *Renderer) View() viewport.Surface { return r.surface }

// Resize changes the logical screen reported to Layout.
func (r *Renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.size = viewport.Size{Width: width, Height: height}.Clamp()
}

func (r *Renderer) bind(screen *ebiten.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen = screen
}

// Render draws into the screen image handed to Draw. Outside Draw it is a no-op.
func (r *Renderer) Render(s *stage.Stage) error {
	r.mu.Lock()
	c := canvas{dst: r.screen, size: r.size, transparent: r.transparent, antialias: r.antialias}
	r.mu.Unlock()
	if c.dst == nil {
		return nil
	}
	s.Render(c)
	return nil
}

type canvas struct {
	dst         *ebiten.Image
	size        viewport.Size
	transparent bool
	antialias   bool
}

func (c canvas) Size() (int, int) { return c.size.Width, c.size.Height }

func (c canvas) Clear(col color.Color) {
	if c.transparent {
		c.dst.Clear()
		return
	}
	c.dst.Fill(col)
}

func (c canvas) FillCircle(x, y, radius float64, col color.Color) {
	vector.DrawFilledCircle(c.dst, float32(x), float32(y), float32(radius), col, c.antialias)
}

func (c canvas) FillRect(x, y, w, h float64, col color.Color) {
	vector.DrawFilledRect(c.dst, float32(x), float32(y), float32(w), float32(h), col, c.antialias)
}
