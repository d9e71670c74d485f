package headless

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/gogpu/gg"

	"github.com/san-kum/fullstage/internal/stage"
	"github.com/san-kum/fullstage/internal/viewport"
)

// Renderer rasterises the stage into an in-memory pixmap with gg.
type Renderer struct {
	mu          sync.Mutex
	dc          *gg.Context
	size        viewport.Size
	transparent bool
	antialias   bool
	surface     *Surface
	frames      int
	recorder    Recorder
}

// Recorder receives a copy of every draw call, sized to the renderer.
type Recorder interface {
	stage.Canvas
	Resize(width, height int)
}

// Surface is the renderer's pixmap as seen by the platform.
type Surface struct {
	r *Renderer
}

func (s *Surface) Size() viewport.Size {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return s.r.size
}

// NewRenderer rasterises with gg. Without Antialias, shapes snap to whole
// pixels, but gg's analytic filler still computes edge coverage, so circle
// edges stay slightly soft. Axis-aligned rects come out hard.
func NewRenderer(opts viewport.RendererOptions) *Renderer {
	size := opts.Size.Clamp()
	dc := gg.NewContext(max(size.Width, 1), max(size.Height, 1))
	if opts.Antialias {
		dc.SetRasterizerMode(gg.RasterizerSDF)
	} else {
		dc.SetRasterizerMode(gg.RasterizerAnalytic)
	}
	r := &Renderer{
		dc:          dc,
		size:        size,
		transparent: opts.Transparent,
		antialias:   opts.Antialias,
	}
	r.surface = &Surface{r: r}
	return r
}

func (r *Renderer) View() viewport.Surface { return r.surface }

// Resize keeps a 1x1 pixmap for empty sizes; gg rejects zero dimensions.
func (r *Renderer) Resize(width, height int) {
	size := viewport.Size{Width: width, Height: height}.Clamp()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.size = size
	_ = r.dc.Resize(max(size.Width, 1), max(size.Height, 1))
}

func (r *Renderer) Render(s *stage.Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &canvas{r: r}
	if r.recorder != nil {
		r.recorder.Resize(r.size.Width, r.size.Height)
		s.Render(stage.Tee(c, r.recorder))
	} else {
		s.Render(c)
	}
	r.frames++
	return c.err
}

// Record mirrors subsequent frames into rec; nil stops recording.
func (r *Renderer) Record(rec Recorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder = rec
}

// Frames counts completed Render calls.
func (r *Renderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Image returns a copy of the current frame at the logical size.
func (r *Renderer) Image() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := image.Rect(0, 0, r.size.Width, r.size.Height)
	img := image.NewRGBA(b)
	_ = r.dc.FlushGPU()
	draw.Draw(img, b, r.dc.Image(), image.Point{}, draw.Src)
	return img
}

func (r *Renderer) SavePNG(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dc.SavePNG(path)
}

// canvas adapts gg to stage.Canvas. Callers hold r.mu.
type canvas struct {
	r   *Renderer
	err error
}

func (c *canvas) Size() (int, int) {
	return c.r.size.Width, c.r.size.Height
}

func (c *canvas) Clear(col color.Color) {
	if c.r.transparent {
		c.r.dc.Clear()
		return
	}
	c.r.dc.ClearWithColor(gg.FromColor(col))
}

func (c *canvas) FillCircle(x, y, radius float64, col color.Color) {
	if !c.r.antialias {
		x, y = math.Round(x), math.Round(y)
		radius = math.Max(math.Round(radius), 1)
	}
	c.r.dc.SetColor(col)
	c.r.dc.DrawCircle(x, y, radius)
	c.keep(c.r.dc.Fill())
}

func (c *canvas) FillRect(x, y, w, h float64, col color.Color) {
	if !c.r.antialias {
		x, y, w, h = math.Round(x), math.Round(y), math.Round(w), math.Round(h)
	}
	c.r.dc.SetColor(col)
	c.r.dc.DrawRectangle(x, y, w, h)
	c.keep(c.r.dc.Fill())
}

func (c *canvas) keep(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}
