//go:build !js

package raylib

import (
	"image/color"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/fullstage/internal/stage"
	"github.com/san-kum/fullstage/internal/viewport"
)

type Renderer struct {
	mu          sync.Mutex
	size        viewport.Size
	transparent bool
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

func newRenderer(size viewport.Size, opts viewport.RendererOptions) *Renderer {
	r := &Renderer{size: size, transparent: opts.Transparent}
	r.surface = &Surface{r: r}
	return r
}

func (r *Renderer) View() viewport.Surface { return r.surface }

// Resize only touches the window when it differs from the requested size,
// so following a user resize does not fight the window manager.
func (r *Renderer) Resize(width, height int) {
	size := viewport.Size{Width: width, Height: height}.Clamp()
	r.mu.Lock()
	r.size = size
	r.mu.Unlock()

	if size.Empty() {
		return
	}
	if rl.GetScreenWidth() != size.Width || rl.GetScreenHeight() != size.Height {
		rl.SetWindowSize(size.Width, size.Height)
	}
}

func (r *Renderer) Render(s *stage.Stage) error {
	r.mu.Lock()
	c := canvas{size: r.size, transparent: r.transparent}
	r.mu.Unlock()

	rl.BeginDrawing()
	s.Render(c)
	rl.EndDrawing()
	return nil
}

type canvas struct {
	size        viewport.Size
	transparent bool
}

func (c canvas) Size() (int, int) { return c.size.Width, c.size.Height }

func (c canvas) Clear(col color.Color) {
	if c.transparent {
		rl.ClearBackground(rl.Blank)
		return
	}
	rl.ClearBackground(toColor(col))
}

func (c canvas) FillCircle(x, y, radius float64, col color.Color) {
	rl.DrawCircleV(rl.NewVector2(float32(x), float32(y)), float32(radius), toColor(col))
}

func (c canvas) FillRect(x, y, w, h float64, col color.Color) {
	rl.DrawRectangleRec(rl.NewRectangle(float32(x), float32(y), float32(w), float32(h)), toColor(col))
}

func toColor(c color.Color) rl.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return rl.NewColor(n.R, n.G, n.B, n.A)
}
