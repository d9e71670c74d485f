// Package export writes frames and frame timings as SVG.
package export

import (
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/san-kum/fullstage/internal/stage"
)

// SVG is a stage.Canvas that records the most recent frame as SVG shapes.
// Clear starts a new frame.
type SVG struct {
	mu          sync.Mutex
	width       int
	height      int
	bg          stage.Color
	transparent bool
	shapes      strings.Builder
	count       int
}

func NewSVG(width, height int) *SVG {
	return &SVG{width: max(width, 0), height: max(height, 0), bg: stage.DefaultBackground}
}

func (s *SVG) SetTransparent(t bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transparent = t
}

func (s *SVG) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = max(width, 0), max(height, 0)
}

func (s *SVG) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *SVG) Clear(bg color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bg = stage.FromColor(bg)
	s.shapes.Reset()
	s.count = 0
}

func (s *SVG) FillCircle(x, y, r float64, col color.Color) {
	fill, op := paint(col)
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(&s.shapes, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"%s/>`+"\n", x, y, r, fill, op)
	s.count++
}

func (s *SVG) FillRect(x, y, w, h float64, col color.Color) {
	fill, op := paint(col)
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(&s.shapes, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"%s/>`+"\n", x, y, w, h, fill, op)
	s.count++
}

// Shapes counts the shapes drawn since the last Clear.
func (s *SVG) Shapes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *SVG) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
`, s.width, s.height, s.width, s.height)
	if !s.transparent {
		fmt.Fprintf(&sb, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", s.bg.Hex())
	}
	sb.WriteString(s.shapes.String())
	sb.WriteString("</svg>\n")
	return sb.String()
}

func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// paint splits a color into an SVG fill and an optional fill-opacity attribute.
func paint(col color.Color) (string, string) {
	n := color.NRGBAModel.Convert(col).(color.NRGBA)
	fill := fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	if n.A == 0xff {
		return fill, ""
	}
	return fill, fmt.Sprintf(` fill-opacity="%.3f"`, float64(n.A)/255)
}

// TimingsToSVG plots per-frame render times (ms) as a line chart.
func TimingsToSVG(ms []float64, width, height int, strokeColor string) string {
	if len(ms) < 2 || width <= 0 || height <= 0 {
		return ""
	}

	lo, hi := ms[0], ms[0]
	for _, v := range ms {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	lo -= rng * 0.1
	hi += rng * 0.1
	rng = hi - lo

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	last := float64(len(ms) - 1)
	for i, v := range ms {
		x := float64(i) / last * float64(width)
		y := float64(height) - (v-lo)/rng*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
