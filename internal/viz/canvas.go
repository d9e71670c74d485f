package viz

import (
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fullstage/internal/stage"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille dot surface. Each terminal cell holds 2x4 dots and one
// foreground color, the color of the last dot drawn into it.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	fg            [][]stage.Color
	bg            stage.Color
	transparent   bool
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{}
	c.Resize(w, h)
	return c
}

// SetTransparent leaves the terminal's own background showing through.
func (c *Canvas) SetTransparent(t bool) {
	c.transparent = t
}

// Resize reallocates the grid to w x h cells. Negative sizes become zero.
func (c *Canvas) Resize(w, h int) {
	w, h = max(w, 0), max(h, 0)
	c.Width, c.Height = w, h
	c.Grid = make([][]rune, h)
	c.fg = make([][]stage.Color, h)
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.fg[i] = make([]stage.Color, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Size reports the canvas in dots, the unit drawables work in.
func (c *Canvas) Size() (int, int) {
	return c.Width * 2, c.Height * 4
}

// SetColor turns on the dot at (x, y) in dot coordinates and colors its cell.
func (c *Canvas) SetColor(x, y int, col stage.Color) {
	if x < 0 || y < 0 {
		return
	}
	col2, row := x/2, y/4
	if col2 >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col2] |= rune(pixelMap[y%4][x%2])
	c.fg[row][col2] = col
}

// Clear blanks every cell and records the background color.
func (c *Canvas) Clear(bg color.Color) {
	c.bg = stage.FromColor(bg)
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.fg[i][j] = 0
		}
	}
}

func (c *Canvas) Background() stage.Color {
	return c.bg
}

func (c *Canvas) FillCircle(x, y, r float64, col color.Color) {
	if !visible(col) {
		return
	}
	fg := stage.FromColor(col)
	if r < 0.5 {
		c.SetColor(int(math.Round(x)), int(math.Round(y)), fg)
		return
	}
	r2 := r * r
	for py := int(math.Floor(y - r)); py <= int(math.Ceil(y+r)); py++ {
		for px := int(math.Floor(x - r)); px <= int(math.Ceil(x+r)); px++ {
			dx, dy := float64(px)+0.5-x, float64(py)+0.5-y
			if dx*dx+dy*dy <= r2 {
				c.SetColor(px, py, fg)
			}
		}
	}
}

func (c *Canvas) FillRect(x, y, w, h float64, col color.Color) {
	if !visible(col) || w <= 0 || h <= 0 {
		return
	}
	fg := stage.FromColor(col)
	for py := int(math.Floor(y)); py < int(math.Ceil(y+h)); py++ {
		for px := int(math.Floor(x)); px < int(math.Ceil(x+w)); px++ {
			c.SetColor(px, py, fg)
		}
	}
}

// Render renders the grid with lipgloss colors, merging runs of equal color.
func (c *Canvas) Render() string {
	base := lipgloss.NewStyle()
	if !c.transparent {
		base = base.Background(lipgloss.Color(c.bg.Hex()))
	}

	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.fg[i][j] == c.fg[i][start] {
				continue
			}
			style := base.Foreground(lipgloss.Color(c.fg[i][start].Hex()))
			b.WriteString(style.Render(string(row[start:j])))
			start = j
		}
		if i < len(c.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func visible(col color.Color) bool {
	_, _, _, a := col.RGBA()
	return a >= 0x4000
}
