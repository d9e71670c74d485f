package stage

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is an opaque 0xRRGGBB value, the form scene backgrounds are written in.
type Color uint32

// RGBA implements color.Color. Alpha is always fully opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := c.RGB8()
	r = uint32(r8) * 0x101
	g = uint32(g8) * 0x101
	b = uint32(b8) * 0x101
	return r, g, b, 0xffff
}

func (c Color) RGB8() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// NRGBA returns the color with the given alpha.
func (c Color) NRGBA(alpha uint8) color.NRGBA {
	r, g, b := c.RGB8()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

func (c Color) String() string { return c.Hex() }

// ParseColor accepts "#rrggbb", "0xrrggbb", "rrggbb" and the short "#rgb" form.
func ParseColor(s string) (Color, error) {
	h := strings.TrimSpace(s)
	h = strings.TrimPrefix(h, "#")
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

// FromColor converts any color.Color to a Color, dropping alpha.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color(uint32(n.R)<<16 | uint32(n.G)<<8 | uint32(n.B))
}
