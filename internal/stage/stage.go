// Package stage holds the scene root: a background color and an ordered list
// of drawables painted onto whatever surface a renderer provides.
package stage

import (
	"image/color"
	"sync"
)

// DefaultBackground is the near-black the scene root clears to.
const DefaultBackground Color = 0x111111

// Canvas is the drawing surface a renderer hands to the scene each frame.
// Coordinates are in surface pixels with the origin at the top left.
type Canvas interface {
	Size() (width, height int)
	Clear(c color.Color)
	FillCircle(x, y, r float64, c color.Color)
	FillRect(x, y, w, h float64, c color.Color)
}

// Drawable is anything that can be added to the stage.
type Drawable interface {
	Draw(c Canvas)
}

// Stage is the top-level container of the drawable tree. Children may be
// added or removed from any goroutine; Render takes a snapshot.
type Stage struct {
	mu         sync.RWMutex
	background Color
	children   []Drawable
}

func New(background Color) *Stage {
	return &Stage{background: background}
}

func (s *Stage) Background() Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

// SetBackground takes effect on the next Render.
func (s *Stage) SetBackground(c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = c
}

func (s *Stage) AddChild(d Drawable) {
	if d == nil {
		return
	}
	s.mu.Lock()
	s.children = append(s.children, d)
	s.mu.Unlock()
}

// RemoveChild removes the first occurrence of d and reports whether it was present.
// Drawables must be comparable (pointer types are).
func (s *Stage) RemoveChild(d Drawable) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.children {
		if c == d {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return true
		}
	}
	return false
}

// Children returns a copy of the current child list.
func (s *Stage) Children() []Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Drawable, len(s.children))
	copy(out, s.children)
	return out
}

func (s *Stage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.children)
}

// Render clears the canvas to the background and draws every child in insertion order.
func (s *Stage) Render(c Canvas) {
	c.Clear(s.Background())
	for _, d := range s.Children() {
		d.Draw(c)
	}
}

// Tee draws onto every canvas; Size reports the first.
func Tee(first Canvas, rest ...Canvas) Canvas {
	return tee(append([]Canvas{first}, rest...))
}

type tee []Canvas

func (t tee) Size() (int, int) { return t[0].Size() }

func (t tee) Clear(c color.Color) {
	for _, cv := range t {
		cv.Clear(c)
	}
}

func (t tee) FillCircle(x, y, r float64, c color.Color) {
	for _, cv := range t {
		cv.FillCircle(x, y, r, c)
	}
}

func (t tee) FillRect(x, y, w, h float64, c color.Color) {
	for _, cv := range t {
		cv.FillRect(x, y, w, h, c)
	}
}
