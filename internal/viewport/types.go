// Package viewport binds a scene root to a host platform's render surface.
//
// A Controller creates the renderer at the window size, appends its surface to
// the host, requests fullscreen on click, resizes on fullscreen changes and
// redraws the scene once per display refresh through a Loop.
package viewport

import (
	"context"
	"errors"

	"github.com/san-kum/fullstage/internal/stage"
)

var (
	ErrNotInitialized     = errors.New("viewport: controller not initialized")
	ErrAlreadyInitialized = errors.New("viewport: controller already initialized")
	ErrForeignSurface     = errors.New("viewport: surface does not belong to this platform")
)

// Size is a display area in pixels (or cells, for text surfaces).
type Size struct {
	Width, Height int
}

// Clamp returns s with negative components replaced by zero.
func (s Size) Clamp() Size {
	if s.Width < 0 {
		s.Width = 0
	}
	if s.Height < 0 {
		s.Height = 0
	}
	return s
}

func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Event is a host notification the controller can listen for.
type Event int

const (
	EventFullscreenChange Event = iota
	EventClick
	EventWindowResize
)

func (e Event) String() string {
	switch e {
	case EventFullscreenChange:
		return "fullscreenchange"
	case EventClick:
		return "click"
	case EventWindowResize:
		return "resize"
	default:
		return "unknown"
	}
}

// Surface is the visible output of a renderer.
type Surface interface {
	Size() Size
}

// RendererOptions configure renderer construction.
type RendererOptions struct {
	Size        Size
	Background  stage.Color
	Transparent bool
	Antialias   bool
}

// Renderer draws a scene root onto its surface.
type Renderer interface {
	View() Surface
	// Resize never fails; negative sizes are clamped to zero.
	Resize(width, height int)
	Render(s *stage.Stage) error
}

// Display answers size and fullscreen queries and owns the surface hierarchy.
type Display interface {
	WindowSize() Size
	ScreenSize() Size
	IsFullscreen() bool
	RequestFullscreen(s Surface) error
	Append(s Surface) error
}

// Events delivers host notifications. The returned func removes the listener.
type Events interface {
	Listen(ev Event, fn func()) (remove func())
}

// Scheduler invokes callbacks once on the next display refresh.
type Scheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// Platform is a complete host environment.
type Platform interface {
	Display
	Events
	Scheduler
	Name() string
	NewRenderer(opts RendererOptions) (Renderer, error)
	// Run pumps the host until it closes or ctx is done.
	Run(ctx context.Context) error
}

// Context is what collaborators receive to add content to the scene.
type Context struct {
	Stage    *stage.Stage
	Renderer Renderer
}

// Collaborator adds content to a running viewport.
type Collaborator interface {
	Attach(ctx Context) error
}
