package headless_test

import (
	"context"
	"testing"

	"github.com/onsi/gomega"

	"github.com/san-kum/fullstage/internal/backend"
	"github.com/san-kum/fullstage/internal/backend/headless"
	"github.com/san-kum/fullstage/internal/export"
	"github.com/san-kum/fullstage/internal/stage"
	"github.com/san-kum/fullstage/internal/viewport"
)

type otherSurface struct{}

func (otherSurface) Size() viewport.Size { return viewport.Size{} }

type square struct{}

func (square) Draw(c stage.Canvas) {
	c.FillRect(0, 0, 4, 4, stage.Color(0xff0000))
}

func open(window, screen viewport.Size, frames int) *headless.Platform {
	return headless.New(backend.Options{Window: window, Screen: screen, Frames: frames})
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -2 && d <= 2
}

type offGrid struct{}

func (offGrid) Draw(c stage.Canvas) {
	c.FillRect(0.4, 0.4, 4.2, 4.2, stage.Color(0xff0000))
}

func TestAliasedRectsSnapToPixels(t *testing.T) {
	g := gomega.NewWithT(t)
	p := open(viewport.Size{Width: 8, Height: 8}, viewport.Size{}, 1)
	c := viewport.New(p, viewport.DefaultOptions())
	g.Expect(c.Init()).To(gomega.Succeed())
	c.Context().Stage.AddChild(offGrid{})

	g.Expect(c.Run(context.Background())).To(gomega.Succeed())
	img := p.Renderer().Image()
	corner := img.RGBAAt(0, 0)
	g.Expect(corner.R).To(gomega.BeNumerically(">", 0xf0))
	g.Expect(corner.G).To(gomega.BeNumerically("<", 0x10))
	outside := img.RGBAAt(4, 4)
	g.Expect(near(outside.R, 0x11) && near(outside.G, 0x11)).To(gomega.BeTrue())
}

func TestRendersBackgroundEveryFrame(t *testing.T) {
	g := gomega.NewWithT(t)
	p := open(viewport.Size{Width: 64, Height: 48}, viewport.Size{Width: 128, Height: 96}, 3)
	c := viewport.New(p, viewport.DefaultOptions())

	g.Expect(c.Run(context.Background())).To(gomega.Succeed())
	g.Expect(p.Frame()).To(gomega.Equal(3))
	g.Expect(p.Renderer().Frames()).To(gomega.Equal(3))
	g.Expect(p.Appended()).To(gomega.HaveLen(1))

	img := p.Renderer().Image()
	g.Expect(img.Bounds().Dx()).To(gomega.Equal(64))
	g.Expect(img.Bounds().Dy()).To(gomega.Equal(48))
	px := img.RGBAAt(32, 24)
	if !near(px.R, 0x11) || !near(px.G, 0x11) || !near(px.B, 0x11) {
		t.Errorf("background pixel = %+v, want ~#111111", px)
	}
}

func TestDrawsStageChildren(t *testing.T) {
	g := gomega.NewWithT(t)
	p := open(viewport.Size{Width: 16, Height: 16}, viewport.Size{}, 1)
	c := viewport.New(p, viewport.DefaultOptions())
	g.Expect(c.Init()).To(gomega.Succeed())
	c.Context().Stage.AddChild(square{})

	g.Expect(c.Run(context.Background())).To(gomega.Succeed())
	px := p.Renderer().Image().RGBAAt(1, 1)
	g.Expect(px.R).To(gomega.BeNumerically(">", 0xf0))
	g.Expect(px.G).To(gomega.BeNumerically("<", 0x10))
}

func TestClickEntersFullscreenAndResizesToScreen(t *testing.T) {
	g := gomega.NewWithT(t)
	window := viewport.Size{Width: 64, Height: 48}
	screen := viewport.Size{Width: 128, Height: 96}
	p := open(window, screen, 3)
	c := viewport.New(p, viewport.DefaultOptions())
	p.At(1, func(p *headless.Platform) { p.Click() })

	g.Expect(c.Run(context.Background())).To(gomega.Succeed())
	g.Expect(p.IsFullscreen()).To(gomega.BeTrue())
	g.Expect(c.Size()).To(gomega.Equal(screen))
	g.Expect(p.Renderer().View().Size()).To(gomega.Equal(screen))
	g.Expect(p.Renderer().Image().Bounds().Dx()).To(gomega.Equal(128))
}

func TestExitFullscreenRestoresWindowSize(t *testing.T) {
	g := gomega.NewWithT(t)
	window := viewport.Size{Width: 64, Height: 48}
	p := open(window, viewport.Size{Width: 128, Height: 96}, 5)
	c := viewport.New(p, viewport.DefaultOptions())
	p.At(0, func(p *headless.Platform) { p.Click() })
	p.At(3, func(p *headless.Platform) { p.ExitFullscreen() })

	g.Expect(c.Run(context.Background())).To(gomega.Succeed())
	g.Expect(p.IsFullscreen()).To(gomega.BeFalse())
	g.Expect(c.Size()).To(gomega.Equal(window))
}

func TestWindowResizeIgnoredUnlessFollowing(t *testing.T) {
	g := gomega.NewWithT(t)
	window := viewport.Size{Width: 64, Height: 48}
	bigger := viewport.Size{Width: 80, Height: 60}

	p := open(window, viewport.Size{}, 2)
	c := viewport.New(p, viewport.DefaultOptions())
	p.At(0, func(p *headless.Platform) { p.SetWindowSize(bigger) })
	g.Expect(c.Run(context.Background())).To(gomega.Succeed())
	g.Expect(c.Size()).To(gomega.Equal(window))

	p = open(window, viewport.Size{}, 2)
	opts := viewport.DefaultOptions()
	opts.FollowWindow = true
	c = viewport.New(p, opts)
	p.At(0, func(p *headless.Platform) { p.SetWindowSize(bigger) })
	g.Expect(c.Run(context.Background())).To(gomega.Succeed())
	g.Expect(c.Size()).To(gomega.Equal(bigger))
}

func TestZeroSizedWindow(t *testing.T) {
	g := gomega.NewWithT(t)
	p := open(viewport.Size{}, viewport.Size{}, 2)
	c := viewport.New(p, viewport.DefaultOptions())

	g.Expect(c.Run(context.Background())).To(gomega.Succeed())
	g.Expect(p.Renderer().Frames()).To(gomega.Equal(2))
	g.Expect(p.Renderer().Image().Bounds().Empty()).To(gomega.BeTrue())
}

func TestRequestFullscreenRejectsForeignSurface(t *testing.T) {
	p := open(viewport.Size{Width: 8, Height: 8}, viewport.Size{}, 0)
	if err := p.RequestFullscreen(otherSurface{}); err != viewport.ErrForeignSurface {
		t.Fatalf("err = %v, want ErrForeignSurface", err)
	}
	if p.IsFullscreen() {
		t.Error("foreign request must not enter fullscreen")
	}
}

func TestRunReturnsWhenIdle(t *testing.T) {
	p := open(viewport.Size{Width: 8, Height: 8}, viewport.Size{}, 0)
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Frame() != 1 {
		t.Errorf("frame = %d, want 1", p.Frame())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	g := gomega.NewWithT(t)
	p := open(viewport.Size{Width: 8, Height: 8}, viewport.Size{}, 0)
	c := viewport.New(p, viewport.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	g.Expect(c.Init()).To(gomega.Succeed())
	p.At(5, func(*headless.Platform) { cancel() })

	g.Expect(c.Run(ctx)).To(gomega.Succeed())
	g.Expect(p.Frame()).To(gomega.Equal(6))
	g.Expect(c.Loop().Running()).To(gomega.BeFalse())
}

func TestRegistered(t *testing.T) {
	b, err := backend.Lookup(headless.Name)
	if err != nil {
		t.Fatal(err)
	}
	if !b.IsAvailable() {
		t.Error("headless must always be available")
	}
}

func TestRecordMirrorsFrames(t *testing.T) {
	g := gomega.NewWithT(t)
	p := open(viewport.Size{Width: 16, Height: 12}, viewport.Size{}, 2)
	c := viewport.New(p, viewport.DefaultOptions())
	g.Expect(c.Init()).To(gomega.Succeed())
	c.Context().Stage.AddChild(square{})

	svg := export.NewSVG(0, 0)
	p.Renderer().Record(svg)
	g.Expect(c.Run(context.Background())).To(gomega.Succeed())

	w, h := svg.Size()
	g.Expect([]int{w, h}).To(gomega.Equal([]int{16, 12}))
	g.Expect(svg.Shapes()).To(gomega.Equal(1))
	g.Expect(svg.String()).To(gomega.ContainSubstring(`fill="#ff0000"`))
}
