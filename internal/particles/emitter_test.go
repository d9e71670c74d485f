package particles

import (
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/san-kum/fullstage/internal/stage"
	"github.com/san-kum/fullstage/internal/viewport"
)

type countCanvas struct {
	w, h    int
	circles int
}

func (c *countCanvas) Size() (int, int)                          { return c.w, c.h }
func (c *countCanvas) Clear(color.Color)                         {}
func (c *countCanvas) FillCircle(x, y, r float64, _ color.Color) { c.circles++ }
func (c *countCanvas) FillRect(x, y, w, h float64, _ color.Color) {}

func testOptions() Options {
	return Options{
		Count:      50,
		Gravity:    240,
		Speed:      180,
		Size:       3,
		Color:      0xffffff,
		Integrator: "verlet",
		Seed:       7,
		FixedStep:  time.Second / 60,
	}
}

func TestEulerFreeFall(t *testing.T) {
	p := Particle{}
	e := NewEuler()
	for i := 0; i < 10; i++ {
		e.Step(&p, 0, 10, 0.1)
	}
	if math.Abs(p.VY-10) > 1e-9 {
		t.Errorf("expected vy=10, got %f", p.VY)
	}
	// explicit Euler lags the exact 5.0 by g*dt*t/2
	if math.Abs(p.Y-4.5) > 1e-9 {
		t.Errorf("expected y=4.5, got %f", p.Y)
	}
}

func TestVerletExactForConstantAcceleration(t *testing.T) {
	p := Particle{VX: 2}
	v := NewVerlet()
	for i := 0; i < 10; i++ {
		v.Step(&p, 0, 10, 0.1)
	}
	if math.Abs(p.Y-5.0) > 1e-9 {
		t.Errorf("expected y=5.0, got %f", p.Y)
	}
	if math.Abs(p.X-2.0) > 1e-9 {
		t.Errorf("expected x=2.0, got %f", p.X)
	}
}

func TestNewIntegrator(t *testing.T) {
	for _, name := range []string{"euler", "verlet", ""} {
		if _, err := NewIntegrator(name); err != nil {
			t.Errorf("NewIntegrator(%q): %v", name, err)
		}
	}
	if _, err := NewIntegrator("rk4"); err == nil {
		t.Error("expected error for unknown integrator")
	}
	if _, err := New(Options{Integrator: "bogus"}); err == nil {
		t.Error("New should reject unknown integrator")
	}
}

func TestDrawPaintsEveryParticle(t *testing.T) {
	e, err := New(testOptions())
	if err != nil {
		t.Fatal(err)
	}
	c := &countCanvas{w: 320, h: 240}
	e.Draw(c)
	if c.circles != 50 {
		t.Errorf("expected 50 circles, got %d", c.circles)
	}
	if len(e.Particles()) != 50 {
		t.Errorf("expected 50 particles, got %d", len(e.Particles()))
	}
}

func TestDrawSkipsEmptySurface(t *testing.T) {
	e, _ := New(testOptions())
	c := &countCanvas{w: 0, h: 100}
	e.Draw(c)
	if c.circles != 0 || len(e.Particles()) != 0 {
		t.Error("nothing should happen on an empty surface")
	}
}

func TestParticlesStayNearSurface(t *testing.T) {
	opts := testOptions()
	opts.Integrator = "euler"
	e, _ := New(opts)
	for i := 0; i < 600; i++ {
		e.Update(320, 240, 1.0/60)
	}
	for i, p := range e.Particles() {
		if p.Y > 240+opts.Size || p.X < -opts.Size || p.X > 320+opts.Size {
			t.Fatalf("particle %d escaped: %+v", i, p)
		}
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			t.Fatalf("particle %d is NaN", i)
		}
	}
}

func TestWeightlessParticlesRespawn(t *testing.T) {
	for _, gravity := range []float64{0, -120} {
		opts := testOptions()
		opts.Gravity = gravity
		e, _ := New(opts)
		for i := 0; i < 30*60; i++ {
			e.Update(320, 240, 1.0/60)
		}
		for i, p := range e.Particles() {
			if p.Y < -240 {
				t.Fatalf("gravity %v: particle %d lost above the surface: %+v", gravity, i, p)
			}
		}
	}
}

func TestLargeStepIsCapped(t *testing.T) {
	e, _ := New(testOptions())
	e.Update(320, 240, 0)
	before := e.Particles()
	e.Update(320, 240, 10)
	after := e.Particles()
	for i := range before {
		if after[i].Y == 240 && after[i].X == 160 {
			continue // respawned
		}
		if math.Abs(after[i].X-before[i].X) > 200*maxStep*2 {
			t.Fatalf("particle %d moved too far in one capped step", i)
		}
	}
}

func TestResizeAdjustsCount(t *testing.T) {
	e, _ := New(testOptions())
	e.Update(100, 100, 0)
	e.Update(200, 50, 0)
	if len(e.Particles()) != 50 {
		t.Errorf("count changed on resize: %d", len(e.Particles()))
	}
}

func TestAttachAddsToStage(t *testing.T) {
	e, _ := New(testOptions())
	s := stage.New(stage.DefaultBackground)
	if err := e.Attach(viewport.Context{Stage: s}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 || s.Children()[0] != stage.Drawable(e) {
		t.Error("emitter should be the only child")
	}
}

func TestSameSeedSameRun(t *testing.T) {
	a, _ := New(testOptions())
	b, _ := New(testOptions())
	for i := 0; i < 30; i++ {
		a.Update(320, 240, 1.0/60)
		b.Update(320, 240, 1.0/60)
	}
	pa, pb := a.Particles(), b.Particles()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("runs diverged at particle %d", i)
		}
	}
}
