// Package particles is a fountain of dots drawn on the stage. It joins a
// running viewport as a collaborator and is advanced once per drawn frame.
package particles

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/san-kum/fullstage/internal/stage"
	"github.com/san-kum/fullstage/internal/viewport"
)

// maxStep caps the simulated time per frame so a stalled window does not
// fling every particle off screen at once.
const maxStep = 0.05

type Particle struct {
	X, Y, VX, VY float64

	ax, ay float64
	hasAcc bool
}

type Options struct {
	Count      int
	Gravity    float64
	Speed      float64
	Size       float64
	Color      stage.Color
	Integrator string
	Seed       int64
	// FixedStep, when non-zero, replaces wall-clock time between frames.
	FixedStep time.Duration
}

type Emitter struct {
	mu        sync.Mutex
	opts      Options
	integ     Integrator
	rng       *rand.Rand
	particles []Particle
	width     float64
	height    float64
	last      time.Time
	now       func() time.Time
}

func New(opts Options) (*Emitter, error) {
	integ, err := NewIntegrator(opts.Integrator)
	if err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.Size <= 0 {
		opts.Size = 1
	}
	return &Emitter{
		opts:  opts,
		integ: integ,
		rng:   rand.New(rand.NewSource(seed)),
		now:   time.Now,
	}, nil
}

// Attach adds the emitter to the scene root.
func (e *Emitter) Attach(ctx viewport.Context) error {
	ctx.Stage.AddChild(e)
	return nil
}

func (e *Emitter) Particles() []Particle {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Particle, len(e.particles))
	copy(out, e.particles)
	return out
}

// Draw advances the simulation by the time since the previous frame and
// paints every particle.
func (e *Emitter) Draw(c stage.Canvas) {
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return
	}

	e.mu.Lock()
	dt := e.frameDelta()
	e.mu.Unlock()
	e.Update(w, h, dt)

	for _, p := range e.Particles() {
		speed := math.Hypot(p.VX, p.VY)
		alpha := uint8(math.Min(120+speed/e.opts.speedOr(1)*135, 255))
		c.FillCircle(p.X, p.Y, e.opts.Size, e.opts.Color.NRGBA(alpha))
	}
}

// Update advances the simulation by dt seconds on a surface of the given size.
func (e *Emitter) Update(width, height int, dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resize(float64(width), float64(height))
	e.step(dt)
}

func (o Options) speedOr(def float64) float64 {
	if o.Speed <= 0 {
		return def
	}
	return o.Speed
}

func (e *Emitter) frameDelta() float64 {
	if e.opts.FixedStep > 0 {
		return e.opts.FixedStep.Seconds()
	}
	now := e.now()
	if e.last.IsZero() {
		e.last = now
		return 0
	}
	dt := now.Sub(e.last).Seconds()
	e.last = now
	return dt
}

func (e *Emitter) resize(w, h float64) {
	if w == e.width && h == e.height && len(e.particles) == e.opts.Count {
		return
	}
	first := e.width == 0 && e.height == 0
	e.width, e.height = w, h

	if len(e.particles) > e.opts.Count {
		e.particles = e.particles[:e.opts.Count]
	}
	for len(e.particles) < e.opts.Count {
		var p Particle
		if first {
			p = e.scatter()
		} else {
			p = e.spawn()
		}
		e.particles = append(e.particles, p)
	}
}

func (e *Emitter) step(dt float64) {
	if dt <= 0 {
		return
	}
	if dt > maxStep {
		dt = maxStep
	}
	for i := range e.particles {
		p := &e.particles[i]
		e.integ.Step(p, 0, e.opts.Gravity, dt)
		if e.outside(p) {
			*p = e.spawn()
		}
	}
}

// outside reports particles past the bottom or sides, or a full surface
// height above the top. Without downward gravity nothing comes back from there.
func (e *Emitter) outside(p *Particle) bool {
	margin := e.opts.Size
	return p.Y > e.height+margin || p.Y < -e.height ||
		p.X < -margin || p.X > e.width+margin
}

// spawn launches a particle from the bottom centre, up and to either side.
func (e *Emitter) spawn() Particle {
	angle := -math.Pi/2 + (e.rng.Float64()-0.5)*math.Pi/3
	speed := e.opts.speedOr(1) * (0.6 + 0.4*e.rng.Float64())
	// Enough upward speed to cover most of the surface height.
	lift := math.Sqrt(math.Max(e.opts.Gravity, 0)*e.height) * 0.9
	if lift > speed {
		speed = lift * (0.8 + 0.2*e.rng.Float64())
	}
	return Particle{
		X:  e.width / 2,
		Y:  e.height,
		VX: math.Cos(angle) * speed,
		VY: math.Sin(angle) * speed,
	}
}

// scatter places a particle anywhere on screen so the first frame is not empty.
func (e *Emitter) scatter() Particle {
	p := e.spawn()
	p.X = e.rng.Float64() * e.width
	p.Y = e.rng.Float64() * e.height
	return p
}
