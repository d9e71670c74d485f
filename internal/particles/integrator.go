package particles

import "fmt"

// Integrator advances one particle under a constant acceleration.
type Integrator interface {
	Step(p *Particle, ax, ay, dt float64)
}

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(p *Particle, ax, ay, dt float64) {
	p.X += p.VX * dt
	p.Y += p.VY * dt
	p.VX += ax * dt
	p.VY += ay * dt
}

// Verlet is velocity Verlet: positions use the current acceleration, velocities
// the average of the previous and current one.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(p *Particle, ax, ay, dt float64) {
	if !p.hasAcc {
		p.ax, p.ay, p.hasAcc = ax, ay, true
	}
	dt2 := dt * dt
	p.X += p.VX*dt + 0.5*p.ax*dt2
	p.Y += p.VY*dt + 0.5*p.ay*dt2

	halfDt := 0.5 * dt
	p.VX += (p.ax + ax) * halfDt
	p.VY += (p.ay + ay) * halfDt
	p.ax, p.ay = ax, ay
}

func NewIntegrator(name string) (Integrator, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "", "verlet":
		return NewVerlet(), nil
	}
	return nil, fmt.Errorf("unknown integrator: %s", name)
}
