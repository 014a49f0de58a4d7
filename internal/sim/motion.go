package sim

import "math"

// MoveFunc mutates a particle's velocity and position for one tick.
type MoveFunc func(p *Particle, ctx *Context)

// Rule is the per-kind behaviour registered on a world.
type Rule struct {
	Move  MoveFunc
	Edges Edges
	// Init sets up a freshly spawned particle (velocity, heading, energy).
	Init func(p *Particle, ctx *Context)
	// Exit is the tracking state recorded when the particle leaves through a
	// terminal edge.
	Exit string
	// Speed, when set, is the speed a particle is put back to after a
	// collision handed it another particle's velocity.
	Speed func(p *Particle, ctx *Context) float64
}

// Brownian is the jitter-plus-drift rule shared by every diffusing kind.
//
// Each tick the velocity gets a uniform perturbation of ±Jitter/2 per axis,
// then the optional Bias, then it is rescaled to the target speed
// BaseSpeed × Multiplier. Rescaling every tick keeps summed jitter from
// accumulating energy.
type Brownian struct {
	BaseSpeed float64
	Jitter    float64
	// Multiplier scales the target speed (temperature, molecule size). Nil is 1.
	Multiplier func(p *Particle, ctx *Context) float64
	// Bias returns a velocity term added before rescaling. Nil is no bias.
	Bias func(p *Particle, ctx *Context) (float64, float64)
}

// TargetSpeed is the magnitude the rule rescales to this tick.
func (b Brownian) TargetSpeed(p *Particle, ctx *Context) float64 {
	m := 1.0
	if b.Multiplier != nil {
		m = b.Multiplier(p, ctx)
	}
	return b.BaseSpeed * m
}

// Move applies one tick of the rule.
func (b Brownian) Move(p *Particle, ctx *Context) {
	p.VX += (ctx.Rng.Float64() - 0.5) * b.Jitter
	p.VY += (ctx.Rng.Float64() - 0.5) * b.Jitter

	if b.Bias != nil {
		bx, by := b.Bias(p, ctx)
		p.VX += bx
		p.VY += by
	}

	speed := p.Speed()
	if speed > 0 {
		target := b.TargetSpeed(p, ctx)
		p.VX = p.VX / speed * target
		p.VY = p.VY / speed * target
	} else {
		ctx.stats.Degenerate++
	}

	p.X += p.VX
	p.Y += p.VY
}

// Ballistic integrates velocity without perturbation. scale multiplies the
// step (temperature multiplier for sugar); nil is 1.
func Ballistic(scale func(p *Particle, ctx *Context) float64) MoveFunc {
	return func(p *Particle, ctx *Context) {
		s := 1.0
		if scale != nil {
			s = scale(p, ctx)
		}
		p.X += p.VX * s
		p.Y += p.VY * s
	}
}

// Damped integrates velocity, then scales it by friction and adds a uniform
// kick of ±jitter/2 per axis. Speed is not renormalised.
func Damped(friction, jitter float64) MoveFunc {
	return func(p *Particle, ctx *Context) {
		p.X += p.VX
		p.Y += p.VY
		p.VX = p.VX*friction + (ctx.Rng.Float64()-0.5)*jitter
		p.VY = p.VY*friction + (ctx.Rng.Float64()-0.5)*jitter
	}
}

// Bounds is the rectangular world extent in canvas pixels.
type Bounds struct {
	W, H float64
}

// EdgeMode is the policy applied when a particle reaches one world edge.
type EdgeMode uint8

const (
	// EdgeReflect negates the outward velocity component and clamps the
	// particle inside by its radius.
	EdgeReflect EdgeMode = iota
	// EdgeWrap moves the particle to the opposite edge.
	EdgeWrap
	// EdgeTerminal removes the particle once its centre is Margin beyond the edge.
	EdgeTerminal
	// EdgeOpen does nothing; some barrier is expected to handle the particle.
	EdgeOpen
)

// Edges holds one policy per world edge.
type Edges struct {
	Left, Right, Top, Bottom EdgeMode
	Margin                   float64
}

// Reflecting returns edges that reflect on all four sides.
func Reflecting() Edges { return Edges{} }

// Wrapping returns toroidal edges.
func Wrapping() Edges {
	return Edges{Left: EdgeWrap, Right: EdgeWrap, Top: EdgeWrap, Bottom: EdgeWrap}
}

// apply enforces the edge policy and reports whether the particle survives.
func (e Edges) apply(p *Particle, b Bounds) bool {
	r := p.Radius

	switch e.Left {
	case EdgeReflect:
		if p.X-r < 0 {
			p.X = r
			p.VX = math.Abs(p.VX)
		}
	case EdgeWrap:
		if p.X < 0 {
			p.X += b.W
		}
	case EdgeTerminal:
		if p.X < -e.Margin {
			return false
		}
	case EdgeOpen:
	}

	switch e.Right {
	case EdgeReflect:
		if p.X+r > b.W {
			p.X = b.W - r
			p.VX = -math.Abs(p.VX)
		}
	case EdgeWrap:
		if p.X > b.W {
			p.X -= b.W
		}
	case EdgeTerminal:
		if p.X > b.W+e.Margin {
			return false
		}
	case EdgeOpen:
	}

	switch e.Top {
	case EdgeReflect:
		if p.Y-r < 0 {
			p.Y = r
			p.VY = math.Abs(p.VY)
		}
	case EdgeWrap:
		if p.Y < 0 {
			p.Y += b.H
		}
	case EdgeTerminal:
		if p.Y < -e.Margin {
			return false
		}
	case EdgeOpen:
	}

	switch e.Bottom {
	case EdgeReflect:
		if p.Y+r > b.H {
			p.Y = b.H - r
			p.VY = -math.Abs(p.VY)
		}
	case EdgeWrap:
		if p.Y > b.H {
			p.Y -= b.H
		}
	case EdgeTerminal:
		if p.Y > b.H+e.Margin {
			return false
		}
	case EdgeOpen:
	}

	return true
}
