package sim

import "math"

// Handle is an opaque particle identifier. Handles are never reused within a
// world, so a stale handle simply fails to resolve.
type Handle uint64

// NoHandle is the zero handle; it never resolves.
const NoHandle Handle = 0

// Particle is one entity in a world.
type Particle struct {
	ID     Handle
	Kind   Kind
	X, Y   float64
	VX, VY float64
	Radius float64
	Alive  bool

	// Agent kinds (sheep, wolves) use these; particle kinds leave them zero.
	Energy  float64
	Heading float64

	// Start-of-tick position and whether a barrier granted a crossing this
	// tick. Read by the confinement pass.
	px, py float64
	passed bool
}

// Speed returns the current velocity magnitude.
func (p *Particle) Speed() float64 {
	return math.Hypot(p.VX, p.VY)
}

// Advance runs the kind's motion rule, integrates position and applies the
// kind's edge policy. It reports false when the particle left through a
// terminal edge.
func (p *Particle) Advance(ctx *Context, rule Rule) bool {
	if rule.Move != nil {
		rule.Move(p, ctx)
	}
	return rule.Edges.apply(p, ctx.Bounds)
}

// Draw issues the particle's draw call. It does not modify the particle.
func (p *Particle) Draw(s Surface) {
	s.Circle(p.X, p.Y, p.Radius, p.Kind.RGBA())
}

// Dist2 returns the squared distance between two particles.
func Dist2(a, b *Particle) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
