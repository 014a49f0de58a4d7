package sim

import (
	"image/color"
	"math"
)

// Outcome is the result of a particle meeting a barrier.
type Outcome uint8

const (
	// OutcomeNone means no contact this tick.
	OutcomeNone Outcome = iota
	OutcomePass
	OutcomeBounce
	OutcomeAbsorb
	// OutcomeTransform destroys the particle and spawns Into at its position.
	OutcomeTransform
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomePass:
		return "pass"
	case OutcomeBounce:
		return "bounce"
	case OutcomeAbsorb:
		return "absorb"
	case OutcomeTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// Interaction is what a barrier decided for one particle. Note, when set,
// becomes the tracking state text if the particle is tracked.
type Interaction struct {
	Outcome Outcome
	Into    Kind
	Note    string
}

// Barrier is any geometric construct particles test against after moving.
// Interact performs the geometric test, rolls permeability and applies a
// bounce in place; the world applies absorb and transform.
type Barrier interface {
	Interact(p *Particle, ctx *Context) Interaction
	Draw(s Surface)
}

// Drifter is a barrier that moves on its own each tick.
type Drifter interface {
	Drift(ctx *Context)
}

// Confiner is a barrier that separates two sides. Confine is called after
// collisions; it returns true when it had to put a particle back on the side
// it started the tick on.
type Confiner interface {
	Confine(p *Particle) bool
}

// Admit rolls a permeability in percent: true means the crossing is allowed.
func Admit(ctx *Context, permeability float64) bool {
	return ctx.Rng.Float64() < permeability/100
}

var (
	membraneColor = color.NRGBA{R: 148, G: 163, B: 184, A: 255}
	bandColor     = color.NRGBA{R: 251, G: 191, B: 36, A: 90}
	channelColor  = color.NRGBA{R: 34, G: 197, B: 94, A: 200}
	pumpColor     = color.NRGBA{R: 239, G: 68, B: 68, A: 220}
	cloudColor    = color.NRGBA{R: 226, G: 232, B: 240, A: 200}
	co2Color      = color.NRGBA{R: 100, G: 116, B: 139, A: 220}
)

// Membrane is a vertical semi-permeable line. Kinds for which Blocks returns
// true are subject to Permeability; every other kind ignores it.
type Membrane struct {
	X            float64
	Permeability float64
	Blocks       func(k Kind) bool
	// Bounces counts permeability rolls that failed.
	Bounces int
	// Crossings counts permeability rolls that succeeded.
	Crossings int
}

func (m *Membrane) blocks(k Kind) bool {
	return m.Blocks != nil && m.Blocks(k)
}

func (m *Membrane) Interact(p *Particle, ctx *Context) Interaction {
	if !m.blocks(p.Kind) {
		return Interaction{}
	}
	if math.Abs(p.X-m.X) >= p.Radius+2 {
		return Interaction{}
	}
	if Admit(ctx, m.Permeability) {
		m.Crossings++
		return Interaction{Outcome: OutcomePass}
	}
	m.Bounces++
	m.putBack(p, p.px < m.X)
	return Interaction{Outcome: OutcomeBounce}
}

// putBack places p just outside the contact zone on the chosen side, moving away.
func (m *Membrane) putBack(p *Particle, left bool) {
	if left {
		p.X = m.X - (p.Radius + 3)
		p.VX = -math.Abs(p.VX)
	} else {
		p.X = m.X + (p.Radius + 3)
		p.VX = math.Abs(p.VX)
	}
}

func (m *Membrane) Confine(p *Particle) bool {
	if !m.blocks(p.Kind) || p.passed {
		return false
	}
	before := p.px < m.X
	if before == (p.X < m.X) {
		return false
	}
	m.putBack(p, before)
	return true
}

func (m *Membrane) Draw(s Surface) {
	s.Line(m.X, 0, m.X, 1e5, 4, membraneColor)
}

// Channel is a gap in a Band that lets the listed kinds through.
type Channel struct {
	X, Width float64
	Kinds    []Kind
	Open     bool
}

func (c Channel) admits(p *Particle) bool {
	if !c.Open || math.Abs(p.X-c.X) >= c.Width/2 {
		return false
	}
	for _, k := range c.Kinds {
		if k == p.Kind {
			return true
		}
	}
	return false
}

// Pump carries one particle at a time of Kind from below the band centre to
// above it, spending one unit of Fuel per delivery.
type Pump struct {
	X, Reach  float64
	Kind      Kind
	Lift      float64 // upward displacement per tick while carrying
	Release   float64 // distance above the band centre at which cargo is let go
	Fuel      float64
	Delivered int

	cargo Handle
}

// Carrying returns the handle being carried, or NoHandle.
func (pm *Pump) Carrying() Handle { return pm.cargo }

// Band is a horizontal membrane of finite thickness centred on Y.
// Permeability is per kind in percent; kinds not listed are blocked unless a
// channel or the pump lets them through.
type Band struct {
	Y, Thickness float64
	Permeability map[Kind]float64
	Channels     []Channel
	Pump         *Pump
	Width        float64 // drawn width
}

func (b *Band) top() float64    { return b.Y - b.Thickness/2 }
func (b *Band) bottom() float64 { return b.Y + b.Thickness/2 }

func (b *Band) pumpCarry(p *Particle) bool {
	pm := b.Pump
	if pm == nil || p.Kind != pm.Kind {
		return false
	}
	// A delivery costs one whole ATP; a fractional remainder moves nothing.
	if pm.Fuel < 1 {
		b.Release()
		return false
	}
	if pm.cargo == NoHandle {
		if p.Y <= b.Y || math.Abs(p.X-pm.X) >= pm.Reach {
			return false
		}
		pm.cargo = p.ID
	}
	if pm.cargo != p.ID {
		return false
	}
	p.Y -= pm.Lift
	if p.Y < b.Y-pm.Release {
		pm.Fuel--
		pm.Delivered++
		pm.cargo = NoHandle
		p.VY = -2
	}
	return true
}

func (b *Band) Interact(p *Particle, ctx *Context) Interaction {
	if b.pumpCarry(p) {
		return Interaction{Outcome: OutcomePass}
	}
	if p.Y+p.Radius <= b.top() || p.Y-p.Radius >= b.bottom() {
		return Interaction{}
	}
	for _, c := range b.Channels {
		if c.admits(p) {
			return Interaction{Outcome: OutcomePass}
		}
	}
	if perm, ok := b.Permeability[p.Kind]; ok && Admit(ctx, perm) {
		return Interaction{Outcome: OutcomePass}
	}
	b.putBack(p, math.Abs(p.Y-b.top()) < math.Abs(p.Y-b.bottom()))
	return Interaction{Outcome: OutcomeBounce}
}

func (b *Band) putBack(p *Particle, above bool) {
	if above {
		p.Y = b.top() - p.Radius
		p.VY = -math.Abs(p.VY)
	} else {
		p.Y = b.bottom() + p.Radius
		p.VY = math.Abs(p.VY)
	}
}

func (b *Band) Confine(p *Particle) bool {
	if p.passed {
		return false
	}
	before := p.py < b.Y
	if before == (p.Y < b.Y) {
		return false
	}
	b.putBack(p, before)
	return true
}

// Release drops any cargo the pump is holding.
func (b *Band) Release() {
	if b.Pump != nil {
		b.Pump.cargo = NoHandle
	}
}

func (b *Band) Draw(s Surface) {
	s.Rect(0, b.top(), b.Width, b.Thickness, bandColor)
	for _, c := range b.Channels {
		s.Rect(c.X-c.Width/2, b.top(), c.Width, b.Thickness, channelColor)
	}
	if pm := b.Pump; pm != nil {
		s.Rect(pm.X-pm.Reach, b.top()-5, 2*pm.Reach, b.Thickness+10, pumpColor)
	}
}

// Slab is an axis-aligned band of height 2·Half that reflects the listed
// kinds vertically. Clouds are slabs that drift right and wrap.
type Slab struct {
	X, Y, W, Half float64
	Kinds         []Kind
	Speed         float64
	Note          string
	// Respawn picks a new Y when the slab wraps. Nil keeps Y.
	Respawn func(ctx *Context) float64
}

func (sl *Slab) applies(k Kind) bool {
	for _, x := range sl.Kinds {
		if x == k {
			return true
		}
	}
	return false
}

func (sl *Slab) Interact(p *Particle, ctx *Context) Interaction {
	if !sl.applies(p.Kind) {
		return Interaction{}
	}
	if p.X <= sl.X || p.X >= sl.X+sl.W || math.Abs(p.Y-sl.Y) >= sl.Half {
		return Interaction{}
	}
	// Leave on the side the particle came from so it cannot re-enter next tick.
	if p.py < sl.Y {
		p.Y = sl.Y - sl.Half - 0.5
		p.VY = -math.Abs(p.VY)
	} else {
		p.Y = sl.Y + sl.Half + 0.5
		p.VY = math.Abs(p.VY)
	}
	return Interaction{Outcome: OutcomeBounce, Note: sl.Note}
}

func (sl *Slab) Drift(ctx *Context) {
	sl.X += sl.Speed
	if sl.X > ctx.Bounds.W {
		sl.X = -sl.W
		if sl.Respawn != nil {
			sl.Y = sl.Respawn(ctx)
		}
	}
}

func (sl *Slab) Draw(s Surface) {
	s.Rect(sl.X, sl.Y-sl.Half, sl.W, 2*sl.Half, cloudColor)
}

// Disc is a small circular scatterer. Particles of the listed kinds that
// enter it are sent back with a random flutter on their heading and placed
// just outside the rim.
type Disc struct {
	X, Y, R float64
	Kinds   []Kind
	Flutter float64
	Jitter  float64
	MinY    float64
	MaxY    float64
	Note    string
}

func (d *Disc) applies(k Kind) bool {
	for _, x := range d.Kinds {
		if x == k {
			return true
		}
	}
	return false
}

func (d *Disc) Interact(p *Particle, ctx *Context) Interaction {
	if !d.applies(p.Kind) {
		return Interaction{}
	}
	dx, dy := p.X-d.X, p.Y-d.Y
	dist2 := dx*dx + dy*dy
	if dist2 >= d.R*d.R {
		return Interaction{}
	}
	speed := p.Speed()
	heading := -math.Atan2(p.VY, p.VX) + (ctx.Rng.Float64()-0.5)*d.Flutter
	p.VX = math.Cos(heading) * speed
	p.VY = math.Sin(heading) * speed

	dist := math.Sqrt(dist2)
	if dist == 0 {
		ctx.stats.Degenerate++
		dx, dy, dist = 0, 1, 1
		if p.VY < 0 {
			dy = -1
		}
	}
	p.X = d.X + dx/dist*(d.R+0.5)
	p.Y = d.Y + dy/dist*(d.R+0.5)
	return Interaction{Outcome: OutcomeBounce, Note: d.Note}
}

func (d *Disc) Drift(ctx *Context) {
	d.X += (ctx.Rng.Float64() - 0.5) * d.Jitter
	d.Y += (ctx.Rng.Float64() - 0.5) * d.Jitter
	if d.Y < d.MinY {
		d.Y = d.MinY
	}
	if d.MaxY > d.MinY && d.Y > d.MaxY {
		d.Y = d.MaxY
	}
	if d.X < 0 {
		d.X = ctx.Bounds.W
	}
	if d.X > ctx.Bounds.W {
		d.X = 0
	}
}

func (d *Disc) Draw(s Surface) {
	s.Circle(d.X, d.Y, 5, co2Color)
}

// SurfaceHandler decides what happens to one kind at a SurfaceLine. below
// reports whether the particle is at or under the line.
type SurfaceHandler func(p *Particle, ctx *Context, line float64, below bool) Interaction

// SurfaceLine is a horizontal boundary whose behaviour is a per-kind state
// machine supplied by the caller.
type SurfaceLine struct {
	Y        float64
	Handlers map[Kind]SurfaceHandler
	Fill     color.Color
	Width    float64
	Height   float64
}

func (sf *SurfaceLine) Interact(p *Particle, ctx *Context) Interaction {
	h, ok := sf.Handlers[p.Kind]
	if !ok {
		return Interaction{}
	}
	return h(p, ctx, sf.Y, p.Y >= sf.Y)
}

func (sf *SurfaceLine) Draw(s Surface) {
	if sf.Fill != nil {
		s.Rect(0, sf.Y, sf.Width, sf.Height-sf.Y, sf.Fill)
	}
}
