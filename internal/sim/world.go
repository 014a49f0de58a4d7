package sim

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	defaultWidth  = 800
	defaultHeight = 600
	defaultCap    = 10000

	// sepSlack is added to every collision push so the pair ends strictly apart.
	sepSlack = 1e-6
)

// CollidePredicate reports whether two kinds take part in pairwise collision.
type CollidePredicate func(a, b Kind) bool

// Hook runs at a fixed point of the tick.
type Hook func(w *World)

// Census is the per-tick aggregate, recomputed after collisions.
type Census struct {
	Total  int
	ByKind [KindCount]int
	Sides  [2][KindCount]int
}

// Count returns the live count of kind k.
func (c Census) Count(k Kind) int {
	if !k.Valid() {
		return 0
	}
	return c.ByKind[k]
}

// Side returns the live count of kind k on side 0 or 1 of the partition.
func (c Census) Side(side int, k Kind) int {
	if side < 0 || side > 1 || !k.Valid() {
		return 0
	}
	return c.Sides[side][k]
}

// World owns every particle and barrier of one simulation instance.
type World struct {
	ctx       Context
	seed      int64
	rules     [KindCount]Rule
	particles []Particle
	pending   []Particle
	barriers  []Barrier
	collide   CollidePredicate
	partition func(p *Particle) int
	capacity  int
	nextID    Handle
	census    Census
	ticking   bool

	tracked    Handle
	trackState string

	ended     bool
	endReason string

	beforeTick  []Hook
	afterMove   []Hook
	afterCensus []Hook
}

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra    optionKind = iota // bounds, seed, cap, params, log
	optRule                       // per-kind rules and collision setup
	optBarrier                    // barriers, once bounds are known
	optParticle                   // initial particles, once rules exist
)

// Option is a builder function applied to a World during construction.
type Option struct {
	kind optionKind
	fn   func(*World)
}

// WithBounds sets the world extent.
func WithBounds(width, height float64) Option {
	return Option{optInfra, func(w *World) {
		w.ctx.Bounds = Bounds{W: width, H: height}
	}}
}

// WithSeed sets the RNG seed. Equal seeds replay identically.
func WithSeed(seed int64) Option {
	return Option{optInfra, func(w *World) {
		w.seed = seed
		w.ctx.Rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation RNG
	}}
}

// WithCap sets the population cap.
func WithCap(n int) Option {
	return Option{optInfra, func(w *World) {
		w.capacity = n
	}}
}

// WithParams attaches a parameter surface.
func WithParams(ps *Params) Option {
	return Option{optInfra, func(w *World) {
		w.ctx.Params = ps
	}}
}

// WithLog attaches an event log.
func WithLog(l *EventLog) Option {
	return Option{optInfra, func(w *World) {
		w.ctx.Log = l
	}}
}

// WithRule registers the motion rule and edge policy for a kind.
func WithRule(k Kind, r Rule) Option {
	return Option{optRule, func(w *World) {
		if k.Valid() {
			w.rules[k] = r
		}
	}}
}

// WithCollide enables pairwise collisions for kind pairs accepted by pred.
func WithCollide(pred CollidePredicate) Option {
	return Option{optRule, func(w *World) {
		w.collide = pred
	}}
}

// WithPartition sets the side function used by the census. It must return 0 or 1.
func WithPartition(fn func(p *Particle) int) Option {
	return Option{optRule, func(w *World) {
		w.partition = fn
	}}
}

// WithBarrier adds a barrier. Barriers are consulted in insertion order.
func WithBarrier(b Barrier) Option {
	return Option{optBarrier, func(w *World) {
		w.barriers = append(w.barriers, b)
	}}
}

// WithParticle adds one particle at (x, y) with velocity (vx, vy).
func WithParticle(k Kind, x, y, vx, vy float64) Option {
	return Option{optParticle, func(w *World) {
		_, _ = w.Spawn(k, x, y, func(p *Particle) {
			p.VX, p.VY = vx, vy
		})
	}}
}

// NewWorld constructs a World from the given options in ordered passes:
//  1. Infrastructure (bounds, seed, cap, params, log)
//  2. Rules, collision predicate, partition
//  3. Barriers
//  4. Particles
func NewWorld(opts ...Option) *World {
	w := &World{
		ctx: Context{
			Bounds: Bounds{W: defaultWidth, H: defaultHeight},
			Rng:    rand.New(rand.NewSource(1)), // #nosec G404 -- simulation RNG default
			Params: NewParams(),
		},
		seed:     1,
		capacity: defaultCap,
	}
	for i := range w.rules {
		w.rules[i] = Rule{Move: Ballistic(nil), Edges: Reflecting()}
	}
	for _, pass := range []optionKind{optInfra, optRule, optBarrier, optParticle} {
		for _, o := range opts {
			if o.kind == pass {
				o.fn(w)
			}
		}
	}
	if w.partition == nil {
		mid := w.ctx.Bounds.W / 2
		w.partition = func(p *Particle) int {
			if p.X < mid {
				return 0
			}
			return 1
		}
	}
	w.Recount()
	return w
}

// Ctx returns the world's context.
func (w *World) Ctx() *Context { return &w.ctx }

// Bounds returns the world extent.
func (w *World) Bounds() Bounds { return w.ctx.Bounds }

// Params returns the parameter surface.
func (w *World) Params() *Params { return w.ctx.Params }

// Log returns the event log, which may be nil.
func (w *World) Log() *EventLog { return w.ctx.Log }

// Rng returns the world's random source.
func (w *World) Rng() *rand.Rand { return w.ctx.Rng }

// Seed returns the seed the world was built with.
func (w *World) Seed() int64 { return w.seed }

// TickCount returns the number of completed ticks.
func (w *World) TickCount() int { return w.ctx.Tick }

// Stats returns the recovery and churn counters.
func (w *World) Stats() Stats { return w.ctx.stats }

// Census returns the aggregate computed at the end of the last tick.
func (w *World) Census() Census { return w.census }

// Count is shorthand for Census().Count(k).
func (w *World) Count(k Kind) int { return w.census.Count(k) }

// Cap returns the population cap.
func (w *World) Cap() int { return w.capacity }

// Rule returns the registered rule for k.
func (w *World) Rule(k Kind) Rule {
	if !k.Valid() {
		return Rule{}
	}
	return w.rules[k]
}

// Particles returns the live particle storage. The slice aliases the world
// and is valid until the next compaction; mutate through &ps[i].
func (w *World) Particles() []Particle { return w.particles }

// Barriers returns the barrier list.
func (w *World) Barriers() []Barrier { return w.barriers }

// AddBarrier appends a barrier.
func (w *World) AddBarrier(b Barrier) { w.barriers = append(w.barriers, b) }

// RemoveBarriers drops every barrier for which drop returns true.
func (w *World) RemoveBarriers(drop func(b Barrier) bool) {
	kept := w.barriers[:0]
	for _, b := range w.barriers {
		if !drop(b) {
			kept = append(kept, b)
		}
	}
	w.barriers = kept
}

// BeforeTick registers a hook that runs first in every tick.
func (w *World) BeforeTick(h Hook) { w.beforeTick = append(w.beforeTick, h) }

// AfterMove registers a hook that runs after collisions and confinement,
// before dead particles are compacted away.
func (w *World) AfterMove(h Hook) { w.afterMove = append(w.afterMove, h) }

// AfterCensus registers a hook that runs last in every tick.
func (w *World) AfterCensus(h Hook) { w.afterCensus = append(w.afterCensus, h) }

// End stops the world. Later ticks are no-ops.
func (w *World) End(reason string) {
	if w.ended {
		return
	}
	w.ended = true
	w.endReason = reason
	w.ctx.Log.Add(w.ctx.Tick, NoHandle, "--", "world", "ended", reason, float64(w.census.Total))
}

// Ended reports whether the world has stopped and why.
func (w *World) Ended() (bool, string) { return w.ended, w.endReason }

func (w *World) population() int {
	return len(w.particles) + len(w.pending)
}

func (w *World) newParticle(k Kind, x, y float64) Particle {
	w.nextID++
	p := Particle{
		ID:     w.nextID,
		Kind:   k,
		X:      x,
		Y:      y,
		Radius: k.Spec().Radius,
		Alive:  true,
	}
	p.px, p.py = x, y
	if r := w.rules[k]; r.Init != nil {
		r.Init(&p, &w.ctx)
	}
	return p
}

func (w *World) add(p Particle) {
	if w.ticking {
		w.pending = append(w.pending, p)
		return
	}
	w.particles = append(w.particles, p)
}

// Spawn adds a particle of kind k at (x, y). The kind's Init runs first,
// then each init in order. Inside a tick the particle joins the world at
// compaction. At the population cap the spawn is refused, the world ends and
// the returned error wraps ErrPopulationCap.
func (w *World) Spawn(k Kind, x, y float64, init ...func(p *Particle)) (Handle, error) {
	if !k.Valid() {
		return NoHandle, fmt.Errorf("spawn kind %d: %w", k, ErrInvalidParameter)
	}
	if w.population() >= w.capacity {
		w.ctx.stats.Refused++
		w.End(ErrPopulationCap.Error())
		return NoHandle, fmt.Errorf("spawn %s at %d particles: %w", k, w.population(), ErrPopulationCap)
	}
	p := w.newParticle(k, x, y)
	for _, fn := range init {
		fn(&p)
	}
	w.ctx.stats.Spawned++
	w.ctx.Log.AddVerbose(w.ctx.Tick, p.ID, k.String(), "spawn", "spawn", fmt.Sprintf("(%.0f,%.0f)", x, y), 0)
	w.add(p)
	return p.ID, nil
}

// Remove marks p dead. If p is tracked, tracking is cleared and note becomes
// the tracking state.
func (w *World) Remove(p *Particle, note string) {
	if !p.Alive {
		return
	}
	p.Alive = false
	w.ctx.stats.Removed++
	w.ctx.Log.AddVerbose(w.ctx.Tick, p.ID, p.Kind.String(), "remove", "remove", note, 0)
	if p.ID == w.tracked {
		w.tracked = NoHandle
		if note == "" {
			note = "removed"
		}
		w.trackState = note
		w.ctx.Log.Add(w.ctx.Tick, p.ID, p.Kind.String(), "track", "lost", note, 0)
	}
}

// Transform replaces p with a new particle of kind into at p's position.
// Transformation is one-for-one and is not subject to the population cap.
// A tracked handle moves to the successor.
func (w *World) Transform(p *Particle, into Kind, note string) Handle {
	if !p.Alive || !into.Valid() {
		return NoHandle
	}
	p.Alive = false
	w.ctx.stats.Transforms++
	succ := w.newParticle(into, p.X, p.Y)
	w.ctx.Log.AddVerbose(w.ctx.Tick, p.ID, p.Kind.String(), "transform", into.String(), note, float64(succ.ID))
	if p.ID == w.tracked {
		w.tracked = succ.ID
		if note != "" {
			w.trackState = note
		}
		w.ctx.Log.Add(w.ctx.Tick, succ.ID, into.String(), "track", "handoff", w.trackState, float64(p.ID))
	}
	w.add(succ)
	return succ.ID
}

// Track starts following h with the given state text.
func (w *World) Track(h Handle, state string) {
	w.tracked = h
	w.trackState = state
}

// Untrack stops following any particle.
func (w *World) Untrack() {
	w.tracked = NoHandle
}

// SetTrackState replaces the tracking state text.
func (w *World) SetTrackState(s string) { w.trackState = s }

// TrackState returns the tracking state text. It survives the tracked
// particle's removal so hosts can show how it ended.
func (w *World) TrackState() string { return w.trackState }

// TrackedHandle returns the tracked handle, or NoHandle.
func (w *World) TrackedHandle() Handle { return w.tracked }

// Tracked resolves the tracked handle.
func (w *World) Tracked() (*Particle, bool) {
	return w.Lookup(w.tracked)
}

// Lookup resolves a handle to a live particle.
func (w *World) Lookup(h Handle) (*Particle, bool) {
	if h == NoHandle {
		return nil, false
	}
	for i := range w.particles {
		if p := &w.particles[i]; p.ID == h && p.Alive {
			return p, true
		}
	}
	for i := range w.pending {
		if p := &w.pending[i]; p.ID == h && p.Alive {
			return p, true
		}
	}
	return nil, false
}

// Tick advances the world by one step.
func (w *World) Tick() {
	if w.ended {
		return
	}
	ctx := &w.ctx
	ctx.Tick++
	w.ticking = true

	for _, h := range w.beforeTick {
		h(w)
	}
	if w.ended {
		w.ticking = false
		return
	}
	w.flush()

	for _, b := range w.barriers {
		if d, ok := b.(Drifter); ok {
			d.Drift(ctx)
		}
	}

	for i := range w.particles {
		p := &w.particles[i]
		if !p.Alive {
			continue
		}
		p.px, p.py, p.passed = p.X, p.Y, false
		rule := w.rules[p.Kind]
		if !p.Advance(ctx, rule) {
			w.Remove(p, rule.Exit)
			continue
		}
		w.interact(p)
	}

	w.collideAll()
	w.confine()

	for _, h := range w.afterMove {
		h(w)
	}

	w.compact()
	w.Recount()

	// Spawns from here on wait in pending until the next tick.
	for _, h := range w.afterCensus {
		h(w)
	}
	w.ticking = false
}

func (w *World) interact(p *Particle) {
	for _, b := range w.barriers {
		in := b.Interact(p, &w.ctx)
		switch in.Outcome {
		case OutcomeNone:
			continue
		case OutcomePass:
			p.passed = true
		case OutcomeBounce:
			if in.Note != "" && p.ID == w.tracked {
				w.trackState = in.Note
			}
		case OutcomeAbsorb:
			w.Remove(p, in.Note)
		case OutcomeTransform:
			w.Transform(p, in.Into, in.Note)
		}
		return
	}
}

// Collide resolves one pair: if they overlap, both are pushed apart along
// the contact normal in proportion to their softness and their velocities
// are swapped. It reports whether the pair was in contact. Coincident
// centres have no normal and are skipped.
func (w *World) Collide(a, b *Particle) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	minDist := a.Radius + b.Radius
	d2 := dx*dx + dy*dy
	if d2 >= minDist*minDist {
		return false
	}
	if d2 == 0 {
		w.ctx.stats.Degenerate++
		return false
	}
	dist := math.Sqrt(d2)
	nx, ny := dx/dist, dy/dist
	overlap := minDist - dist + sepSlack

	sa, sb := a.Kind.Spec().Softness, b.Kind.Spec().Softness
	share := 0.5
	if sa+sb > 0 {
		share = sa / (sa + sb)
	}
	a.X -= nx * overlap * share
	a.Y -= ny * overlap * share
	b.X += nx * overlap * (1 - share)
	b.Y += ny * overlap * (1 - share)

	a.VX, b.VX = b.VX, a.VX
	a.VY, b.VY = b.VY, a.VY
	return true
}

func (w *World) collideAll() {
	if w.collide == nil {
		return
	}
	ps := w.particles
	for i := 0; i < len(ps); i++ {
		a := &ps[i]
		if !a.Alive {
			continue
		}
		for j := i + 1; j < len(ps); j++ {
			b := &ps[j]
			if !b.Alive || !w.collide(a.Kind, b.Kind) {
				continue
			}
			if w.Collide(a, b) {
				w.holdSpeed(a)
				w.holdSpeed(b)
			}
		}
	}
}

// holdSpeed rescales p to its rule's speed after a velocity swap.
func (w *World) holdSpeed(p *Particle) {
	speed := w.rules[p.Kind].Speed
	if speed == nil {
		return
	}
	cur := p.Speed()
	if cur == 0 {
		return
	}
	target := speed(p, &w.ctx)
	p.VX = p.VX / cur * target
	p.VY = p.VY / cur * target
}

func (w *World) confine() {
	var cs []Confiner
	for _, b := range w.barriers {
		if c, ok := b.(Confiner); ok {
			cs = append(cs, c)
		}
	}
	if len(cs) == 0 {
		return
	}
	for i := range w.particles {
		p := &w.particles[i]
		if !p.Alive {
			continue
		}
		for _, c := range cs {
			if c.Confine(p) {
				w.ctx.stats.Confined++
			}
		}
	}
}

// flush moves pending spawns into the live set.
func (w *World) flush() {
	if len(w.pending) == 0 {
		return
	}
	w.particles = append(w.particles, w.pending...)
	w.pending = w.pending[:0]
}

// compact drops dead particles and admits pending spawns, preserving order.
func (w *World) compact() {
	kept := w.particles[:0]
	for _, p := range w.particles {
		if p.Alive {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(w.particles); i++ {
		w.particles[i] = Particle{}
	}
	w.particles = kept
	w.flush()
}

// Recount recomputes the census. Tick does this itself; call it after
// spawning outside a tick.
func (w *World) Recount() {
	var c Census
	for i := range w.particles {
		p := &w.particles[i]
		if !p.Alive {
			continue
		}
		c.Total++
		c.ByKind[p.Kind]++
		side := w.partition(p)
		if side == 0 || side == 1 {
			c.Sides[side][p.Kind]++
		}
	}
	w.census = c
}

// Draw renders barriers, particles and the tracking reticle. It does not
// modify the world.
func (w *World) Draw(s Surface) {
	for _, b := range w.barriers {
		b.Draw(s)
	}
	for i := range w.particles {
		p := &w.particles[i]
		if p.Alive {
			p.Draw(s)
		}
	}
	if p, ok := w.Tracked(); ok {
		drawReticle(s, p)
	}
}

func drawReticle(s Surface, p *Particle) {
	c := p.Kind.highlight()
	r := p.Radius + 6
	s.Line(p.X-r-4, p.Y, p.X-r+2, p.Y, 1.5, c)
	s.Line(p.X+r-2, p.Y, p.X+r+4, p.Y, 1.5, c)
	s.Line(p.X, p.Y-r-4, p.X, p.Y-r+2, 1.5, c)
	s.Line(p.X, p.Y+r-2, p.X, p.Y+r+4, 1.5, c)
}
