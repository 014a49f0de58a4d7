package lab

import (
	"fmt"
	"math"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

const (
	skyTopFrac   = 0.10
	earthTopFrac = 0.85

	raySpeed      = 3
	raySpread     = 0.1
	irSpeed       = 2
	irSpread      = 0.25
	heatStep      = 4
	heatDepth     = 10
	baseTemp      = 12
	tempPerHeat   = 0.1
	tempAlpha     = 0.99
	escapeFloor   = 0.005
	spawnDivisor  = 50
	spawnPerSun   = 5
	co2Radius     = 12
	co2Jitter     = 0.5
	cloudHalf     = 10
	cloudMinWidth = 100
)

// Tracking states shown while following a particle.
const (
	stateIncoming    = "Incoming Sunlight"
	stateCloud       = "Reflected by Cloud"
	stateSurface     = "Reflected by Surface"
	stateAbsorbed    = "Absorbed as Heat"
	stateToSpace     = "Reflected to Space"
	stateRadiated    = "Radiated as IR"
	stateReabsorbed  = "Re-absorbed as Heat"
	stateTrapped     = "Trapped by CO2"
	stateEscaped     = "Escaped to Space"
	stateNotTracking = ""
)

// Greenhouse models sunlight reaching the ground, turning into heat, leaving
// as infrared and being held back by CO2.
type Greenhouse struct {
	base
	skyTop, earthTop float64

	surface *sim.SurfaceLine
	clouds  []*sim.Slab
	co2     []*sim.Disc

	temperature sim.Smoothed
	following   bool
}

// NewGreenhouse returns an unreset greenhouse bench.
func NewGreenhouse() *Greenhouse {
	g := &Greenhouse{base: newBase("greenhouse")}
	g.params.Define(sim.ParamSpec{Name: "sun", Min: 0, Max: 2, Default: 1, Step: 0.1})
	g.params.Define(sim.ParamSpec{Name: "albedo", Min: 0, Max: 1, Default: 0.6, Step: 0.05})
	g.params.Define(sim.ParamSpec{Name: "co2", Min: 0, Max: 100, Default: 25, Step: 5})
	g.params.Define(sim.ParamSpec{Name: "clouds", Min: 0, Max: 5, Default: 1, Step: 1})
	g.params.DefineFlag("follow", false)
	return g
}

// Temperature returns the smoothed surface temperature.
func (g *Greenhouse) Temperature() float64 { return g.temperature.Value }

// EscapeChance is the per-attempt probability that heat reaching the surface
// leaves as infrared. It never drops to zero, so heat always has a way out.
func (g *Greenhouse) EscapeChance() float64 {
	return math.Max(escapeFloor, (g.temperature.Value-10)/100)
}

func headingInit(center, spread, speed float64) func(p *sim.Particle, ctx *sim.Context) {
	return func(p *sim.Particle, ctx *sim.Context) {
		h := center + ctx.Uniform(-spread, spread)
		p.Heading = h
		p.VX = math.Cos(h) * speed
		p.VY = math.Sin(h) * speed
	}
}

// heatWalk is an unbiased step inside the ground, clamped to the canvas.
func heatWalk(p *sim.Particle, ctx *sim.Context) {
	p.X += (ctx.Rng.Float64() - 0.5) * heatStep
	p.Y += (ctx.Rng.Float64() - 0.5) * heatStep
	b := ctx.Bounds
	p.Y = math.Min(p.Y, b.H)
	p.X = math.Max(0, math.Min(p.X, b.W))
}

func (g *Greenhouse) Reset(seed int64) {
	g.skyTop = benchHeight * skyTopFrac
	g.earthTop = benchHeight * earthTopFrac
	g.temperature = sim.Smoothed{Value: baseTemp, Alpha: tempAlpha}
	g.following = false
	g.clouds, g.co2 = nil, nil

	g.surface = &sim.SurfaceLine{
		Y:      g.earthTop,
		Fill:   earthColor,
		Width:  benchWidth,
		Height: benchHeight,
		Handlers: map[sim.Kind]sim.SurfaceHandler{
			sim.KindRay:      g.rayAtSurface,
			sim.KindHeat:     g.heatAtSurface,
			sim.KindInfrared: g.infraredAtSurface,
		},
	}

	open := sim.EdgeOpen
	term := sim.EdgeTerminal
	opts := append(g.infra(seed, benchWidth, benchHeight),
		sim.WithRule(sim.KindRay, sim.Rule{
			Move:  sim.Ballistic(nil),
			Edges: sim.Edges{Left: term, Right: term, Top: term, Bottom: open, Margin: 10},
			Init:  headingInit(math.Pi/2, raySpread, raySpeed),
			Exit:  stateToSpace,
		}),
		sim.WithRule(sim.KindHeat, sim.Rule{
			Move:  heatWalk,
			Edges: sim.Edges{Left: open, Right: open, Top: open, Bottom: open},
		}),
		sim.WithRule(sim.KindInfrared, sim.Rule{
			Move:  sim.Ballistic(nil),
			Edges: sim.Edges{Left: term, Right: term, Top: term, Bottom: open},
			Init:  headingInit(-math.Pi/2, irSpread, irSpeed),
			Exit:  stateEscaped,
		}),
		sim.WithPartition(func(p *sim.Particle) int {
			if p.Y < g.earthTop {
				return 0
			}
			return 1
		}),
	)
	g.world = sim.NewWorld(opts...)
	g.syncBarriers(g.world)
	g.world.BeforeTick(g.beforeTick)
	g.world.AfterCensus(g.afterCensus)
}

func (g *Greenhouse) cloudY(ctx *sim.Context) float64 {
	return g.earthTop - ctx.Rng.Float64()*(g.earthTop-g.skyTop)*0.6 - 50
}

// syncBarriers grows or trims clouds and CO2 to the parameter counts and
// rebuilds the barrier list: clouds, then CO2, then the ground.
func (g *Greenhouse) syncBarriers(w *sim.World) {
	ctx := w.Ctx()
	wantClouds := g.params.Int("clouds")
	wantCO2 := g.params.Int("co2")
	if wantClouds == len(g.clouds) && wantCO2 == len(g.co2) && len(w.Barriers()) > 0 {
		return
	}
	for len(g.clouds) < wantClouds {
		width := cloudMinWidth + ctx.Rng.Float64()*100
		g.clouds = append(g.clouds, &sim.Slab{
			W:       width,
			X:       ctx.Rng.Float64() * (benchWidth - width),
			Y:       g.cloudY(ctx),
			Half:    cloudHalf,
			Speed:   ctx.Rng.Float64()*0.5 + 0.1,
			Kinds:   []sim.Kind{sim.KindRay},
			Note:    stateCloud,
			Respawn: g.cloudY,
		})
	}
	if len(g.clouds) > wantClouds {
		g.clouds = g.clouds[len(g.clouds)-wantClouds:]
	}
	for len(g.co2) < wantCO2 {
		g.co2 = append(g.co2, &sim.Disc{
			X:       ctx.Rng.Float64() * benchWidth,
			Y:       g.skyTop + ctx.Rng.Float64()*(g.earthTop-g.skyTop),
			R:       co2Radius,
			Kinds:   []sim.Kind{sim.KindInfrared},
			Flutter: 1,
			Jitter:  co2Jitter,
			MinY:    g.skyTop,
			MaxY:    g.earthTop,
			Note:    stateTrapped,
		})
	}
	if len(g.co2) > wantCO2 {
		g.co2 = g.co2[len(g.co2)-wantCO2:]
	}

	w.RemoveBarriers(func(sim.Barrier) bool { return true })
	for _, c := range g.clouds {
		w.AddBarrier(c)
	}
	for _, d := range g.co2 {
		w.AddBarrier(d)
	}
	w.AddBarrier(g.surface)
}

func (g *Greenhouse) beforeTick(w *sim.World) {
	g.syncBarriers(w)
	if g.following && !g.params.Flag("follow") {
		g.log.Add(w.TickCount(), w.TrackedHandle(), "--", "track", "unfollow", w.TrackState(), 0)
		w.Untrack()
		w.SetTrackState(stateNotTracking)
		g.following = false
	}
	ctx := w.Ctx()
	if ctx.Rng.Float64()*spawnDivisor < spawnPerSun*g.params.Float("sun") {
		g.SpawnRay(ctx.Rng.Float64() * benchWidth)
	}
}

// SpawnRay adds one incoming ray at the top edge. With follow on and nothing
// tracked, the new ray becomes the tracked particle.
func (g *Greenhouse) SpawnRay(x float64) sim.Handle {
	w := g.world
	h, err := w.Spawn(sim.KindRay, x, 0)
	if err != nil {
		return sim.NoHandle
	}
	if g.params.Flag("follow") && w.TrackedHandle() == sim.NoHandle {
		w.Track(h, stateIncoming)
		g.following = true
		g.log.Add(w.TickCount(), h, "ray", "track", "follow", stateIncoming, 0)
	}
	return h
}

func (g *Greenhouse) afterCensus(w *sim.World) {
	g.temperature.Update(baseTemp + tempPerHeat*float64(w.Count(sim.KindHeat)))

	// Following ends with the tracked particle; the state text stays.
	if g.following && w.TrackedHandle() == sim.NoHandle {
		g.following = false
		_ = g.params.SetFlag("follow", false)
	}
}

func (g *Greenhouse) rayAtSurface(p *sim.Particle, ctx *sim.Context, line float64, below bool) sim.Interaction {
	if !below {
		return sim.Interaction{}
	}
	if ctx.Chance(ctx.Params.Float("albedo")) {
		p.VY = -math.Abs(p.VY)
		p.Y = line - 1
		return sim.Interaction{Outcome: sim.OutcomeBounce, Note: stateSurface}
	}
	p.Y = line + ctx.Rng.Float64()*heatDepth
	return sim.Interaction{Outcome: sim.OutcomeTransform, Into: sim.KindHeat, Note: stateAbsorbed}
}

func (g *Greenhouse) heatAtSurface(p *sim.Particle, ctx *sim.Context, line float64, below bool) sim.Interaction {
	if below {
		return sim.Interaction{}
	}
	if ctx.Chance(g.EscapeChance()) {
		p.Y = line - 1
		return sim.Interaction{Outcome: sim.OutcomeTransform, Into: sim.KindInfrared, Note: stateRadiated}
	}
	p.Y = line + 1
	return sim.Interaction{Outcome: sim.OutcomeBounce}
}

func (g *Greenhouse) infraredAtSurface(p *sim.Particle, ctx *sim.Context, line float64, below bool) sim.Interaction {
	if !below {
		return sim.Interaction{}
	}
	p.Y = line + 2
	return sim.Interaction{Outcome: sim.OutcomeTransform, Into: sim.KindHeat, Note: stateReabsorbed}
}

func (g *Greenhouse) Channels() []string {
	return []string{"temperature", "heat", "infrared", "rays"}
}

func (g *Greenhouse) Sample() []float64 {
	c := g.world.Census()
	return []float64{
		g.temperature.Value,
		float64(c.Count(sim.KindHeat)),
		float64(c.Count(sim.KindInfrared)),
		float64(c.Count(sim.KindRay)),
	}
}

func (g *Greenhouse) Sampling() sim.Sampling { return sim.Sampling{Prob: 0.1} }
func (g *Greenhouse) HistoryCap() int        { return 300 }

func (g *Greenhouse) Lead() (string, float64, float64) {
	return "temperature", g.temperature.Value, 40
}

func (g *Greenhouse) DrawUnder(s sim.Surface) {
	s.Rect(0, 0, benchWidth, g.skyTop, spaceColor)
	s.Rect(0, g.skyTop, benchWidth, g.earthTop-g.skyTop, airColor)
}

func (g *Greenhouse) DrawOver(s sim.Surface) {
	s.Text(fmt.Sprintf("T = %.2f C", g.temperature.Value), 8, 8, labelColor)
	if st := g.world.TrackState(); st != stateNotTracking {
		s.Text("tracking: "+st, 8, 24, labelColor)
	}
}
