package lab

import (
	"math"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

const (
	benchWidth  = 800
	benchHeight = 600

	baseSpeed    = 1.5
	waterCount   = 200
	waterJitter  = 0.2
	soluteJitter = 0.5

	inkCount       = 60
	inkSpread      = 20
	inkSmallRadius = 4
	inkLargeRadius = 8
	largeSizeMul   = 0.4

	centerRadius = 80
	densityScale = 50000
)

// tempMultiplier maps the 0–80 °C slider to a kinetic speed factor.
func tempMultiplier(ps *sim.Params) float64 {
	return 0.2 + ps.Float("temperature")/40
}

func skipWaterPairs(a, b sim.Kind) bool {
	return !(a == sim.KindWater && b == sim.KindWater)
}

// diagonalInit gives a fresh particle the same random component on both axes.
func diagonalInit(p *sim.Particle, ctx *sim.Context) {
	v := (ctx.Rng.Float64() - 0.5) * baseSpeed
	p.VX, p.VY = v, v
}

func waterMotion(bias func(p *sim.Particle, ctx *sim.Context) (float64, float64)) sim.Rule {
	b := sim.Brownian{
		BaseSpeed:  baseSpeed,
		Jitter:     waterJitter,
		Multiplier: func(p *sim.Particle, ctx *sim.Context) float64 { return tempMultiplier(ctx.Params) },
		Bias:       bias,
	}
	return sim.Rule{Move: b.Move, Edges: sim.Reflecting(), Init: diagonalInit, Speed: b.TargetSpeed}
}

// Diffusion is a water-filled box into which ink is dropped at the centre.
type Diffusion struct {
	base
}

// NewDiffusion returns an unreset diffusion bench.
func NewDiffusion() *Diffusion {
	d := &Diffusion{base: newBase("diffusion")}
	d.params.Define(sim.ParamSpec{Name: "temperature", Min: 0, Max: 80, Default: 25, Step: 5})
	d.params.DefineFlag("large", false)
	return d
}

func (d *Diffusion) inkRadius() float64 {
	if d.params.Flag("large") {
		return inkLargeRadius
	}
	return inkSmallRadius
}

func (d *Diffusion) Reset(seed int64) {
	solute := sim.Brownian{
		BaseSpeed: baseSpeed,
		Jitter:    soluteJitter,
		Multiplier: func(p *sim.Particle, ctx *sim.Context) float64 {
			m := tempMultiplier(ctx.Params)
			if ctx.Params.Flag("large") {
				m *= largeSizeMul
			}
			return m
		},
	}
	opts := append(d.infra(seed, benchWidth, benchHeight),
		sim.WithCollide(skipWaterPairs),
		sim.WithRule(sim.KindWater, waterMotion(nil)),
		sim.WithRule(sim.KindSolute, sim.Rule{Move: solute.Move, Edges: sim.Reflecting(), Init: diagonalInit, Speed: solute.TargetSpeed}),
	)
	d.world = sim.NewWorld(opts...)
	w := d.world
	ctx := w.Ctx()
	for i := 0; i < waterCount; i++ {
		_, _ = w.Spawn(sim.KindWater, ctx.Uniform(0, benchWidth), ctx.Uniform(0, benchHeight))
	}
	w.BeforeTick(d.resize)
	w.Recount()
}

// resize keeps ink radius in step with the size switch.
func (d *Diffusion) resize(w *sim.World) {
	r := d.inkRadius()
	ps := w.Particles()
	for i := range ps {
		if ps[i].Kind == sim.KindSolute {
			ps[i].Radius = r
		}
	}
}

// DropInk releases the standard ink blot at the centre.
func (d *Diffusion) DropInk() int {
	return d.DropInkAt(benchWidth/2, benchHeight/2, inkCount)
}

// DropInkAt releases n solute particles within inkSpread of (x, y). It
// returns how many were admitted under the population cap.
func (d *Diffusion) DropInkAt(x, y float64, n int) int {
	w := d.world
	ctx := w.Ctx()
	r := d.inkRadius()
	added := 0
	for i := 0; i < n; i++ {
		angle := ctx.Uniform(0, 2*math.Pi)
		dist := ctx.Uniform(0, inkSpread)
		_, err := w.Spawn(sim.KindSolute, x+math.Cos(angle)*dist, y+math.Sin(angle)*dist, func(p *sim.Particle) {
			p.Radius = r
		})
		if err != nil {
			break
		}
		added++
	}
	w.Recount()
	d.log.Add(w.TickCount(), sim.NoHandle, "solute", "action", "drop-ink", "", float64(added))
	return added
}

func (d *Diffusion) Actions() []string { return []string{"drop-ink"} }

func (d *Diffusion) Do(action string) error {
	switch action {
	case "drop-ink":
		d.DropInk()
		return nil
	default:
		return ErrUnknownAction
	}
}

func (d *Diffusion) Channels() []string { return []string{"center", "outer"} }

// Sample returns ink density inside and outside the centre disc, scaled so
// the fresh blot reads about 100.
func (d *Diffusion) Sample() []float64 {
	cx, cy := benchWidth/2.0, benchHeight/2.0
	inside, outside, total := 0, 0, 0
	for _, p := range d.world.Particles() {
		if p.Kind != sim.KindSolute || !p.Alive {
			continue
		}
		total++
		if math.Hypot(p.X-cx, p.Y-cy) < centerRadius {
			inside++
		} else {
			outside++
		}
	}
	if total == 0 {
		return []float64{0, 0}
	}
	areaCenter := math.Pi * centerRadius * centerRadius
	areaOuter := benchWidth*benchHeight - areaCenter
	return []float64{
		math.Min(100, float64(inside)/areaCenter*densityScale),
		math.Min(100, float64(outside)/areaOuter*densityScale),
	}
}

func (d *Diffusion) Sampling() sim.Sampling { return sim.Sampling{Every: 1} }
func (d *Diffusion) HistoryCap() int        { return 150 }

func (d *Diffusion) Lead() (string, float64, float64) {
	v := d.Sample()
	return "center", v[0], 100
}

func (d *Diffusion) DrawUnder(s sim.Surface) {
	s.Circle(benchWidth/2, benchHeight/2, centerRadius, ringColor)
}
