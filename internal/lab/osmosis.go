package lab

import (
	"fmt"
	"math"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

const (
	osmoticPerSugar   = 0.05
	hydrostaticPerGap = 0.005
	osmoticKick       = 0.5
	hydrostaticKick   = 5.0
	membraneZone      = 20
	sugarDriftScale   = 20
)

// Osmosis splits the box with a membrane that water crosses freely and sugar
// crosses with the set permeability. Sugar on the right draws water over
// until hydrostatic pressure balances it.
type Osmosis struct {
	base
	membrane *sim.Membrane

	sugarPlaced int
	osmotic     float64
	hydrostatic float64
}

// NewOsmosis returns an unreset osmosis bench.
func NewOsmosis() *Osmosis {
	o := &Osmosis{base: newBase("osmosis")}
	o.params.Define(sim.ParamSpec{Name: "temperature", Min: 0, Max: 80, Default: 25, Step: 5})
	o.params.Define(sim.ParamSpec{Name: "sugar", Min: 0, Max: 40, Default: 10, Step: 1})
	o.params.Define(sim.ParamSpec{Name: "permeability", Min: 0, Max: 100, Default: 0, Step: 5})
	return o
}

// Membrane returns the dividing membrane.
func (o *Osmosis) Membrane() *sim.Membrane { return o.membrane }

func (o *Osmosis) Reset(seed int64) {
	o.membrane = &sim.Membrane{
		X:            benchWidth / 2,
		Permeability: o.params.Float("permeability"),
		Blocks:       func(k sim.Kind) bool { return k == sim.KindSugar },
	}
	sugarRule := sim.Rule{
		Move:  sim.Ballistic(func(p *sim.Particle, ctx *sim.Context) float64 { return tempMultiplier(ctx.Params) }),
		Edges: sim.Reflecting(),
		Init:  diagonalInit,
	}
	opts := append(o.infra(seed, benchWidth, benchHeight),
		sim.WithCollide(skipWaterPairs),
		sim.WithRule(sim.KindWater, waterMotion(o.waterBias)),
		sim.WithRule(sim.KindSugar, sugarRule),
		sim.WithBarrier(o.membrane),
	)
	o.world = sim.NewWorld(opts...)
	w := o.world
	ctx := w.Ctx()
	for i := 0; i < waterCount; i++ {
		_, _ = w.Spawn(sim.KindWater, ctx.Uniform(0, benchWidth), ctx.Uniform(0, benchHeight))
	}
	o.sugarPlaced = 0
	o.placeSugar(w, o.params.Int("sugar"))
	w.BeforeTick(o.prepare)
	w.Recount()
	o.osmotic, o.hydrostatic = 0, 0
}

func (o *Osmosis) placeSugar(w *sim.World, n int) {
	ctx := w.Ctx()
	for i := 0; i < n; i++ {
		x := o.membrane.X + ctx.Rng.Float64()*(benchWidth-o.membrane.X)
		if _, err := w.Spawn(sim.KindSugar, x, ctx.Uniform(0, benchHeight)); err != nil {
			return
		}
	}
	o.sugarPlaced = n
}

// prepare applies parameter changes and computes the tick's forces from the
// last census.
func (o *Osmosis) prepare(w *sim.World) {
	o.membrane.Permeability = o.params.Float("permeability")

	if want := o.params.Int("sugar"); want != o.sugarPlaced {
		ps := w.Particles()
		for i := range ps {
			if ps[i].Kind == sim.KindSugar {
				w.Remove(&ps[i], "")
			}
		}
		o.placeSugar(w, want)
		o.log.Add(w.TickCount(), sim.NoHandle, "sugar", "param", "sugar", fmt.Sprintf("%d", want), float64(want))
	}

	c := w.Census()
	left, right := c.Side(0, sim.KindWater), c.Side(1, sim.KindWater)
	o.osmotic = osmoticPerSugar * float64(c.Count(sim.KindSugar))
	o.hydrostatic = hydrostaticPerGap * math.Max(0, float64(right-left))
}

// waterBias pulls water toward the sugar side, strongest near the membrane,
// and pushes back in proportion to the level difference.
func (o *Osmosis) waterBias(p *sim.Particle, ctx *sim.Context) (float64, float64) {
	bx := 0.0
	if sugar := ctx.Params.Float("sugar"); sugar > 0 {
		bx += osmoticPerSugar * (sugar / sugarDriftScale)
	}
	if math.Abs(p.X-o.membrane.X) < membraneZone {
		bx += o.osmotic * osmoticKick
		bx -= o.hydrostatic * hydrostaticKick
	}
	return bx, 0
}

func (o *Osmosis) Channels() []string {
	return []string{"water_left", "water_right", "sugar_left", "sugar_right"}
}

// Sample returns water and sugar as percentages of each side's contents.
func (o *Osmosis) Sample() []float64 {
	c := o.world.Census()
	lw, rw := c.Side(0, sim.KindWater), c.Side(1, sim.KindWater)
	ls, rs := c.Side(0, sim.KindSugar), c.Side(1, sim.KindSugar)
	lv, rv := lw+ls, rw+rs
	return []float64{pct(lw, lv), pct(rw, rv), pct(ls, lv), pct(rs, rv)}
}

func (o *Osmosis) Sampling() sim.Sampling { return sim.Sampling{Every: 5} }
func (o *Osmosis) HistoryCap() int        { return 150 }

func (o *Osmosis) Lead() (string, float64, float64) {
	c := o.world.Census()
	return "water right", float64(c.Side(1, sim.KindWater)), waterCount
}

// DrawUnder shades each half by its share of the water.
func (o *Osmosis) DrawUnder(s sim.Surface) {
	c := o.world.Census()
	total := c.Count(sim.KindWater)
	if total == 0 {
		return
	}
	half := benchWidth / 2.0
	for side := 0; side < 2; side++ {
		h := float64(c.Side(side, sim.KindWater)) / float64(total) * benchHeight
		s.Rect(float64(side)*half, benchHeight-h, half, h, waterLevel)
	}
}

func (o *Osmosis) DrawOver(s sim.Surface) {
	s.Text(fmt.Sprintf("osmotic %.2f  hydrostatic %.2f", o.osmotic, o.hydrostatic), 8, benchHeight-16, labelColor)
}
