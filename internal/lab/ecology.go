package lab

import (
	"fmt"
	"math"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

const (
	fieldSize  = 600
	grassGrid  = 50
	patchSize  = fieldSize / grassGrid
	sheepSpeed = 1.5
	wolfSpeed  = 2.0
	turnJitter = 0.5
	grazeCost  = 0.2
	huntRange  = 10

	sheepWinLimit = 4000
	wolfCap       = 1000
	ecologyCap    = 6000
)

// End reasons for the ecology bench.
const (
	EndSheepWin      = "sheep overran the field"
	EndWolvesExtinct = "wolves went extinct"
)

type patch struct {
	grown bool
	timer int
}

// Ecology is a wolf–sheep–grass predator–prey model on a wrapped field.
type Ecology struct {
	base
	grass []patch

	// buckets index live sheep by grass patch for the hunting pass.
	buckets [][]int
}

// NewEcology returns an unreset ecology bench.
func NewEcology() *Ecology {
	e := &Ecology{base: newBase("ecology")}
	e.params.Define(sim.ParamSpec{Name: "sheep", Min: 0, Max: 500, Default: 150, Step: 10})
	e.params.Define(sim.ParamSpec{Name: "wolves", Min: 0, Max: 200, Default: 20, Step: 5})
	e.params.Define(sim.ParamSpec{Name: "sheep_reproduce", Min: 0, Max: 20, Default: 4, Step: 0.5})
	e.params.Define(sim.ParamSpec{Name: "wolf_reproduce", Min: 0, Max: 20, Default: 1.5, Step: 0.5})
	e.params.Define(sim.ParamSpec{Name: "wolf_metabolism", Min: 0, Max: 5, Default: 1, Step: 0.1})
	e.params.Define(sim.ParamSpec{Name: "regrowth", Min: 1, Max: 100, Default: 30, Step: 1})
	e.params.Define(sim.ParamSpec{Name: "sheep_gain", Min: 0, Max: 20, Default: 4, Step: 1})
	e.params.Define(sim.ParamSpec{Name: "wolf_gain", Min: 0, Max: 100, Default: 20, Step: 1})
	e.params.DefineFlag("grass", true)
	return e
}

// wander turns the heading by a small random amount and steps forward.
func wander(speed float64) sim.MoveFunc {
	return func(p *sim.Particle, ctx *sim.Context) {
		p.Heading += ctx.Uniform(-turnJitter, turnJitter)
		p.VX = math.Cos(p.Heading) * speed
		p.VY = math.Sin(p.Heading) * speed
		p.X += p.VX
		p.Y += p.VY
	}
}

func (e *Ecology) Reset(seed int64) {
	opts := append(e.infra(seed, fieldSize, fieldSize),
		sim.WithCap(ecologyCap),
		sim.WithRule(sim.KindSheep, sim.Rule{Move: wander(sheepSpeed), Edges: sim.Wrapping()}),
		sim.WithRule(sim.KindWolf, sim.Rule{Move: wander(wolfSpeed), Edges: sim.Wrapping()}),
	)
	e.world = sim.NewWorld(opts...)
	w := e.world
	ctx := w.Ctx()

	regrowth := e.params.Int("regrowth")
	e.grass = make([]patch, grassGrid*grassGrid)
	for i := range e.grass {
		grown := true
		if e.params.Flag("grass") {
			grown = ctx.Rng.Float64() > 0.5
		}
		e.grass[i] = patch{grown: grown, timer: ctx.Rng.Intn(regrowth + 1)}
	}
	e.buckets = make([][]int, grassGrid*grassGrid)

	e.populate(w, sim.KindSheep, e.params.Int("sheep"), e.params.Float("sheep_gain"))
	e.populate(w, sim.KindWolf, e.params.Int("wolves"), e.params.Float("wolf_gain"))
	w.Recount()

	w.BeforeTick(e.judge)
	w.BeforeTick(e.regrow)
	w.AfterMove(e.live)
}

// populate places n agents with energy drawn from [0, 2·gain].
func (e *Ecology) populate(w *sim.World, k sim.Kind, n int, gain float64) {
	ctx := w.Ctx()
	maxEnergy := int(2 * gain)
	for i := 0; i < n; i++ {
		energy := float64(ctx.Rng.Intn(maxEnergy + 1))
		heading := ctx.Uniform(0, 2*math.Pi)
		_, err := w.Spawn(k, ctx.Uniform(0, fieldSize), ctx.Uniform(0, fieldSize), func(p *sim.Particle) {
			p.Energy = energy
			p.Heading = heading
		})
		if err != nil {
			return
		}
	}
}

// judge ends the run on extinction, a sheep takeover or the agent cap.
func (e *Ecology) judge(w *sim.World) {
	sheep, wolves := w.Count(sim.KindSheep), w.Count(sim.KindWolf)
	switch {
	case wolves == 0 && sheep >= sheepWinLimit:
		w.End(EndSheepWin)
	case wolves == 0:
		w.End(EndWolvesExtinct)
	case sheep >= sheepWinLimit:
		w.End(EndSheepWin)
	case sheep+wolves > ecologyCap:
		w.End(sim.ErrPopulationCap.Error())
	}
}

func (e *Ecology) regrow(w *sim.World) {
	if !e.params.Flag("grass") {
		return
	}
	regrowth := e.params.Int("regrowth")
	for i := range e.grass {
		g := &e.grass[i]
		if g.grown {
			continue
		}
		g.timer--
		if g.timer <= 0 {
			g.grown = true
			g.timer = regrowth
		}
	}
}

func patchIndex(x, y float64) int {
	cx := int(x / patchSize)
	cy := int(y / patchSize)
	if cx < 0 || cy < 0 || cx >= grassGrid || cy >= grassGrid {
		return -1
	}
	return cy*grassGrid + cx
}

// live runs grazing, starvation, hunting and reproduction after everyone
// has moved. Offspring join at the end of the tick.
func (e *Ecology) live(w *sim.World) {
	ctx := w.Ctx()
	ps := w.Particles()
	grazing := e.params.Flag("grass")
	sheepGain := e.params.Float("sheep_gain")
	sheepRate := e.params.Float("sheep_reproduce")
	wolfRate := e.params.Float("wolf_reproduce")
	metabolism := e.params.Float("wolf_metabolism")
	wolfGain := e.params.Float("wolf_gain")

	sheep, wolves := 0, 0
	for i := range ps {
		if !ps[i].Alive {
			continue
		}
		switch ps[i].Kind {
		case sim.KindSheep:
			sheep++
		case sim.KindWolf:
			wolves++
		}
	}

	for i := range ps {
		s := &ps[i]
		if !s.Alive || s.Kind != sim.KindSheep {
			continue
		}
		if grazing {
			s.Energy -= grazeCost
			if idx := patchIndex(s.X, s.Y); idx >= 0 && e.grass[idx].grown {
				e.grass[idx].grown = false
				s.Energy += sheepGain
			}
			if s.Energy < 0 {
				w.Remove(s, "starved")
				sheep--
				continue
			}
		}
		if sheep < sheepWinLimit && ctx.Rng.Float64()*100 < sheepRate {
			s.Energy /= 2
			if e.offspring(w, s) {
				sheep++
			}
		}
	}

	e.index(ps)
	for i := range ps {
		wf := &ps[i]
		if !wf.Alive || wf.Kind != sim.KindWolf {
			continue
		}
		wf.Energy -= metabolism
		if prey := e.prey(ps, wf); prey != nil {
			w.Remove(prey, "eaten")
			wf.Energy += wolfGain
		}
		if wf.Energy < 0 {
			w.Remove(wf, "starved")
			wolves--
			continue
		}
		if wolves < wolfCap && ctx.Rng.Float64()*100 < wolfRate {
			wf.Energy /= 2
			if e.offspring(w, wf) {
				wolves++
			}
		}
	}
}

// offspring spawns a copy of parent at the parent's position and heading.
func (e *Ecology) offspring(w *sim.World, parent *sim.Particle) bool {
	energy, heading := parent.Energy, parent.Heading
	_, err := w.Spawn(parent.Kind, parent.X, parent.Y, func(p *sim.Particle) {
		p.Energy = energy
		p.Heading = heading
	})
	return err == nil
}

func (e *Ecology) index(ps []sim.Particle) {
	for i := range e.buckets {
		e.buckets[i] = e.buckets[i][:0]
	}
	for i := range ps {
		if ps[i].Alive && ps[i].Kind == sim.KindSheep {
			if idx := patchIndex(ps[i].X, ps[i].Y); idx >= 0 {
				e.buckets[idx] = append(e.buckets[idx], i)
			}
		}
	}
}

// prey returns the first live sheep within huntRange of wf, searching the
// wolf's patch and its neighbours.
func (e *Ecology) prey(ps []sim.Particle, wf *sim.Particle) *sim.Particle {
	cx, cy := int(wf.X/patchSize), int(wf.Y/patchSize)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x, y := cx+dx, cy+dy
			if x < 0 || y < 0 || x >= grassGrid || y >= grassGrid {
				continue
			}
			for _, j := range e.buckets[y*grassGrid+x] {
				s := &ps[j]
				if s.Alive && sim.Dist2(wf, s) < huntRange*huntRange {
					return s
				}
			}
		}
	}
	return nil
}

// GrassCover returns the grown share of the field in percent.
func (e *Ecology) GrassCover() float64 {
	if !e.params.Flag("grass") {
		return 100
	}
	grown := 0
	for _, g := range e.grass {
		if g.grown {
			grown++
		}
	}
	return pct(grown, len(e.grass))
}

func (e *Ecology) Channels() []string { return []string{"sheep", "wolves", "grass"} }

func (e *Ecology) Sample() []float64 {
	c := e.world.Census()
	return []float64{float64(c.Count(sim.KindSheep)), float64(c.Count(sim.KindWolf)), e.GrassCover()}
}

func (e *Ecology) Sampling() sim.Sampling { return sim.Sampling{Every: 5} }
func (e *Ecology) HistoryCap() int        { return 500 }

func (e *Ecology) Lead() (string, float64, float64) {
	return "sheep", float64(e.world.Count(sim.KindSheep)), sheepWinLimit
}

// DrawUnder paints bare patches by how close they are to regrowing.
func (e *Ecology) DrawUnder(s sim.Surface) {
	top := grassRamp[len(grassRamp)-1]
	if !e.params.Flag("grass") {
		s.Rect(0, 0, fieldSize, fieldSize, top)
		return
	}
	regrowth := math.Max(1, e.params.Float("regrowth"))
	for i, g := range e.grass {
		x := float64(i%grassGrid) * patchSize
		y := float64(i/grassGrid) * patchSize
		c := top
		if !g.grown {
			c = rampAt(grassRamp[:len(grassRamp)-1], 1-float64(g.timer)/regrowth)
		}
		s.Rect(x, y, patchSize, patchSize, c)
	}
}

func (e *Ecology) DrawOver(s sim.Surface) {
	if ended, why := e.world.Ended(); ended {
		s.Text(fmt.Sprintf("ended at T=%d: %s", e.world.TickCount(), why), 8, 8, labelColor)
	}
}
