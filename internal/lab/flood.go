package lab

import (
	"fmt"
	"sort"

	"github.com/aquilax/go-perlin"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

const (
	floodCols    = 40
	floodRows    = 40
	floodCell    = 15
	villageRows  = 5
	floodSize    = floodCols * floodCell
	naturalShare = 0.15

	rainSpeed    = 0.8
	rainLimit    = 1000
	rainDivisor  = 80
	floodCap     = 2 * rainLimit
	landChecks   = 40
	minutesStep  = 5
	minutesDay   = 1440
	startMinutes = 360

	noiseAlpha = 2
	noiseBeta  = 2
	noiseOct   = 3
	noiseScale = 8
)

// Flood is rain falling on a forested catchment above a village. Forest
// soaks rain up and dries fast; cleared and palm land let it run off.
type Flood struct {
	base
	terrain *Terrain

	minutes    int
	day        int
	saturation float64
	moratorium bool
}

// NewFlood returns an unreset flood bench.
func NewFlood() *Flood {
	f := &Flood{base: newBase("flood")}
	f.params.Define(sim.ParamSpec{Name: "rain", Min: 0, Max: 100, Default: 15, Step: 5})
	f.params.Define(sim.ParamSpec{Name: "logging", Min: 0, Max: 100, Default: 2, Step: 1})
	f.params.Define(sim.ParamSpec{Name: "limit", Min: 0, Max: 100, Default: 50, Step: 5})
	f.params.Define(sim.ParamSpec{Name: "palm", Min: 0, Max: 100, Default: 0, Step: 1})
	f.params.Define(sim.ParamSpec{Name: "restore", Min: 0, Max: 100, Default: 2, Step: 1})
	f.params.Define(sim.ParamSpec{Name: "reforest", Min: 0, Max: 100, Default: 0, Step: 1})
	f.params.Define(sim.ParamSpec{Name: "natural", Min: 0, Max: 100, Default: 0, Step: 1})
	f.params.Define(sim.ParamSpec{Name: "initial_deforest", Min: 0, Max: 85, Default: 0, Step: 5})
	f.params.DefineFlag("clustered", false)
	return f
}

// Terrain returns the land grid.
func (f *Flood) Terrain() *Terrain { return f.terrain }

// Clock returns the simulated day and time of day in minutes.
func (f *Flood) Clock() (day, minutes int) { return f.day, f.minutes }

// Moratorium reports whether open land has reached the logging limit.
func (f *Flood) Moratorium() bool { return f.moratorium }

func (f *Flood) Reset(seed int64) {
	opts := append(f.infra(seed, floodSize, floodSize),
		sim.WithCap(floodCap),
		sim.WithRule(sim.KindRain, sim.Rule{
			Move:  sim.Ballistic(nil),
			Edges: sim.Edges{Left: sim.EdgeOpen, Right: sim.EdgeOpen, Top: sim.EdgeOpen, Bottom: sim.EdgeOpen},
			Init: func(p *sim.Particle, ctx *sim.Context) {
				p.VY = rainSpeed * floodCell
			},
		}),
	)
	f.world = sim.NewWorld(opts...)
	f.terrain = NewTerrain(floodCols, floodRows, villageRows, floodCell)
	f.layout(f.world.Ctx(), seed)
	f.world.AddBarrier(f.terrain)

	f.minutes, f.day = startMinutes, 1
	f.terrain.Daytime = true
	f.moratorium = false
	f.saturation = 0

	f.world.BeforeTick(f.clock)
	f.world.BeforeTick(f.landUse)
	f.world.BeforeTick(f.rain)
	f.world.AfterCensus(func(*sim.World) { f.terrain.Drain() })
}

// layout assigns natural ground at random, then clears initial_deforest of
// the land either at random or in Perlin-noise clusters.
func (f *Flood) layout(ctx *sim.Context, seed int64) {
	t := f.terrain
	share := f.params.Float("initial_deforest") / 100
	land := t.LandRows() * t.Cols
	if !f.params.Flag("clustered") {
		for i := 0; i < land; i++ {
			switch r := ctx.Rng.Float64(); {
			case r < naturalShare:
				t.Cells[i].Land = LandNatural
			case r < naturalShare+share:
				t.Cells[i].Land = LandDeforested
			}
		}
		return
	}

	noise := perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOct, seed)
	type ranked struct {
		idx int
		v   float64
	}
	var open []ranked
	for i := 0; i < land; i++ {
		if ctx.Rng.Float64() < naturalShare {
			t.Cells[i].Land = LandNatural
			continue
		}
		x, y := float64(i%t.Cols), float64(i/t.Cols)
		open = append(open, ranked{i, noise.Noise2D(x/noiseScale, y/noiseScale)})
	}
	sort.SliceStable(open, func(a, b int) bool { return open[a].v > open[b].v })
	n := int(share*float64(land) + 0.5)
	if n > len(open) {
		n = len(open)
	}
	for _, r := range open[:n] {
		t.Cells[r.idx].Land = LandDeforested
	}
}

// clock advances the time of day by five minutes per tick.
func (f *Flood) clock(w *sim.World) {
	f.minutes += minutesStep
	if f.minutes >= minutesDay {
		f.minutes = 0
		f.day++
	}
	h := f.minutes / 60
	f.terrain.Daytime = h >= 6 && h < 18
}

// landUse dries the soil and applies logging, palm conversion, restoration
// and natural clearing to a random sample of land cells.
func (f *Flood) landUse(w *sim.World) {
	ctx := w.Ctx()
	t := f.terrain
	f.saturation = t.Dry()

	counts, total := t.Cover()
	open := float64(counts[LandDeforested]+counts[LandPalm]) / float64(total)
	limited := open >= f.params.Float("limit")/100
	if limited != f.moratorium {
		f.moratorium = limited
		f.log.Add(w.TickCount(), sim.NoHandle, "--", "policy", "moratorium", fmt.Sprintf("%t", limited), open*100)
	}

	logging := f.params.Float("logging") / 1000
	palm := f.params.Float("palm") / 1000
	restore := f.params.Float("restore") / 2000
	reforest := f.params.Float("reforest") / 1000
	natural := f.params.Float("natural") / 100000

	for i := 0; i < landChecks; i++ {
		c := t.At(ctx.Rng.Intn(t.Cols), ctx.Rng.Intn(t.LandRows()))
		if !limited && c.Land == LandForest && ctx.Chance(logging) {
			c.Land = LandDeforested
		}
		if c.Land == LandDeforested && ctx.Chance(palm) {
			c.Land = LandPalm
		}
		if c.Land == LandDeforested || c.Land == LandPalm {
			if ctx.Chance(restore) || ctx.Chance(reforest) {
				c.Land = LandForest
			}
		}
		if ctx.Chance(natural) && c.Land == LandForest {
			c.Land = LandDeforested
			c.Saturation = 0.5
		}
	}
}

// rain drops new water into each column with probability rain/80, refusing
// drops once rainLimit are in the air.
func (f *Flood) rain(w *sim.World) {
	ctx := w.Ctx()
	density := f.params.Float("rain") / rainDivisor
	falling := w.Count(sim.KindRain)
	for col := 0; col < floodCols; col++ {
		if !ctx.Chance(density) {
			continue
		}
		if falling >= rainLimit {
			return
		}
		x := (float64(col) + ctx.Rng.Float64()) * floodCell
		if _, err := w.Spawn(sim.KindRain, x, 0); err != nil {
			return
		}
		falling++
	}
}

// Cover returns forest, palm and deforested shares of the land in percent.
func (f *Flood) Cover() (forest, palm, deforested float64) {
	counts, total := f.terrain.Cover()
	return pct(counts[LandForest], total), pct(counts[LandPalm], total), pct(counts[LandDeforested], total)
}

// Status grades forest cover the way the field guide does.
func (f *Flood) Status() string {
	forest, _, _ := f.Cover()
	switch {
	case forest < 30:
		return "critical"
	case forest < 50:
		return "warning"
	default:
		return "stable"
	}
}

func (f *Flood) Channels() []string {
	return []string{"flood", "forest", "palm", "deforest", "saturation"}
}

func (f *Flood) Sample() []float64 {
	forest, palm, deforested := f.Cover()
	return []float64{f.terrain.Level, forest, palm, deforested, f.saturation * 100}
}

func (f *Flood) Sampling() sim.Sampling { return sim.Sampling{Every: 5} }
func (f *Flood) HistoryCap() int        { return 80 }

func (f *Flood) Lead() (string, float64, float64) {
	return "flood", f.terrain.Level, floodLevelScale
}

func (f *Flood) DrawOver(s sim.Surface) {
	if !f.terrain.Daytime {
		s.Rect(0, 0, floodSize, floodSize, nightShade)
	}
	line := fmt.Sprintf("day %d %02d:%02d  flood %.0f  %s", f.day, f.minutes/60, f.minutes%60, f.terrain.Level, f.Status())
	if f.moratorium {
		line += "  moratorium"
	}
	s.Text(line, 8, 8, labelColor)
	if f.terrain.Flooded() {
		s.Text("FLOOD WARNING", 8, 24, labelColor)
	}
}
