package lab

import (
	"fmt"
	"math"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

// Transport modes, selected by the "mode" parameter.
const (
	ModeSimple = iota
	ModeFacilitated
	ModeActive
)

const (
	bandThickness = 40
	bandClearance = 20

	channelCount = 3
	channelWidth = 40
	glucoseCount = 30

	pumpReach   = 30
	pumpLift    = 5
	pumpRelease = 50
	sodiumCount = 15
	kCount      = 10
	atpPerDose  = 5
)

var modeNames = [...]string{"simple", "facilitated", "active"}

// Transport is a cell membrane drawn as a horizontal band. Depending on the
// mode, oxygen diffuses straight through, glucose needs a channel, or sodium
// is pumped upward against its gradient at one ATP per ion.
type Transport struct {
	base
	band *sim.Band
	mode int

	// atpSeen is the pump fuel last written back to the atp parameter. A
	// different parameter value means the user changed it.
	atpSeen float64
}

// NewTransport returns an unreset transport bench.
func NewTransport() *Transport {
	t := &Transport{base: newBase("transport")}
	t.params.Define(sim.ParamSpec{Name: "temperature", Min: 0, Max: 100, Default: 25, Step: 5})
	t.params.Define(sim.ParamSpec{Name: "mode", Min: 0, Max: 2, Default: ModeSimple, Step: 1})
	t.params.Define(sim.ParamSpec{Name: "molecules", Min: 10, Max: 100, Default: 50, Step: 5})
	t.params.Define(sim.ParamSpec{Name: "atp", Min: 0, Max: 50, Default: 0, Step: 1})
	return t
}

// Mode returns the active transport mode.
func (t *Transport) Mode() int { return t.mode }

// Band returns the membrane band.
func (t *Transport) Band() *sim.Band { return t.band }

// speedMultiplier maps temperature to a kinetic factor; 25 °C is 1.
func speedMultiplier(p *sim.Particle, ctx *sim.Context) float64 {
	return (ctx.Params.Float("temperature") + 100) / 125
}

func scatterInit(p *sim.Particle, ctx *sim.Context) {
	p.VX = (ctx.Rng.Float64() - 0.5) * 2
	p.VY = (ctx.Rng.Float64() - 0.5) * 2
}

func (t *Transport) Reset(seed int64) {
	rule := sim.Rule{Move: sim.Ballistic(speedMultiplier), Edges: sim.Reflecting(), Init: scatterInit}
	mid := benchHeight / 2.0
	opts := append(t.infra(seed, benchWidth, benchHeight),
		sim.WithRule(sim.KindOxygen, rule),
		sim.WithRule(sim.KindGlucose, rule),
		sim.WithRule(sim.KindSodium, rule),
		sim.WithRule(sim.KindPotassium, rule),
		sim.WithPartition(func(p *sim.Particle) int {
			if p.Y < mid {
				return 0
			}
			return 1
		}),
	)
	t.world = sim.NewWorld(opts...)
	t.build(t.world, t.params.Int("mode"))
	t.world.BeforeTick(t.prepare)
	t.world.AfterCensus(t.settle)
}

// build replaces the band and the particles with the layout for mode.
func (t *Transport) build(w *sim.World, mode int) {
	ps := w.Particles()
	for i := range ps {
		w.Remove(&ps[i], "")
	}
	w.RemoveBarriers(func(sim.Barrier) bool { return true })

	t.mode = mode
	t.band = &sim.Band{
		Y:         benchHeight / 2,
		Thickness: bandThickness,
		Width:     benchWidth,
	}
	switch mode {
	case ModeSimple:
		t.band.Permeability = map[sim.Kind]float64{sim.KindOxygen: 100}
		t.scatter(w, sim.KindOxygen, t.params.Int("molecules"), true)
	case ModeFacilitated:
		spacing := benchWidth / float64(channelCount+1)
		for i := 1; i <= channelCount; i++ {
			t.band.Channels = append(t.band.Channels, sim.Channel{
				X:     spacing * float64(i),
				Width: channelWidth,
				Kinds: []sim.Kind{sim.KindGlucose},
				Open:  true,
			})
		}
		t.scatter(w, sim.KindGlucose, glucoseCount, true)
	case ModeActive:
		t.band.Pump = &sim.Pump{
			X:       benchWidth / 2,
			Reach:   pumpReach,
			Kind:    sim.KindSodium,
			Lift:    pumpLift,
			Release: pumpRelease,
			Fuel:    t.params.Float("atp"),
		}
		t.scatter(w, sim.KindSodium, sodiumCount, false)
		t.scatter(w, sim.KindPotassium, kCount, true)
	}
	t.atpSeen = t.params.Float("atp")
	w.AddBarrier(t.band)
	w.Recount()
	t.log.Add(w.TickCount(), sim.NoHandle, "--", "mode", "mode", modeNames[mode], float64(mode))
}

// scatter places n particles uniformly on one side, clear of the band.
func (t *Transport) scatter(w *sim.World, k sim.Kind, n int, top bool) {
	ctx := w.Ctx()
	edge := t.band.Thickness/2 + bandClearance
	for i := 0; i < n; i++ {
		var y float64
		if top {
			y = ctx.Uniform(0, t.band.Y-edge)
		} else {
			y = ctx.Uniform(t.band.Y+edge, benchHeight)
		}
		if _, err := w.Spawn(k, ctx.Uniform(0, benchWidth), y); err != nil {
			return
		}
	}
}

func (t *Transport) prepare(w *sim.World) {
	if m := t.params.Int("mode"); m != t.mode {
		t.build(w, m)
		return
	}
	if pm := t.band.Pump; pm != nil {
		if a := t.params.Float("atp"); a != t.atpSeen {
			pm.Fuel = a
			t.atpSeen = a
		}
	}
}

// settle writes spent pump fuel back to the atp parameter.
func (t *Transport) settle(w *sim.World) {
	pm := t.band.Pump
	if pm == nil || pm.Fuel == t.atpSeen {
		return
	}
	if err := t.params.Set("atp", pm.Fuel); err != nil {
		t.log.Add(w.TickCount(), sim.NoHandle, "sodium", "pump", "error", err.Error(), pm.Fuel)
		pm.Fuel = t.params.Float("atp")
	}
	t.atpSeen = pm.Fuel
	t.log.AddVerbose(w.TickCount(), sim.NoHandle, "sodium", "pump", "delivered", fmt.Sprintf("%d", pm.Delivered), pm.Fuel)
}

// AddATP adds one dose of ATP, clamped to the parameter's maximum.
func (t *Transport) AddATP() error {
	spec, _ := t.params.Spec("atp")
	v := math.Min(spec.Max, t.params.Float("atp")+atpPerDose)
	if err := t.params.Set("atp", v); err != nil {
		return fmt.Errorf("add atp: %w", err)
	}
	t.log.Add(t.world.TickCount(), sim.NoHandle, "--", "action", "add-atp", "", v)
	return nil
}

func (t *Transport) Actions() []string { return []string{"add-atp"} }

func (t *Transport) Do(action string) error {
	switch action {
	case "add-atp":
		return t.AddATP()
	default:
		return ErrUnknownAction
	}
}

// species is the kind whose crossing the mode demonstrates.
func (t *Transport) species() sim.Kind {
	switch t.mode {
	case ModeFacilitated:
		return sim.KindGlucose
	case ModeActive:
		return sim.KindSodium
	default:
		return sim.KindOxygen
	}
}

func (t *Transport) Channels() []string { return []string{"top", "bottom", "atp"} }

func (t *Transport) Sample() []float64 {
	c := t.world.Census()
	k := t.species()
	return []float64{
		float64(c.Side(0, k)),
		float64(c.Side(1, k)),
		t.params.Float("atp"),
	}
}

func (t *Transport) Sampling() sim.Sampling { return sim.Sampling{Every: 5} }
func (t *Transport) HistoryCap() int        { return 200 }

func (t *Transport) Lead() (string, float64, float64) {
	c := t.world.Census()
	k := t.species()
	if t.mode == ModeActive {
		return "sodium above", float64(c.Side(0, k)), float64(c.Count(k))
	}
	return k.String() + " below", float64(c.Side(1, k)), float64(c.Count(k))
}

func (t *Transport) DrawUnder(s sim.Surface) {
	top := t.band.Y - t.band.Thickness/2
	bottom := t.band.Y + t.band.Thickness/2
	for x := 0.0; x < benchWidth; x += 12 {
		s.Circle(x, top, 4, membraneInk)
		s.Circle(x, bottom, 4, membraneInk)
	}
}

func (t *Transport) DrawOver(s sim.Surface) {
	line := fmt.Sprintf("mode %s", modeNames[t.mode])
	if t.mode == ModeActive {
		pm := t.band.Pump
		line += fmt.Sprintf("  ATP %.0f  pumped %d", t.params.Float("atp"), pm.Delivered)
		if p, ok := t.world.Lookup(pm.Carrying()); ok {
			s.Circle(p.X, p.Y, p.Radius+5, cargoGlow)
			line += "  lifting"
		}
	}
	s.Text(line, 8, 8, labelColor)
}
