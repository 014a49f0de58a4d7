package lab

import (
	"testing"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

func ecologyWith(t *testing.T, params map[string]float64) *Ecology {
	t.Helper()
	e := NewEcology()
	for name, v := range params {
		if err := e.Params().Set(name, v); err != nil {
			t.Fatalf("Set(%s): %v", name, err)
		}
	}
	e.Reset(9)
	return e
}

func TestNoWolvesEndsRun(t *testing.T) {
	e := ecologyWith(t, map[string]float64{"wolves": 0})
	l := sim.NewLoop(e)
	l.Start()
	var rec sim.Recorder
	l.Step(&rec)

	ended, why := e.World().Ended()
	if !ended || why != EndWolvesExtinct {
		t.Fatalf("ended=%v why=%q", ended, why)
	}
	if l.Running() {
		t.Fatal("loop kept running an ended world")
	}
	tick := e.World().TickCount()
	l.Start()
	if l.Step(&rec) {
		t.Fatal("stepped an ended world")
	}
	if e.World().TickCount() != tick {
		t.Fatal("ended world advanced")
	}
	if !e.Log().Has("world", "ended", EndWolvesExtinct) {
		t.Fatal("end not logged")
	}
}

func TestWolvesStarveWithoutPrey(t *testing.T) {
	e := ecologyWith(t, map[string]float64{
		"sheep":           0,
		"wolves":          5,
		"wolf_reproduce":  0,
		"wolf_metabolism": 5,
	})
	w := e.World()
	for i := 0; i < 20; i++ {
		w.Tick()
	}
	if got := w.Count(sim.KindWolf); got != 0 {
		t.Fatalf("%d wolves survived without food", got)
	}
	if ended, why := w.Ended(); !ended || why != EndWolvesExtinct {
		t.Fatalf("ended=%v why=%q", ended, why)
	}
}

func TestWolfEatsNearbySheep(t *testing.T) {
	e := ecologyWith(t, map[string]float64{
		"sheep":           0,
		"wolves":          0,
		"sheep_reproduce": 0,
		"wolf_reproduce":  0,
		"wolf_metabolism": 1,
		"wolf_gain":       20,
	})
	_ = e.Params().SetFlag("grass", false)
	w := e.World()
	sheep, _ := w.Spawn(sim.KindSheep, 100, 100)
	far, _ := w.Spawn(sim.KindSheep, 300, 300)
	wolf, _ := w.Spawn(sim.KindWolf, 105, 100, func(p *sim.Particle) { p.Energy = 10 })
	w.Recount()

	e.live(w)

	if _, ok := w.Lookup(sheep); ok {
		t.Fatal("sheep within range survived")
	}
	if _, ok := w.Lookup(far); !ok {
		t.Fatal("distant sheep was eaten")
	}
	p, ok := w.Lookup(wolf)
	if !ok {
		t.Fatal("wolf died")
	}
	if p.Energy != 29 {
		t.Fatalf("wolf energy %v, want 29", p.Energy)
	}
}

func TestSheepStarveOnBareField(t *testing.T) {
	e := ecologyWith(t, map[string]float64{
		"sheep":           0,
		"wolves":          0,
		"sheep_reproduce": 0,
	})
	w := e.World()
	for i := range e.grass {
		e.grass[i] = patch{grown: false, timer: 1000}
	}
	h, _ := w.Spawn(sim.KindSheep, 50, 50, func(p *sim.Particle) { p.Energy = 0.5 })
	w.Recount()

	e.live(w)
	e.live(w)
	if _, ok := w.Lookup(h); !ok {
		t.Fatal("sheep died before its energy ran out")
	}
	e.live(w)
	if _, ok := w.Lookup(h); ok {
		t.Fatal("sheep with negative energy survived")
	}
}

func TestGrassCover(t *testing.T) {
	e := ecologyWith(t, nil)
	for i := range e.grass {
		e.grass[i].grown = i%4 == 0
	}
	if got := e.GrassCover(); got != 25 {
		t.Fatalf("cover %v, want 25", got)
	}
	_ = e.Params().SetFlag("grass", false)
	if got := e.GrassCover(); got != 100 {
		t.Fatalf("cover with grass off %v, want 100", got)
	}
}
