package lab

import (
	"testing"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

func TestDropInkSpreads(t *testing.T) {
	d := NewDiffusion()
	d.Reset(3)
	if n := d.DropInk(); n != inkCount {
		t.Fatalf("dropped %d ink particles, want %d", n, inkCount)
	}
	start := d.Sample()
	if start[0] <= start[1] {
		t.Fatalf("fresh blot should be denser at the centre: %v", start)
	}
	for i := 0; i < 3000; i++ {
		d.World().Tick()
	}
	end := d.Sample()
	if end[0] >= start[0]/2 {
		t.Fatalf("centre density %v barely fell from %v", end[0], start[0])
	}
	if end[1] <= start[1] {
		t.Fatalf("outer density %v did not rise from %v", end[1], start[1])
	}
	if d.Log().Count("action", "drop-ink") != 1 {
		t.Fatal("drop-ink not logged")
	}
}

func TestLargeInkUsesLargeRadius(t *testing.T) {
	d := NewDiffusion()
	d.Reset(3)
	d.DropInk()
	if err := d.Params().SetFlag("large", true); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	d.World().Tick()
	for _, p := range d.World().Particles() {
		if p.Kind == sim.KindSolute && p.Radius != inkLargeRadius {
			t.Fatalf("solute radius %v after switching to large", p.Radius)
		}
	}
}

func TestLargeInkKeepsItsOwnSpeed(t *testing.T) {
	d := NewDiffusion()
	d.Reset(9)
	if err := d.Params().SetFlag("large", true); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	d.DropInk()
	inkTarget := baseSpeed * tempMultiplier(d.Params()) * largeSizeMul
	waterTarget := baseSpeed * tempMultiplier(d.Params())
	for i := 0; i < 300; i++ {
		d.World().Tick()
		for _, p := range d.World().Particles() {
			limit := waterTarget
			if p.Kind == sim.KindSolute {
				limit = inkTarget
			}
			if s := p.Speed(); s > limit*(1+1e-9) {
				t.Fatalf("tick %d: %s speed %.4f exceeds %.4f", i, p.Kind, s, limit)
			}
		}
	}
}

func TestOsmosisHoldsSugarAtZeroPermeability(t *testing.T) {
	o := NewOsmosis()
	o.Reset(11)
	w := o.World()
	for i := 0; i < 2000; i++ {
		w.Tick()
		if n := w.Census().Side(0, sim.KindSugar); n != 0 {
			t.Fatalf("tick %d: %d sugar leaked left", w.TickCount(), n)
		}
	}
	if o.Membrane().Crossings != 0 {
		t.Fatalf("membrane granted %d crossings at permeability 0", o.Membrane().Crossings)
	}
	if w.Count(sim.KindWater) != waterCount {
		t.Fatalf("water count changed to %d", w.Count(sim.KindWater))
	}
}

func TestOsmosisSugarParamRebuilds(t *testing.T) {
	o := NewOsmosis()
	o.Reset(11)
	w := o.World()
	if err := o.Params().Set("sugar", 25); err != nil {
		t.Fatalf("Set: %v", err)
	}
	w.Tick()
	if got := w.Count(sim.KindSugar); got != 25 {
		t.Fatalf("sugar count %d, want 25", got)
	}
	if !o.Log().Has("param", "sugar", "25") {
		t.Fatal("sugar change not logged")
	}
}

func meanRightWater(t *testing.T, sugar float64) float64 {
	t.Helper()
	o := NewOsmosis()
	if err := o.Params().Set("sugar", sugar); err != nil {
		t.Fatalf("Set: %v", err)
	}
	o.Reset(17)
	w := o.World()
	sum, n := 0, 0
	for i := 0; i < 4000; i++ {
		w.Tick()
		if i >= 2000 {
			sum += w.Census().Side(1, sim.KindWater)
			n++
		}
	}
	return float64(sum) / float64(n)
}

func TestOsmosisDrawsWaterToSugarSide(t *testing.T) {
	plain := meanRightWater(t, 0)
	sweet := meanRightWater(t, 40)
	t.Logf("mean right-side water: sugar 0 -> %.1f, sugar 40 -> %.1f", plain, sweet)
	if sweet <= plain+10 {
		t.Fatalf("sugar 40 held %.1f water on the right, no sugar held %.1f", sweet, plain)
	}
	if sweet <= waterCount/2 {
		t.Fatalf("sugar side should hold most of the water, got %.1f of %d", sweet, waterCount)
	}
}
