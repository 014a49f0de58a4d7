package lab

import (
	"testing"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

func quietGreenhouse(t *testing.T, albedo float64) *Greenhouse {
	t.Helper()
	g := NewGreenhouse()
	ps := g.Params()
	for name, v := range map[string]float64{"albedo": albedo, "sun": 0, "co2": 0, "clouds": 0} {
		if err := ps.Set(name, v); err != nil {
			t.Fatalf("Set(%s): %v", name, err)
		}
	}
	g.Reset(7)
	return g
}

func TestGreenhouseStateMachineTerminates(t *testing.T) {
	g := quietGreenhouse(t, 0)
	w := g.World()

	if h := g.SpawnRay(benchWidth / 2); h == sim.NoHandle {
		t.Fatal("ray refused")
	}
	w.Recount()

	for i := 0; i < 1000 && w.Count(sim.KindRay) > 0; i++ {
		w.Tick()
	}
	if got := w.Count(sim.KindRay); got != 0 {
		t.Fatalf("ray never reached the ground, %d left", got)
	}
	if got := w.Count(sim.KindHeat); got != 1 {
		t.Fatalf("expected exactly one heat particle, got %d", got)
	}

	// Warm, fixed ground so the escape roll comes up often.
	g.temperature = sim.Smoothed{Value: 30, Alpha: 1}

	for i := 0; i < 10000 && w.Census().Total > 0; i++ {
		w.Tick()
		c := w.Census()
		if c.Total > 1 {
			t.Fatalf("tick %d: population grew to %d", w.TickCount(), c.Total)
		}
	}
	if got := w.Census().Total; got != 0 {
		t.Fatalf("particle still in flight after 10000 ticks (%d)", got)
	}
}

func TestGreenhouseTerminatesUnderDefaultSmoothing(t *testing.T) {
	g := quietGreenhouse(t, 0)
	w := g.World()
	if g.temperature.Alpha != tempAlpha {
		t.Fatalf("temperature alpha %v, want %v", g.temperature.Alpha, tempAlpha)
	}
	if h := g.SpawnRay(benchWidth / 2); h == sim.NoHandle {
		t.Fatal("ray refused")
	}
	w.Recount()

	// Cold ground rolls escapes close to the floor; the budget covers
	// several hundred failed rolls at the surface.
	const budget = 60000
	for i := 0; i < budget && w.Census().Total > 0; i++ {
		w.Tick()
		if c := w.Census(); c.Total > 1 {
			t.Fatalf("tick %d: population grew to %d", w.TickCount(), c.Total)
		}
		if p := g.EscapeChance(); p < escapeFloor {
			t.Fatalf("tick %d: escape chance %v under the floor", w.TickCount(), p)
		}
	}
	if got := w.Census().Total; got != 0 {
		t.Fatalf("particle still in flight after %d ticks at %.2f C (%d)", budget, g.Temperature(), got)
	}
	if w.Stats().Transforms < 2 {
		t.Fatalf("expected ray->heat->infrared, saw %d transforms", w.Stats().Transforms)
	}
}

func TestGreenhouseFollowTracksToSpace(t *testing.T) {
	g := quietGreenhouse(t, 1)
	w := g.World()
	if err := g.Params().SetFlag("follow", true); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}

	h := g.SpawnRay(benchWidth / 2)
	if w.TrackedHandle() != h {
		t.Fatalf("new ray not tracked")
	}
	w.Recount()

	sawSurface := false
	for i := 0; i < 2000 && w.Census().Total > 0; i++ {
		w.Tick()
		if w.TrackState() == stateSurface {
			sawSurface = true
		}
	}
	if !sawSurface {
		t.Fatal("ray never reflected off the surface")
	}
	if w.Count(sim.KindHeat) != 0 {
		t.Fatal("full albedo still produced heat")
	}
	if got := w.TrackState(); got != stateToSpace {
		t.Fatalf("track state = %q, want %q", got, stateToSpace)
	}
	if g.Params().Flag("follow") {
		t.Fatal("follow should switch off once the particle is gone")
	}
}

func TestGreenhouseBarriersFollowParams(t *testing.T) {
	g := quietGreenhouse(t, 0.5)
	w := g.World()
	if got := len(w.Barriers()); got != 1 {
		t.Fatalf("expected only the surface, got %d barriers", got)
	}
	_ = g.Params().Set("co2", 10)
	_ = g.Params().Set("clouds", 3)
	w.Tick()
	if got := len(w.Barriers()); got != 14 {
		t.Fatalf("expected 14 barriers, got %d", got)
	}
	_ = g.Params().Set("co2", 2)
	w.Tick()
	if got := len(w.Barriers()); got != 6 {
		t.Fatalf("expected 6 barriers after trimming, got %d", got)
	}
}

func TestEscapeChanceHasFloor(t *testing.T) {
	g := quietGreenhouse(t, 0.5)
	g.temperature.Value = -20
	if got := g.EscapeChance(); got != escapeFloor {
		t.Fatalf("escape chance %v, want floor %v", got, escapeFloor)
	}
	g.temperature.Value = 30
	if got := g.EscapeChance(); got <= 0.19 || got >= 0.21 {
		t.Fatalf("escape chance at 30 C = %v", got)
	}
}

func TestGreenhouseFollowSwitchedOff(t *testing.T) {
	g := quietGreenhouse(t, 0)
	w := g.World()
	if err := g.Params().SetFlag("follow", true); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	h := g.SpawnRay(benchWidth / 2)
	if w.TrackedHandle() != h {
		t.Fatal("new ray not tracked")
	}
	w.Tick()

	_ = g.Params().SetFlag("follow", false)
	w.Tick()
	if got := w.TrackedHandle(); got != sim.NoHandle {
		t.Fatalf("still tracking %d after follow was switched off", got)
	}
	if got := w.TrackState(); got != stateNotTracking {
		t.Fatalf("track state %q after unfollow", got)
	}
	if !g.Log().Has("track", "unfollow", "") {
		t.Fatal("unfollow not logged")
	}
}
