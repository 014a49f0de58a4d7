package lab

import (
	"reflect"
	"testing"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

func networkWith(t *testing.T, params map[string]float64) *Network {
	t.Helper()
	nw := NewNetwork()
	for name, v := range params {
		if err := nw.Params().Set(name, v); err != nil {
			t.Fatalf("Set(%s): %v", name, err)
		}
	}
	nw.Reset(11)
	return nw
}

func TestRingLatticeDegree(t *testing.T) {
	links := ringLattice(20, 4)
	if len(links) != 40 {
		t.Fatalf("%d links, want 40", len(links))
	}
	degree := make([]int, 20)
	for _, l := range links {
		degree[l.source]++
		degree[l.target]++
	}
	for i, d := range degree {
		if d != 4 {
			t.Fatalf("node %d has degree %d", i, d)
		}
	}
}

func TestRewire(t *testing.T) {
	ctx := sim.NewWorld(sim.WithSeed(2)).Ctx()

	kept := ringLattice(30, 4)
	rewire(kept, 30, 0, ctx)
	if !reflect.DeepEqual(kept, ringLattice(30, 4)) {
		t.Fatal("zero probability changed the lattice")
	}

	moved := ringLattice(30, 4)
	rewire(moved, 30, 1, ctx)
	orig := ringLattice(30, 4)
	for i, l := range moved {
		if !l.rewired {
			t.Fatalf("link %d not rewired at probability 1", i)
		}
		if l.source != orig[i].source {
			t.Fatalf("link %d source moved", i)
		}
		if l.target == l.source || l.target == orig[i].target {
			t.Fatalf("link %d rewired to %d from %d->%d", i, l.target, orig[i].source, orig[i].target)
		}
	}
}

func TestSpread(t *testing.T) {
	ctx := sim.NewWorld(sim.WithSeed(3)).Ctx()
	links := ringLattice(10, 2)

	infected := make([]bool, 10)
	infected[0] = true
	if fresh := spread(links, infected, 0, ctx); len(fresh) != 0 || countTrue(infected) != 1 {
		t.Fatalf("zero rate infected %v", fresh)
	}

	fresh := spread(links, infected, 1, ctx)
	if !reflect.DeepEqual(fresh, []int{1, 9}) {
		t.Fatalf("fresh = %v, want [1 9]", fresh)
	}
	// One hop per day: the neighbours' neighbours wait for the next round.
	if infected[2] || infected[8] {
		t.Fatal("infection crossed two hops in one day")
	}
}

func TestNetworkSaturates(t *testing.T) {
	nw := networkWith(t, map[string]float64{"nodes": 20, "infection": 100})
	w := nw.World()
	for i := 0; i < 2000; i++ {
		if ended, _ := w.Ended(); ended {
			break
		}
		w.Tick()
	}
	ended, why := w.Ended()
	if !ended || why != EndSaturated {
		t.Fatalf("ended=%v why=%q after %d ticks", ended, why, w.TickCount())
	}
	c := w.Census()
	if c.Total != 20 || c.Count(sim.KindInfected) != 20 {
		t.Fatalf("total=%d infected=%d", c.Total, c.Count(sim.KindInfected))
	}
	if got := w.Stats().Transforms; got != 19 {
		t.Fatalf("%d transforms, want 19", got)
	}
	small, regular := nw.Infected()
	if small != 100 || regular != 100 {
		t.Fatalf("infected %.0f%% / %.0f%%", small, regular)
	}
	if nw.Day() == 0 || w.TickCount() != nw.Day()*spreadEvery {
		t.Fatalf("day %d at tick %d", nw.Day(), w.TickCount())
	}
}

func TestNoInfectionNeverSpreads(t *testing.T) {
	nw := networkWith(t, map[string]float64{"infection": 0})
	w := nw.World()
	for i := 0; i < 300; i++ {
		w.Tick()
	}
	if got := w.Count(sim.KindInfected); got != 1 {
		t.Fatalf("%d infected, only patient zero expected", got)
	}
	if ended, _ := w.Ended(); ended {
		t.Fatal("run ended without an epidemic")
	}
	if nw.Day() != 300/spreadEvery {
		t.Fatalf("day %d", nw.Day())
	}
}

func TestNetworkRebuildsOnShapeChange(t *testing.T) {
	nw := networkWith(t, map[string]float64{"nodes": 20, "infection": 0})
	w := nw.World()
	for i := 0; i < 10; i++ {
		w.Tick()
	}
	if err := nw.Params().Set("nodes", 40); err != nil {
		t.Fatalf("Set: %v", err)
	}
	w.Tick()
	c := w.Census()
	if c.Total != 40 || c.Count(sim.KindInfected) != 1 {
		t.Fatalf("total=%d infected=%d after rebuild", c.Total, c.Count(sim.KindInfected))
	}
	if got := nw.Log().Count("graph", "build"); got != 2 {
		t.Fatalf("%d builds logged", got)
	}

	// Infection rate is not a shape parameter.
	if err := nw.Params().Set("infection", 50); err != nil {
		t.Fatalf("Set: %v", err)
	}
	w.Tick()
	if got := nw.Log().Count("graph", "build"); got != 2 {
		t.Fatalf("rate change rebuilt the graph (%d builds)", got)
	}
}
