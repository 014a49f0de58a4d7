package lab

import (
	"math/rand"
	"testing"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

func floodWith(t *testing.T, params map[string]float64, clustered bool) *Flood {
	t.Helper()
	f := NewFlood()
	for name, v := range params {
		if err := f.Params().Set(name, v); err != nil {
			t.Fatalf("Set(%s): %v", name, err)
		}
	}
	if err := f.Params().SetFlag("clustered", clustered); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	f.Reset(21)
	return f
}

func TestVillageHitRaisesLevel(t *testing.T) {
	tr := NewTerrain(floodCols, floodRows, villageRows, floodCell)
	ctx := &sim.Context{Rng: rand.New(rand.NewSource(1))}
	p := &sim.Particle{Kind: sim.KindRain, X: 100, Y: float64(floodRows-villageRows) * floodCell, Alive: true}

	in := tr.Interact(p, ctx)
	if in.Outcome != sim.OutcomeAbsorb {
		t.Fatalf("outcome %v, want absorb", in.Outcome)
	}
	if tr.Level != villageHit || tr.Hits != 1 {
		t.Fatalf("level %v hits %d", tr.Level, tr.Hits)
	}
}

func TestRainRunsAtCoverSpeed(t *testing.T) {
	tr := NewTerrain(floodCols, floodRows, villageRows, floodCell)
	for i := range tr.Cells {
		if tr.Cells[i].Land == LandForest {
			tr.Cells[i].Land = LandDeforested
			tr.Cells[i].Saturation = 1
		}
	}
	ctx := &sim.Context{Rng: rand.New(rand.NewSource(1))}
	p := &sim.Particle{Kind: sim.KindRain, X: 100, Y: 30, Alive: true}
	if in := tr.Interact(p, ctx); in.Outcome != sim.OutcomeNone {
		t.Fatalf("saturated ground absorbed rain: %v", in.Outcome)
	}
	if want := physics[LandDeforested].speed * floodCell; p.VY != want {
		t.Fatalf("VY %v, want %v", p.VY, want)
	}
}

func TestDrain(t *testing.T) {
	tr := NewTerrain(floodCols, floodRows, villageRows, floodCell)
	tr.Level = 100
	tr.Drain()
	if tr.Level != 97 {
		t.Fatalf("level %v, want 97", tr.Level)
	}
	tr.Level = 1
	tr.Drain()
	if tr.Level != 0 {
		t.Fatalf("level %v, want 0", tr.Level)
	}
}

func TestClearedLandFloodsMore(t *testing.T) {
	quiet := map[string]float64{"rain": 60, "logging": 0, "restore": 0}
	forested := floodWith(t, quiet, false)

	cleared := map[string]float64{"initial_deforest": 85}
	for k, v := range quiet {
		cleared[k] = v
	}
	bare := floodWith(t, cleared, false)

	for i := 0; i < 600; i++ {
		forested.World().Tick()
		bare.World().Tick()
	}
	if bare.Terrain().Hits <= forested.Terrain().Hits {
		t.Fatalf("cleared land sent %d drops to the village, forest %d",
			bare.Terrain().Hits, forested.Terrain().Hits)
	}
}

func TestRainCappedAtLimit(t *testing.T) {
	f := floodWith(t, map[string]float64{"rain": 100}, false)
	w := f.World()
	for i := 0; i < 300; i++ {
		w.Tick()
		if n := w.Count(sim.KindRain); n > rainLimit {
			t.Fatalf("tick %d: %d drops in the air", w.TickCount(), n)
		}
	}
}

func adjacency(tr *Terrain) float64 {
	pairs, both := 0, 0
	for y := 0; y < tr.LandRows(); y++ {
		for x := 0; x+1 < tr.Cols; x++ {
			if tr.At(x, y).Land != LandDeforested {
				continue
			}
			pairs++
			if tr.At(x+1, y).Land == LandDeforested {
				both++
			}
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(both) / float64(pairs)
}

func TestClusteredLayout(t *testing.T) {
	params := map[string]float64{"initial_deforest": 40}
	clustered := floodWith(t, params, true)
	scattered := floodWith(t, params, false)

	counts, total := clustered.Terrain().Cover()
	if want := int(0.4*float64(total) + 0.5); counts[LandDeforested] != want {
		t.Fatalf("clustered layout cleared %d cells, want %d", counts[LandDeforested], want)
	}
	if a, b := adjacency(clustered.Terrain()), adjacency(scattered.Terrain()); a <= b {
		t.Fatalf("clustered adjacency %.2f not above scattered %.2f", a, b)
	}
}

func TestMoratoriumHaltsLogging(t *testing.T) {
	f := floodWith(t, map[string]float64{"limit": 0, "logging": 100, "rain": 0}, false)
	before, _ := f.Terrain().Cover()
	for i := 0; i < 200; i++ {
		f.World().Tick()
	}
	if !f.Moratorium() {
		t.Fatal("moratorium not in force at a 0% limit")
	}
	after, _ := f.Terrain().Cover()
	if after[LandForest] < before[LandForest] {
		t.Fatalf("forest fell from %d to %d under moratorium", before[LandForest], after[LandForest])
	}
}

func TestClockWrapsAtMidnight(t *testing.T) {
	f := floodWith(t, map[string]float64{"rain": 0}, false)
	for i := 0; i < (minutesDay-startMinutes)/minutesStep; i++ {
		f.World().Tick()
	}
	day, minutes := f.Clock()
	if day != 2 || minutes != 0 {
		t.Fatalf("day %d minutes %d, want day 2 at midnight", day, minutes)
	}
	if f.Terrain().Daytime {
		t.Fatal("midnight counted as daytime")
	}
}
