package render

import (
	"math"
	"testing"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

func TestSpeedStepping(t *testing.T) {
	cases := []struct {
		cur, slow, fast float64
	}{
		{0, 0, 0.5},
		{0.5, 0, 1},
		{1, 0.5, 2},
		{2, 1, 4},
		{4, 2, 4},
	}
	for _, c := range cases {
		if got := slower(c.cur); got != c.slow {
			t.Fatalf("slower(%v) = %v, want %v", c.cur, got, c.slow)
		}
		if got := faster(c.cur); got != c.fast {
			t.Fatalf("faster(%v) = %v, want %v", c.cur, got, c.fast)
		}
	}
	if speedLabel(0) != "PAUSED" || speedLabel(0.5) != "0.5x" || speedLabel(2) != "2x" {
		t.Fatalf("unexpected labels %q %q %q", speedLabel(0), speedLabel(0.5), speedLabel(2))
	}
}

func TestGaugeSettlesOnTarget(t *testing.T) {
	g := newGauge(60)
	var fill float64
	for i := 0; i < 600; i++ {
		fill = g.update(30, 40)
	}
	if math.Abs(fill-0.75) > 0.01 {
		t.Fatalf("gauge settled at %.3f, want 0.75", fill)
	}
	for i := 0; i < 600; i++ {
		fill = g.update(500, 40)
	}
	if fill != 1 {
		t.Fatalf("gauge over max should clamp to 1, got %.3f", fill)
	}
	g.reset()
	if g.pos != 0 || g.vel != 0 {
		t.Fatal("reset should zero the spring")
	}
}

func TestSparklineMapsIntoBox(t *testing.T) {
	pts := sparkline([]float64{0, 5, 10}, 10, 20, 100, 50)
	if len(pts) != 3 {
		t.Fatalf("got %d points, want 3", len(pts))
	}
	if pts[0].X != 10 || pts[2].X != 110 {
		t.Fatalf("x span %v..%v, want 10..110", pts[0].X, pts[2].X)
	}
	if pts[0].Y != 70 || pts[2].Y != 20 {
		t.Fatalf("min should sit at the bottom and max at the top, got %v and %v", pts[0].Y, pts[2].Y)
	}

	flat := sparkline([]float64{3, 3, 3}, 0, 0, 10, 10)
	for _, p := range flat {
		if p.Y != 5 {
			t.Fatalf("flat series should sit on the midline, got y=%v", p.Y)
		}
	}
	if sparkline([]float64{1}, 0, 0, 10, 10) != nil {
		t.Fatal("a single sample has no line")
	}
}

func TestControlsAdjustParamsAndFlags(t *testing.T) {
	ps := sim.NewParams()
	ps.Define(sim.ParamSpec{Name: "rain", Min: 0, Max: 100, Default: 15, Step: 5})
	ps.DefineFlag("clustered", false)

	rows := controls(ps)
	if len(rows) != 2 || rows[0].name != "rain" || !rows[1].flag {
		t.Fatalf("unexpected rows %+v", rows)
	}
	rows[0].adjust(ps, 1)
	if ps.Float("rain") != 20 {
		t.Fatalf("rain = %v after one step up, want 20", ps.Float("rain"))
	}
	for i := 0; i < 10; i++ {
		rows[0].adjust(ps, -1)
	}
	if ps.Float("rain") != 0 {
		t.Fatalf("rain should clamp at its minimum, got %v", ps.Float("rain"))
	}
	rows[1].adjust(ps, 1)
	if !ps.Flag("clustered") {
		t.Fatal("adjusting a flag row should flip it")
	}
	if got := rows[1].label(ps); got != "clustered        on" {
		t.Fatalf("label = %q", got)
	}
}
