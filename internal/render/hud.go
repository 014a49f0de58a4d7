package render

import (
	"fmt"
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

// speeds are the selectable sim rates. 0 is paused.
var speeds = []float64{0, 0.5, 1, 2, 4}

func slower(cur float64) float64 {
	for i, s := range speeds {
		if s >= cur && i > 0 {
			return speeds[i-1]
		}
	}
	return cur
}

func faster(cur float64) float64 {
	for i, s := range speeds {
		if s <= cur && i < len(speeds)-1 && speeds[i+1] > cur {
			return speeds[i+1]
		}
	}
	return cur
}

func speedLabel(s float64) string {
	switch s {
	case 0:
		return "PAUSED"
	case 1, 2, 4:
		return fmt.Sprintf("%.0fx", s)
	default:
		return fmt.Sprintf("%.1fx", s)
	}
}

// gauge eases a bar toward the scenario's lead scalar so sampling jumps
// read as motion.
type gauge struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newGauge(fps int) gauge {
	return gauge{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.9)}
}

// update moves the gauge one frame toward value/max and returns the eased
// fill in [0, 1].
func (g *gauge) update(value, max float64) float64 {
	target := 0.0
	if max > 0 {
		target = math.Max(0, math.Min(1, value/max))
	}
	g.pos, g.vel = g.spring.Update(g.pos, g.vel, target)
	return math.Max(0, math.Min(1, g.pos))
}

func (g *gauge) reset() {
	g.pos, g.vel = 0, 0
}

// sparkline maps a series into a w×h box at (x, y), newest sample at the
// right edge. Flat series sit on the box's midline.
func sparkline(series []float64, x, y, w, h float64) []sim.Point {
	if len(series) < 2 {
		return nil
	}
	lo, hi := series[0], series[0]
	for _, v := range series {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pts := make([]sim.Point, len(series))
	dx := w / float64(len(series)-1)
	for i, v := range series {
		fy := 0.5
		if hi > lo {
			fy = (v - lo) / (hi - lo)
		}
		pts[i] = sim.Point{X: x + float64(i)*dx, Y: y + h - fy*h}
	}
	return pts
}

// control is one adjustable row of the parameter panel.
type control struct {
	name string
	flag bool
}

func controls(ps *sim.Params) []control {
	var out []control
	for _, n := range ps.Names() {
		out = append(out, control{name: n})
	}
	for _, n := range ps.FlagNames() {
		out = append(out, control{name: n, flag: true})
	}
	return out
}

// adjust nudges a parameter by dir steps or flips a flag.
func (c control) adjust(ps *sim.Params, dir float64) {
	if c.flag {
		_ = ps.SetFlag(c.name, !ps.Flag(c.name))
		return
	}
	ps.Nudge(c.name, dir)
}

func (c control) label(ps *sim.Params) string {
	if c.flag {
		v := "off"
		if ps.Flag(c.name) {
			v = "on"
		}
		return fmt.Sprintf("%-16s %s", c.name, v)
	}
	return fmt.Sprintf("%-16s %g", c.name, ps.Float(c.name))
}
