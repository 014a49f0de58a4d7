package lab

import (
	"fmt"
	"math"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

const (
	cellFriction     = 0.98
	cellJitter       = 0.15
	cellKick         = 1.5
	antibodyJitter   = 0.2
	antibodyKick     = 2.0
	bindReach        = 12 // antibody centre to cell rim, for the first arm
	secondReach      = 8  // free arm to cell rim, for the second
	armOffset        = 5  // attached antibody sits this far outside the rim
	bridgeGap        = 10 // spring rest length beyond touching rims
	springStrength   = 0.08
	repulsion        = 0.6
	sampleCells      = 6
	sampleSpread     = 60
	plasmaAntibodies = 6
	plasmaSpread     = 100
	reagentDose      = 15
	clumpThreshold   = 2 // bridges above this count as visible agglutination
	glowRadius       = 30
)

// Reagent choices for the initial mix.
const (
	ReagentNone = iota
	ReagentAntiA
	ReagentAntiB
)

var bloodTypes = []sim.Kind{sim.KindCellA, sim.KindCellB, sim.KindCellAB, sim.KindCellO}

var bloodLabels = map[sim.Kind]string{
	sim.KindCellA:  "A",
	sim.KindCellB:  "B",
	sim.KindCellAB: "AB",
	sim.KindCellO:  "O",
}

// plasmaFor lists the antibodies a donor's plasma carries.
func plasmaFor(cell sim.Kind) []sim.Kind {
	switch cell {
	case sim.KindCellA:
		return []sim.Kind{sim.KindAntiB}
	case sim.KindCellB:
		return []sim.Kind{sim.KindAntiA}
	case sim.KindCellO:
		return []sim.Kind{sim.KindAntiA, sim.KindAntiB}
	default:
		return nil
	}
}

// binds reports whether antibody ab recognises an antigen on cell.
func binds(ab, cell sim.Kind) bool {
	switch ab {
	case sim.KindAntiA:
		return cell == sim.KindCellA || cell == sim.KindCellAB
	case sim.KindAntiB:
		return cell == sim.KindCellB || cell == sim.KindCellAB
	default:
		return false
	}
}

func isCell(k sim.Kind) bool {
	return k == sim.KindCellA || k == sim.KindCellB || k == sim.KindCellAB || k == sim.KindCellO
}

func isAntibody(k sim.Kind) bool { return k == sim.KindAntiA || k == sim.KindAntiB }

// bond is an antibody's attachment: one arm on first at angle, and
// optionally the other arm on second, bridging the two cells.
type bond struct {
	first, second sim.Handle
	angle         float64
}

func (b *bond) bridged() bool { return b != nil && b.second != sim.NoHandle }

// Agglutination mixes red cells of the four ABO types with anti-A and anti-B
// antibodies. An antibody that meets a matching cell latches on, and a
// second matching cell within reach of its free arm is pulled in by a
// spring, clumping the cells together.
type Agglutination struct {
	base
	bonds   map[sim.Handle]*bond
	clumped bool
}

// NewAgglutination returns an unreset agglutination bench.
func NewAgglutination() *Agglutination {
	a := &Agglutination{base: newBase("agglutination")}
	a.params.Define(sim.ParamSpec{Name: "donor", Min: 0, Max: 3, Default: 0, Step: 1})
	a.params.Define(sim.ParamSpec{Name: "samples", Min: 0, Max: 6, Default: 2, Step: 1})
	a.params.Define(sim.ParamSpec{Name: "reagent", Min: ReagentNone, Max: ReagentAntiB, Default: ReagentAntiA, Step: 1})
	a.params.DefineFlag("plasma", true)
	return a
}

func kickInit(kick float64) func(p *sim.Particle, ctx *sim.Context) {
	return func(p *sim.Particle, ctx *sim.Context) {
		p.VX = (ctx.Rng.Float64() - 0.5) * kick
		p.VY = (ctx.Rng.Float64() - 0.5) * kick
	}
}

func (a *Agglutination) Reset(seed int64) {
	a.bonds = map[sim.Handle]*bond{}
	a.clumped = false

	cellRule := sim.Rule{Move: sim.Damped(cellFriction, cellJitter), Edges: sim.Reflecting(), Init: kickInit(cellKick)}
	abRule := sim.Rule{Move: a.antibodyMove(sim.Damped(cellFriction, antibodyJitter)), Edges: sim.Reflecting(), Init: kickInit(antibodyKick)}
	opts := a.infra(seed, benchWidth, benchHeight)
	for _, k := range bloodTypes {
		opts = append(opts, sim.WithRule(k, cellRule))
	}
	opts = append(opts,
		sim.WithRule(sim.KindAntiA, abRule),
		sim.WithRule(sim.KindAntiB, abRule),
	)
	a.world = sim.NewWorld(opts...)
	w := a.world

	donor := bloodTypes[a.params.Int("donor")]
	for i := 0; i < a.params.Int("samples"); i++ {
		a.AddSample(donor)
	}
	switch a.params.Int("reagent") {
	case ReagentAntiA:
		a.AddReagent(sim.KindAntiA)
	case ReagentAntiB:
		a.AddReagent(sim.KindAntiB)
	}

	w.BeforeTick(a.react)
	w.AfterMove(a.anchor)
	w.Recount()
}

// antibodyMove leaves attached antibodies to anchor and moves free ones.
func (a *Agglutination) antibodyMove(free sim.MoveFunc) sim.MoveFunc {
	return func(p *sim.Particle, ctx *sim.Context) {
		if _, ok := a.bonds[p.ID]; ok {
			return
		}
		free(p, ctx)
	}
}

// AddSample drops a blood sample of the given type near the middle of the
// slide: six cells and, with plasma on, the donor's antibodies.
func (a *Agglutination) AddSample(cell sim.Kind) {
	w := a.world
	ctx := w.Ctx()
	cx := benchWidth/2 + (ctx.Rng.Float64()-0.5)*benchWidth*0.4
	cy := benchHeight/2 + (ctx.Rng.Float64()-0.5)*benchHeight*0.4
	for i := 0; i < sampleCells; i++ {
		x := cx + (ctx.Rng.Float64()-0.5)*sampleSpread
		y := cy + (ctx.Rng.Float64()-0.5)*sampleSpread
		if _, err := w.Spawn(cell, x, y); err != nil {
			return
		}
	}
	plasma := ""
	if a.params.Flag("plasma") {
		for _, ab := range plasmaFor(cell) {
			for i := 0; i < plasmaAntibodies; i++ {
				x := cx + (ctx.Rng.Float64()-0.5)*plasmaSpread
				y := cy + (ctx.Rng.Float64()-0.5)*plasmaSpread
				if _, err := w.Spawn(ab, x, y); err != nil {
					return
				}
			}
		}
		plasma = "plasma"
	}
	a.log.Add(w.TickCount(), sim.NoHandle, cell.String(), "action", "sample", plasma, sampleCells)
}

// AddReagent scatters a dose of one antibody over the whole slide.
func (a *Agglutination) AddReagent(ab sim.Kind) {
	w := a.world
	ctx := w.Ctx()
	for i := 0; i < reagentDose; i++ {
		if _, err := w.Spawn(ab, ctx.Uniform(0, benchWidth), ctx.Uniform(0, benchHeight)); err != nil {
			return
		}
	}
	a.log.Add(w.TickCount(), sim.NoHandle, ab.String(), "action", "reagent", ab.String(), reagentDose)
}

func (a *Agglutination) Actions() []string {
	return []string{"anti-a", "anti-b", "sample-a", "sample-b", "sample-ab", "sample-o"}
}

func (a *Agglutination) Do(action string) error {
	switch action {
	case "anti-a":
		a.AddReagent(sim.KindAntiA)
	case "anti-b":
		a.AddReagent(sim.KindAntiB)
	case "sample-a":
		a.AddSample(sim.KindCellA)
	case "sample-b":
		a.AddSample(sim.KindCellB)
	case "sample-ab":
		a.AddSample(sim.KindCellAB)
	case "sample-o":
		a.AddSample(sim.KindCellO)
	default:
		return ErrUnknownAction
	}
	return nil
}

// armPoint is where an antibody attached to cell at angle sits.
func armPoint(cell *sim.Particle, angle float64) (float64, float64) {
	r := cell.Radius + armOffset
	return cell.X + math.Cos(angle)*r, cell.Y + math.Sin(angle)*r
}

func (a *Agglutination) index(w *sim.World) (cells []*sim.Particle, byID map[sim.Handle]*sim.Particle) {
	ps := w.Particles()
	byID = make(map[sim.Handle]*sim.Particle, len(ps))
	for i := range ps {
		p := &ps[i]
		if !p.Alive {
			continue
		}
		byID[p.ID] = p
		if isCell(p.Kind) {
			cells = append(cells, p)
		}
	}
	return cells, byID
}

// react binds antibodies, pulls bridged cells toward the spring length and
// pushes overlapping cells apart, all through velocities.
func (a *Agglutination) react(w *sim.World) {
	cells, byID := a.index(w)
	ps := w.Particles()

	for i := range ps {
		ab := &ps[i]
		if !ab.Alive || !isAntibody(ab.Kind) {
			continue
		}
		b := a.bonds[ab.ID]
		if b.bridged() {
			continue
		}
		for _, c := range cells {
			if b != nil && b.first == c.ID {
				continue
			}
			if !binds(ab.Kind, c.Kind) {
				continue
			}
			if b == nil {
				if math.Hypot(ab.X-c.X, ab.Y-c.Y) < c.Radius+bindReach {
					b = &bond{first: c.ID, second: sim.NoHandle, angle: math.Atan2(ab.Y-c.Y, ab.X-c.X)}
					a.bonds[ab.ID] = b
					a.log.AddVerbose(w.TickCount(), ab.ID, ab.Kind.String(), "bind", "attach", c.Kind.String(), float64(c.ID))
				}
				continue
			}
			first, ok := byID[b.first]
			if !ok {
				break
			}
			x, y := armPoint(first, b.angle)
			if math.Hypot(x-c.X, y-c.Y) < c.Radius+secondReach {
				b.second = c.ID
				a.log.AddVerbose(w.TickCount(), ab.ID, ab.Kind.String(), "bind", "bridge", c.Kind.String(), float64(c.ID))
				break
			}
		}
	}

	bridges := 0
	for i := range ps {
		ab := &ps[i]
		b := a.bonds[ab.ID]
		if !ab.Alive || !b.bridged() {
			continue
		}
		bridges++
		c1, ok1 := byID[b.first]
		c2, ok2 := byID[b.second]
		if !ok1 || !ok2 {
			continue
		}
		dx, dy := c2.X-c1.X, c2.Y-c1.Y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			continue
		}
		force := (dist - (c1.Radius + c2.Radius + bridgeGap)) * springStrength
		fx, fy := dx/dist*force, dy/dist*force
		c1.VX += fx
		c1.VY += fy
		c2.VX -= fx
		c2.VY -= fy
	}

	for i := 0; i < len(cells); i++ {
		for j := i + 1; j < len(cells); j++ {
			c1, c2 := cells[i], cells[j]
			dx, dy := c2.X-c1.X, c2.Y-c1.Y
			dist := math.Hypot(dx, dy)
			minDist := c1.Radius + c2.Radius
			if dist >= minDist || dist == 0 {
				continue
			}
			force := (minDist - dist) * repulsion
			fx, fy := dx/dist*force, dy/dist*force
			c1.VX -= fx
			c1.VY -= fy
			c2.VX += fx
			c2.VY += fy
		}
	}

	if clumped := bridges > clumpThreshold; clumped != a.clumped {
		a.clumped = clumped
		a.log.Add(w.TickCount(), sim.NoHandle, "--", "reaction", "agglutination", fmt.Sprintf("%t", clumped), float64(bridges))
	}
}

// anchor moves attached antibodies onto their cells after everyone moved:
// on the rim for one arm, midway between the cells for a bridge.
func (a *Agglutination) anchor(w *sim.World) {
	_, byID := a.index(w)
	ps := w.Particles()
	for i := range ps {
		ab := &ps[i]
		b, ok := a.bonds[ab.ID]
		if !ab.Alive || !ok {
			continue
		}
		first, ok := byID[b.first]
		if !ok {
			continue
		}
		ab.VX, ab.VY = 0, 0
		if second, ok := byID[b.second]; ok {
			ab.X, ab.Y = (first.X+second.X)/2, (first.Y+second.Y)/2
			continue
		}
		ab.X, ab.Y = armPoint(first, b.angle)
	}
}

// Counts returns bridged, singly attached and free antibodies, and the
// number of cells held by at least one bridge.
func (a *Agglutination) Counts() (bridged, attached, free, clumpedCells int) {
	held := map[sim.Handle]bool{}
	ps := a.world.Particles()
	for i := range ps {
		p := &ps[i]
		if !p.Alive || !isAntibody(p.Kind) {
			continue
		}
		b, ok := a.bonds[p.ID]
		switch {
		case !ok:
			free++
		case b.bridged():
			bridged++
			held[b.first], held[b.second] = true, true
		default:
			attached++
		}
	}
	return bridged, attached, free, len(held)
}

// Clumped reports whether enough bridges have formed to call the sample
// agglutinated.
func (a *Agglutination) Clumped() bool { return a.clumped }

// Bond returns the attachment of antibody h.
func (a *Agglutination) Bond(h sim.Handle) (first, second sim.Handle, ok bool) {
	b, ok := a.bonds[h]
	if !ok {
		return sim.NoHandle, sim.NoHandle, false
	}
	return b.first, b.second, true
}

func (a *Agglutination) Channels() []string {
	return []string{"bridges", "attached", "free", "clumped_cells"}
}

func (a *Agglutination) Sample() []float64 {
	bridged, attached, free, cells := a.Counts()
	total := 0
	for _, k := range bloodTypes {
		total += a.world.Count(k)
	}
	return []float64{float64(bridged), float64(attached), float64(free), pct(cells, total)}
}

func (a *Agglutination) Sampling() sim.Sampling { return sim.Sampling{Every: 5} }
func (a *Agglutination) HistoryCap() int        { return 300 }

func (a *Agglutination) Lead() (string, float64, float64) {
	bridged, attached, free, _ := a.Counts()
	return "bridges", float64(bridged), math.Max(1, float64(bridged+attached+free))
}

// DrawUnder paints a glow and a tether under every bridge.
func (a *Agglutination) DrawUnder(s sim.Surface) {
	_, byID := a.index(a.world)
	ps := a.world.Particles()
	for i := range ps {
		b := a.bonds[ps[i].ID]
		if !ps[i].Alive || !b.bridged() {
			continue
		}
		c1, ok1 := byID[b.first]
		c2, ok2 := byID[b.second]
		if !ok1 || !ok2 {
			continue
		}
		s.Circle((c1.X+c2.X)/2, (c1.Y+c2.Y)/2, glowRadius, bridgeGlow)
		s.Line(c1.X, c1.Y, c2.X, c2.Y, 4, bridgeTether)
	}
}

// DrawOver labels each cell with its blood type.
func (a *Agglutination) DrawOver(s sim.Surface) {
	ps := a.world.Particles()
	for i := range ps {
		p := &ps[i]
		if !p.Alive || !isCell(p.Kind) {
			continue
		}
		label := bloodLabels[p.Kind]
		s.Text(label, p.X-3.5*float64(len(label)), p.Y-6, labelColor)
	}
	if a.clumped {
		s.Text("AGGLUTINATION", 8, 8, alertColor)
	}
}
