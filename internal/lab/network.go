package lab

import (
	"fmt"
	"math"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

const (
	networkSize    = 600
	ringPadding    = 15
	spreadEvery    = 6 // ticks per simulated day
	networkHistory = 300
)

// EndSaturated is the network bench's end reason.
const EndSaturated = "both networks fully infected"

// link is an undirected edge of a contact graph between node indices.
type link struct {
	source, target int
	rewired        bool
}

// ringLattice joins every node to its k/2 clockwise neighbours.
func ringLattice(n, k int) []link {
	links := make([]link, 0, n*(k/2))
	for i := 0; i < n; i++ {
		for j := 1; j <= k/2; j++ {
			links = append(links, link{source: i, target: (i + j) % n})
		}
	}
	return links
}

// rewire moves each link's target to a random other node with probability p,
// never onto the source or the old target.
func rewire(links []link, n int, p float64, ctx *sim.Context) {
	for i := range links {
		if !ctx.Chance(p) {
			continue
		}
		l := &links[i]
		t := ctx.Rng.Intn(n)
		for t == l.source || t == l.target {
			t = ctx.Rng.Intn(n)
		}
		l.target = t
		l.rewired = true
	}
}

// spread runs one day of contagion over links: every link with one infected
// end rolls rate for the other end. Infections take effect together after
// all links have rolled. It returns the indices newly infected.
func spread(links []link, infected []bool, rate float64, ctx *sim.Context) []int {
	next := make([]bool, len(infected))
	copy(next, infected)
	for _, l := range links {
		s, t := infected[l.source], infected[l.target]
		if s && !t && ctx.Chance(rate) {
			next[l.target] = true
		}
		if t && !s && ctx.Chance(rate) {
			next[l.source] = true
		}
	}
	var fresh []int
	for i := range next {
		if next[i] && !infected[i] {
			fresh = append(fresh, i)
		}
		infected[i] = next[i]
	}
	return fresh
}

func countTrue(v []bool) int {
	n := 0
	for _, b := range v {
		if b {
			n++
		}
	}
	return n
}

// Network is a small-world epidemic: nodes on a ring lattice, some links
// rewired across the ring, one patient zero. The drawn network is rewired
// with the set probability; a regular lattice of the same size runs beside
// it for comparison.
type Network struct {
	base

	links   []link
	nodes   []sim.Handle // particle per node index
	owner   map[sim.Handle]int
	regular []link
	shadow  []bool // infection state of the regular lattice

	built struct {
		n, k int
		p    float64
	}
	day int
}

// NewNetwork returns an unreset network bench.
func NewNetwork() *Network {
	nw := &Network{base: newBase("network")}
	nw.params.Define(sim.ParamSpec{Name: "nodes", Min: 20, Max: 200, Default: 100, Step: 10})
	nw.params.Define(sim.ParamSpec{Name: "neighbours", Min: 2, Max: 10, Default: 4, Step: 2})
	nw.params.Define(sim.ParamSpec{Name: "rewire", Min: 0, Max: 1, Default: 0.05, Step: 0.01})
	nw.params.Define(sim.ParamSpec{Name: "infection", Min: 0, Max: 100, Default: 20, Step: 5})
	return nw
}

func (nw *Network) Reset(seed int64) {
	nw.world = sim.NewWorld(nw.infra(seed, networkSize, networkSize)...)
	nw.build(nw.world)
	nw.world.BeforeTick(nw.rebuild)
	nw.world.AfterMove(nw.contagion)
}

// build lays the nodes out on a circle, wires both graphs and infects node 0
// in each.
func (nw *Network) build(w *sim.World) {
	ctx := w.Ctx()
	n := nw.params.Int("nodes")
	k := nw.params.Int("neighbours")
	p := nw.params.Float("rewire")
	nw.built.n, nw.built.k, nw.built.p = n, k, p
	nw.day = 0

	nw.links = ringLattice(n, k)
	rewire(nw.links, n, p, ctx)
	nw.regular = ringLattice(n, k)
	nw.shadow = make([]bool, n)
	nw.shadow[0] = true

	radius := float64(networkSize/2 - ringPadding)
	nw.nodes = make([]sim.Handle, n)
	nw.owner = make(map[sim.Handle]int, n)
	for i := 0; i < n; i++ {
		angle := float64(i)/float64(n)*2*math.Pi - math.Pi/2
		kind := sim.KindHealthy
		if i == 0 {
			kind = sim.KindInfected
		}
		h, err := w.Spawn(kind, networkSize/2+radius*math.Cos(angle), networkSize/2+radius*math.Sin(angle))
		if err != nil {
			return
		}
		nw.nodes[i] = h
		nw.owner[h] = i
	}
	rewired := 0
	for _, l := range nw.links {
		if l.rewired {
			rewired++
		}
	}
	nw.log.Add(w.TickCount(), sim.NoHandle, "--", "graph", "build", fmt.Sprintf("n=%d k=%d p=%g", n, k, p), float64(rewired))
	w.Recount()
}

// rebuild starts over when the graph shape parameters change.
func (nw *Network) rebuild(w *sim.World) {
	if nw.params.Int("nodes") == nw.built.n && nw.params.Int("neighbours") == nw.built.k && nw.params.Float("rewire") == nw.built.p {
		return
	}
	ps := w.Particles()
	for i := range ps {
		w.Remove(&ps[i], "")
	}
	nw.build(w)
}

// contagion advances both graphs by one day every spreadEvery ticks and
// ends the run once both are saturated.
func (nw *Network) contagion(w *sim.World) {
	if w.TickCount()%spreadEvery != 0 {
		return
	}
	ctx := w.Ctx()
	rate := nw.params.Float("infection") / 100

	infected := make([]bool, len(nw.nodes))
	ps := w.Particles()
	for i := range ps {
		if idx, ok := nw.owner[ps[i].ID]; ok && ps[i].Alive {
			infected[idx] = ps[i].Kind == sim.KindInfected
		}
	}
	fresh := spread(nw.links, infected, rate, ctx)
	spread(nw.regular, nw.shadow, rate, ctx)
	nw.day++

	if len(fresh) > 0 {
		hit := make(map[int]bool, len(fresh))
		for _, i := range fresh {
			hit[i] = true
		}
		for i := range ps {
			p := &ps[i]
			idx, ok := nw.owner[p.ID]
			if !ok || !p.Alive || !hit[idx] {
				continue
			}
			succ := w.Transform(p, sim.KindInfected, "infected")
			delete(nw.owner, p.ID)
			nw.nodes[idx] = succ
			nw.owner[succ] = idx
		}
	}

	n := len(nw.nodes)
	if n > 0 && countTrue(infected) >= n && countTrue(nw.shadow) >= n {
		w.End(EndSaturated)
	}
}

// Day returns the number of contagion rounds since the last build.
func (nw *Network) Day() int { return nw.day }

// Infected returns the infected share of the drawn and the regular network
// in percent.
func (nw *Network) Infected() (small, regular float64) {
	c := nw.world.Census()
	n := len(nw.nodes)
	return pct(c.Count(sim.KindInfected), n), pct(countTrue(nw.shadow), n)
}

func (nw *Network) Channels() []string { return []string{"small_world", "regular"} }

func (nw *Network) Sample() []float64 {
	small, regular := nw.Infected()
	return []float64{small, regular}
}

func (nw *Network) Sampling() sim.Sampling { return sim.Sampling{Every: spreadEvery} }
func (nw *Network) HistoryCap() int        { return networkHistory }

func (nw *Network) Lead() (string, float64, float64) {
	small, _ := nw.Infected()
	return "infected %", small, 100
}

// DrawUnder draws the drawn network's links; rewired shortcuts stand out.
func (nw *Network) DrawUnder(s sim.Surface) {
	pos := make([]sim.Point, len(nw.nodes))
	ps := nw.world.Particles()
	for i := range ps {
		if idx, ok := nw.owner[ps[i].ID]; ok {
			pos[idx] = sim.Point{X: ps[i].X, Y: ps[i].Y}
		}
	}
	for _, l := range nw.links {
		a, b := pos[l.source], pos[l.target]
		c := linkColor
		if l.rewired {
			c = rewiredColor
		}
		s.Line(a.X, a.Y, b.X, b.Y, 1, c)
	}
}

func (nw *Network) DrawOver(s sim.Surface) {
	small, regular := nw.Infected()
	s.Text(fmt.Sprintf("day %d  small world %.0f%%  regular %.0f%%", nw.day, small, regular), 8, 8, labelColor)
	if ended, why := nw.world.Ended(); ended {
		s.Text(why, 8, 24, alertColor)
	}
}
