package lab

import (
	"image/color"
	"math"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

// Land is the cover type of one terrain cell.
type Land uint8

const (
	LandForest Land = iota
	LandDeforested
	LandNatural
	LandVillage
	LandPalm
)

func (l Land) String() string {
	switch l {
	case LandForest:
		return "forest"
	case LandDeforested:
		return "deforested"
	case LandNatural:
		return "natural"
	case LandVillage:
		return "village"
	case LandPalm:
		return "palm"
	default:
		return "unknown"
	}
}

// landPhysics is how one cover type treats rain.
type landPhysics struct {
	absorb  float64 // chance per tick a drop soaks in, before saturation
	speed   float64 // rows per tick a drop runs over this cover
	satGain float64 // saturation added per absorbed drop
	dry     float64 // saturation lost per tick before the evaporation factor
	evap    bool    // drying scales with day/night evaporation
}

var physics = [...]landPhysics{
	LandForest:     {absorb: 0.15, speed: 0.4, satGain: 0.05, dry: 0.003, evap: true},
	LandDeforested: {absorb: 0.002, speed: 1.5, satGain: 0.2, dry: 0.0005},
	LandNatural:    {absorb: 0.02, speed: 0.8, satGain: 0.05, dry: 0.0005},
	LandVillage:    {absorb: 0.01, speed: 1.0, satGain: 0.05, dry: 0.0005},
	LandPalm:       {absorb: 0.025, speed: 1.1, satGain: 0.15, dry: 0.001, evap: true},
}

const (
	dayEvap   = 2.5
	nightEvap = 0.5

	villageHit      = 10
	floodedLevel    = 1000
	floodLevelScale = 2000
)

// Cell is one terrain square.
type Cell struct {
	Land       Land
	Saturation float64
}

// Terrain is a grid of land cells rain falls through. The bottom rows are
// the village: a drop that reaches them raises the flood level.
type Terrain struct {
	Cols, Rows  int
	Size        float64
	VillageRows int
	Cells       []Cell

	Level   float64
	Hits    int
	Soaked  int
	Daytime bool
}

// NewTerrain returns an all-forest grid with the village rows set.
func NewTerrain(cols, rows, villageRows int, size float64) *Terrain {
	t := &Terrain{Cols: cols, Rows: rows, Size: size, VillageRows: villageRows, Daytime: true}
	t.Cells = make([]Cell, cols*rows)
	for y := rows - villageRows; y < rows; y++ {
		for x := 0; x < cols; x++ {
			t.Cells[y*cols+x].Land = LandVillage
		}
	}
	return t
}

// At returns the cell at column x, row y.
func (t *Terrain) At(x, y int) *Cell { return &t.Cells[y*t.Cols+x] }

// LandRows is the number of rows above the village.
func (t *Terrain) LandRows() int { return t.Rows - t.VillageRows }

func (t *Terrain) cellOf(p *sim.Particle) (int, int) {
	col := int(math.Floor(p.X / t.Size))
	row := int(math.Floor(p.Y / t.Size))
	if col < 0 {
		col = 0
	}
	if col >= t.Cols {
		col = t.Cols - 1
	}
	return col, row
}

// Interact moves rain through the grid: it reaches the village, soaks into
// the cell under it, or keeps running at that cover's speed.
func (t *Terrain) Interact(p *sim.Particle, ctx *sim.Context) sim.Interaction {
	if p.Kind != sim.KindRain {
		return sim.Interaction{}
	}
	col, row := t.cellOf(p)
	if row >= t.LandRows() {
		t.Level += villageHit
		t.Hits++
		return sim.Interaction{Outcome: sim.OutcomeAbsorb, Note: "reached village"}
	}
	if row < 0 {
		return sim.Interaction{}
	}
	c := t.At(col, row)
	ph := physics[c.Land]
	if ctx.Chance(ph.absorb * (1 - c.Saturation)) {
		c.Saturation = math.Min(1, c.Saturation+ph.satGain)
		t.Soaked++
		return sim.Interaction{Outcome: sim.OutcomeAbsorb, Note: "soaked into " + c.Land.String()}
	}
	p.VY = ph.speed * t.Size
	return sim.Interaction{}
}

// Dry evaporates saturation from every land cell and returns the mean
// saturation before drying, as a fraction.
func (t *Terrain) Dry() float64 {
	evap := nightEvap
	if t.Daytime {
		evap = dayEvap
	}
	total := 0.0
	n := t.LandRows() * t.Cols
	for i := 0; i < n; i++ {
		c := &t.Cells[i]
		total += c.Saturation
		ph := physics[c.Land]
		d := ph.dry
		if ph.evap {
			d *= evap
		}
		c.Saturation = math.Max(0, c.Saturation-d)
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Drain lowers the flood level by 2 plus 1 % of itself.
func (t *Terrain) Drain() {
	if t.Level <= 0 {
		return
	}
	t.Level = math.Max(0, t.Level-(2+0.01*t.Level))
}

// Flooded reports whether the village is under water.
func (t *Terrain) Flooded() bool { return t.Level > floodedLevel }

// Cover counts land cells by type above the village.
func (t *Terrain) Cover() (counts [len(physics)]int, total int) {
	n := t.LandRows() * t.Cols
	for i := 0; i < n; i++ {
		counts[t.Cells[i].Land]++
	}
	return counts, n
}

func (t *Terrain) Draw(s sim.Surface) {
	for i, c := range t.Cells {
		x := float64(i%t.Cols) * t.Size
		y := float64(i/t.Cols) * t.Size
		s.Rect(x, y, t.Size, t.Size, t.landColor(c.Land))
		if c.Land != LandVillage && c.Saturation > 0.1 {
			s.Rect(x, y, t.Size, t.Size, rampAt(soakRamp, c.Saturation))
		}
	}
	if t.Level > 50 {
		village := float64(t.VillageRows) * t.Size
		h := math.Min(t.Level/floodLevelScale*village, village)
		top := float64(t.Rows) * t.Size
		s.Rect(0, top-h, float64(t.Cols)*t.Size, h, floodWater)
	}
}

func (t *Terrain) landColor(l Land) color.NRGBA {
	switch l {
	case LandForest:
		return forestColor
	case LandDeforested:
		return deforestColor
	case LandNatural:
		return naturalColor
	case LandVillage:
		if t.Flooded() {
			return villageFlood
		}
		return villageColor
	case LandPalm:
		return palmColor
	default:
		return naturalColor
	}
}
