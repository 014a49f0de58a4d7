package sim

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Kind is the closed category of a particle. It decides which motion rule,
// edge policy and barrier behaviour apply, and how the particle is drawn.
type Kind uint8

const (
	KindWater Kind = iota
	KindSugar
	KindSolute
	KindOxygen
	KindGlucose
	KindSodium
	KindPotassium
	KindRay
	KindHeat
	KindInfrared
	KindRain
	KindSheep
	KindWolf
	KindCellA
	KindCellB
	KindCellAB
	KindCellO
	KindAntiA
	KindAntiB
	KindHealthy
	KindInfected
	kindCount
)

// KindCount is the number of particle kinds.
const KindCount = int(kindCount)

func (k Kind) String() string {
	switch k {
	case KindWater:
		return "water"
	case KindSugar:
		return "sugar"
	case KindSolute:
		return "solute"
	case KindOxygen:
		return "oxygen"
	case KindGlucose:
		return "glucose"
	case KindSodium:
		return "sodium"
	case KindPotassium:
		return "potassium"
	case KindRay:
		return "ray"
	case KindHeat:
		return "heat"
	case KindInfrared:
		return "infrared"
	case KindRain:
		return "rain"
	case KindSheep:
		return "sheep"
	case KindWolf:
		return "wolf"
	case KindCellA:
		return "cell_a"
	case KindCellB:
		return "cell_b"
	case KindCellAB:
		return "cell_ab"
	case KindCellO:
		return "cell_o"
	case KindAntiA:
		return "anti_a"
	case KindAntiB:
		return "anti_b"
	case KindHealthy:
		return "healthy"
	case KindInfected:
		return "infected"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k < kindCount }

// KindSpec is the static per-kind data.
type KindSpec struct {
	Radius   float64
	Softness float64 // share of an overlap this kind absorbs, relative to the other
	Color    colorful.Color
}

var kindSpecs = [kindCount]KindSpec{
	KindWater:     {Radius: 3, Softness: 1, Color: colorful.MustParseHex("#5dade2")},
	KindSugar:     {Radius: 10, Softness: 1, Color: colorful.MustParseHex("#f1c40f")},
	KindSolute:    {Radius: 4, Softness: 1, Color: colorful.MustParseHex("#e74c3c")},
	KindOxygen:    {Radius: 4, Softness: 1, Color: colorful.MustParseHex("#4cc9f0")},
	KindGlucose:   {Radius: 8, Softness: 1, Color: colorful.MustParseHex("#ffbd2e")},
	KindSodium:    {Radius: 5, Softness: 1, Color: colorful.MustParseHex("#70e000")},
	KindPotassium: {Radius: 5, Softness: 1, Color: colorful.MustParseHex("#7209b7")},
	KindRay:       {Radius: 2, Softness: 1, Color: colorful.MustParseHex("#facc15")},
	KindHeat:      {Radius: 3, Softness: 1, Color: colorful.MustParseHex("#ef4444")},
	KindInfrared:  {Radius: 2, Softness: 1, Color: colorful.MustParseHex("#f97316")},
	KindRain:      {Radius: 2, Softness: 1, Color: colorful.MustParseHex("#60a5fa")},
	KindSheep:     {Radius: 3, Softness: 1, Color: colorful.MustParseHex("#38bdf8")},
	KindWolf:      {Radius: 4, Softness: 1, Color: colorful.MustParseHex("#f43f5e")},
	KindCellA:     {Radius: 15, Softness: 1, Color: colorful.MustParseHex("#d32f2f")},
	KindCellB:     {Radius: 15, Softness: 1, Color: colorful.MustParseHex("#d32f2f")},
	KindCellAB:    {Radius: 15, Softness: 1, Color: colorful.MustParseHex("#8e24aa")},
	KindCellO:     {Radius: 15, Softness: 1, Color: colorful.MustParseHex("#d32f2f")},
	KindAntiA:     {Radius: 4, Softness: 1, Color: colorful.MustParseHex("#fbc02d")},
	KindAntiB:     {Radius: 4, Softness: 1, Color: colorful.MustParseHex("#1e88e5")},
	KindHealthy:   {Radius: 4, Softness: 1, Color: colorful.MustParseHex("#64748b")},
	KindInfected:  {Radius: 6, Softness: 1, Color: colorful.MustParseHex("#ef4444")},
}

// Spec returns the static data for k. Unknown kinds get a zero spec.
func (k Kind) Spec() KindSpec {
	if !k.Valid() {
		return KindSpec{}
	}
	return kindSpecs[k]
}

// RGBA returns the kind colour as a concrete color.RGBA.
func (k Kind) RGBA() color.RGBA {
	r, g, b := k.Spec().Color.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// highlight blends the kind colour toward white for the tracked-particle reticle.
func (k Kind) highlight() color.RGBA {
	c := k.Spec().Color.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.45)
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
