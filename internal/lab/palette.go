package lab

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

func hex(s string, alpha uint8) color.NRGBA {
	r, g, b := colorful.MustParseHex(s).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}

// shade blends two palette entries in Lab space; t=0 is a, t=1 is b.
func shade(a, b string, t float64, alpha uint8) color.NRGBA {
	c := colorful.MustParseHex(a).BlendLab(colorful.MustParseHex(b), t).Clamped()
	r, g, bl := c.RGB255()
	return color.NRGBA{R: r, G: g, B: bl, A: alpha}
}

// ramp returns n evenly spaced shades from a to b inclusive.
func ramp(a, b string, n int, alpha uint8) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = shade(a, b, t, alpha)
	}
	return out
}

// rampAt picks the ramp entry for t in [0, 1].
func rampAt(r []color.NRGBA, t float64) color.NRGBA {
	i := int(t * float64(len(r)-1))
	if i < 0 {
		i = 0
	}
	if i >= len(r) {
		i = len(r) - 1
	}
	return r[i]
}

var (
	ringColor     = hex("#e74c3c", 28)
	labelColor    = hex("#e2e8f0", 255)
	waterLevel    = hex("#5dade2", 40)
	spaceColor    = hex("#0b1026", 255)
	airColor      = hex("#1e3a5f", 255)
	earthColor    = hex("#3f6212", 255)
	membraneInk   = hex("#ff9f1c", 255)
	grassRamp     = ramp("#064e3b", "#10b981", 8, 255)
	soakRamp      = ramp("#a3e635", "#1e3a8a", 6, 90)
	villageColor  = hex("#334155", 255)
	villageFlood  = hex("#1d4ed8", 255)
	forestColor   = hex("#15803d", 255)
	deforestColor = hex("#a16207", 255)
	naturalColor  = hex("#64748b", 255)
	palmColor     = hex("#9333ea", 255)
	floodWater    = hex("#3b82f6", 128)
	nightShade    = hex("#020617", 128)
	alertColor    = hex("#f87171", 255)
	bridgeGlow    = hex("#ef4444", 70)
	bridgeTether  = hex("#fde047", 200)
	linkColor     = hex("#64748b", 60)
	rewiredColor  = hex("#3b82f6", 110)
	cargoGlow     = hex("#facc15", 90)
)
