// Package render hosts the bench scenarios in an ebiten window.
package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

// fontAscent moves Text's top-left anchor onto the face's baseline.
const fontAscent = 11

// Canvas is a sim.Surface backed by an offscreen ebiten image the size of
// the world.
type Canvas struct {
	img        *ebiten.Image
	background color.RGBA
}

// NewCanvas allocates a w×h canvas.
func NewCanvas(w, h int, background color.RGBA) *Canvas {
	return &Canvas{img: ebiten.NewImage(w, h), background: background}
}

// Image returns the backing image.
func (c *Canvas) Image() *ebiten.Image { return c.img }

// Size returns the canvas extent in pixels.
func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

func (c *Canvas) Clear() {
	c.img.Fill(c.background)
}

func (c *Canvas) Circle(x, y, r float64, col color.Color) {
	vector.FillCircle(c.img, float32(x), float32(y), float32(r), col, true)
}

func (c *Canvas) Line(x1, y1, x2, y2, width float64, col color.Color) {
	vector.StrokeLine(c.img, float32(x1), float32(y1), float32(x2), float32(y2), float32(width), col, true)
}

func (c *Canvas) Rect(x, y, w, h float64, col color.Color) {
	vector.FillRect(c.img, float32(x), float32(y), float32(w), float32(h), col, false)
}

// Path fills the closed polygon through pts.
func (c *Canvas) Path(pts []sim.Point, col color.Color) {
	if len(pts) < 3 {
		return
	}
	var path vector.Path
	path.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		path.LineTo(float32(p.X), float32(p.Y))
	}
	path.Close()
	op := &vector.DrawPathOptions{AntiAlias: true}
	op.ColorScale.ScaleWithColor(col)
	vector.FillPath(c.img, &path, &vector.FillOptions{}, op)
}

func (c *Canvas) Text(s string, x, y float64, col color.Color) {
	text.Draw(c.img, s, basicfont.Face7x13, int(x), int(y)+fontAscent, col)
}
