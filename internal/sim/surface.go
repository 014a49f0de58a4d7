package sim

import (
	"fmt"
	"image/color"
)

// Point is a canvas coordinate.
type Point struct {
	X, Y float64
}

// Surface is the drawing contract the engine renders into. Coordinates are
// canvas pixels. The engine holds no surface state between frames.
type Surface interface {
	Clear()
	Circle(x, y, r float64, c color.Color)
	Line(x1, y1, x2, y2, width float64, c color.Color)
	Rect(x, y, w, h float64, c color.Color)
	Path(pts []Point, c color.Color) // filled, closed polygon
	Text(s string, x, y float64, c color.Color)
}

// DrawCall is one recorded Surface call.
type DrawCall struct {
	Op    string // clear, circle, line, rect, path, text
	X, Y  float64
	W, H  float64 // line end point for "line", radius in W for "circle"
	Text  string
	Color color.RGBA
}

func (d DrawCall) String() string {
	return fmt.Sprintf("%s(%.1f,%.1f,%.1f,%.1f)%s", d.Op, d.X, d.Y, d.W, d.H, d.Text)
}

// Recorder is an in-memory Surface. Headless runs use it as a sink and tests
// inspect the recorded calls.
type Recorder struct {
	Calls  []DrawCall
	Frames int
}

func toRGBA(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func (r *Recorder) Clear() {
	r.Calls = r.Calls[:0]
	r.Frames++
}

func (r *Recorder) Circle(x, y, rad float64, c color.Color) {
	r.Calls = append(r.Calls, DrawCall{Op: "circle", X: x, Y: y, W: rad, Color: toRGBA(c)})
}

func (r *Recorder) Line(x1, y1, x2, y2, width float64, c color.Color) {
	r.Calls = append(r.Calls, DrawCall{Op: "line", X: x1, Y: y1, W: x2, H: y2, Color: toRGBA(c)})
}

func (r *Recorder) Rect(x, y, w, h float64, c color.Color) {
	r.Calls = append(r.Calls, DrawCall{Op: "rect", X: x, Y: y, W: w, H: h, Color: toRGBA(c)})
}

func (r *Recorder) Path(pts []Point, c color.Color) {
	if len(pts) == 0 {
		return
	}
	r.Calls = append(r.Calls, DrawCall{Op: "path", X: pts[0].X, Y: pts[0].Y, W: float64(len(pts)), Color: toRGBA(c)})
}

func (r *Recorder) Text(s string, x, y float64, c color.Color) {
	r.Calls = append(r.Calls, DrawCall{Op: "text", X: x, Y: y, Text: s, Color: toRGBA(c)})
}

// Count returns how many recorded calls have the given op.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}
