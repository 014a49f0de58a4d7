package render

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Particle-Bench/internal/config"
	"github.com/Garsondee/Particle-Bench/internal/lab"
	"github.com/Garsondee/Particle-Bench/internal/sim"
)

const (
	// borderWidth is the pixel gap between the window edge and the scene.
	borderWidth = 16
	// panelWidth is the HUD column to the right of the scene.
	panelWidth = 320
	sceneW     = 900
	sceneH     = 700
	lineH      = 14
	sparkH     = 60
)

var (
	windowColor = color.RGBA{R: 12, G: 14, B: 18, A: 255}
	sceneColor  = color.RGBA{R: 8, G: 10, B: 14, A: 255}
	frameColor  = color.RGBA{R: 60, G: 80, B: 110, A: 255}
	panelColor  = color.RGBA{R: 6, G: 8, B: 12, A: 210}
	gaugeColor  = color.RGBA{R: 250, G: 176, B: 5, A: 255}
	sparkColor  = color.RGBA{R: 93, G: 173, B: 226, A: 255}
	sparkFill   = color.NRGBA{R: 93, G: 173, B: 226, A: 60}
	selectColor = color.RGBA{R: 40, G: 70, B: 110, A: 200}
)

// Options configures a Viewer. Preset, when set, is applied to every
// scenario of the same name the viewer builds.
type Options struct {
	Scenario string
	Seed     int64
	Preset   *config.BenchWrapper
}

// Viewer is an ebiten.Game that drives one scenario at a time.
type Viewer struct {
	width  int
	height int
	opts   Options

	scenario lab.Scenario
	loop     *sim.Loop
	canvas   *Canvas
	panel    *Canvas
	seed     int64

	rows      []control
	selected  int
	gauge     gauge
	status    string
	showHUD   bool
	endLogged bool
	prevKeys  map[ebiten.Key]bool

	simSpeed  float64 // 0=paused, 0.5, 1, 2, 4
	tickAccum float64 // fractional tick accumulator for sub-1x speeds
}

// NewViewer builds the first scenario and starts its loop.
func NewViewer(opts Options) (*Viewer, error) {
	v := &Viewer{
		width:    borderWidth + sceneW + borderWidth + panelWidth,
		height:   borderWidth + sceneH + borderWidth,
		opts:     opts,
		seed:     opts.Seed,
		gauge:    newGauge(ebiten.DefaultTPS),
		showHUD:  true,
		prevKeys: make(map[ebiten.Key]bool),
		simSpeed: 1,
	}
	v.panel = NewCanvas(panelWidth, sceneH, panelColor)
	if err := v.load(opts.Scenario); err != nil {
		return nil, err
	}
	return v, nil
}

// Size returns the window size the viewer lays out for.
func (v *Viewer) Size() (int, int) { return v.width, v.height }

// load swaps in the named scenario, applying the preset when it targets
// that scenario.
func (v *Viewer) load(name string) error {
	sc, err := lab.New(name, v.seed)
	if err != nil {
		return err
	}
	if p := v.opts.Preset; p != nil && p.Bench.Scenario == sc.Name() {
		if err := p.Apply(sc.Params()); err != nil {
			return fmt.Errorf("preset for %s: %w", sc.Name(), err)
		}
		sc.Reset(v.seed)
	}
	v.scenario = sc
	v.loop = sim.NewLoop(sc)
	v.loop.Start()
	b := sc.World().Bounds()
	v.canvas = NewCanvas(int(b.W), int(b.H), sceneColor)
	v.rows = controls(sc.Params())
	v.selected = 0
	v.tickAccum = 0
	v.endLogged = false
	v.gauge.reset()
	v.loop.Render(v.canvas)
	ebiten.SetWindowTitle("Particle Bench: " + sc.Name())
	return nil
}

func (v *Viewer) Update() error {
	v.handleInput()

	stepped := false
	if v.simSpeed > 0 {
		// For speeds > 1 run multiple ticks per frame.
		// For speeds < 1 accumulate fractions.
		v.tickAccum += v.simSpeed
		for v.tickAccum >= 1.0 {
			v.tickAccum -= 1.0
			if v.loop.Step(v.canvas) {
				stepped = true
			}
		}
	}
	if !stepped {
		v.loop.Render(v.canvas)
	}
	if ended, why := v.scenario.World().Ended(); ended && !v.endLogged {
		v.endLogged = true
		log.Printf("%s ended at T=%d: %s", v.scenario.Name(), v.scenario.World().TickCount(), why)
	}
	return nil
}

// handleInput processes keypresses (edge-triggered).
func (v *Viewer) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !v.prevKeys[k]
	}
	defer func() { v.prevKeys = currentKeys }()

	// P: pause/resume.
	if pressed(ebiten.KeyP) {
		if v.simSpeed > 0 {
			v.simSpeed = 0
		} else {
			v.simSpeed = 1
		}
	}
	if pressed(ebiten.KeyComma) {
		v.simSpeed = slower(v.simSpeed)
	}
	if pressed(ebiten.KeyPeriod) {
		v.simSpeed = faster(v.simSpeed)
	}

	// R: rebuild with the next seed.
	if pressed(ebiten.KeyR) {
		v.seed++
		v.loop.Reset(v.seed)
		v.loop.Start()
		v.gauge.reset()
		v.endLogged = false
		v.status = fmt.Sprintf("reset seed=%d", v.seed)
	}

	// Tab: next scenario.
	if pressed(ebiten.KeyTab) {
		next := lab.Next(v.scenario.Name())
		if err := v.load(next); err != nil {
			v.status = err.Error()
		} else {
			v.status = ""
		}
		return
	}

	if len(v.rows) > 0 {
		if pressed(ebiten.KeyArrowUp) {
			v.selected = (v.selected - 1 + len(v.rows)) % len(v.rows)
		}
		if pressed(ebiten.KeyArrowDown) {
			v.selected = (v.selected + 1) % len(v.rows)
		}
		if pressed(ebiten.KeyArrowLeft) {
			v.rows[v.selected].adjust(v.scenario.Params(), -1)
		}
		if pressed(ebiten.KeyArrowRight) {
			v.rows[v.selected].adjust(v.scenario.Params(), 1)
		}
	}

	// F: follow a particle, where the scenario tracks one.
	if pressed(ebiten.KeyF) && v.scenario.Params().Has("follow") {
		ps := v.scenario.Params()
		_ = ps.SetFlag("follow", !ps.Flag("follow"))
	}

	// I: the scenario's first one-shot action (drop ink, add ATP).
	if pressed(ebiten.KeyI) {
		if a, ok := v.scenario.(lab.Actor); ok && len(a.Actions()) > 0 {
			if err := a.Do(a.Actions()[0]); err != nil {
				v.status = err.Error()
			} else {
				v.status = a.Actions()[0]
			}
		}
	}

	// C: copy the summary to the clipboard.
	if pressed(ebiten.KeyC) {
		if err := clipboard.WriteAll(lab.Summary(v.scenario)); err != nil {
			v.status = "clipboard: " + err.Error()
		} else {
			v.status = "summary copied"
		}
	}

	// H: toggle the HUD.
	if pressed(ebiten.KeyH) {
		v.showHUD = !v.showHUD
	}
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(windowColor)

	// Fit the world image into the scene area, preserving aspect.
	cw, ch := v.canvas.Size()
	scale := math.Min(float64(sceneW)/float64(cw), float64(sceneH)/float64(ch))
	var blit ebiten.DrawImageOptions
	blit.GeoM.Scale(scale, scale)
	blit.GeoM.Translate(borderWidth, borderWidth)
	blit.Filter = ebiten.FilterLinear
	screen.DrawImage(v.canvas.Image(), &blit)

	ox, oy := float32(borderWidth), float32(borderWidth)
	vector.StrokeRect(screen, ox-1, oy-1, float32(float64(cw)*scale)+2, float32(float64(ch)*scale)+2, 2.0, frameColor, false)

	if v.showHUD {
		v.drawPanel()
		var op ebiten.DrawImageOptions
		op.GeoM.Translate(float64(borderWidth+sceneW+borderWidth), borderWidth)
		screen.DrawImage(v.panel.Image(), &op)
	}
}

// drawPanel renders the HUD column: run state, lead gauge, sparkline of the
// first history channel, parameter rows and key help.
func (v *Viewer) drawPanel() {
	p := v.panel
	p.Clear()
	w := v.scenario.World()
	y := 6.0
	line := func(s string, c color.Color) {
		p.Text(s, 8, y, c)
		y += lineH
	}

	line(fmt.Sprintf("%s  seed=%d", strings.ToUpper(v.scenario.Name()), w.Seed()), color.White)
	line(fmt.Sprintf("T=%d  n=%d  SIM %s", w.TickCount(), w.Census().Total, speedLabel(v.simSpeed)), color.White)
	if st := w.TrackState(); st != "" {
		line("tracking: "+st, sparkColor)
	}
	if ended, why := w.Ended(); ended {
		line("ended: "+why, gaugeColor)
	}
	y += 4

	if l, ok := v.scenario.(lab.Lead); ok {
		label, value, max := l.Lead()
		fill := v.gauge.update(value, max)
		line(fmt.Sprintf("%s %.2f", label, value), gaugeColor)
		p.Rect(8, y, panelWidth-16, 10, frameColor)
		p.Rect(8, y, (panelWidth-16)*fill, 10, gaugeColor)
		y += 18
	}

	h := v.loop.History()
	if chs := h.Channels(); len(chs) > 0 {
		line("history: "+chs[0], sparkColor)
		p.Line(8, y+sparkH, panelWidth-8, y+sparkH, 1, frameColor)
		pts := sparkline(h.Series(chs[0]), 8, y, panelWidth-16, sparkH)
		if len(pts) > 1 {
			area := append(pts[:len(pts):len(pts)],
				sim.Point{X: pts[len(pts)-1].X, Y: y + sparkH},
				sim.Point{X: pts[0].X, Y: y + sparkH})
			p.Path(area, sparkFill)
		}
		for i := 1; i < len(pts); i++ {
			p.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y, 1.5, sparkColor)
		}
		y += sparkH + 10
	}

	ps := v.scenario.Params()
	for i, row := range v.rows {
		if i == v.selected {
			p.Rect(4, y-1, panelWidth-8, lineH, selectColor)
		}
		line(row.label(ps), color.White)
	}
	y += 6

	help := []string{
		"P pause  ,/. speed  R reset",
		"Tab scenario  up/down select",
		"left/right adjust  F follow",
		"I action  C copy  H hide",
	}
	for _, s := range help {
		line(s, frameColor)
	}
	if v.status != "" {
		line(v.status, gaugeColor)
	}
	ebitenutil.DebugPrintAt(p.Image(), fmt.Sprintf("%.0f fps", ebiten.ActualFPS()), 8, sceneH-18)
}

func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}
