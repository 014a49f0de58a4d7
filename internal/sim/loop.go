package sim

// Smoothed is an exponentially smoothed scalar: each Update moves Value to
// Alpha·Value + (1−Alpha)·target.
type Smoothed struct {
	Value float64
	Alpha float64
}

// Update applies one smoothing step and returns the new value.
func (s *Smoothed) Update(target float64) float64 {
	s.Value = s.Alpha*s.Value + (1-s.Alpha)*target
	return s.Value
}

// Sampling is the history throttle. Every > 0 samples on ticks divisible by
// Every; otherwise Prob > 0 samples with that probability using the world RNG.
type Sampling struct {
	Every int
	Prob  float64
}

func (sp Sampling) due(w *World) bool {
	if sp.Every > 0 {
		return w.TickCount()%sp.Every == 0
	}
	if sp.Prob > 0 {
		return w.ctx.Chance(sp.Prob)
	}
	return true
}

// Scene is everything a Loop drives: one world plus the scalar channels and
// layered drawing around it. Reset rebuilds the world from a seed.
type Scene interface {
	World() *World
	Reset(seed int64)
	Channels() []string
	Sample() []float64
	Sampling() Sampling
	HistoryCap() int
	DrawUnder(s Surface)
	DrawOver(s Surface)
}

// Loop is the host-driven step contract. It never schedules itself; a host
// calls Step at whatever cadence it likes.
type Loop struct {
	scene    Scene
	history  *History
	running  bool
	stepping bool
}

// NewLoop wraps a scene. The loop starts stopped.
func NewLoop(scene Scene) *Loop {
	return &Loop{
		scene:   scene,
		history: NewHistory(scene.HistoryCap(), scene.Channels()...),
	}
}

// Start marks the loop running. Calling it twice is harmless.
func (l *Loop) Start() { l.running = true }

// Stop marks the loop stopped. Calling it twice is harmless.
func (l *Loop) Stop() { l.running = false }

// Running reports whether Step will advance the scene.
func (l *Loop) Running() bool { return l.running }

// Scene returns the driven scene.
func (l *Loop) Scene() Scene { return l.scene }

// History returns the sample buffer.
func (l *Loop) History() *History { return l.history }

// Step runs one frame: clear, tick, draw, sample. It returns false without
// touching anything when stopped, when called re-entrantly, or when the world
// has ended; an ended world also stops the loop.
func (l *Loop) Step(s Surface) bool {
	if !l.running || l.stepping {
		return false
	}
	l.stepping = true
	defer func() { l.stepping = false }()

	w := l.scene.World()
	if ended, _ := w.Ended(); ended {
		l.running = false
		return false
	}

	s.Clear()
	w.Tick()
	l.render(s)

	if l.scene.Sampling().due(w) {
		l.history.Push(w.TickCount(), l.scene.Sample()...)
	}
	if ended, _ := w.Ended(); ended {
		l.running = false
	}
	return true
}

// Render draws the current state without advancing it.
func (l *Loop) Render(s Surface) {
	s.Clear()
	l.render(s)
}

func (l *Loop) render(s Surface) {
	l.scene.DrawUnder(s)
	l.scene.World().Draw(s)
	l.scene.DrawOver(s)
}

// Reset rebuilds the scene from seed and clears the history. The running
// flag is kept.
func (l *Loop) Reset(seed int64) {
	l.scene.Reset(seed)
	l.history = NewHistory(l.scene.HistoryCap(), l.scene.Channels()...)
}
