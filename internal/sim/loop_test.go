package sim

import (
	"math"
	"testing"
)

type stubScene struct {
	world    *World
	sampling Sampling
	resets   int
	onDraw   func()
}

func newStubScene(seed int64) *stubScene {
	sc := &stubScene{sampling: Sampling{Every: 2}}
	sc.Reset(seed)
	return sc
}

func (sc *stubScene) World() *World { return sc.world }

func (sc *stubScene) Reset(seed int64) {
	sc.resets++
	sc.world = NewWorld(
		WithSeed(seed),
		WithRule(KindWater, waterRule(1)),
		WithParticle(KindWater, 100, 100, 1, 0),
		WithParticle(KindWater, 500, 100, -1, 0),
	)
}

func (sc *stubScene) Channels() []string { return []string{"left", "total"} }

func (sc *stubScene) Sample() []float64 {
	c := sc.world.Census()
	return []float64{float64(c.Side(0, KindWater)), float64(c.Total)}
}

func (sc *stubScene) Sampling() Sampling { return sc.sampling }
func (sc *stubScene) HistoryCap() int    { return 3 }

func (sc *stubScene) DrawUnder(s Surface) { s.Rect(0, 0, 10, 10, KindWater.RGBA()) }

func (sc *stubScene) DrawOver(s Surface) {
	if sc.onDraw != nil {
		sc.onDraw()
	}
}

func TestLoop_StoppedStepIsNoop(t *testing.T) {
	l := NewLoop(newStubScene(1))
	var rec Recorder
	if l.Step(&rec) {
		t.Fatal("step on a stopped loop should not run")
	}
	if l.Scene().World().TickCount() != 0 || rec.Frames != 0 {
		t.Fatal("stopped loop must not tick or clear")
	}
}

func TestLoop_StartStopIdempotent(t *testing.T) {
	l := NewLoop(newStubScene(1))
	l.Start()
	l.Start()
	if !l.Running() {
		t.Fatal("loop should be running")
	}
	l.Stop()
	l.Stop()
	if l.Running() {
		t.Fatal("loop should be stopped")
	}
}

func TestLoop_StepDrawsAndSamples(t *testing.T) {
	l := NewLoop(newStubScene(1))
	l.Start()
	var rec Recorder
	for i := 0; i < 10; i++ {
		if !l.Step(&rec) {
			t.Fatalf("step %d did not run", i)
		}
	}
	if rec.Frames != 10 {
		t.Fatalf("expected 10 cleared frames, got %d", rec.Frames)
	}
	if rec.Count("circle") != 2 || rec.Count("rect") != 1 {
		t.Fatalf("unexpected draw calls: %d circles, %d rects", rec.Count("circle"), rec.Count("rect"))
	}
	h := l.History()
	if h.Len() != 3 {
		t.Fatalf("history should hold cap=3 samples, got %d", h.Len())
	}
	if last, _ := h.Latest(); last.Tick != 10 || last.Values[1] != 2 {
		t.Fatalf("unexpected latest sample %+v", last)
	}
}

func TestLoop_ReentrantStepIgnored(t *testing.T) {
	sc := newStubScene(1)
	l := NewLoop(sc)
	l.Start()
	var rec Recorder
	inner := true
	sc.onDraw = func() { inner = l.Step(&rec) }
	l.Step(&rec)
	if inner {
		t.Fatal("re-entrant step should be ignored")
	}
	if sc.World().TickCount() != 1 {
		t.Fatalf("expected exactly one tick, got %d", sc.World().TickCount())
	}
}

func TestLoop_EndedWorldStopsLoop(t *testing.T) {
	sc := newStubScene(1)
	l := NewLoop(sc)
	l.Start()
	sc.World().End("done")
	if l.Step(&Recorder{}) {
		t.Fatal("ended world should not step")
	}
	if l.Running() {
		t.Fatal("loop should stop on an ended world")
	}
}

func TestLoop_ResetClearsHistoryAndReplays(t *testing.T) {
	sc := newStubScene(9)
	l := NewLoop(sc)
	l.Start()
	var rec Recorder
	for i := 0; i < 6; i++ {
		l.Step(&rec)
	}
	first := sc.World().Particles()[0]

	l.Reset(9)
	if l.History().Len() != 0 {
		t.Fatal("reset should clear history")
	}
	for i := 0; i < 6; i++ {
		l.Step(&rec)
	}
	again := sc.World().Particles()[0]
	if first.X != again.X || first.Y != again.Y {
		t.Fatalf("same seed should replay: (%.4f,%.4f) vs (%.4f,%.4f)", first.X, first.Y, again.X, again.Y)
	}
	if sc.resets != 2 {
		t.Fatalf("expected 2 resets, got %d", sc.resets)
	}
}

func TestSmoothed_Converges(t *testing.T) {
	s := Smoothed{Value: 12, Alpha: 0.99}
	for i := 0; i < 2000; i++ {
		s.Update(20)
	}
	if math.Abs(s.Value-20) > 0.01 {
		t.Fatalf("expected convergence to 20, got %.4f", s.Value)
	}
}

func TestSampling_Probability(t *testing.T) {
	w := NewWorld(WithSeed(5))
	sp := Sampling{Prob: 0.1}
	hits := 0
	for i := 0; i < 10000; i++ {
		if sp.due(w) {
			hits++
		}
	}
	if hits < 800 || hits > 1200 {
		t.Fatalf("probability sampling off: %d hits of 10000", hits)
	}
}
