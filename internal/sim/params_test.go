package sim

import (
	"errors"
	"math"
	"testing"
)

func testParams() *Params {
	ps := NewParams()
	ps.Define(ParamSpec{Name: "temperature", Min: 0, Max: 80, Default: 25, Step: 5})
	ps.DefineFlag("large", false)
	return ps
}

func TestParams_Defaults(t *testing.T) {
	ps := testParams()
	if ps.Float("temperature") != 25 {
		t.Fatalf("default not applied, got %.1f", ps.Float("temperature"))
	}
	if ps.Flag("large") {
		t.Fatal("flag default should be false")
	}
}

func TestParams_SetRejectsOutOfRange(t *testing.T) {
	ps := testParams()
	for _, v := range []float64{-1, 81, math.NaN()} {
		if err := ps.Set("temperature", v); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("Set(%v): expected ErrInvalidParameter, got %v", v, err)
		}
	}
	if ps.Float("temperature") != 25 {
		t.Fatal("rejected write must not change the value")
	}
}

func TestParams_SetUnknown(t *testing.T) {
	ps := testParams()
	if err := ps.Set("pressure", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
	if err := ps.SetFlag("nope", true); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestParams_SetBounds(t *testing.T) {
	ps := testParams()
	for _, v := range []float64{0, 80} {
		if err := ps.Set("temperature", v); err != nil {
			t.Fatalf("Set(%v): %v", v, err)
		}
	}
}

func TestParams_NudgeClamps(t *testing.T) {
	ps := testParams()
	ps.Nudge("temperature", 100)
	if ps.Float("temperature") != 80 {
		t.Fatalf("nudge should clamp to max, got %.1f", ps.Float("temperature"))
	}
	ps.Nudge("temperature", -1)
	if ps.Float("temperature") != 75 {
		t.Fatalf("nudge should step by 5, got %.1f", ps.Float("temperature"))
	}
}

func TestParams_NamesInDefinitionOrder(t *testing.T) {
	ps := NewParams()
	ps.Define(ParamSpec{Name: "b", Max: 1})
	ps.Define(ParamSpec{Name: "a", Max: 1})
	names := ps.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Fatalf("unexpected order %v", names)
	}
}
