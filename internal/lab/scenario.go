// Package lab holds the bench scenarios built on the sim engine.
package lab

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

var (
	// ErrUnknownScenario is returned by New for an unregistered name.
	ErrUnknownScenario = errors.New("unknown scenario")
	// ErrUnknownAction is returned by Do for an action the scenario lacks.
	ErrUnknownAction = errors.New("unknown action")
)

// Scenario is one bench: a scene the loop can drive plus its name and
// parameter surface. Params survive Reset.
type Scenario interface {
	sim.Scene
	Name() string
	Params() *sim.Params
	Log() *sim.EventLog
}

// Actor is implemented by scenarios with one-shot user actions (drop ink,
// add ATP, add a reagent).
type Actor interface {
	Actions() []string
	Do(action string) error
}

// Lead is implemented by scenarios that have one headline scalar for HUD
// gauges.
type Lead interface {
	Lead() (label string, value, max float64)
}

type factory func() Scenario

var registry = map[string]factory{
	"diffusion":     func() Scenario { return NewDiffusion() },
	"osmosis":       func() Scenario { return NewOsmosis() },
	"greenhouse":    func() Scenario { return NewGreenhouse() },
	"transport":     func() Scenario { return NewTransport() },
	"agglutination": func() Scenario { return NewAgglutination() },
	"ecology":       func() Scenario { return NewEcology() },
	"network":       func() Scenario { return NewNetwork() },
	"flood":         func() Scenario { return NewFlood() },
}

var order = []string{"diffusion", "osmosis", "greenhouse", "transport", "agglutination", "ecology", "network", "flood"}

// Names returns the registered scenario names in display order.
func Names() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// New builds the named scenario and resets it with seed.
func New(name string, seed int64) (Scenario, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		known := make([]string, 0, len(registry))
		for k := range registry {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownScenario, name, strings.Join(known, ", "))
	}
	sc := f()
	sc.Reset(seed)
	return sc, nil
}

// Next returns the scenario name after name, wrapping around.
func Next(name string) string {
	for i, n := range order {
		if n == name {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// Summary formats the current census, the latest sample and the world's
// end state on a few lines.
func Summary(sc Scenario) string {
	var sb strings.Builder
	w := sc.World()
	fmt.Fprintf(&sb, "%s  T=%d  seed=%d  particles=%d\n", sc.Name(), w.TickCount(), w.Seed(), w.Census().Total)
	vals := sc.Sample()
	for i, ch := range sc.Channels() {
		if i < len(vals) {
			fmt.Fprintf(&sb, "  %-12s %8.2f\n", ch, vals[i])
		}
	}
	for _, name := range sc.Params().Names() {
		fmt.Fprintf(&sb, "  param %-14s %g\n", name, sc.Params().Float(name))
	}
	if ended, why := w.Ended(); ended {
		fmt.Fprintf(&sb, "  ended: %s\n", why)
	}
	return sb.String()
}

// base carries the state every scenario shares.
type base struct {
	name   string
	params *sim.Params
	world  *sim.World
	log    *sim.EventLog
}

func newBase(name string) base {
	return base{
		name:   name,
		params: sim.NewParams(),
		log:    sim.NewEventLog(false, 4096),
	}
}

func (b *base) Name() string          { return b.name }
func (b *base) Params() *sim.Params   { return b.params }
func (b *base) World() *sim.World     { return b.world }
func (b *base) Log() *sim.EventLog    { return b.log }
func (b *base) DrawUnder(sim.Surface) {}
func (b *base) DrawOver(sim.Surface)  {}

// infra returns the options every scenario world starts from.
func (b *base) infra(seed int64, w, h float64) []sim.Option {
	b.log.Reset()
	return []sim.Option{
		sim.WithBounds(w, h),
		sim.WithSeed(seed),
		sim.WithParams(b.params),
		sim.WithLog(b.log),
	}
}

func pct(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
