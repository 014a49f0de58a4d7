package sim

import (
	"fmt"
	"math"
	"sort"
)

// ParamSpec describes one numeric parameter.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Step    float64 // increment used by interactive hosts
}

// Params is the parameter surface a simulation reads at tick start. Hosts
// write it; the engine never does.
type Params struct {
	specs  map[string]ParamSpec
	order  []string
	values map[string]float64
	flags  map[string]bool
}

// NewParams returns an empty parameter surface.
func NewParams() *Params {
	return &Params{
		specs:  make(map[string]ParamSpec),
		values: make(map[string]float64),
		flags:  make(map[string]bool),
	}
}

// Define registers a numeric parameter at its default value.
func (ps *Params) Define(spec ParamSpec) {
	if _, ok := ps.specs[spec.Name]; !ok {
		ps.order = append(ps.order, spec.Name)
	}
	if spec.Step == 0 {
		spec.Step = (spec.Max - spec.Min) / 20
	}
	ps.specs[spec.Name] = spec
	ps.values[spec.Name] = spec.Default
}

// DefineFlag registers a boolean parameter.
func (ps *Params) DefineFlag(name string, def bool) {
	ps.flags[name] = def
}

// Set validates and stores a numeric parameter.
func (ps *Params) Set(name string, v float64) error {
	spec, ok := ps.specs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	if math.IsNaN(v) || v < spec.Min || v > spec.Max {
		return fmt.Errorf("%w: %s=%g outside [%g, %g]", ErrInvalidParameter, name, v, spec.Min, spec.Max)
	}
	ps.values[name] = v
	return nil
}

// Nudge moves a parameter by steps increments, clamped to its domain.
func (ps *Params) Nudge(name string, steps float64) {
	spec, ok := ps.specs[name]
	if !ok {
		return
	}
	v := ps.values[name] + steps*spec.Step
	ps.values[name] = math.Max(spec.Min, math.Min(spec.Max, v))
}

// SetFlag stores a boolean parameter.
func (ps *Params) SetFlag(name string, v bool) error {
	if _, ok := ps.flags[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	ps.flags[name] = v
	return nil
}

// Float returns a numeric parameter, or 0 when undefined.
func (ps *Params) Float(name string) float64 { return ps.values[name] }

// Int returns a numeric parameter rounded to the nearest integer.
func (ps *Params) Int(name string) int { return int(math.Round(ps.values[name])) }

// Flag returns a boolean parameter, or false when undefined.
func (ps *Params) Flag(name string) bool { return ps.flags[name] }

// Spec returns the definition of a numeric parameter.
func (ps *Params) Spec(name string) (ParamSpec, bool) {
	s, ok := ps.specs[name]
	return s, ok
}

// Names returns numeric parameter names in definition order.
func (ps *Params) Names() []string {
	out := make([]string, len(ps.order))
	copy(out, ps.order)
	return out
}

// FlagNames returns boolean parameter names sorted.
func (ps *Params) FlagNames() []string {
	out := make([]string, 0, len(ps.flags))
	for k := range ps.flags {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether name is a defined numeric or boolean parameter.
func (ps *Params) Has(name string) bool {
	if _, ok := ps.specs[name]; ok {
		return true
	}
	_, ok := ps.flags[name]
	return ok
}

// Snapshot copies the numeric values.
func (ps *Params) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(ps.values))
	for k, v := range ps.values {
		out[k] = v
	}
	return out
}
