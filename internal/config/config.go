// Package config reads bench preset files: one [Bench] section naming the
// scenario and run shape, plus [Param "name"] and [Flag "name"] subsections
// overriding scenario parameters.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

const ExampleBenchFile = `[Bench]

#######################
# Required Parameters #
#######################

# Scenario to run. One of:
# [ diffusion | osmosis | greenhouse | transport | agglutination |
#   ecology | network | flood ]
Scenario = flood

#######################
# Optional Parameters #
#######################

# Seed of the first run. Later runs add SeedStep each time.
# Seed = 1
# SeedStep = 1

# Number of runs and ticks per run used by headless-report.
# Runs = 1
# Ticks = 2000

# Free text shown in report headings.
# Note = 1990 land-use policy

# Each [Param "name"] subsection overrides one numeric parameter. Values
# outside the parameter's domain are rejected before anything runs.
[Param "rain"]
Value = 15

# Each [Flag "name"] subsection overrides one switch.
[Flag "clustered"]
Value = true`

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type BenchConfig struct {
	// Required
	Scenario string

	// Optional
	Seed, SeedStep int64
	Runs, Ticks    int
	Note           string
}

func (con *BenchConfig) ValidScenario() bool {
	return strings.TrimSpace(con.Scenario) != ""
}
func (con *BenchConfig) ValidRuns() bool {
	return con.Runs > 0
}
func (con *BenchConfig) ValidTicks() bool {
	return con.Ticks > 0
}
func (con *BenchConfig) ValidSeedStep() bool {
	return con.SeedStep != 0
}

type ParamConfig struct {
	Value float64
}

type FlagConfig struct {
	Value bool
}

type BenchWrapper struct {
	Bench BenchConfig
	Param map[string]*ParamConfig
	Flag  map[string]*FlagConfig
}

// DefaultBenchWrapper returns a wrapper with the optional fields filled in.
func DefaultBenchWrapper() *BenchWrapper {
	con := BenchConfig{Seed: 1, SeedStep: 1, Runs: 1, Ticks: 2000}
	return &BenchWrapper{Bench: con}
}

// Read parses and checks a preset file.
func Read(fname string) (*BenchWrapper, error) {
	wrap := DefaultBenchWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, fmt.Errorf("read %s: %w", fname, err)
	}
	if err := wrap.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return wrap, nil
}

// ReadString parses and checks preset text.
func ReadString(s string) (*BenchWrapper, error) {
	wrap := DefaultBenchWrapper()
	if err := gcfg.ReadStringInto(wrap, s); err != nil {
		return nil, err
	}
	if err := wrap.Check(); err != nil {
		return nil, err
	}
	return wrap, nil
}

// Check validates the [Bench] section.
func (wrap *BenchWrapper) Check() error {
	con := &wrap.Bench
	con.Scenario = strings.ToLower(strings.TrimSpace(con.Scenario))
	switch {
	case !con.ValidScenario():
		return fmt.Errorf("%w: missing 'Scenario'", ErrInvalidConfig)
	case !con.ValidRuns():
		return fmt.Errorf("%w: 'Runs' must be positive, is %d", ErrInvalidConfig, con.Runs)
	case !con.ValidTicks():
		return fmt.Errorf("%w: 'Ticks' must be positive, is %d", ErrInvalidConfig, con.Ticks)
	case !con.ValidSeedStep():
		return fmt.Errorf("%w: 'SeedStep' must be non-zero", ErrInvalidConfig)
	}
	return nil
}

// Apply writes every override into ps in name order. The first rejected
// value stops the pass and is returned wrapped; sim.ErrUnknownParameter and
// sim.ErrInvalidParameter survive errors.Is.
func (wrap *BenchWrapper) Apply(ps *sim.Params) error {
	for _, name := range sortedKeys(wrap.Param) {
		p := wrap.Param[name]
		if p == nil {
			continue
		}
		if err := ps.Set(name, p.Value); err != nil {
			return fmt.Errorf("[Param %q]: %w", name, err)
		}
	}
	for _, name := range sortedKeys(wrap.Flag) {
		f := wrap.Flag[name]
		if f == nil {
			continue
		}
		if err := ps.SetFlag(name, f.Value); err != nil {
			return fmt.Errorf("[Flag %q]: %w", name, err)
		}
	}
	return nil
}

// Seeds returns the seed of each run.
func (wrap *BenchWrapper) Seeds() []int64 {
	out := make([]int64, wrap.Bench.Runs)
	for i := range out {
		out[i] = wrap.Bench.Seed + int64(i)*wrap.Bench.SeedStep
	}
	return out
}

func sortedKeys[T any](m map[string]*T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
