package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Particle-Bench/internal/sim"
)

func floodParams() *sim.Params {
	ps := sim.NewParams()
	ps.Define(sim.ParamSpec{Name: "rain", Min: 0, Max: 100, Default: 15})
	ps.Define(sim.ParamSpec{Name: "limit", Min: 0, Max: 100, Default: 50})
	ps.DefineFlag("clustered", false)
	return ps
}

func TestExampleFileParses(t *testing.T) {
	wrap, err := ReadString(ExampleBenchFile)
	require.NoError(t, err)

	assert.Equal(t, "flood", wrap.Bench.Scenario)
	assert.Equal(t, int64(1), wrap.Bench.Seed, "default seed")
	assert.Equal(t, 2000, wrap.Bench.Ticks, "default ticks")
	require.Contains(t, wrap.Param, "rain")
	assert.Equal(t, 15.0, wrap.Param["rain"].Value)
	require.Contains(t, wrap.Flag, "clustered")
	assert.True(t, wrap.Flag["clustered"].Value)
}

func TestApplyOverrides(t *testing.T) {
	wrap, err := ReadString(`[Bench]
Scenario = Flood
[Param "rain"]
Value = 70
[Param "limit"]
Value = 20
[Flag "clustered"]
Value = true`)
	require.NoError(t, err)
	assert.Equal(t, "flood", wrap.Bench.Scenario, "scenario is normalised")

	ps := floodParams()
	require.NoError(t, wrap.Apply(ps))
	assert.Equal(t, 70.0, ps.Float("rain"))
	assert.Equal(t, 20.0, ps.Float("limit"))
	assert.True(t, ps.Flag("clustered"))
}

func TestApplyRejectsOutOfRange(t *testing.T) {
	wrap, err := ReadString(`[Bench]
Scenario = flood
[Param "rain"]
Value = 400`)
	require.NoError(t, err)

	ps := floodParams()
	err = wrap.Apply(ps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrInvalidParameter), "got %v", err)
	assert.Equal(t, 15.0, ps.Float("rain"), "rejected value must not be stored")
}

func TestApplyRejectsUnknownName(t *testing.T) {
	wrap, err := ReadString(`[Bench]
Scenario = flood
[Flag "monsoon"]
Value = true`)
	require.NoError(t, err)
	assert.True(t, errors.Is(wrap.Apply(floodParams()), sim.ErrUnknownParameter))
}

func TestCheckRejectsBadBench(t *testing.T) {
	for name, text := range map[string]string{
		"no scenario": "[Bench]\nTicks = 10",
		"zero ticks":  "[Bench]\nScenario = flood\nTicks = 0",
		"zero runs":   "[Bench]\nScenario = flood\nRuns = 0",
		"zero step":   "[Bench]\nScenario = flood\nSeedStep = 0",
	} {
		_, err := ReadString(text)
		assert.True(t, errors.Is(err, ErrInvalidConfig), "%s: got %v", name, err)
	}
}

func TestSeeds(t *testing.T) {
	wrap := DefaultBenchWrapper()
	wrap.Bench.Seed, wrap.Bench.SeedStep, wrap.Bench.Runs = 10, 5, 3
	assert.Equal(t, []int64{10, 15, 20}, wrap.Seeds())
}

func TestShippedPresetsLoad(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "configs", "*.ini"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		wrap, err := Read(f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, wrap.Param, f)
	}
}
