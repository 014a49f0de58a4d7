package main

import (
	"fmt"

	plt "github.com/phil-mansfield/pyplot"
)

var plotColors = []string{"b", "r", "g", "m", "c", "k"}

// plotHistory writes a matplotlib figure of every channel of rs's history
// and runs the generated script.
func plotHistory(fname string, rs runStats) {
	recent := rs.history.Recent()
	ticks := make([]float64, len(recent))
	for i, s := range recent {
		ticks[i] = float64(s.Tick)
	}

	plt.Figure(plt.FigSize(10, 6))
	for i, ch := range rs.channels {
		plt.Plot(ticks, rs.history.Series(ch), plt.LW(2), plt.C(plotColors[i%len(plotColors)]))
	}
	plt.Title(fmt.Sprintf("%s, seed %d: %v", rs.scenario, rs.seed, rs.channels))
	plt.XLabel("tick", plt.FontSize(16))
	plt.YLabel("value", plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
	plt.Execute()
}
