package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/Garsondee/Particle-Bench/internal/config"
	"github.com/Garsondee/Particle-Bench/internal/lab"
	"github.com/Garsondee/Particle-Bench/internal/sim"
)

var (
	headStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	runStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
)

type runStats struct {
	runIndex int
	seed     int64
	ticks    int

	endTick   int
	endReason string

	channels []string
	final    []float64
	mean     []float64

	events   map[string]int
	markers  map[string]int
	history  *sim.History
	scenario string
}

// marker names the first event of interest in a run's log.
type marker struct {
	label, category, key, contains string
}

var scenarioMarkers = map[string][]marker{
	"diffusion":     {{"ink", "action", "drop-ink", ""}},
	"osmosis":       {{"sugar_change", "param", "sugar", ""}},
	"greenhouse":    {{"follow", "track", "follow", ""}, {"lost", "track", "lost", ""}},
	"transport":     {{"mode_change", "mode", "mode", ""}, {"atp", "action", "add-atp", ""}},
	"agglutination": {{"reagent", "action", "reagent", ""}, {"clumped", "reaction", "agglutination", "true"}},
	"ecology":       {{"ended", "world", "ended", ""}},
	"network":       {{"saturated", "world", "ended", ""}},
	"flood":         {{"moratorium", "policy", "moratorium", "true"}, {"ended", "world", "ended", ""}},
}

type options struct {
	wrap   *config.BenchWrapper
	action string
	width  int
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var scenario string
	var configFile string
	var action string
	var dumpFile string
	var csvFile string
	var compareFile string
	var plotFile string
	var chartWidth int

	flag.IntVar(&runs, "runs", 3, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 2000, "ticks per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&scenario, "scenario", "diffusion", "scenario name ("+strings.Join(lab.Names(), ", ")+")")
	flag.StringVar(&configFile, "config", "", "bench preset file; explicit flags override it")
	flag.StringVar(&action, "action", "", "one-shot action performed before the first tick (drop-ink, add-atp)")
	flag.StringVar(&dumpFile, "dump", "", "write run 1's history as a whitespace table")
	flag.StringVar(&csvFile, "csv", "", "export run 1's history as CSV")
	flag.StringVar(&compareFile, "compare", "", "replay run 1 against a table written by -dump")
	flag.StringVar(&plotFile, "plot", "", "save a matplotlib figure of run 1's history")
	flag.IntVar(&chartWidth, "width", 60, "terminal chart width")
	flag.Parse()

	wrap := config.DefaultBenchWrapper()
	if configFile != "" {
		var err error
		if wrap, err = config.Read(configFile); err != nil {
			log.Fatal(err)
		}
	} else {
		wrap.Bench.Scenario = scenario
		wrap.Bench.Runs, wrap.Bench.Ticks = runs, ticks
		wrap.Bench.Seed, wrap.Bench.SeedStep = seedBase, seedStep
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scenario":
			wrap.Bench.Scenario = scenario
		case "runs":
			wrap.Bench.Runs = runs
		case "ticks":
			wrap.Bench.Ticks = ticks
		case "seed-base":
			wrap.Bench.Seed = seedBase
		case "seed-step":
			wrap.Bench.SeedStep = seedStep
		}
	})
	if err := wrap.Check(); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	opts := options{wrap: wrap, action: action, width: chartWidth}
	con := wrap.Bench

	fmt.Println(headStyle.Render("=== Headless Bench Report ==="))
	fmt.Printf("scenario=%s runs=%d ticks=%d seed_base=%d seed_step=%d\n", con.Scenario, con.Runs, con.Ticks, con.Seed, con.SeedStep)
	if con.Note != "" {
		fmt.Println(dimStyle.Render("note: " + con.Note))
	}
	fmt.Println()

	all := make([]runStats, 0, con.Runs)
	for i, seed := range wrap.Seeds() {
		rs, err := runScenario(opts, i+1, seed)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		all = append(all, rs)
		printRun(rs, opts.width)
	}
	printAggregate(all)

	first := all[0]
	if dumpFile != "" {
		if err := writeTable(dumpFile, first.history); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("history table written to %s\n", dumpFile)
	}
	if csvFile != "" {
		if err := writeCSV(csvFile, first.history); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("history CSV written to %s\n", csvFile)
	}
	if compareFile != "" {
		dev, err := compareTable(compareFile, first.history)
		if err != nil {
			log.Fatal(err)
		}
		if dev.identical() {
			fmt.Println(headStyle.Render("replay: identical"))
		} else {
			fmt.Println(alertStyle.Render(fmt.Sprintf("replay: diverged %s", dev)))
		}
	}
	if plotFile != "" {
		plotHistory(plotFile, first)
		fmt.Printf("plot written to %s\n", plotFile)
	}
}

// runScenario builds the scenario for one seed, applies the preset, runs it
// headless and collects the run's statistics.
func runScenario(opts options, runIndex int, seed int64) (runStats, error) {
	con := opts.wrap.Bench
	sc, err := lab.New(con.Scenario, seed)
	if err != nil {
		return runStats{}, err
	}
	if err := opts.wrap.Apply(sc.Params()); err != nil {
		return runStats{}, err
	}
	sc.Reset(seed)
	if opts.action != "" {
		a, ok := sc.(lab.Actor)
		if !ok {
			return runStats{}, fmt.Errorf("%w: %s has no actions", lab.ErrUnknownAction, sc.Name())
		}
		if err := a.Do(opts.action); err != nil {
			return runStats{}, err
		}
	}

	loop := sim.NewLoop(sc)
	loop.Start()
	sink := &sim.Recorder{}
	for i := 0; i < con.Ticks; i++ {
		if !loop.Step(sink) {
			break
		}
	}

	w := sc.World()
	h := loop.History()
	rs := runStats{
		runIndex: runIndex,
		seed:     seed,
		ticks:    w.TickCount(),
		endTick:  -1,
		channels: sc.Channels(),
		final:    sc.Sample(),
		events:   sc.Log().Categories(),
		markers:  map[string]int{},
		history:  h,
		scenario: sc.Name(),
	}
	if ended, why := w.Ended(); ended {
		rs.endTick = w.TickCount()
		rs.endReason = why
	}
	for _, ch := range rs.channels {
		rs.mean = append(rs.mean, mean(h.Series(ch)))
	}
	entries := sc.Log().Entries()
	for _, m := range scenarioMarkers[sc.Name()] {
		rs.markers[m.label] = firstTick(entries, m.category, m.key, m.contains)
	}
	return rs, nil
}

func firstTick(entries []sim.Event, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

func printRun(rs runStats, width int) {
	fmt.Println(runStyle.Render(fmt.Sprintf("--- Run %d (seed=%d) ---", rs.runIndex, rs.seed)))
	end := "running"
	if rs.endTick >= 0 {
		end = fmt.Sprintf("ended T=%d (%s)", rs.endTick, rs.endReason)
	}
	fmt.Printf("ticks=%d state=%s\n", rs.ticks, end)
	for i, ch := range rs.channels {
		fmt.Printf("  %-12s final=%9.2f  mean=%9.2f\n", ch, rs.final[i], rs.mean[i])
	}
	fmt.Printf("events: %s\n", joinCounts(rs.events))
	fmt.Printf("markers: %s\n", joinMarkers(rs.markers))
	if len(rs.channels) > 0 {
		series := rs.history.Series(rs.channels[0])
		if len(series) > 1 {
			fmt.Println(asciigraph.Plot(series,
				asciigraph.Height(8),
				asciigraph.Width(width),
				asciigraph.Caption(rs.channels[0])))
		}
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	if len(all) == 0 {
		return
	}
	channels := all[0].channels
	finals := make([]float64, len(channels))
	means := make([]float64, len(channels))
	endTicks := make([]int, 0, len(all))
	reasons := map[string]struct{}{}
	markerTicks := map[string][]int{}

	for _, rs := range all {
		for i := range channels {
			finals[i] += rs.final[i]
			means[i] += rs.mean[i]
		}
		if rs.endTick >= 0 {
			endTicks = append(endTicks, rs.endTick)
			reasons[rs.endReason] = struct{}{}
		}
		for label, tick := range rs.markers {
			if tick >= 0 {
				markerTicks[label] = append(markerTicks[label], tick)
			}
		}
	}

	fmt.Println(headStyle.Render("=== Aggregate ==="))
	fmt.Printf("runs=%d ended=%d avg_end_tick=%s reasons=[%s]\n",
		len(all), len(endTicks), avgTickString(endTicks), joinSet(reasons))
	for i, ch := range channels {
		fmt.Printf("  %-12s avg_final=%9.2f  avg_mean=%9.2f\n",
			ch, finals[i]/float64(len(all)), means[i]/float64(len(all)))
	}
	labels := make([]string, 0, len(markerTicks))
	for _, m := range scenarioMarkers[all[0].scenario] {
		labels = append(labels, m.label)
	}
	for _, l := range labels {
		fmt.Printf("  first_%s avg_tick=%s\n", l, avgTickString(markerTicks[l]))
	}
	fmt.Println()
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}

func joinMarkers(m map[string]int) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("first_%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
