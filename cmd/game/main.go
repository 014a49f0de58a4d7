package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Particle-Bench/internal/config"
	"github.com/Garsondee/Particle-Bench/internal/render"
)

func main() {
	scenario := flag.String("scenario", "diffusion", "first scenario shown (Tab cycles)")
	seed := flag.Int64("seed", 1, "RNG seed; R reseeds with seed+1")
	configFile := flag.String("config", "", "bench preset applied to its scenario")
	flag.Parse()

	opts := render.Options{Scenario: *scenario, Seed: *seed}
	if *configFile != "" {
		wrap, err := config.Read(*configFile)
		if err != nil {
			log.Fatal(err)
		}
		opts.Preset = wrap
		opts.Seed = wrap.Bench.Seed
		if !isSet("scenario") {
			opts.Scenario = wrap.Bench.Scenario
		}
		if isSet("seed") {
			opts.Seed = *seed
		}
	}

	v, err := render.NewViewer(opts)
	if err != nil {
		log.Fatal(err)
	}
	ebiten.SetWindowSize(v.Size())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}

func isSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
