package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/Garsondee/Particle-Bench/internal/config"
	"github.com/Garsondee/Particle-Bench/internal/stream"
)

func main() {
	addr := flag.String("addr", ":8080", "server listen address")
	scenario := flag.String("scenario", "greenhouse", "scenario to stream")
	seed := flag.Int64("seed", 1, "RNG seed")
	configFile := flag.String("config", "", "bench preset; overrides -scenario and -seed")
	interval := flag.Duration("interval", 50*time.Millisecond, "time between steps")
	logEvery := flag.Int("log-every", 200, "log a status line every N ticks (0 disables)")
	flag.Parse()

	name, s := *scenario, *seed
	var wrap *config.BenchWrapper
	if *configFile != "" {
		var err error
		if wrap, err = config.Read(*configFile); err != nil {
			log.Fatal(err)
		}
		name, s = wrap.Bench.Scenario, wrap.Bench.Seed
	}

	driver, err := stream.NewDriver(name, s)
	if err != nil {
		log.Fatal(err)
	}
	if wrap != nil {
		if err := wrap.Apply(driver.Scenario().Params()); err != nil {
			log.Fatal(err)
		}
		driver.Scenario().Reset(s)
	}
	hub := stream.NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go driver.Run(ctx, *interval, func(snap stream.Snapshot) {
		hub.Broadcast(snap)
		if *logEvery > 0 && snap.Tick%*logEvery == 0 {
			log.Printf("%s tick=%d clients=%d census=%v", snap.Scenario, snap.Tick, hub.Clients(), snap.Census)
		}
	})

	http.Handle("/ws", hub.Handler(driver))

	log.Printf("streaming %s on ws://localhost%v/ws", name, *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
