package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Garsondee/Particle-Bench/internal/lab"
	"github.com/Garsondee/Particle-Bench/internal/sim"
)

// ErrBusy is returned by Submit when the command queue is full.
var ErrBusy = errors.New("command queue full")

const queueSize = 64

// Driver owns one scenario and its loop. Only the Run goroutine touches
// them; other goroutines hand commands over through Submit, and they are
// applied at the top of the next step.
type Driver struct {
	scenario lab.Scenario
	loop     *sim.Loop
	sink     *sim.Recorder
	commands chan Command

	mu   sync.Mutex
	last Snapshot
}

// NewDriver builds the named scenario and starts its loop.
func NewDriver(name string, seed int64) (*Driver, error) {
	sc, err := lab.New(name, seed)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		sink:     &sim.Recorder{},
		commands: make(chan Command, queueSize),
	}
	d.install(sc)
	return d, nil
}

func (d *Driver) install(sc lab.Scenario) {
	d.scenario = sc
	d.loop = sim.NewLoop(sc)
	d.loop.Start()
	d.publish()
}

// Scenario exposes the driven scenario for setup before Run starts.
func (d *Driver) Scenario() lab.Scenario { return d.scenario }

// Submit queues a command without blocking.
func (d *Driver) Submit(c Command) error {
	select {
	case d.commands <- c:
		return nil
	default:
		return ErrBusy
	}
}

// Latest returns the most recent snapshot. Safe from any goroutine.
func (d *Driver) Latest() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func (d *Driver) publish() {
	snap := Capture(d.scenario, d.loop)
	d.mu.Lock()
	d.last = snap
	d.mu.Unlock()
}

// Run steps the loop once per interval until ctx is done, reporting each
// snapshot.
func (d *Driver) Run(ctx context.Context, interval time.Duration, report func(Snapshot)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := d.Step()
			if report != nil {
				report(snap)
			}
		}
	}
}

// Step drains queued commands, advances the loop one tick and returns the
// new snapshot. Run calls it; tests may call it directly when no Run
// goroutine exists.
func (d *Driver) Step() Snapshot {
	d.drain()
	d.loop.Step(d.sink)
	d.publish()
	return d.Latest()
}

func (d *Driver) drain() {
	for {
		select {
		case c := <-d.commands:
			if err := d.apply(c); err != nil {
				log.Printf("stream: %v", err)
			}
		default:
			return
		}
	}
}

func (d *Driver) apply(c Command) error {
	ps := d.scenario.Params()
	switch c.Kind {
	case CmdParam:
		return ps.Set(c.Name, c.Value)
	case CmdFlag:
		return ps.SetFlag(c.Name, c.On)
	case CmdAction:
		a, ok := d.scenario.(lab.Actor)
		if !ok {
			return fmt.Errorf("%w: %s has no actions", lab.ErrUnknownAction, d.scenario.Name())
		}
		return a.Do(c.Name)
	case CmdReset:
		d.loop.Reset(c.Seed)
		d.loop.Start()
	case CmdScenario:
		sc, err := lab.New(c.Name, d.scenario.World().Seed())
		if err != nil {
			return err
		}
		d.install(sc)
	case CmdPause:
		d.loop.Stop()
	case CmdResume:
		d.loop.Start()
	default:
		return fmt.Errorf("%w: kind %d", ErrBadCommand, c.Kind)
	}
	return nil
}
