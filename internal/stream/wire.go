// Package stream runs one scenario on a ticker and streams its state to
// websocket clients. Both directions are protobuf-encoded structpb.Struct
// messages.
package stream

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Garsondee/Particle-Bench/internal/lab"
	"github.com/Garsondee/Particle-Bench/internal/sim"
)

// ErrBadCommand is wrapped by every command decoding failure.
var ErrBadCommand = errors.New("bad command")

// Snapshot is the state broadcast after every step.
type Snapshot struct {
	Scenario string
	Tick     int
	Seed     int64
	Running  bool
	Ended    bool
	Reason   string
	Tracking string
	Census   map[string]int
	Sample   map[string]float64
	Params   map[string]float64
	Flags    map[string]bool
}

// Capture reads a snapshot off a scenario and its loop.
func Capture(sc lab.Scenario, loop *sim.Loop) Snapshot {
	w := sc.World()
	ended, why := w.Ended()
	snap := Snapshot{
		Scenario: sc.Name(),
		Tick:     w.TickCount(),
		Seed:     w.Seed(),
		Running:  loop.Running(),
		Ended:    ended,
		Reason:   why,
		Tracking: w.TrackState(),
		Census:   make(map[string]int),
		Sample:   make(map[string]float64),
		Params:   sc.Params().Snapshot(),
		Flags:    make(map[string]bool),
	}
	c := w.Census()
	for k := sim.Kind(0); int(k) < sim.KindCount; k++ {
		if n := c.Count(k); n > 0 {
			snap.Census[k.String()] = n
		}
	}
	vals := sc.Sample()
	for i, ch := range sc.Channels() {
		if i < len(vals) {
			snap.Sample[ch] = vals[i]
		}
	}
	for _, f := range sc.Params().FlagNames() {
		snap.Flags[f] = sc.Params().Flag(f)
	}
	return snap
}

// Struct converts the snapshot into its wire form.
func (s Snapshot) Struct() (*structpb.Struct, error) {
	census := make(map[string]any, len(s.Census))
	for k, v := range s.Census {
		census[k] = v
	}
	sample := make(map[string]any, len(s.Sample))
	for k, v := range s.Sample {
		sample[k] = v
	}
	params := make(map[string]any, len(s.Params))
	for k, v := range s.Params {
		params[k] = v
	}
	flags := make(map[string]any, len(s.Flags))
	for k, v := range s.Flags {
		flags[k] = v
	}
	return structpb.NewStruct(map[string]any{
		"scenario": s.Scenario,
		"tick":     s.Tick,
		"seed":     s.Seed,
		"running":  s.Running,
		"ended":    s.Ended,
		"reason":   s.Reason,
		"tracking": s.Tracking,
		"census":   census,
		"sample":   sample,
		"params":   params,
		"flags":    flags,
	})
}

// Marshal encodes the snapshot for a binary websocket frame.
func (s Snapshot) Marshal() ([]byte, error) {
	st, err := s.Struct()
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// CommandKind selects what a Command does.
type CommandKind int

const (
	CmdParam CommandKind = iota
	CmdFlag
	CmdAction
	CmdReset
	CmdScenario
	CmdPause
	CmdResume
)

// Command is one client request. Which fields matter depends on Kind.
type Command struct {
	Kind  CommandKind
	Name  string
	Value float64
	On    bool
	Seed  int64
}

// DecodeCommand parses a binary frame. Exactly one of the keys param, flag,
// action, reset, scenario or pause must be present:
//
//	{"param": "rain", "value": 40}
//	{"flag": "clustered", "on": true}
//	{"action": "drop-ink"}
//	{"reset": 7}
//	{"scenario": "flood"}
//	{"pause": true}
func DecodeCommand(data []byte) (Command, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	return commandFromMap(st.AsMap())
}

func commandFromMap(m map[string]any) (Command, error) {
	str := func(key string) (string, bool) {
		s, ok := m[key].(string)
		return s, ok && s != ""
	}
	num := func(key string) (float64, bool) {
		f, ok := m[key].(float64)
		return f, ok
	}
	switch {
	case has(m, "param"):
		name, ok := str("param")
		v, okv := num("value")
		if !ok || !okv {
			return Command{}, fmt.Errorf("%w: param needs a name and a numeric value", ErrBadCommand)
		}
		return Command{Kind: CmdParam, Name: name, Value: v}, nil
	case has(m, "flag"):
		name, ok := str("flag")
		on, okb := m["on"].(bool)
		if !ok || !okb {
			return Command{}, fmt.Errorf("%w: flag needs a name and a boolean 'on'", ErrBadCommand)
		}
		return Command{Kind: CmdFlag, Name: name, On: on}, nil
	case has(m, "action"):
		name, ok := str("action")
		if !ok {
			return Command{}, fmt.Errorf("%w: empty action", ErrBadCommand)
		}
		return Command{Kind: CmdAction, Name: name}, nil
	case has(m, "reset"):
		seed, ok := num("reset")
		if !ok {
			return Command{}, fmt.Errorf("%w: reset needs a numeric seed", ErrBadCommand)
		}
		return Command{Kind: CmdReset, Seed: int64(seed)}, nil
	case has(m, "scenario"):
		name, ok := str("scenario")
		if !ok {
			return Command{}, fmt.Errorf("%w: empty scenario", ErrBadCommand)
		}
		return Command{Kind: CmdScenario, Name: name}, nil
	case has(m, "pause"):
		p, ok := m["pause"].(bool)
		if !ok {
			return Command{}, fmt.Errorf("%w: pause needs a boolean", ErrBadCommand)
		}
		if p {
			return Command{Kind: CmdPause}, nil
		}
		return Command{Kind: CmdResume}, nil
	}
	return Command{}, fmt.Errorf("%w: no recognised key", ErrBadCommand)
}

func has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

// Encode is the inverse of DecodeCommand.
func (c Command) Encode() ([]byte, error) {
	var m map[string]any
	switch c.Kind {
	case CmdParam:
		m = map[string]any{"param": c.Name, "value": c.Value}
	case CmdFlag:
		m = map[string]any{"flag": c.Name, "on": c.On}
	case CmdAction:
		m = map[string]any{"action": c.Name}
	case CmdReset:
		m = map[string]any{"reset": c.Seed}
	case CmdScenario:
		m = map[string]any{"scenario": c.Name}
	case CmdPause:
		m = map[string]any{"pause": true}
	case CmdResume:
		m = map[string]any{"pause": false}
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrBadCommand, c.Kind)
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}
