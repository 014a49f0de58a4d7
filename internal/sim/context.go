package sim

import "math/rand"

// Context is the per-instance state every rule, barrier and hook receives.
// Each world owns exactly one; nothing in it is shared between instances.
type Context struct {
	Bounds Bounds
	Rng    *rand.Rand
	Params *Params
	Log    *EventLog
	Tick   int

	stats Stats
}

// Stats counts silently recovered conditions and population churn.
type Stats struct {
	Degenerate int // zero-speed rescales and zero-distance collision pairs skipped
	Spawned    int
	Removed    int
	Transforms int
	Confined   int // particles put back by a confinement pass
	Refused    int // spawns refused at the population cap
}

// Chance reports true with probability p.
func (c *Context) Chance(p float64) bool {
	return c.Rng.Float64() < p
}

// Uniform returns a value in [lo, hi).
func (c *Context) Uniform(lo, hi float64) float64 {
	return lo + c.Rng.Float64()*(hi-lo)
}
