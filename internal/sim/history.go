package sim

// Sample is one history entry. Values are indexed like the channels the
// history was created with.
type Sample struct {
	Tick   int
	Values []float64
}

// History is a fixed-capacity ring of samples. Once full, each push evicts
// the oldest sample.
type History struct {
	channels []string
	index    map[string]int
	samples  []Sample
	head     int
	count    int
}

// NewHistory creates a history for the named channels. Capacities below 1
// are raised to 1.
func NewHistory(capacity int, channels ...string) *History {
	if capacity < 1 {
		capacity = 1
	}
	idx := make(map[string]int, len(channels))
	for i, c := range channels {
		idx[c] = i
	}
	return &History{
		channels: append([]string(nil), channels...),
		index:    idx,
		samples:  make([]Sample, capacity),
	}
}

// Push appends a sample. values is copied; missing trailing channels are zero.
func (h *History) Push(tick int, values ...float64) {
	v := make([]float64, len(h.channels))
	copy(v, values)
	h.samples[h.head] = Sample{Tick: tick, Values: v}
	h.head = (h.head + 1) % len(h.samples)
	if h.count < len(h.samples) {
		h.count++
	}
}

// Recent returns samples in chronological order (oldest first).
func (h *History) Recent() []Sample {
	n := len(h.samples)
	result := make([]Sample, h.count)
	for i := 0; i < h.count; i++ {
		idx := (h.head - h.count + i + n) % n
		s := h.samples[idx]
		result[i] = Sample{Tick: s.Tick, Values: append([]float64(nil), s.Values...)}
	}
	return result
}

// Series returns one channel oldest first, or nil for an unknown channel.
func (h *History) Series(channel string) []float64 {
	ci, ok := h.index[channel]
	if !ok {
		return nil
	}
	n := len(h.samples)
	out := make([]float64, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.samples[(h.head-h.count+i+n)%n].Values[ci]
	}
	return out
}

// Latest returns the newest sample.
func (h *History) Latest() (Sample, bool) {
	if h.count == 0 {
		return Sample{}, false
	}
	n := len(h.samples)
	s := h.samples[(h.head-1+n)%n]
	return Sample{Tick: s.Tick, Values: append([]float64(nil), s.Values...)}, true
}

// Channels returns the channel names.
func (h *History) Channels() []string {
	return append([]string(nil), h.channels...)
}

// Len returns the number of stored samples.
func (h *History) Len() int { return h.count }

// Cap returns the capacity.
func (h *History) Cap() int { return len(h.samples) }

// Reset empties the buffer.
func (h *History) Reset() {
	for i := range h.samples {
		h.samples[i] = Sample{}
	}
	h.head = 0
	h.count = 0
}
