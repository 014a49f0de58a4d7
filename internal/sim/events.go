package sim

import (
	"fmt"
	"strings"
)

// Event is one recorded domain event.
type Event struct {
	Tick     int
	Handle   Handle // NoHandle for world-level events
	Kind     string // particle kind, or "--"
	Category string // spawn, transform, remove, barrier, world, param
	Key      string // specific event name within the category
	Value    string // human-readable detail
	NumVal   float64
}

// String formats the entry as a fixed-width log line.
//
//	[T=0042] #17   heat     transform  emit   heat -> infrared
func (e Event) String() string {
	h := "--"
	if e.Handle != NoHandle {
		h = fmt.Sprintf("#%d", e.Handle)
	}
	return fmt.Sprintf("[T=%04d] %-6s %-9s %-10s %-14s %s",
		e.Tick, h, e.Kind, e.Category, e.Key, e.Value)
}

// EventLog collects structured events. Particle churn is only recorded when
// verbose; world and barrier events are always kept.
type EventLog struct {
	entries []Event
	verbose bool
	limit   int
}

// NewEventLog creates an EventLog. limit bounds the retained entries; 0 is
// unbounded. When full the oldest half is discarded.
func NewEventLog(verbose bool, limit int) *EventLog {
	return &EventLog{verbose: verbose, limit: limit}
}

// Add records a new entry. A nil log ignores it.
func (el *EventLog) Add(tick int, h Handle, kind, category, key, value string, num float64) {
	if el == nil {
		return
	}
	if el.limit > 0 && len(el.entries) >= el.limit {
		half := len(el.entries) / 2
		el.entries = append(el.entries[:0], el.entries[half:]...)
	}
	el.entries = append(el.entries, Event{
		Tick:     tick,
		Handle:   h,
		Kind:     kind,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   num,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (el *EventLog) AddVerbose(tick int, h Handle, kind, category, key, value string, num float64) {
	if el == nil || !el.verbose {
		return
	}
	el.Add(tick, h, kind, category, key, value, num)
}

// Entries returns all recorded entries.
func (el *EventLog) Entries() []Event {
	if el == nil {
		return nil
	}
	return el.entries
}

// Len returns the number of retained entries.
func (el *EventLog) Len() int {
	if el == nil {
		return 0
	}
	return len(el.entries)
}

// Reset drops all entries.
func (el *EventLog) Reset() {
	if el == nil {
		return
	}
	el.entries = el.entries[:0]
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (el *EventLog) Filter(category, key string) []Event {
	var out []Event
	for _, e := range el.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterHandle returns entries for one particle.
func (el *EventLog) FilterHandle(h Handle) []Event {
	var out []Event
	for _, e := range el.Entries() {
		if e.Handle == h {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many entries match the given category and key.
func (el *EventLog) Count(category, key string) int {
	return len(el.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (el *EventLog) LastOf(category, key string) (Event, bool) {
	entries := el.Filter(category, key)
	if len(entries) == 0 {
		return Event{}, false
	}
	return entries[len(entries)-1], true
}

// Has returns true if at least one entry matches category, key, and value substring.
func (el *EventLog) Has(category, key, valueSubstr string) bool {
	for _, e := range el.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Categories returns per-category counts.
func (el *EventLog) Categories() map[string]int {
	out := make(map[string]int)
	for _, e := range el.Entries() {
		out[e.Category]++
	}
	return out
}

// Format returns the full log as a single string for t.Log output.
func (el *EventLog) Format() string {
	var sb strings.Builder
	for _, e := range el.Entries() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
