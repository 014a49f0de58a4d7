package sim

import (
	"strings"
	"testing"
)

func TestEventLog_FilterAndCount(t *testing.T) {
	el := NewEventLog(false, 0)
	el.Add(1, 3, "ray", "transform", "heat", "absorbed", 4)
	el.Add(2, NoHandle, "--", "world", "ended", "cap", 0)
	el.AddVerbose(3, 5, "water", "spawn", "spawn", "(1,1)", 0)

	if el.Len() != 2 {
		t.Fatalf("verbose entry should be dropped, len=%d", el.Len())
	}
	if el.Count("world", "") != 1 {
		t.Fatal("expected one world event")
	}
	if !el.Has("transform", "heat", "absorb") {
		t.Fatal("transform event not found")
	}
	if e, ok := el.LastOf("world", "ended"); !ok || e.Tick != 2 {
		t.Fatalf("unexpected last world event %+v", e)
	}
	if got := el.FilterHandle(3); len(got) != 1 {
		t.Fatalf("expected 1 event for #3, got %d", len(got))
	}
	if !strings.Contains(el.Format(), "[T=0002]") {
		t.Fatalf("format missing tick prefix:\n%s", el.Format())
	}
}

func TestEventLog_LimitDropsOldestHalf(t *testing.T) {
	el := NewEventLog(false, 10)
	for i := 0; i < 25; i++ {
		el.Add(i, NoHandle, "--", "world", "tick", "", 0)
	}
	if el.Len() > 10 {
		t.Fatalf("log exceeded its limit: %d", el.Len())
	}
	if e := el.Entries()[el.Len()-1]; e.Tick != 24 {
		t.Fatalf("newest entry lost, last tick %d", e.Tick)
	}
}

func TestEventLog_NilIsSafe(t *testing.T) {
	var el *EventLog
	el.Add(1, NoHandle, "--", "world", "x", "", 0)
	if el.Len() != 0 || el.Count("world", "") != 0 {
		t.Fatal("nil log should record nothing")
	}
}
