package progress

import (
	"bytes"
	"sync"
	"testing"
)

func TestNewTracker(t *testing.T) {
	tests := []struct {
		name  string
		label string
		total int
	}{
		{"standard tracker", "registering exports", 100},
		{"zero total", "Empty task", 0},
		{"single item", "One file", 1},
		{"large total", "Many files", 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTracker(&bytes.Buffer{}, tt.label, tt.total)
			if tracker.bar == nil {
				t.Error("tracker.bar should not be nil")
			}
			if tracker.label != tt.label {
				t.Errorf("tracker.label = %q, want %q", tracker.label, tt.label)
			}
		})
	}
}

func TestTrackerTickConcurrent(t *testing.T) {
	tracker := newTracker(&bytes.Buffer{}, "concurrent", 100)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Tick()
		}()
	}
	wg.Wait()

	if got := tracker.bar.State().CurrentNum; got != 100 {
		t.Errorf("CurrentNum = %d, want 100", got)
	}
}

func TestHuntPhases(t *testing.T) {
	h := NewHunt(&bytes.Buffer{})

	h.Advance("ignored before Begin")

	h.Begin("registering exports", 2)
	first := h.current
	h.Advance("a.ts")
	h.Advance("b.ts")
	if got := first.bar.State().CurrentNum; got != 2 {
		t.Errorf("first phase CurrentNum = %d, want 2", got)
	}

	h.Begin("resolving usages", 5)
	if h.current == first {
		t.Error("Begin should start a new bar")
	}
	h.Advance("c.ts")
	h.End()

	if h.current != nil {
		t.Error("End should clear the current bar")
	}
	h.End()
}

func TestNewHuntDefaultsToStderr(t *testing.T) {
	if h := NewHunt(nil); h.out == nil {
		t.Error("NewHunt(nil) should fall back to stderr")
	}
}
