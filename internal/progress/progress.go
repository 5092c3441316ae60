// Package progress renders hunt progress on the terminal.
package progress

import (
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar for file processing.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
}

// newTracker creates a progress bar with the given label and total count.
func newTracker(w io.Writer, label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	_ = t.bar.Add(1)
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// Hunt shows one bar per hunt phase. It satisfies hunt.Progress.
type Hunt struct {
	mu      sync.Mutex
	out     io.Writer
	current *Tracker
}

// NewHunt returns a phase reporter writing to w, or stderr when w is nil.
func NewHunt(w io.Writer) *Hunt {
	if w == nil {
		w = os.Stderr
	}
	return &Hunt{out: w}
}

// Begin starts a bar for a phase over total files.
func (h *Hunt) Begin(label string, total int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil {
		h.current.FinishSuccess()
	}
	h.current = newTracker(h.out, label, total)
}

// Advance ticks the current bar. Called from worker goroutines.
func (h *Hunt) Advance(string) {
	h.mu.Lock()
	t := h.current
	h.mu.Unlock()
	if t != nil {
		t.Tick()
	}
}

// End clears the current bar.
func (h *Hunt) End() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil {
		h.current.FinishSuccess()
		h.current = nil
	}
}
