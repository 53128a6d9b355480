package spamguard

import (
	"strings"
	"sync"
	"time"
)

// maxWindowSize caps per-actor history to bound memory on hot actors.
const maxWindowSize = 1000

// activityWindows tracks recent action timestamps per (actor, action).
type activityWindows struct {
	windows sync.Map // "actor|action" -> *window
}

type window struct {
	mu     sync.Mutex
	events []time.Time
}

func newActivityWindows() *activityWindows {
	return &activityWindows{}
}

func windowKey(actor string, action Action) string {
	return strings.ToLower(actor) + "|" + string(action)
}

// record appends an event timestamp to the actor's window.
func (w *activityWindows) record(actor string, action Action, at time.Time) {
	v, _ := w.windows.LoadOrStore(windowKey(actor, action), &window{})
	win := v.(*window)

	win.mu.Lock()
	defer win.mu.Unlock()

	win.events = append(win.events, at)
	if len(win.events) > maxWindowSize {
		win.events = win.events[len(win.events)-maxWindowSize:]
	}
}

// countSince returns how many events fall within the window ending at now,
// pruning expired entries as a side effect.
func (w *activityWindows) countSince(actor string, action Action, now time.Time, duration time.Duration) int {
	v, ok := w.windows.Load(windowKey(actor, action))
	if !ok {
		return 0
	}
	win := v.(*window)

	win.mu.Lock()
	defer win.mu.Unlock()

	cutoff := now.Add(-duration)
	// Events are appended in order; find the first one inside the window.
	firstValid := len(win.events)
	for i, t := range win.events {
		if t.After(cutoff) {
			firstValid = i
			break
		}
	}
	if firstValid > 0 {
		win.events = append([]time.Time(nil), win.events[firstValid:]...)
	}
	return len(win.events)
}
