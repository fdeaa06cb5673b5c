// Package rates implements fixed tick-window counters.
package rates

// Window counts events in a window of ticks that restarts with the first event
// after it expires. The zero value is an empty window.
type Window struct {
	Start uint64
	Count int
}

// Allow records one event at nowTick. With window or max unset every event is
// allowed. A full window reports false and the ticks left until it resets;
// rejected events are not counted.
func (w *Window) Allow(nowTick, window uint64, max int) (ok bool, cooldownTicks uint64) {
	if window == 0 || max <= 0 {
		return true, 0
	}
	if w.Count == 0 || nowTick-w.Start >= window {
		w.Start = nowTick
		w.Count = 0
	}
	if w.Count >= max {
		return false, (w.Start + window) - nowTick
	}
	w.Count++
	return true, 0
}
