// Package strategy provides the stock execution strategies bound to actions.
// All strategies are advanced by explicit elapsed time; none start goroutines.
package strategy

import "time"

// CountdownTimer counts down ticked time. It is not safe for concurrent use.
type CountdownTimer struct {
	duration  time.Duration
	remaining time.Duration
	running   bool
	finished  bool
}

// NewCountdownTimer returns a stopped timer of the given duration.
//
// Precondition: d >= 0.
func NewCountdownTimer(d time.Duration) *CountdownTimer {
	if d < 0 {
		panic("strategy.NewCountdownTimer: duration must be >= 0")
	}
	return &CountdownTimer{duration: d, remaining: d}
}

// Start (re)arms the timer for its full duration.
func (t *CountdownTimer) Start() {
	t.remaining = t.duration
	t.running = true
	t.finished = false
}

// Stop halts the timer without marking it finished. Safe to call repeatedly.
func (t *CountdownTimer) Stop() { t.running = false }

// Tick advances a running timer by dt.
//
// Postcondition: the timer is finished once the accumulated ticks reach its duration.
func (t *CountdownTimer) Tick(dt time.Duration) {
	if !t.running {
		return
	}
	t.remaining -= dt
	if t.remaining <= 0 {
		t.remaining = 0
		t.running = false
		t.finished = true
	}
}

func (t *CountdownTimer) Running() bool  { return t.running }
func (t *CountdownTimer) Finished() bool { return t.finished }

// Remaining returns the time left on the current run.
func (t *CountdownTimer) Remaining() time.Duration { return t.remaining }

// Progress returns the elapsed fraction of the current run in [0, 1].
func (t *CountdownTimer) Progress() float64 {
	if t.duration == 0 {
		if t.finished {
			return 1
		}
		return 0
	}
	return 1 - float64(t.remaining)/float64(t.duration)
}
