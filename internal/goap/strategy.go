package goap

import "time"

// Strategy carries out an Action over successive ticks.
//
// Start re-arms all per-run state, so one Strategy may serve many plans.
// Stop must be idempotent and must undo any override applied by Start.
// None of the methods may block; multi-phase work is modelled as sub-state
// advanced by Update.
type Strategy interface {
	// CanPerform gates Update for the current tick.
	CanPerform() bool
	// Complete reports whether the current run has finished.
	Complete() bool
	Start()
	Update(dt time.Duration)
	Stop()
}

// Aborter is implemented by strategies that can give up mid-run. A strategy
// that reports Complete and Aborted did not produce its action's effects.
type Aborter interface {
	Aborted() bool
}
