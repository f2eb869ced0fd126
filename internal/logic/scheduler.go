package logic

import "time"

// Timer is a cancellable deferred action.
type Timer interface {
	// Stop prevents the action from running. It returns false if the action
	// already ran or was already stopped.
	Stop() bool
}

// Scheduler runs deferred actions on its own goroutines.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules actions with time.AfterFunc.
type RealScheduler struct{}

// AfterFunc runs f in its own goroutine after d.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
