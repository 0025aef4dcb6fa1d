package pipeline

import "time"

// Timer is a cancellable, resettable delayed call.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

// Clock abstracts time for the orchestrator's debounce window so tests can
// drive it deterministically instead of waiting on wall-clock delays.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// NewClock returns the wall-clock implementation.
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
