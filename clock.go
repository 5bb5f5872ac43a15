package stravastats

import "time"

// Clock provides the current time and blocks the caller for a duration
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type wallClock struct{}

// WallClock returns a Clock backed by the time package
func WallClock() Clock {
	return wallClock{}
}

func (wallClock) Now() time.Time {
	return time.Now()
}

func (wallClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
