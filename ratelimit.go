package stravastats

import (
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultCeiling is the number of calls permitted per quota window
	DefaultCeiling = 90
	// DefaultWindow is the length of the quota window
	DefaultWindow = 900 * time.Second
)

// RateLimiter throttles callers to a fixed number of calls per window.
// All endpoints share one budget. A RateLimiter is not safe for concurrent use.
type RateLimiter struct {
	clock       Clock
	ceiling     int
	window      time.Duration
	count       int
	windowStart time.Time
}

// NewRateLimiter returns a RateLimiter whose window begins now
func NewRateLimiter(clock Clock, ceiling int, window time.Duration) *RateLimiter {
	if clock == nil {
		clock = WallClock()
	}
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RateLimiter{
		clock:       clock,
		ceiling:     ceiling,
		window:      window,
		windowStart: clock.Now(),
	}
}

// Register records one call. When the ceiling is reached the caller is
// blocked for the remainder of the window, if any, and the window restarts.
// It reports whether the caller was suspended.
func (r *RateLimiter) Register() bool {
	if r.clock.Now().Sub(r.windowStart) >= r.window {
		r.reset()
	}
	r.count++
	if r.count < r.ceiling {
		return false
	}
	var slept bool
	elapsed := r.clock.Now().Sub(r.windowStart)
	if elapsed < r.window {
		d := r.window - elapsed
		log.Info().Int("calls", r.count).Dur("sleep", d).Msg("rate limit")
		r.clock.Sleep(d)
		slept = true
	}
	r.reset()
	return slept
}

// Count returns the number of calls registered in the current window
func (r *RateLimiter) Count() int {
	return r.count
}

// WindowStart returns the start of the current window
func (r *RateLimiter) WindowStart() time.Time {
	return r.windowStart
}

func (r *RateLimiter) reset() {
	r.count = 0
	r.windowStart = r.clock.Now()
}
