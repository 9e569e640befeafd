package realtime

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// reconnectSchedule yields base*2^(attempt-1) for attempt 1..max and then
// stops. The delay itself is not capped.
type reconnectSchedule struct {
	exp     *backoff.ExponentialBackOff
	attempt int
	max     int
}

func newReconnectSchedule(base time.Duration, max int) *reconnectSchedule {
	exp := &backoff.ExponentialBackOff{
		InitialInterval:     base,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Duration(math.MaxInt64),
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	exp.Reset()
	return &reconnectSchedule{exp: exp, max: max}
}

// next returns the attempt number and delay, or ok=false at the ceiling.
func (s *reconnectSchedule) next() (attempt int, delay time.Duration, ok bool) {
	if s.attempt >= s.max {
		return s.attempt, 0, false
	}
	d := s.exp.NextBackOff()
	if d == backoff.Stop {
		s.attempt = s.max
		return s.attempt, 0, false
	}
	s.attempt++
	return s.attempt, d, true
}

func (s *reconnectSchedule) reset() {
	s.attempt = 0
	s.exp.Reset()
}

// exhaust moves the counter to the ceiling so no further attempt is scheduled.
func (s *reconnectSchedule) exhaust() { s.attempt = s.max }

// timer is what a scheduled reconnect needs; *time.Timer satisfies it.
type timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer { return time.AfterFunc(d, f) }
