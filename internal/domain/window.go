package domain

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Window is the half-open publication range [Last, Next) currently being ingested.
type Window struct {
	Last time.Time
	Next time.Time
}

// WaitUntilNext returns how long to sleep from now until the window closes,
// after shifting now back by delay. A non-positive result means the next
// window is already due.
func (w Window) WaitUntilNext(now time.Time, delay time.Duration) time.Duration {
	return w.Next.Sub(now.Add(-delay))
}

// RoundDown returns the greatest multiple of interval, counted from the Unix
// epoch, that is not after t. The result keeps t's location.
// interval must be positive.
func RoundDown(t time.Time, interval time.Duration) time.Time {
	ns := t.UnixNano()
	step := int64(interval)
	rem := ns % step
	if rem < 0 {
		rem += step
	}
	return time.Unix(0, ns-rem).In(t.Location())
}

// ComputeWindow returns the window containing now-delay.
// It satisfies Last <= now-delay < Next and Next-Last == interval.
func ComputeWindow(now time.Time, interval, delay time.Duration) Window {
	last := RoundDown(now.Add(-delay), interval)
	return Window{Last: last, Next: last.Add(interval)}
}

// Timer computes windows for one source against an injected clock.
type Timer struct {
	clock    clockwork.Clock
	interval time.Duration
	delay    time.Duration
	// date, when set, pins the delayed time onto one calendar day.
	date time.Time
}

// NewTimer validates interval and delay once. A nil clock uses the real clock.
func NewTimer(clock clockwork.Clock, interval, delay time.Duration) (*Timer, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfiguration, interval)
	}
	if delay < 0 {
		return nil, fmt.Errorf("%w: delay must be non-negative, got %s", ErrInvalidConfiguration, delay)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{clock: clock, interval: interval, delay: delay}, nil
}

// NewFixedDateTimer replays date against the clock's time of day. The delay
// is applied before the date is pinned, so every window falls on date.
func NewFixedDateTimer(clock clockwork.Clock, date time.Time, interval, delay time.Duration) (*Timer, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: fixed date is required", ErrInvalidConfiguration)
	}
	t, err := NewTimer(clock, interval, delay)
	if err != nil {
		return nil, err
	}
	t.date = date
	return t, nil
}

// effective returns now-delay, moved onto the fixed date when replaying.
func (t *Timer) effective() time.Time {
	eff := t.clock.Now().Add(-t.delay)
	if t.date.IsZero() {
		return eff
	}
	return OnDate(eff, t.date)
}

// Window returns the window for the clock's current time.
func (t *Timer) Window() Window {
	return ComputeWindow(t.effective(), t.interval, 0)
}

// WaitUntilNext returns the time left until w closes, measured on the clock.
func (t *Timer) WaitUntilNext(w Window) time.Duration {
	wait := w.Next.Sub(t.effective())
	if !t.date.IsZero() && wait > t.interval {
		// The replayed day wrapped past midnight since w was computed.
		wait -= 24 * time.Hour
	}
	return wait
}

func (t *Timer) Interval() time.Duration { return t.interval }

func (t *Timer) Delay() time.Duration { return t.delay }
