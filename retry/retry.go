/*
DESCRIPTION
  retry.go provides Backoff, which repeatedly calls a function with
  exponentially increasing sleeps in between until it succeeds, or until a
  time limit is reached.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package retry provides retry with exponential backoff, and the selection of
// a retry strategy from stall timeout and stall alert settings.
package retry

import "time"

// Backoff defaults.
const (
	DefaultInitialDelay = time.Millisecond
	DefaultMaxDelay     = 30 * time.Second
)

// SleepFunc sleeps for d. A non-nil error means the sleep was interrupted; it
// stops the retry loop and is returned to the caller.
type SleepFunc func(d time.Duration) error

// Backoff retries a function with exponential backoff. The first call is made
// after InitialDelay and the delay doubles after every failed call, up to
// MaxDelay.
type Backoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Sleep        SleepFunc
	Now          func() time.Time
}

// New returns a Backoff with default delays that sleeps using sleep.
func New(sleep SleepFunc) *Backoff {
	return &Backoff{
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Sleep:        sleep,
		Now:          time.Now,
	}
}

// Forever calls fn until it returns true. The only error returned is one from
// Sleep.
func (b *Backoff) Forever(fn func() bool) error {
	delay := b.InitialDelay
	for {
		err := b.Sleep(delay)
		if err != nil {
			return err
		}
		if fn() {
			return nil
		}
		delay = b.next(delay)
	}
}

// For calls fn until it returns true or timeout has elapsed, in which case ok
// is false. The last sleep is shortened so that it ends when timeout elapses,
// and no call is made after that. A non-positive timeout makes no calls.
func (b *Backoff) For(timeout time.Duration, fn func() bool) (ok bool, err error) {
	start := b.Now()
	delay := b.InitialDelay
	for {
		remaining := timeout - b.Now().Sub(start)
		if remaining <= 0 {
			return false, nil
		}
		err := b.Sleep(min(remaining, delay))
		if err != nil {
			return false, err
		}
		if fn() {
			return true, nil
		}
		delay = b.next(delay)
	}
}

func (b *Backoff) next(d time.Duration) time.Duration {
	return min(2*d, b.MaxDelay)
}
