/*
DESCRIPTION
  retry_test.go tests Backoff against a fake clock, and retry strategy
  selection.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// fakeClock is a clock that advances only when slept on.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1700000000, 0)} }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) backoff() *Backoff {
	b := New(c.Sleep)
	b.Now = c.Now
	return b
}

func TestForAlwaysFails(t *testing.T) {
	c := newFakeClock()
	start := c.Now()

	var calls int
	ok, err := c.backoff().For(500*time.Millisecond, func() bool { calls++; return false })
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if ok {
		t.Fatal("did not expect success")
	}
	if calls != 9 {
		t.Errorf("unexpected number of calls: got %d, want 9", calls)
	}
	elapsed := c.Now().Sub(start)
	if elapsed < 500*time.Millisecond || elapsed > 505*time.Millisecond {
		t.Errorf("elapsed time %v not within [500ms, 505ms]", elapsed)
	}

	ms := time.Millisecond
	want := []time.Duration{1 * ms, 2 * ms, 4 * ms, 8 * ms, 16 * ms, 32 * ms, 64 * ms, 128 * ms, 245 * ms}
	if diff := cmp.Diff(want, c.sleeps); diff != "" {
		t.Errorf("unexpected sleeps (-want +got):\n%s", diff)
	}
}

func TestForSucceedsOnSecondCall(t *testing.T) {
	c := newFakeClock()
	var calls int
	ok, err := c.backoff().For(500*time.Millisecond, func() bool { calls++; return calls == 2 })
	if err != nil || !ok {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}
	if calls != 2 {
		t.Errorf("unexpected number of calls: got %d, want 2", calls)
	}
}

func TestForNonPositiveTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		c := newFakeClock()
		var calls int
		ok, err := c.backoff().For(timeout, func() bool { calls++; return true })
		if ok || err != nil || calls != 0 {
			t.Errorf("timeout %v: got ok=%v err=%v calls=%d, want no calls", timeout, ok, err, calls)
		}
	}
}

func TestForeverCapsDelay(t *testing.T) {
	c := newFakeClock()
	var calls int
	err := c.backoff().Forever(func() bool { calls++; return calls == 20 })
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if calls != 20 {
		t.Errorf("unexpected number of calls: got %d, want 20", calls)
	}
	if c.sleeps[0] != DefaultInitialDelay {
		t.Errorf("first sleep %v, want %v", c.sleeps[0], DefaultInitialDelay)
	}
	for i, d := range c.sleeps {
		if d > DefaultMaxDelay {
			t.Errorf("sleep %d of %v exceeds max delay", i, d)
		}
	}
	if last := c.sleeps[len(c.sleeps)-1]; last != DefaultMaxDelay {
		t.Errorf("last sleep %v, want %v", last, DefaultMaxDelay)
	}
}

func TestInterruptedSleep(t *testing.T) {
	errInterrupted := errors.New("interrupted")
	var sleeps int
	sleep := func(d time.Duration) error {
		sleeps++
		if sleeps == 3 {
			return errInterrupted
		}
		return nil
	}

	var calls int
	err := New(sleep).Forever(func() bool { calls++; return false })
	if !errors.Is(err, errInterrupted) {
		t.Errorf("expected interrupted error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("unexpected number of calls: got %d, want 2", calls)
	}

	sleeps, calls = 0, 0
	ok, err := New(sleep).For(time.Hour, func() bool { calls++; return false })
	if ok || !errors.Is(err, errInterrupted) {
		t.Errorf("expected interrupted error, got ok=%v err=%v", ok, err)
	}
}

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		timeout, alert time.Duration
		want           Policy
	}{
		{timeout: 0, alert: -1, want: Policy{Strategy: NeverRetry}},
		{timeout: 0, alert: 10, want: Policy{Strategy: NeverRetry}},
		{timeout: -1, alert: -1, want: Policy{Strategy: NoAlertNoTimeout, StallTimeout: -1, AlertThreshold: -1}},
		{timeout: -1, alert: 0, want: Policy{Strategy: NoAlertNoTimeout, StallTimeout: -1, AlertThreshold: -1}},
		{timeout: 10, alert: -1, want: Policy{Strategy: NoAlertWithTimeout, StallTimeout: 10, AlertThreshold: -1}},
		{timeout: 10, alert: 0, want: Policy{Strategy: NoAlertWithTimeout, StallTimeout: 10, AlertThreshold: -1}},
		{timeout: 5, alert: 10, want: Policy{Strategy: NoAlertWithTimeout, StallTimeout: 5, AlertThreshold: -1}},
		{timeout: 10, alert: 10, want: Policy{Strategy: NoAlertWithTimeout, StallTimeout: 10, AlertThreshold: -1}},
		{timeout: -1, alert: 10, want: Policy{Strategy: AlertNoTimeout, StallTimeout: -1, AlertThreshold: 10}},
		{timeout: 10, alert: 6, want: Policy{Strategy: AlertWithTimeout, StallTimeout: 4, AlertThreshold: 6}},
	}

	for _, test := range tests {
		got := NewPolicy(test.timeout, test.alert)
		if got != test.want {
			t.Errorf("NewPolicy(%d, %d)\ngot: %+v\nwant: %+v", test.timeout, test.alert, got, test.want)
		}
	}
}
