// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mockable provides a Clock whose time can be pinned in tests,
// letting round deadlines be checked deterministically without a real
// timer goroutine per round.
package mockable

import "time"

// Clock is a mockable clock.
type Clock struct {
	time   time.Time
	mocked bool
}

// NewClock creates a new clock reading real wall-clock time.
func NewClock() *Clock {
	return &Clock{
		time: time.Now(),
	}
}

// Now returns the current time.
func (c *Clock) Now() time.Time {
	if c.mocked {
		return c.time
	}
	return time.Now()
}

// Set pins the clock to t.
func (c *Clock) Set(t time.Time) {
	c.time = t
	c.mocked = true
}

// Advance moves a pinned clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.time = c.time.Add(d)
}

// Real returns the clock to real wall-clock time.
func (c *Clock) Real() {
	c.mocked = false
}
