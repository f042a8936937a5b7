// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

import (
	"sync/atomic"
	"time"
)

// clock maintains the fabric's coarse logical tick counter (spec §3, §5):
// a dedicated goroutine advances it at a fixed wall-clock resolution
// (nominally 100ms, pinned by the original implementation's
// counter_resolution() — see DESIGN.md). Reads never touch the wall clock;
// they load an atomic counter that the goroutine increments on every
// time.Ticker tick, after the teacher's cache-package clock (see
// _examples/simplygulshan4u-ecache2/ecache2.go). Unlike that clock it
// never resyncs to time.Now(): the count is the number of ticks delivered
// since start.
type clock struct {
	ticks      atomic.Uint64
	resolution time.Duration
	stop       chan struct{}
	done       chan struct{}
}

func newClock(resolution time.Duration) *clock {
	if resolution <= 0 {
		resolution = 100 * time.Millisecond
	}
	return &clock{
		resolution: resolution,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// start launches the ticking goroutine. Call once per Fabric lifetime.
func (c *clock) start() {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.resolution)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.ticks.Add(1)
			}
		}
	}()
}

// Stop halts the ticking goroutine and waits for it to exit.
func (c *clock) Stop() {
	close(c.stop)
	<-c.done
}

// Now returns the current tick count, a plain atomic load.
func (c *clock) Now() uint64 {
	return c.ticks.Load()
}
