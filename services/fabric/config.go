// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

import "time"

// Config carries the numeric knobs spec.md leaves open (§4.4, §5, §9 Open
// Questions). Built with functional options, matching the teacher's
// GraphOptions/GraphOption pattern.
type Config struct {
	// SignificanceBoost is the δ added to a harc's strength accumulator on
	// every query (spec §4.4).
	SignificanceBoost float64

	// SignificanceHalfLife is the number of ticks over which strength
	// decays by half (spec §4.4, §9 Open Question 1; see
	// significance.go and DESIGN.md for the resolved formula).
	SignificanceHalfLife float64

	// TickResolution is the wall-clock period of one tick. Pinned to
	// 100ms by the original implementation's counter_resolution()
	// (SPEC_FULL.md SUPPLEMENTED FEATURES point 3).
	TickResolution time.Duration

	// PartnerReorderThreshold is the decayed significance above which the
	// batched maintenance sweep reinserts a harc into its partner lists
	// via Fabric.updatePartners (spec §4.4). Queries never reorder
	// partner lists themselves.
	PartnerReorderThreshold float64

	// MaxRecursionDepth bounds path evaluator recursion (spec §5). Pinned
	// to 20 by the original's Fabric::sig_prop_max() (SPEC_FULL.md
	// SUPPLEMENTED FEATURES point 2).
	MaxRecursionDepth int

	// MaintenanceSweepInterval is how often the background significance
	// visitor wakes (spec §4.4, best-effort reordering).
	MaintenanceSweepInterval time.Duration

	// MaintenanceSweepRate throttles how many harcs the sweep may
	// re-evaluate per second, via golang.org/x/time/rate.
	MaintenanceSweepRate float64
}

// Option mutates a Config during construction.
type Option func(*Config)

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		SignificanceBoost:       1.0,
		SignificanceHalfLife:    600, // ticks; ~60s at 100ms resolution
		TickResolution:          100 * time.Millisecond,
		PartnerReorderThreshold: 0.05,
		MaxRecursionDepth:       20,
		MaintenanceSweepInterval: 500 * time.Millisecond,
		MaintenanceSweepRate:    200,
	}
}

// WithSignificanceBoost overrides the per-query boost δ.
func WithSignificanceBoost(delta float64) Option {
	return func(c *Config) { c.SignificanceBoost = delta }
}

// WithSignificanceHalfLife overrides the decay half-life, in ticks.
func WithSignificanceHalfLife(ticks float64) Option {
	return func(c *Config) { c.SignificanceHalfLife = ticks }
}

// WithTickResolution overrides the tick period.
func WithTickResolution(d time.Duration) Option {
	return func(c *Config) { c.TickResolution = d }
}

// WithPartnerReorderThreshold overrides the maintenance sweep's reorder
// threshold.
func WithPartnerReorderThreshold(threshold float64) Option {
	return func(c *Config) { c.PartnerReorderThreshold = threshold }
}

// WithMaxRecursionDepth overrides the path evaluator's recursion bound.
func WithMaxRecursionDepth(depth int) Option {
	return func(c *Config) { c.MaxRecursionDepth = depth }
}

// WithMaintenanceSweep overrides the background reorder sweep's cadence
// and rate.
func WithMaintenanceSweep(interval time.Duration, rate float64) Option {
	return func(c *Config) {
		c.MaintenanceSweepInterval = interval
		c.MaintenanceSweepRate = rate
	}
}

func buildConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
