// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the §3 counters plus evaluator latency histograms. One
// instance is created per Fabric against the registerer it is given:
// New wires it to prometheus.DefaultRegisterer, NewWithRegisterer to the
// caller's registry. Two fabrics registering against the same registry
// collide on metric names, so independent fabrics (as tests require, per
// spec §9) each need their own registry.
type metrics struct {
	linkCount         prometheus.Counter
	nodeCount         prometheus.Counter
	changeCount       prometheus.Counter
	queryCount        prometheus.Counter
	variableLinkCount prometheus.Counter

	evalDuration   prometheus.Histogram
	evalCycleFault prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		linkCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "fabric_link_count",
			Help: "Total harcs ever constructed.",
		}),
		nodeCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "fabric_node_count",
			Help: "Total allocated nodes ever minted.",
		}),
		changeCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "fabric_change_count",
			Help: "Total define operations applied.",
		}),
		queryCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "fabric_query_count",
			Help: "Total query operations served.",
		}),
		variableLinkCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "fabric_variable_link_count",
			Help: "Total define operations that installed a Path body.",
		}),
		evalDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fabric_path_eval_duration_seconds",
			Help:    "Time spent evaluating a normalized path.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		evalCycleFault: factory.NewCounter(prometheus.CounterOpts{
			Name: "fabric_path_eval_cycle_faults_total",
			Help: "Total EvaluationFailed results caused by a detected cycle.",
		}),
	}
}
