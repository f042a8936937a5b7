// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// newTestFabric builds a Fabric against a private registry, so that
// parallel test functions constructing their own fabrics never collide on
// promauto metric names the way a shared prometheus.DefaultRegisterer
// would (spec §9: "a Fabric is a value, never a package-level singleton").
func newTestFabric(t *testing.T, opts ...Option) *Fabric {
	t.Helper()
	f := NewWithRegisterer(prometheus.NewRegistry(), opts...)
	t.Cleanup(f.Close)
	return f
}
