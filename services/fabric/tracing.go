// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the package-level span source for Fabric operations, matching
// the teacher's pattern of a package-var Tracer obtained once via
// otel.Tracer (see services/trace/cache/staleness.go's stalenessTracer and
// services/trace/graph/metrics.go's tracer).
var tracer = otel.Tracer("fabric")

// startSpan is a small wrapper kept so call sites read like the rest of
// the package rather than repeating otel boilerplate everywhere.
func startSpan(ctx context.Context, name string, attrs ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, attrs...)
}
