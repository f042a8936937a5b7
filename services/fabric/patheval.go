// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// evalState is shared across one top-level Harc.query()'s entire
// recursive evaluation, including its parallel sub-path goroutines: the
// in-progress set used for cycle detection (spec §4.5, §5 "Cycle
// detection uses a per-thread in-progress set, not a global lock") and
// the current recursion depth (spec §5's bounded-recursion safeguard).
// Grounded on the visited/recursion-stack pair in
// services/trace/dag/node.go's detectCycles, generalized from a
// single-goroutine DFS to one shared, mutex-protected set usable by
// errgroup's concurrent sub-path goroutines.
type evalState struct {
	mu         sync.Mutex
	inProgress map[Tail]struct{}
	depth      int
	maxDepth   int
}

func newEvalState(maxDepth int) *evalState {
	return &evalState{inProgress: make(map[Tail]struct{}), maxDepth: maxDepth}
}

// enter records tail as in-progress for the duration of its evaluation.
// Returns an error if tail is already in progress (cycle) or the
// recursion bound is exceeded, and a leave func to call via defer.
func (s *evalState) enter(tail Tail) (leave func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inProgress[tail]; ok {
		return nil, evaluationFailed(tail, ErrCycle)
	}
	if s.depth >= s.maxDepth {
		return nil, evaluationFailed(tail, ErrRecursionLimit)
	}
	s.inProgress[tail] = struct{}{}
	s.depth++
	return func() {
		s.mu.Lock()
		delete(s.inProgress, tail)
		s.depth--
		s.mu.Unlock()
	}, nil
}

// evalStateKey is the context key carrying the in-flight evalState, so a
// path evaluation that recurses back into Fabric through Harc.query (a
// cycle, direct or indirect) shares the same in-progress set and
// recursion counter rather than each nested evaluatePath call starting
// from a clean slate — which would let a self-referential or mutually
// referential Path definition recurse the Go call stack unbounded instead
// of surfacing ErrCycle/ErrRecursionLimit (spec §4.5, §5).
type evalStateKey struct{}

// evaluatePath resolves a normalized path on behalf of dependant harc d
// (spec §4.5): the outer slice's sub-paths may run in parallel via
// errgroup, each inner slice folding left via Fabric.Query. Empty
// sub-paths yield null; single-element sub-paths yield that element
// unchanged. The per-sub-path results are then themselves folded left
// via another Fabric.Query pass — spec §8's concrete scenario 2 is
// explicit that define(5,6,[[1,2],[3,4]]) means
// query(5,6) == query(query(1,2), query(3,4)), not merely the last
// sub-path's value.
func (f *Fabric) evaluatePath(ctx context.Context, d *Harc, p Path) (Node, error) {
	ctx, span := startSpan(ctx, "Fabric.evaluatePath")
	defer span.End()
	start := time.Now()
	defer func() { f.metrics.evalDuration.Observe(time.Since(start).Seconds()) }()

	state, ok := ctx.Value(evalStateKey{}).(*evalState)
	if !ok {
		state = newEvalState(f.cfg.MaxRecursionDepth)
		ctx = context.WithValue(ctx, evalStateKey{}, state)
	}
	results := make([]Node, len(p))

	g, gctx := errgroup.WithContext(ctx)
	for i, subPath := range p {
		i, subPath := i, subPath
		g.Go(func() error {
			n, err := f.foldNodes(gctx, d, subPath, state)
			if err != nil {
				return err
			}
			results[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrCycle) {
			f.metrics.evalCycleFault.Inc()
		}
		return Node{}, err
	}

	return f.foldNodes(ctx, d, results, state)
}

// evaluateLinear folds a single sub-path left-to-right:
// fold(n0, n1, n2, ...) = Fabric.query({ni, nj}) repeated (spec §4.5).
func (f *Fabric) evaluateLinear(ctx context.Context, d *Harc, subPath []Node, state *evalState) (Node, error) {
	return f.foldNodes(ctx, d, subPath, state)
}

// foldNodes folds nodes left-to-right via Fabric.query, used both for a
// single sub-path's elements and for combining the result vector of a
// multi-sub-path Path (spec §4.5, §8 scenario 2). Every intermediate
// harc visited on d's behalf registers d as a dependant before the query
// so future invalidation reaches d.
func (f *Fabric) foldNodes(ctx context.Context, d *Harc, nodes []Node, state *evalState) (Node, error) {
	switch len(nodes) {
	case 0:
		return Null, nil
	case 1:
		return nodes[0], nil
	}

	acc := nodes[0]
	for _, next := range nodes[1:] {
		tail := NewTail(acc, next)
		if acc.IsNull() || next.IsNull() {
			f.emit(Diagnostic{
				Severity: SeverityInformation,
				Message:  "evaluating path through a null node",
				Tail:     tail,
			})
		}

		leave, err := state.enter(tail)
		if err != nil {
			return Node{}, err
		}

		h := f.Get(tail)
		addDependant(h, d)

		result, qerr := h.query(ctx, f)
		leave()
		if qerr != nil {
			return Node{}, qerr
		}
		acc = result
	}
	return acc, nil
}
