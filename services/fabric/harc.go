// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

import (
	"container/list"
	"context"
	"sync"
)

// flags is the bitset {logged, has-meta, defined, dirty} carried by every
// Harc (spec §3). The "dirty" bit doubles as the visited-marker during
// depth-first invalidation (spec §4.2, §9 "cyclic ownership").
type flags uint8

const (
	flagLogged flags = 1 << iota
	flagHasMeta
	flagDefined
	flagDirty
)

func (f flags) has(bit flags) bool { return f&bit != 0 }

// Harc is a relation cell: a canonicalized Tail, a body that is either a
// constant head or a computed Definition, significance bookkeeping, and
// the dependant-tracking needed for lazy cache invalidation (spec §3,
// §4.2). The locking discipline — a per-struct sync.RWMutex guarding the
// mutable fields, released before recursing into evaluation — follows the
// teacher's DirtyTracker/LRUCache pattern (services/trace/cache,
// services/trace/graph), generalized to the fabric's own state shape.
type Harc struct {
	tail Tail

	mu         sync.RWMutex
	flags      flags
	definition Definition // Kind selects Constant vs Path
	cachedHead Node       // valid for Path bodies when !dirty

	// dependants holds harcs whose cached evaluation referenced this
	// harc; they must be invalidated when this harc changes (spec §3).
	dependants map[*Harc]struct{}

	// registeredWith holds the harcs this harc registered itself as a
	// dependant of during its last evaluation. On invalidation this harc
	// removes itself from every one of them — spec §4.2's "once d is
	// marked dirty, d is removed from h.dependants for every h d
	// touched" — then clears this set so re-evaluation re-registers.
	registeredWith map[*Harc]struct{}

	lastQueryTick uint64
	sig           significance

	// partnerCursors[0] is this harc's stable position in
	// Fabric.partners[tail.A]; partnerCursors[1] is its position in
	// Fabric.partners[tail.B]. For a self-tail both point into the same
	// node's list but are distinct elements (spec §4.1).
	partnerCursors [2]*list.Element
}

func newHarc(tail Tail) *Harc {
	return &Harc{
		tail:           tail,
		definition:     ConstantDefinition(Null),
		dependants:     make(map[*Harc]struct{}),
		registeredWith: make(map[*Harc]struct{}),
	}
}

// Tail returns the harc's canonical key.
func (h *Harc) Tail() Tail { return h.tail }

// TailContains reports whether n is one of this harc's two endpoints.
func (h *Harc) TailContains(n Node) bool { return h.tail.Contains(n) }

// TailOther returns the endpoint that is not n (spec §4.2).
func (h *Harc) TailOther(n Node) Node { return h.tail.Other(n) }

// Significance returns the current decayed strength without mutating it.
func (h *Harc) Significance(now uint64, cfg Config) float64 {
	return h.sig.decayed(now, cfg.SignificanceHalfLife)
}

// SecondsSinceLastQuery derives elapsed wall-clock time from the tick
// difference and the configured tick resolution (spec §4.2).
func (h *Harc) SecondsSinceLastQuery(now uint64, cfg Config) float64 {
	h.mu.RLock()
	last := h.lastQueryTick
	h.mu.RUnlock()
	if now <= last {
		return 0
	}
	return float64(now-last) * cfg.TickResolution.Seconds()
}

// addDependant idempotently registers d as depending on h, and records the
// reverse edge on d so invalidation can unregister it later. Lock ordering
// is by Tail to avoid deadlock between two harcs registering with each
// other concurrently (h's tail is never equal to d's tail, since harcs are
// 1:1 with canonical tails).
func addDependant(h, d *Harc) {
	if h == d {
		return
	}
	first, second := h, d
	if d.tail.Less(h.tail) {
		first, second = d, h
	}
	first.mu.Lock()
	second.mu.Lock()
	h.dependants[d] = struct{}{}
	d.registeredWith[h] = struct{}{}
	second.mu.Unlock()
	first.mu.Unlock()
}

// invalidate marks h dirty and recursively invalidates its dependants,
// using the dirty flag as the visited-marker that terminates cycles in the
// dependency graph (spec §4.2). h's own lock must NOT be held by the
// caller; invalidate takes and releases locks harc-by-harc as it walks.
func (h *Harc) invalidate() {
	h.mu.Lock()
	if h.flags.has(flagDirty) {
		h.mu.Unlock()
		return
	}
	h.flags |= flagDirty
	deps := make([]*Harc, 0, len(h.dependants))
	for d := range h.dependants {
		deps = append(deps, d)
	}
	registered := make([]*Harc, 0, len(h.registeredWith))
	for r := range h.registeredWith {
		registered = append(registered, r)
	}
	h.registeredWith = make(map[*Harc]struct{})
	h.mu.Unlock()

	// Unregister from every harc this one had registered with, draining
	// the dependant edge so it cannot be stale-but-present (spec §4.2).
	for _, r := range registered {
		if r == h {
			continue
		}
		r.mu.Lock()
		delete(r.dependants, h)
		r.mu.Unlock()
	}

	for _, d := range deps {
		d.invalidate()
	}
}

// define replaces the body with a Constant, per spec §4.2's define(Node).
func (h *Harc) define(n Node) {
	h.mu.Lock()
	h.definition = ConstantDefinition(n)
	h.flags &^= flagDirty
	h.flags |= flagLogged
	h.mu.Unlock()
	h.propagateRedefine()
}

// definePath replaces the body with a Path Definition, per spec §4.2's
// define(Path): dirty and defined are both set.
func (h *Harc) definePath(p Path) {
	h.mu.Lock()
	h.definition = PathDefinition(p)
	h.flags |= flagDefined | flagDirty | flagLogged
	h.mu.Unlock()
	h.propagateRedefine()
}

// propagateRedefine handles the invalidation fallout of a define() call on
// h itself (spec §4.2): h is no longer evaluating whatever it previously
// registered with, so those upstream edges are dropped; every downstream
// dependant must be invalidated. h's own dirty bit is left exactly as the
// caller set it (clear for Constant, set for Path) — h is the origin of
// the change, not a node being visited during the recursive walk, so it
// does not go through invalidate()'s visited-bit logic itself.
func (h *Harc) propagateRedefine() {
	h.mu.Lock()
	registered := make([]*Harc, 0, len(h.registeredWith))
	for r := range h.registeredWith {
		registered = append(registered, r)
	}
	h.registeredWith = make(map[*Harc]struct{})
	deps := make([]*Harc, 0, len(h.dependants))
	for d := range h.dependants {
		deps = append(deps, d)
	}
	h.mu.Unlock()

	for _, r := range registered {
		if r == h {
			continue
		}
		r.mu.Lock()
		delete(r.dependants, h)
		r.mu.Unlock()
	}

	for _, d := range deps {
		d.invalidate()
	}
}

// evaluator is the subset of Fabric's surface the path evaluator needs,
// kept as an interface so harc.go doesn't import store.go's full type
// graph — the two are in the same package, so this is purely for
// readability at the call boundary.
type evaluator interface {
	evaluatePath(ctx context.Context, d *Harc, p Path) (Node, error)
	now() uint64
	config() Config
	onQuery()
}

// query resolves the harc's head (spec §4.2): Constant bodies return
// immediately; Path bodies return the cached head unless dirty, otherwise
// re-evaluate, cache, and clear dirty. Every call updates
// lastQueryTick and bumps significance.
func (h *Harc) query(ctx context.Context, e evaluator) (Node, error) {
	e.onQuery()
	cfg := e.config()
	now := e.now()

	h.mu.Lock()
	h.lastQueryTick = now
	h.mu.Unlock()
	h.sig.boost(now, cfg.SignificanceHalfLife, cfg.SignificanceBoost)

	h.mu.RLock()
	kind := h.definition.Kind
	if kind == DefinitionConstant {
		head := h.definition.Constant
		h.mu.RUnlock()
		return head, nil
	}
	dirty := h.flags.has(flagDirty)
	cached := h.cachedHead
	path := h.definition.Path
	h.mu.RUnlock()

	if !dirty {
		return cached, nil
	}

	head, err := e.evaluatePath(ctx, h, path)
	if err != nil {
		// Evaluation failed: cache not updated, dirty remains set
		// (spec §4.2).
		return Node{}, evaluationFailed(h.tail, err)
	}

	h.mu.Lock()
	h.cachedHead = head
	h.flags &^= flagDirty
	h.mu.Unlock()
	return head, nil
}
