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
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/dharc-go/fabric/pkg/logging"
)

// partnerEntry is one node in a per-node partner list, kept sorted by
// descending significance (spec §4.3). container/list is used rather than
// a slice specifically because spec §9's "partner index reordering" design
// note flags cursor-invalidation as a correctness hazard: list.Element
// pointers remain valid across unrelated insertions and removals in the
// same list, which is exactly what Harc.partnerCursors needs to stay
// correct without a full reorder on every mutation (grounded on the same
// container/list usage in services/trace/graph/lru.go's LRUCache).
type partnerEntry struct {
	node Node
	harc *Harc
}

// Fabric is the content-addressed associative store: the harc table,
// partner indices, change log, counters, and tick clock (spec §3, §4.3).
// A Fabric is a value constructed explicitly and passed to callers, never
// a package-level singleton (spec §9) — tests instantiate independent
// fabrics freely.
type Fabric struct {
	cfg Config

	mu    sync.RWMutex
	harcs map[Tail]*Harc

	partnerMu sync.Mutex
	partners  map[Node]*list.List // Node -> *list.List of *partnerEntry, descending significance

	changeMu  sync.Mutex
	changeLog *list.List // *list.List of *changeEntry, highest-significance-first

	nodeCounter atomic.Uint64
	clock       *clock

	sfGroup singleflight.Group

	diagnostics DiagnosticFunc
	logger      *logging.Logger
	metrics     *metrics

	sweepLimiter *rate.Limiter
	sweepStop    chan struct{}
	sweepDone    chan struct{}
}

// New constructs an empty Fabric and starts its tick clock and background
// maintenance sweep (spec §3 "The process begins with an empty fabric").
// Callers should call Close when done to stop the background goroutines.
func New(opts ...Option) *Fabric {
	return NewWithRegisterer(prometheus.DefaultRegisterer, opts...)
}

// NewWithRegisterer is like New but registers metrics against reg instead
// of the global default registry — used by tests that construct many
// independent fabrics in the same process.
func NewWithRegisterer(reg prometheus.Registerer, opts ...Option) *Fabric {
	cfg := buildConfig(opts...)
	f := &Fabric{
		cfg:          cfg,
		harcs:        make(map[Tail]*Harc),
		partners:     make(map[Node]*list.List),
		changeLog:    list.New(),
		clock:        newClock(cfg.TickResolution),
		logger:       logging.Default(),
		metrics:      newMetrics(reg),
		sweepLimiter: rate.NewLimiter(rate.Limit(cfg.MaintenanceSweepRate), int(cfg.MaintenanceSweepRate)+1),
		sweepStop:    make(chan struct{}),
		sweepDone:    make(chan struct{}),
	}
	f.clock.start()
	go f.maintenanceSweep()
	return f
}

// Close stops the fabric's background goroutines. It does not clear state.
func (f *Fabric) Close() {
	f.clock.Stop()
	close(f.sweepStop)
	<-f.sweepDone
}

// SetDiagnostics installs the callback that receives Warning/Information
// events (spec §7). A nil func disables diagnostics.
func (f *Fabric) SetDiagnostics(fn DiagnosticFunc) {
	f.diagnostics = fn
}

// Config returns the fabric's effective configuration.
func (f *Fabric) Config() Config { return f.cfg }
func (f *Fabric) config() Config { return f.cfg }
func (f *Fabric) now() uint64    { return f.clock.Now() }
func (f *Fabric) onQuery()       { f.metrics.queryCount.Inc() }

// Get looks up or constructs the Harc for tail (spec §4.3's get): a
// read-locked fast path for the common case of an existing key, and a
// singleflight-guarded slow path for construction so two concurrent
// creators of the same missing tail produce exactly one Harc (Invariant 2,
// spec §5).
func (f *Fabric) Get(tail Tail) *Harc {
	f.mu.RLock()
	if h, ok := f.harcs[tail]; ok {
		f.mu.RUnlock()
		return h
	}
	f.mu.RUnlock()

	v, _, _ := f.sfGroup.Do(tail.String(), func() (any, error) {
		f.mu.Lock()
		if h, ok := f.harcs[tail]; ok {
			f.mu.Unlock()
			return h, nil
		}
		h := newHarc(tail)
		f.harcs[tail] = h
		f.mu.Unlock()

		f.registerPartners(h)
		f.metrics.linkCount.Inc()
		return h, nil
	})
	return v.(*Harc)
}

// GetIfExists looks up a Harc without constructing one (spec §4.3).
func (f *Fabric) GetIfExists(tail Tail) (*Harc, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	h, ok := f.harcs[tail]
	return h, ok
}

// Query resolves Fabric.Get(tail).query(), incrementing query_count (spec
// §4.3). a==null or b==null is well-defined and only a diagnostic, not an
// error (spec §4.5, §7; grounded on original_source's
// arch/lib/src/script.cpp emitting an Information on "querying a 'null'
// node" and proceeding).
func (f *Fabric) Query(ctx context.Context, a, b Node) (Node, error) {
	if a.IsNull() || b.IsNull() {
		f.emit(Diagnostic{
			Severity: SeverityInformation,
			Message:  "querying through a null node",
			Tail:     NewTail(a, b),
		})
	}
	ctx, span := startSpan(ctx, "Fabric.Query")
	defer span.End()
	h := f.Get(NewTail(a, b))
	return h.query(ctx, f)
}

// DefineConst implements define_const (spec §6): replace the tail's head
// with a constant. Every mutating operation logs unconditionally — the
// original implementation's Fabric::logChange is called from every define
// overload with no flag gate (DESIGN.md, Open Question 3).
func (f *Fabric) DefineConst(a, b, head Node) {
	h := f.Get(NewTail(a, b))
	h.define(head)
	f.metrics.changeCount.Inc()
	f.logChange(h)
}

// Define implements define with a Path body (spec §6).
func (f *Fabric) Define(a, b Node, p Path) {
	h := f.Get(NewTail(a, b))
	h.definePath(p)
	f.metrics.changeCount.Inc()
	f.metrics.variableLinkCount.Inc()
	f.logChange(h)
}

// Unique mints one fresh allocated Node (spec §4.3, §6).
func (f *Fabric) Unique() Node {
	id := f.nodeCounter.Add(1)
	f.metrics.nodeCount.Inc()
	return Allocated(id)
}

// UniqueRange atomically reserves n contiguous allocated Node identities,
// returning the first and last (inclusive). Grounded directly on the
// original implementation's Fabric::unique(int count, Node &first, Node
// &last) (SPEC_FULL.md SUPPLEMENTED FEATURES point 1).
func (f *Fabric) UniqueRange(n uint64) (first, last Node) {
	if n == 0 {
		return Node{}, Node{}
	}
	end := f.nodeCounter.Add(n)
	start := end - n + 1
	f.metrics.nodeCount.Add(float64(n))
	return Allocated(start), Allocated(end)
}

// Partners returns up to limit entries from partners[n], starting at
// offset start, in descending significance order (spec §4.3).
func (f *Fabric) Partners(n Node, start, limit int) []Node {
	f.partnerMu.Lock()
	defer f.partnerMu.Unlock()

	l, ok := f.partners[n]
	if !ok {
		return nil
	}
	out := make([]Node, 0, limit)
	i := 0
	for e := l.Front(); e != nil && len(out) < limit; e = e.Next() {
		if i < start {
			i++
			continue
		}
		out = append(out, e.Value.(*partnerEntry).node)
		i++
	}
	return out
}

// DrainChanges returns and removes up to limit entries from the change
// log, highest-significance first (spec §4.3).
func (f *Fabric) DrainChanges(limit int) []Tail {
	f.changeMu.Lock()
	defer f.changeMu.Unlock()

	out := make([]Tail, 0, limit)
	for len(out) < limit {
		e := f.changeLog.Front()
		if e == nil {
			break
		}
		f.changeLog.Remove(e)
		out = append(out, e.Value.(*changeEntry).tail)
	}
	return out
}

// HarcCount returns the number of harcs currently in the table.
func (f *Fabric) HarcCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.harcs)
}

// NodeCount returns the number of allocated-variant nodes minted so far.
func (f *Fabric) NodeCount() uint64 { return f.nodeCounter.Load() }

// Tick returns the current tick count (spec §3).
func (f *Fabric) Tick() uint64 { return f.now() }

// PendingChangeCount reports how many entries sit in the change log
// without draining them, for stats reporting.
func (f *Fabric) PendingChangeCount() int {
	f.changeMu.Lock()
	defer f.changeMu.Unlock()
	return f.changeLog.Len()
}

func (f *Fabric) emit(d Diagnostic) {
	if f.logger != nil {
		f.logger.Debug(d.Message, "severity", d.Severity.String(), "tail", d.Tail.String())
	}
	if f.diagnostics != nil {
		f.diagnostics(d)
	}
}

// changeEntry is one change-log slot: the mutated tail, plus the harc it
// came from so insertChangeLocked can find an existing entry and score
// neighbours without a table lookup.
type changeEntry struct {
	tail Tail
	harc *Harc
}

func (f *Fabric) logChange(h *Harc) {
	f.changeMu.Lock()
	f.insertChangeLocked(h)
	f.changeMu.Unlock()
}

// insertChangeLocked inserts h's tail into the change log ordered by h's
// current significance, highest first (spec §4.3's drain_changes
// contract). Caller holds f.changeMu.
func (f *Fabric) insertChangeLocked(h *Harc) {
	sig := h.Significance(f.now(), f.cfg)
	entry := &changeEntry{tail: h.tail, harc: h}
	for e := f.changeLog.Front(); e != nil; e = e.Next() {
		existing := e.Value.(*changeEntry)
		if existing.harc == h {
			// Already logged and not yet drained: move it to its
			// freshly-scored position instead of duplicating.
			f.changeLog.Remove(e)
			break
		}
	}
	for e := f.changeLog.Front(); e != nil; e = e.Next() {
		if e.Value.(*changeEntry).harc.Significance(f.now(), f.cfg) < sig {
			f.changeLog.InsertBefore(entry, e)
			return
		}
	}
	f.changeLog.PushBack(entry)
}

// registerPartners inserts a newly constructed harc into both endpoints'
// partner indices (spec §4.3's get, "skipping one side for self-tails").
func (f *Fabric) registerPartners(h *Harc) {
	f.partnerMu.Lock()
	defer f.partnerMu.Unlock()

	a, b := h.tail.A, h.tail.B
	h.partnerCursors[0] = f.insertPartnerLocked(a, b, h)
	if !h.tail.IsSelf() {
		h.partnerCursors[1] = f.insertPartnerLocked(b, a, h)
	} else {
		h.partnerCursors[1] = f.insertPartnerLocked(a, b, h)
	}
}

func (f *Fabric) insertPartnerLocked(owner, other Node, h *Harc) *list.Element {
	l, ok := f.partners[owner]
	if !ok {
		l = list.New()
		f.partners[owner] = l
	}
	entry := &partnerEntry{node: other, harc: h}
	sig := h.Significance(f.now(), f.cfg)
	for e := l.Front(); e != nil; e = e.Next() {
		existing := e.Value.(*partnerEntry).harc
		if h == existing {
			continue
		}
		if existing.Significance(f.now(), f.cfg) < sig {
			return l.InsertBefore(entry, e)
		}
	}
	return l.PushBack(entry)
}

// updatePartners removes h from both partner indices at its stored cursors
// and reinserts at h's current significance (spec §4.3), called after
// significance drifts past Config.PartnerReorderThreshold.
func (f *Fabric) updatePartners(h *Harc) {
	f.partnerMu.Lock()
	defer f.partnerMu.Unlock()

	a, b := h.tail.A, h.tail.B
	if l, ok := f.partners[a]; ok && h.partnerCursors[0] != nil {
		l.Remove(h.partnerCursors[0])
	}
	if !h.tail.IsSelf() {
		if l, ok := f.partners[b]; ok && h.partnerCursors[1] != nil {
			l.Remove(h.partnerCursors[1])
		}
	} else if l, ok := f.partners[a]; ok && h.partnerCursors[1] != nil {
		l.Remove(h.partnerCursors[1])
	}

	h.partnerCursors[0] = f.insertPartnerLocked(a, b, h)
	if !h.tail.IsSelf() {
		h.partnerCursors[1] = f.insertPartnerLocked(b, a, h)
	} else {
		h.partnerCursors[1] = f.insertPartnerLocked(a, b, h)
	}
}

// maintenanceSweep is the background visitor that batches significance
// reordering (spec §4.4): it periodically walks every harc in the table
// and calls updatePartners for any whose partnerDrift exceeds
// PartnerReorderThreshold. Throttled by golang.org/x/time/rate so the
// sweep stays best-effort without spinning.
func (f *Fabric) maintenanceSweep() {
	defer close(f.sweepDone)
	ticker := newClock(f.cfg.MaintenanceSweepInterval)
	ticker.start()
	defer ticker.Stop()

	var lastTick uint64
	poll := time.NewTicker(f.cfg.MaintenanceSweepInterval / 4)
	defer poll.Stop()
	for {
		select {
		case <-f.sweepStop:
			return
		case <-poll.C:
		}
		cur := ticker.Now()
		if cur == lastTick {
			continue
		}
		lastTick = cur
		f.sweepOnce()
	}
}

func (f *Fabric) sweepOnce() {
	f.mu.RLock()
	harcs := make([]*Harc, 0, len(f.harcs))
	for _, h := range f.harcs {
		harcs = append(harcs, h)
	}
	f.mu.RUnlock()

	now := f.now()
	for _, h := range harcs {
		select {
		case <-f.sweepStop:
			return
		default:
		}
		if !f.sweepLimiter.Allow() {
			return
		}
		drift := f.partnerDrift(h, now)
		if drift > f.cfg.PartnerReorderThreshold {
			f.updatePartners(h)
		}
	}
}

// partnerDrift returns h's current decayed significance, or 0 when h was
// queried in the current tick. It does not compare against the value h
// was inserted with or against its neighbours, so every harc whose
// significance exceeds the threshold is reinserted on each sweep. This
// keeps the sweep cheap, consistent with spec §4.4 describing the
// reordering as best-effort.
func (f *Fabric) partnerDrift(h *Harc, now uint64) float64 {
	h.mu.RLock()
	last := h.lastQueryTick
	h.mu.RUnlock()
	if now <= last {
		return 0
	}
	return h.Significance(now, f.cfg)
}
