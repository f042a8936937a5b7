// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestGetConstructsExactlyOneHarcPerTail(t *testing.T) {
	f := newTestFabric(t)
	tail := NewTail(Integer(1), Integer(2))

	if _, ok := f.GetIfExists(tail); ok {
		t.Fatal("GetIfExists should report false before any Get")
	}

	var wg sync.WaitGroup
	results := make([]*Harc, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.Get(tail)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent Get(tail) calls produced more than one Harc")
		}
	}
	if f.HarcCount() != 1 {
		t.Errorf("HarcCount() = %d, want 1", f.HarcCount())
	}
}

func TestQueryThroughNullEmitsInformationDiagnostic(t *testing.T) {
	f := newTestFabric(t)
	var got Diagnostic
	f.SetDiagnostics(func(d Diagnostic) { got = d })

	if _, err := f.Query(context.Background(), Null, Integer(1)); err != nil {
		t.Fatalf("Query through null returned an error: %v", err)
	}
	if got.Severity != SeverityInformation {
		t.Errorf("diagnostic severity = %v, want Information", got.Severity)
	}
}

func TestDefineConstThenQueryReturnsHead(t *testing.T) {
	f := newTestFabric(t)
	a, b, head := Integer(1), Integer(2), Integer(42)
	f.DefineConst(a, b, head)

	got, err := f.Query(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != head {
		t.Errorf("Query() = %v, want %v", got, head)
	}

	// Symmetric lookup: {b,a} must resolve to the same harc.
	got2, err := f.Query(context.Background(), b, a)
	if err != nil {
		t.Fatalf("Query(b,a) error = %v", err)
	}
	if got2 != head {
		t.Errorf("Query(b,a) = %v, want %v (tail symmetry)", got2, head)
	}
}

func TestDefinePathQueryFoldsSubPathLeftToRight(t *testing.T) {
	f := newTestFabric(t)
	x, y, w, head := Integer(1), Integer(2), Integer(3), Integer(99)
	z := Integer(4)
	f.DefineConst(x, y, z)    // fold step 1: {x,y} -> z
	f.DefineConst(z, w, head) // fold step 2: {z,w} -> head

	a, b := Integer(10), Integer(20)
	f.Define(a, b, Path{{x, y, w}})

	got, err := f.Query(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != head {
		t.Errorf("Query() = %v, want %v (x~y -> z, then z~w -> head)", got, head)
	}
}

func TestRedefineInvalidatesDependants(t *testing.T) {
	f := newTestFabric(t)
	x, y := Integer(1), Integer(2)
	f.DefineConst(x, y, Integer(100))

	a, b := Integer(10), Integer(20)
	f.Define(a, b, Path{{x, y}})

	first, err := f.Query(context.Background(), a, b)
	if err != nil || first != Integer(100) {
		t.Fatalf("first Query() = %v, %v", first, err)
	}

	f.DefineConst(x, y, Integer(200))

	second, err := f.Query(context.Background(), a, b)
	if err != nil {
		t.Fatalf("second Query() error = %v", err)
	}
	if second != Integer(200) {
		t.Errorf("second Query() = %v, want Integer(200) after redefine invalidated the dependant", second)
	}
}

func TestUniqueMintsDistinctAllocatedNodes(t *testing.T) {
	f := newTestFabric(t)
	seen := map[Node]bool{}
	for i := 0; i < 100; i++ {
		n := f.Unique()
		if n.Variant != VariantAllocated {
			t.Fatalf("Unique() variant = %v, want VariantAllocated", n.Variant)
		}
		if seen[n] {
			t.Fatalf("Unique() produced a duplicate node: %v", n)
		}
		seen[n] = true
	}
}

func TestUniqueRangeReservesContiguousBlock(t *testing.T) {
	f := newTestFabric(t)
	first, last := f.UniqueRange(10)
	if last.Magnitude-first.Magnitude != 9 {
		t.Errorf("UniqueRange(10) span = %d, want 9", last.Magnitude-first.Magnitude)
	}

	next := f.Unique()
	if next.Magnitude != last.Magnitude+1 {
		t.Errorf("Unique() after UniqueRange = %d, want %d (no gaps or overlaps)", next.Magnitude, last.Magnitude+1)
	}
}

func TestUniqueRangeZeroReturnsZeroValues(t *testing.T) {
	first, last := newTestFabric(t).UniqueRange(0)
	if first != (Node{}) || last != (Node{}) {
		t.Errorf("UniqueRange(0) = %v, %v, want zero Nodes", first, last)
	}
}

func TestPartnersOrderedBySignificanceDescending(t *testing.T) {
	f := newTestFabric(t, WithTickResolution(10*time.Millisecond), WithMaintenanceSweep(10*time.Millisecond, 1000))
	center := Integer(0)
	low, mid, high := Integer(1), Integer(2), Integer(3)

	f.DefineConst(center, low, Null)
	f.DefineConst(center, mid, Null)
	f.DefineConst(center, high, Null)

	// Boost significance in ascending order of desirability so the final
	// partner order must differ from construction order.
	for i := 0; i < 1; i++ {
		f.Query(context.Background(), center, low)
	}
	for i := 0; i < 3; i++ {
		f.Query(context.Background(), center, mid)
	}
	for i := 0; i < 5; i++ {
		f.Query(context.Background(), center, high)
	}

	// Partner lists are reordered by the background maintenance sweep, not
	// by Query itself, so wait for the sweep to settle the order.
	deadline := time.Now().Add(5 * time.Second)
	partners := f.Partners(center, 0, 10)
	for time.Now().Before(deadline) && !(len(partners) == 3 && partners[0] == high && partners[2] == low) {
		time.Sleep(10 * time.Millisecond)
		partners = f.Partners(center, 0, 10)
	}
	if len(partners) != 3 {
		t.Fatalf("Partners() returned %d entries, want 3", len(partners))
	}
	if partners[0] != high || partners[2] != low {
		t.Errorf("Partners() = %v, want descending significance [high, mid, low]", partners)
	}
}

func TestPartnersRespectsStartAndLimit(t *testing.T) {
	f := newTestFabric(t)
	center := Integer(0)
	for i := 1; i <= 5; i++ {
		f.DefineConst(center, Integer(uint64(i)), Null)
	}
	all := f.Partners(center, 0, 100)
	if len(all) != 5 {
		t.Fatalf("Partners(0,100) = %d entries, want 5", len(all))
	}
	page := f.Partners(center, 2, 2)
	if len(page) != 2 || page[0] != all[2] || page[1] != all[3] {
		t.Errorf("Partners(2,2) = %v, want %v", page, all[2:4])
	}
}

func TestDrainChangesRemovesWhatItReturns(t *testing.T) {
	f := newTestFabric(t)
	f.DefineConst(Integer(1), Integer(2), Integer(3))
	f.DefineConst(Integer(4), Integer(5), Integer(6))

	if n := f.PendingChangeCount(); n != 2 {
		t.Fatalf("PendingChangeCount() = %d, want 2", n)
	}

	drained := f.DrainChanges(1)
	if len(drained) != 1 {
		t.Fatalf("DrainChanges(1) returned %d entries, want 1", len(drained))
	}
	if n := f.PendingChangeCount(); n != 1 {
		t.Errorf("PendingChangeCount() after draining one = %d, want 1", n)
	}

	rest := f.DrainChanges(10)
	if len(rest) != 1 {
		t.Fatalf("DrainChanges(10) returned %d entries, want 1 remaining", len(rest))
	}
	if n := f.PendingChangeCount(); n != 0 {
		t.Errorf("PendingChangeCount() after draining all = %d, want 0", n)
	}
}

func TestRedefiningSameTailMovesNotDuplicatesChangeEntry(t *testing.T) {
	f := newTestFabric(t)
	f.DefineConst(Integer(1), Integer(2), Integer(3))
	f.DefineConst(Integer(1), Integer(2), Integer(4))

	if n := f.PendingChangeCount(); n != 1 {
		t.Errorf("PendingChangeCount() = %d, want 1 (redefine should reposition, not duplicate)", n)
	}
}
