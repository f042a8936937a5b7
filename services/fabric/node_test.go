// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

import (
	"math"
	"testing"
)

func TestNodeConstructors(t *testing.T) {
	if got := Integer(42); got.Variant != VariantInteger || got.Magnitude != 42 {
		t.Errorf("Integer(42) = %+v", got)
	}
	if got := Character('x'); got.Rune() != 'x' {
		t.Errorf("Character('x').Rune() = %q, want 'x'", got.Rune())
	}
	if got := Real(3.5); got.Float() != 3.5 {
		t.Errorf("Real(3.5).Float() = %v, want 3.5", got.Float())
	}
	if got := Allocated(7); got.Variant != VariantAllocated || got.Magnitude != 7 {
		t.Errorf("Allocated(7) = %+v", got)
	}
}

func TestNodeRealRoundTripsBitPattern(t *testing.T) {
	for _, v := range []float64{0, -0.0, 1, -1, math.Inf(1), math.Inf(-1), math.NaN(), math.MaxFloat64} {
		n := Real(v)
		got := n.Float()
		if math.IsNaN(v) {
			if !math.IsNaN(got) {
				t.Errorf("Real(NaN).Float() = %v, want NaN", got)
			}
			continue
		}
		if got != v {
			t.Errorf("Real(%v).Float() = %v", v, got)
		}
	}
}

func TestNodeIsNull(t *testing.T) {
	if !Null.IsNull() {
		t.Error("Null.IsNull() = false")
	}
	if True.IsNull() || False.IsNull() {
		t.Error("True/False should not be null")
	}
	if Integer(0).IsNull() {
		t.Error("Integer(0) should not equal Null despite a zero magnitude")
	}
}

func TestNodeLessAndCompare(t *testing.T) {
	cases := []struct {
		a, b Node
		want int
	}{
		{Null, True, -1},
		{Integer(1), Integer(2), -1},
		{Integer(2), Integer(1), 1},
		{Integer(5), Integer(5), 0},
		{Integer(1), Character('a'), -1}, // variant order wins over magnitude
	}
	for _, c := range cases {
		if got := c.a.Compare(c.b); got != c.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", c.a, c.b, got, c.want)
		}
		if want := c.want < 0; c.a.Less(c.b) != want {
			t.Errorf("%v.Less(%v) = %v, want %v", c.a, c.b, c.a.Less(c.b), want)
		}
	}
}

func TestNodeStringDistinguishesVariants(t *testing.T) {
	seen := map[string]bool{}
	for _, n := range []Node{Null, True, False, Integer(1), Real(1), Character('1'), Allocated(1)} {
		s := n.String()
		if seen[s] {
			t.Errorf("node %+v produced a String() collision: %q", n, s)
		}
		seen[s] = true
	}
}
