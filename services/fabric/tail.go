// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

import "fmt"

// Tail is the unordered pair of Nodes identifying a harc, stored canonically
// as (min(a,b), max(a,b)) so {a,b} and {b,a} collapse to one key (spec §3,
// Invariant 1). Self-tails {a,a} are permitted — grounded on the original
// implementation's Fabric::get, which canonicalizes unconditionally with no
// a==b special case (see DESIGN.md, Open Question 2).
//
// Tail is a plain comparable struct, usable directly as a map key.
type Tail struct {
	A, B Node
}

// NewTail canonicalizes a and b into a Tail: A <= B.
func NewTail(a, b Node) Tail {
	if b.Less(a) {
		a, b = b, a
	}
	return Tail{A: a, B: b}
}

// IsSelf reports whether this is a self-tail {a,a}.
func (t Tail) IsSelf() bool {
	return t.A == t.B
}

// Contains reports whether n is one of the tail's two endpoints.
func (t Tail) Contains(n Node) bool {
	return t.A == n || t.B == n
}

// Other returns the endpoint of the tail that is not n. For a self-tail,
// Other(a) returns a (spec §4.1).
func (t Tail) Other(n Node) Node {
	if t.A == n {
		return t.B
	}
	return t.A
}

// Less gives Tail a total order (A first, then B), used for deterministic
// lock ordering when two Harcs must be locked together (see harc.go).
func (t Tail) Less(u Tail) bool {
	if t.A != u.A {
		return t.A.Less(u.A)
	}
	return t.B.Less(u.B)
}

func (t Tail) String() string {
	return fmt.Sprintf("{%s,%s}", t.A, t.B)
}
