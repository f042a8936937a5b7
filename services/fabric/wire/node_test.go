// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package wire

import (
	"testing"

	"github.com/dharc-go/fabric/services/fabric"
)

func TestNodeRoundTrip(t *testing.T) {
	cases := []fabric.Node{
		fabric.Null,
		fabric.True,
		fabric.Integer(42),
		fabric.Real(3.14),
		fabric.Character('z'),
		fabric.Allocated(7),
	}
	for _, n := range cases {
		got := FromNode(n).ToNode()
		if got != n {
			t.Errorf("FromNode(%v).ToNode() = %v, want %v", n, got, n)
		}
	}
}

func TestPathRoundTrip(t *testing.T) {
	p := fabric.Path{
		{fabric.Integer(1), fabric.Integer(2), fabric.Integer(3)},
		{fabric.Null},
		{},
	}
	got := FromPath(p).ToPath()
	if len(got) != len(p) {
		t.Fatalf("FromPath(p).ToPath() has %d sub-paths, want %d", len(got), len(p))
	}
	for i := range p {
		if len(got[i]) != len(p[i]) {
			t.Fatalf("sub-path %d length = %d, want %d", i, len(got[i]), len(p[i]))
		}
		for j := range p[i] {
			if got[i][j] != p[i][j] {
				t.Errorf("sub-path %d node %d = %v, want %v", i, j, got[i][j], p[i][j])
			}
		}
	}
}

func TestErrorResponseString(t *testing.T) {
	e := ErrorResponse{Error: "bad request", Code: "INVALID_REQUEST"}
	if got, want := e.String(), "INVALID_REQUEST: bad request"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
