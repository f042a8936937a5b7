// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package wire holds the JSON request/response shapes for the fabric's
// external operation surface (version, unique, query, define_const,
// define, partners, plus subscribe_changes and stats), and the Node wire
// encoding as a two-field record.
package wire

import (
	"fmt"

	"github.com/dharc-go/fabric/services/fabric"
)

// Node is the wire encoding of fabric.Node: a two-field record of
// {variant, magnitude}, chosen directly by spec §6 over the original
// implementation's colon-joined string so the external contract round-trips
// without parsing ambiguity. Variant has no "required" tag: VariantSpecial
// is 0, the zero value, and is also the discriminant for null/true/false —
// the most commonly used node in the spec's scenarios — so "required"
// would reject every special-variant Node at the wire boundary.
type Node struct {
	Variant   uint8  `json:"variant" binding:"min=0,max=4"`
	Magnitude uint64 `json:"magnitude"`
}

// FromNode converts a core Node to its wire form.
func FromNode(n fabric.Node) Node {
	return Node{Variant: uint8(n.Variant), Magnitude: n.Magnitude}
}

// ToNode converts a wire Node back to a core Node. Callers should run
// gin's binding validation first so Variant is already range-checked.
func (n Node) ToNode() fabric.Node {
	return fabric.Node{Variant: fabric.Variant(n.Variant), Magnitude: n.Magnitude}
}

// Path is the wire encoding of a normalized path: the outer slice is the
// set of sub-paths, each inner slice a sequence of wire Nodes (spec §4.5).
type Path [][]Node

// ToPath converts a wire Path to a core fabric.Path.
func (p Path) ToPath() fabric.Path {
	out := make(fabric.Path, len(p))
	for i, sub := range p {
		nodes := make([]fabric.Node, len(sub))
		for j, n := range sub {
			nodes[j] = n.ToNode()
		}
		out[i] = nodes
	}
	return out
}

// FromPath converts a core fabric.Path to its wire form.
func FromPath(p fabric.Path) Path {
	out := make(Path, len(p))
	for i, sub := range p {
		nodes := make([]Node, len(sub))
		for j, n := range sub {
			nodes[j] = FromNode(n)
		}
		out[i] = nodes
	}
	return out
}

// ErrorResponse is the standard error body, matching the teacher's
// gin-handler error shape (services/code_buddy's ErrorResponse).
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (e ErrorResponse) String() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Error)
}
